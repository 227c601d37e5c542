package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "pollkeeper"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a layer of a context module may import besides the
// standard library. Prefixes are relative to the module under check unless
// they start with modulePath.
type layerRule struct {
	allowed    []string
	thirdParty bool
}

var layerRules = map[string]layerRule{
	"domain":      {allowed: []string{"domain"}},
	"ports":       {allowed: []string{"ports", "domain", modulePath + "/contracts"}},
	"application": {allowed: []string{"application", "domain", "ports", modulePath + "/contracts"}},
	"transport":   {allowed: []string{"transport"}},
	"adapters":    {allowed: []string{"adapters", "application", "domain", "ports", "transport"}, thirdParty: true},
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		normalized := filepath.ToSlash(path)
		parts := strings.Split(normalized, "/")
		if len(parts) < 3 || parts[0] != "contexts" {
			return nil
		}
		modulePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		layer := ""
		if len(parts) > 4 {
			layer = parts[3]
		}
		violations = append(violations, validateFile(path, normalized, layer, modulePrefix)...)
		return nil
	})

	return violations
}

func validateFile(path string, normalizedPath string, layer string, modulePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalizedPath, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	report := func(line int, importPath string, rule string) {
		violations = append(violations, violation{
			File:   normalizedPath,
			Line:   line,
			Import: importPath,
			Rule:   rule,
		})
	}

	rule, ruled := layerRules[layer]
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, modulePrefix) {
			report(line, importPath, "cross-module imports are forbidden")
			continue
		}
		if !ruled || isStdlib(importPath) {
			continue
		}
		if hasPrefix(importPath, modulePath+"/internal") {
			report(line, importPath, layer+" must not import runtime infrastructure")
			continue
		}
		if !hasPrefix(importPath, modulePath) {
			if !rule.thirdParty {
				report(line, importPath, layer+" must not import third-party packages")
			}
			continue
		}
		if !isAllowed(importPath, modulePrefix, rule.allowed) {
			report(line, importPath, layer+" import is outside explicit allowlist")
		}
	}
	return violations
}

func isAllowed(importPath string, modulePrefix string, allowed []string) bool {
	for _, prefix := range allowed {
		if !hasPrefix(prefix, modulePath) {
			prefix = modulePrefix + "/" + prefix
		}
		if hasPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
