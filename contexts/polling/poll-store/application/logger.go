package application

import "log/slog"

// ModuleName is the "module" attribute on every log line of this context.
const ModuleName = "polling/poll-store"

// ResolveLogger returns logger, or the process default when nil.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
