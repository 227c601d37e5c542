package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"pollkeeper/contexts/polling/poll-store/ports"
	"pollkeeper/internal/platform/config"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":       ":8080",
		"9000":   ":9000",
		":7000":  ":7000",
		" 8081 ": ":8081",
	}
	for input, want := range cases {
		if got := normalizeAddr(input); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestOpenRecordStoreMemoryBackend(t *testing.T) {
	tables := ports.NewTables("polls")
	backend, err := openRecordStore(context.Background(), config.Config{StoreBackend: config.BackendMemory}, tables, slog.Default())
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	ctx := context.Background()
	if err := backend.store.PutItem(ctx, tables.Polls, ports.Item{ports.AttrID: "p1", "Question": "Q?"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	item, found, err := backend.store.GetItem(ctx, tables.Polls, "p1")
	if err != nil || !found {
		t.Fatalf("expected stored item, found=%v err=%v", found, err)
	}
	if item.Key() != "p1" || item["Question"] != "Q?" {
		t.Fatalf("unexpected item %+v", item)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenRecordStoreRejectsUnknownBackend(t *testing.T) {
	_, err := openRecordStore(context.Background(), config.Config{StoreBackend: "dynamo"}, ports.NewTables("polls"), slog.Default())
	if err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}

func TestRecordBackendCloseJoinsErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	var order []string
	backend := recordBackend{closers: []func() error{
		func() error { order = append(order, "a"); return first },
		func() error { order = append(order, "b"); return second },
	}}
	err := backend.Close()
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected both errors, got %v", err)
	}
	if len(order) != 2 || order[0] != "b" {
		t.Fatalf("expected reverse close order, got %v", order)
	}
}

func TestOpenPublisherDisabled(t *testing.T) {
	bus, publisher, err := openPublisher(config.Config{}, slog.Default())
	if err != nil || bus != nil || publisher != nil {
		t.Fatalf("expected no publisher when disabled, got %v %v %v", bus, publisher, err)
	}
}
