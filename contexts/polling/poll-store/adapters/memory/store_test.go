package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	"pollkeeper/contexts/polling/poll-store/ports"
)

func TestUpdateItemUpsertsPartialRecord(t *testing.T) {
	tables := ports.NewTables("polls")
	store := NewStore(tables)
	ctx := context.Background()

	if err := store.UpdateItem(ctx, tables.Polls, "p1", ports.Item{"Closed": true}); err != nil {
		t.Fatalf("update: %v", err)
	}
	item, found, err := store.GetItem(ctx, tables.Polls, "p1")
	if err != nil || !found {
		t.Fatalf("expected created item, found=%v err=%v", found, err)
	}
	if len(item) != 2 || item.Key() != "p1" || item["Closed"] != true {
		t.Fatalf("unexpected item %v", item)
	}

	if err := store.UpdateItem(ctx, tables.Polls, "p1", ports.Item{ports.AttrID: "other", "Question": "Q"}); err != nil {
		t.Fatalf("second update: %v", err)
	}
	item, _, _ = store.GetItem(ctx, tables.Polls, "p1")
	if item.Key() != "p1" || item["Closed"] != true || item["Question"] != "Q" {
		t.Fatalf("expected merged item keeping its key, got %v", item)
	}
}

func TestStoredItemsAreIsolatedFromCallers(t *testing.T) {
	tables := ports.NewTables("polls")
	store := NewStore(tables)
	ctx := context.Background()
	choices := []string{"A"}

	if err := store.PutItem(ctx, tables.Polls, ports.Item{ports.AttrID: "p1", "Choices": choices}); err != nil {
		t.Fatalf("put: %v", err)
	}
	choices[0] = "mutated"
	item, _, _ := store.GetItem(ctx, tables.Polls, "p1")
	if item["Choices"].([]string)[0] != "A" {
		t.Fatalf("expected stored copy unaffected by caller mutation")
	}
	item["Choices"].([]string)[0] = "mutated"
	again, _, _ := store.GetItem(ctx, tables.Polls, "p1")
	if again["Choices"].([]string)[0] != "A" {
		t.Fatalf("expected stored copy unaffected by reader mutation")
	}
}

func TestQueryItemsUsesPollIDIndex(t *testing.T) {
	tables := ports.NewTables("polls")
	store := NewStore(tables)
	ctx := context.Background()
	for i, pollID := range []string{"p1", "p2", "p1"} {
		item := ports.Item{ports.AttrID: fmt.Sprintf("v%d", i), ports.AttrPollID: pollID}
		if err := store.PutItem(ctx, tables.Votes, item); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	items, err := store.QueryItems(ctx, tables.Votes, ports.PollIDIndex, "p1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if _, err := store.QueryItems(ctx, tables.Votes, "UserIdIndex", "u1"); !errors.Is(err, domainerrors.ErrUnsupportedIndex) {
		t.Fatalf("expected ErrUnsupportedIndex, got %v", err)
	}
}

func TestBatchDeleteItemsLimit(t *testing.T) {
	tables := ports.NewTables("polls")
	store := NewStore(tables)
	ctx := context.Background()
	keys := make([]string, ports.MaxBatchDeleteSize+1)
	for i := range keys {
		keys[i] = fmt.Sprintf("v%d", i)
		if err := store.PutItem(ctx, tables.Votes, ports.Item{ports.AttrID: keys[i]}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	if err := store.BatchDeleteItems(ctx, tables.Votes, keys); !errors.Is(err, domainerrors.ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
	if store.Len(tables.Votes) != len(keys) {
		t.Fatalf("expected rejected batch to delete nothing")
	}
	if err := store.BatchDeleteItems(ctx, tables.Votes, keys[:ports.MaxBatchDeleteSize]); err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	if store.Len(tables.Votes) != 1 {
		t.Fatalf("expected one item left, got %d", store.Len(tables.Votes))
	}
	if err := store.BatchDeleteItems(ctx, tables.Votes, nil); err != nil {
		t.Fatalf("expected empty batch to be a no-op, got %v", err)
	}
}

func TestUnknownTableIsRejected(t *testing.T) {
	store := NewStore(ports.NewTables("polls"))
	if _, _, err := store.GetItem(context.Background(), "polls-archive", "p1"); !errors.Is(err, domainerrors.ErrUnsupportedTable) {
		t.Fatalf("expected ErrUnsupportedTable, got %v", err)
	}
	if err := store.PutItem(context.Background(), "polls", ports.Item{"Question": "Q"}); !errors.Is(err, domainerrors.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord for keyless item, got %v", err)
	}
}

func TestNewTablesDerivesSuffixes(t *testing.T) {
	tables := ports.NewTables(" surveys ")
	if tables.Polls != "surveys" || tables.Votes != "surveys-votes" || tables.Schedules != "surveys-schedules" {
		t.Fatalf("unexpected tables %+v", tables)
	}
	if ports.NewTables("").Polls != "polls" {
		t.Fatalf("expected default base name")
	}
}
