package ports

import (
	"context"
	"strings"
	"time"

	contractsv1 "pollkeeper/contracts/gen/events/v1"
)

// MaxBatchDeleteSize is the per-request key limit of BatchDeleteItems.
const MaxBatchDeleteSize = 25

const (
	// AttrID is the primary key attribute of every table.
	AttrID = "Id"
	// AttrPollID is the attribute backing PollIDIndex.
	AttrPollID = "PollId"
	// PollIDIndex is the secondary index on the votes table.
	PollIDIndex = "PollIdIndex"
)

// Item is a single record in its store-native attribute form.
type Item map[string]any

// Key returns the primary key of the item, or "" when missing.
func (i Item) Key() string {
	value, _ := i[AttrID].(string)
	return value
}

// Clone copies the top level of the item so callers can mutate it freely.
func (i Item) Clone() Item {
	out := make(Item, len(i))
	for key, value := range i {
		out[key] = value
	}
	return out
}

// RecordStore is the key-value table adapter every repository writes through.
// Implementations must be safe for concurrent use.
type RecordStore interface {
	GetItem(ctx context.Context, table string, key string) (Item, bool, error)
	PutItem(ctx context.Context, table string, item Item) error
	// UpdateItem sets the given attributes on key. An absent key is created
	// holding only the key and the set attributes.
	UpdateItem(ctx context.Context, table string, key string, set Item) error
	DeleteItem(ctx context.Context, table string, key string) error
	QueryItems(ctx context.Context, table string, index string, value string) ([]Item, error)
	ScanItems(ctx context.Context, table string) ([]Item, error)
	// BatchDeleteItems removes up to MaxBatchDeleteSize keys in one request.
	BatchDeleteItems(ctx context.Context, table string, keys []string) error
}

// Tables names the three logical tables of the store.
type Tables struct {
	Polls     string
	Votes     string
	Schedules string
}

// NewTables derives the table set from the configured base name.
func NewTables(base string) Tables {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "polls"
	}
	return Tables{
		Polls:     base,
		Votes:     base + "-votes",
		Schedules: base + "-schedules",
	}
}

// All lists every table, polls first.
func (t Tables) All() []string {
	return []string{t.Polls, t.Votes, t.Schedules}
}

// IndexAttribute resolves the attribute a secondary index is keyed on.
func IndexAttribute(index string) (string, bool) {
	switch strings.TrimSpace(index) {
	case PollIDIndex:
		return AttrPollID, true
	default:
		return "", false
	}
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// LedgerMetrics observes vote casting outcomes.
type LedgerMetrics interface {
	ObserveCast(action string, singleVote bool, elapsed time.Duration)
	ObserveCastFailure(stage string)
}

// Scheduler registers recurring jobs keyed by cron expressions.
type Scheduler interface {
	Add(expression string, job func()) (int, error)
	Remove(id int)
}
