package commands_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pollkeeper/contexts/polling/poll-store/adapters/memory"
	"pollkeeper/contexts/polling/poll-store/application/commands"
	"pollkeeper/contexts/polling/poll-store/application/queries"
	"pollkeeper/contexts/polling/poll-store/ports"
)

var errStoreDown = errors.New("store unavailable")

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type sequenceIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func (g *sequenceIDs) NewID(context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next), nil
}

// recordingStore wraps a RecordStore, counts calls per operation and can
// fail selected operations.
type recordingStore struct {
	ports.RecordStore

	mu         sync.Mutex
	calls      []string
	batchSizes []int
	failOn     map[string]error
}

func newRecordingStore(inner ports.RecordStore) *recordingStore {
	return &recordingStore{RecordStore: inner, failOn: map[string]error{}}
}

func (s *recordingStore) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
	return s.failOn[op]
}

func (s *recordingStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, call := range s.calls {
		if call == op {
			total++
		}
	}
	return total
}

func (s *recordingStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
	s.batchSizes = nil
}

func (s *recordingStore) GetItem(ctx context.Context, table string, key string) (ports.Item, bool, error) {
	if err := s.record("get"); err != nil {
		return nil, false, err
	}
	return s.RecordStore.GetItem(ctx, table, key)
}

func (s *recordingStore) PutItem(ctx context.Context, table string, item ports.Item) error {
	if err := s.record("put"); err != nil {
		return err
	}
	return s.RecordStore.PutItem(ctx, table, item)
}

func (s *recordingStore) UpdateItem(ctx context.Context, table string, key string, set ports.Item) error {
	if err := s.record("update"); err != nil {
		return err
	}
	return s.RecordStore.UpdateItem(ctx, table, key, set)
}

func (s *recordingStore) DeleteItem(ctx context.Context, table string, key string) error {
	if err := s.record("delete"); err != nil {
		return err
	}
	return s.RecordStore.DeleteItem(ctx, table, key)
}

func (s *recordingStore) QueryItems(ctx context.Context, table string, index string, value string) ([]ports.Item, error) {
	if err := s.record("query"); err != nil {
		return nil, err
	}
	return s.RecordStore.QueryItems(ctx, table, index, value)
}

func (s *recordingStore) BatchDeleteItems(ctx context.Context, table string, keys []string) error {
	s.mu.Lock()
	s.batchSizes = append(s.batchSizes, len(keys))
	s.mu.Unlock()
	if err := s.record("batch_delete"); err != nil {
		return err
	}
	return s.RecordStore.BatchDeleteItems(ctx, table, keys)
}

type capturedEvent struct {
	topic    string
	envelope ports.EventEnvelope
}

type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{topic: topic, envelope: event})
	return p.err
}

type countingMetrics struct {
	mu       sync.Mutex
	casts    map[string]int
	failures map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{casts: map[string]int{}, failures: map[string]int{}}
}

func (m *countingMetrics) ObserveCast(action string, _ bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.casts[action]++
}

func (m *countingMetrics) ObserveCastFailure(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[stage]++
}

type fixture struct {
	tables ports.Tables
	mem    *memory.Store
	store  *recordingStore
	polls  commands.PollUseCase
	ledger commands.VoteLedger
	reader queries.PollQueries
}

func newFixture() *fixture {
	tables := ports.NewTables("polls")
	mem := memory.NewStore(tables)
	store := newRecordingStore(mem)
	clock := fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	ids := &sequenceIDs{prefix: "id"}
	reader := queries.PollQueries{Store: store, Tables: tables}
	polls := commands.PollUseCase{Store: store, Tables: tables, Clock: clock, IDGen: ids}
	return &fixture{
		tables: tables,
		mem:    mem,
		store:  store,
		polls:  polls,
		reader: reader,
		ledger: commands.VoteLedger{
			Store:    store,
			Tables:   tables,
			Polls:    reader,
			PollRepo: polls,
			Clock:    clock,
			IDGen:    ids,
		},
	}
}
