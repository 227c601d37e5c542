package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	"pollkeeper/contexts/polling/poll-store/ports"
)

// Store is an in-process RecordStore. It mirrors the semantics of a
// key-value table service: upserting puts, creating updates, a bounded batch
// delete and a PollId secondary index.
type Store struct {
	mu     sync.RWMutex
	tables map[string]map[string]ports.Item
}

func NewStore(tables ports.Tables) *Store {
	s := &Store{tables: make(map[string]map[string]ports.Item, 3)}
	for _, table := range tables.All() {
		s.tables[table] = make(map[string]ports.Item)
	}
	return s
}

func (s *Store) GetItem(_ context.Context, table string, key string) (ports.Item, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.table(table)
	if err != nil {
		return nil, false, err
	}
	item, ok := rows[strings.TrimSpace(key)]
	if !ok {
		return nil, false, nil
	}
	return copyItem(item), true, nil
}

func (s *Store) PutItem(_ context.Context, table string, item ports.Item) error {
	key := strings.TrimSpace(item.Key())
	if key == "" {
		return fmt.Errorf("%w: item without %s", domainerrors.ErrMalformedRecord, ports.AttrID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table(table)
	if err != nil {
		return err
	}
	rows[key] = copyItem(item)
	return nil
}

func (s *Store) UpdateItem(_ context.Context, table string, key string, set ports.Item) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: update without key", domainerrors.ErrMalformedRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table(table)
	if err != nil {
		return err
	}
	current, ok := rows[key]
	if !ok {
		current = ports.Item{ports.AttrID: key}
	}
	for name, value := range copyItem(set) {
		if name == ports.AttrID {
			continue
		}
		current[name] = value
	}
	rows[key] = current
	return nil
}

func (s *Store) DeleteItem(_ context.Context, table string, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table(table)
	if err != nil {
		return err
	}
	delete(rows, strings.TrimSpace(key))
	return nil
}

func (s *Store) QueryItems(_ context.Context, table string, index string, value string) ([]ports.Item, error) {
	attribute, ok := ports.IndexAttribute(index)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedIndex, index)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.table(table)
	if err != nil {
		return nil, err
	}
	items := make([]ports.Item, 0)
	for _, item := range rows {
		if current, _ := item[attribute].(string); current == value {
			items = append(items, copyItem(item))
		}
	}
	sortItems(items)
	return items, nil
}

func (s *Store) ScanItems(_ context.Context, table string) ([]ports.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.table(table)
	if err != nil {
		return nil, err
	}
	items := make([]ports.Item, 0, len(rows))
	for _, item := range rows {
		items = append(items, copyItem(item))
	}
	sortItems(items)
	return items, nil
}

func (s *Store) BatchDeleteItems(_ context.Context, table string, keys []string) error {
	if len(keys) > ports.MaxBatchDeleteSize {
		return fmt.Errorf("%w: %d keys, limit %d", domainerrors.ErrBatchTooLarge, len(keys), ports.MaxBatchDeleteSize)
	}
	if len(keys) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table(table)
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(rows, strings.TrimSpace(key))
	}
	return nil
}

// Len reports the number of items held in table.
func (s *Store) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}

func (s *Store) table(name string) (map[string]ports.Item, error) {
	rows, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedTable, name)
	}
	return rows, nil
}

func copyItem(item ports.Item) ports.Item {
	out := make(ports.Item, len(item))
	for name, value := range item {
		switch typed := value.(type) {
		case []string:
			out[name] = append([]string{}, typed...)
		case []any:
			out[name] = append([]any{}, typed...)
		case map[string]any:
			nested := make(map[string]any, len(typed))
			for key, element := range typed {
				nested[key] = element
			}
			out[name] = nested
		default:
			out[name] = value
		}
	}
	return out
}

// sortItems gives scans a stable order; callers must not rely on it.
func sortItems(items []ports.Item) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Key() < items[j].Key()
	})
}

var _ ports.RecordStore = (*Store)(nil)
