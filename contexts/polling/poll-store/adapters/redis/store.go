package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	"pollkeeper/contexts/polling/poll-store/ports"

	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 8

// Store keeps items as JSON strings under "{table}:item:{id}". Each table has
// a key set "{table}:keys" for scans and one set per PollId value
// "{table}:index:PollId:{value}" backing PollIDIndex. Writes run under WATCH
// so the sets never drift from the items.
type Store struct {
	client redis.UniversalClient
	tables map[string]struct{}
	logger *slog.Logger
}

func NewStore(client redis.UniversalClient, tables ports.Tables, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	known := make(map[string]struct{}, 3)
	for _, table := range tables.All() {
		known[table] = struct{}{}
	}
	return &Store{
		client: client,
		tables: known,
		logger: logger,
	}
}

func (s *Store) GetItem(ctx context.Context, table string, key string) (ports.Item, bool, error) {
	if err := s.checkTable(table); err != nil {
		return nil, false, err
	}
	raw, err := s.client.Get(ctx, itemKey(table, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, s.logError("poll_store_redis_get_failed", err, table, "key", key)
	}
	item, err := decodeItem(raw)
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func (s *Store) PutItem(ctx context.Context, table string, item ports.Item) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	key := strings.TrimSpace(item.Key())
	if key == "" {
		return fmt.Errorf("%w: item without %s", domainerrors.ErrMalformedRecord, ports.AttrID)
	}
	next := item.Clone()
	next[ports.AttrID] = key
	err := s.watch(ctx, func(tx *redis.Tx) error {
		previous, _, err := readItem(ctx, tx, table, key)
		if err != nil {
			return err
		}
		return writeItem(ctx, tx, table, previous, next)
	}, itemKey(table, key))
	if err != nil {
		return s.logError("poll_store_redis_put_failed", err, table, "key", key)
	}
	return nil
}

func (s *Store) UpdateItem(ctx context.Context, table string, key string, set ports.Item) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: update without key", domainerrors.ErrMalformedRecord)
	}
	err := s.watch(ctx, func(tx *redis.Tx) error {
		previous, found, err := readItem(ctx, tx, table, key)
		if err != nil {
			return err
		}
		next := ports.Item{ports.AttrID: key}
		if found {
			next = previous.Clone()
		}
		for name, value := range set {
			if name == ports.AttrID {
				continue
			}
			next[name] = value
		}
		return writeItem(ctx, tx, table, previous, next)
	}, itemKey(table, key))
	if err != nil {
		return s.logError("poll_store_redis_update_failed", err, table, "key", key)
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, table string, key string) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	err := s.watch(ctx, func(tx *redis.Tx) error {
		previous, found, err := readItem(ctx, tx, table, key)
		if err != nil || !found {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			removeItem(ctx, pipe, table, key, previous)
			return nil
		})
		return err
	}, itemKey(table, key))
	if err != nil {
		return s.logError("poll_store_redis_delete_failed", err, table, "key", key)
	}
	return nil
}

func (s *Store) QueryItems(ctx context.Context, table string, index string, value string) ([]ports.Item, error) {
	attribute, ok := ports.IndexAttribute(index)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedIndex, index)
	}
	if err := s.checkTable(table); err != nil {
		return nil, err
	}
	keys, err := s.client.SMembers(ctx, indexKey(table, attribute, value)).Result()
	if err != nil {
		return nil, s.logError("poll_store_redis_query_failed", err, table, "index", index, "value", value)
	}
	return s.loadItems(ctx, table, keys)
}

func (s *Store) ScanItems(ctx context.Context, table string) ([]ports.Item, error) {
	if err := s.checkTable(table); err != nil {
		return nil, err
	}
	keys, err := s.client.SMembers(ctx, keySetKey(table)).Result()
	if err != nil {
		return nil, s.logError("poll_store_redis_scan_failed", err, table)
	}
	return s.loadItems(ctx, table, keys)
}

// BatchDeleteItems watches every key and removes them in one MULTI block.
func (s *Store) BatchDeleteItems(ctx context.Context, table string, keys []string) error {
	if len(keys) > ports.MaxBatchDeleteSize {
		return fmt.Errorf("%w: %d keys, limit %d", domainerrors.ErrBatchTooLarge, len(keys), ports.MaxBatchDeleteSize)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.checkTable(table); err != nil {
		return err
	}
	watched := make([]string, 0, len(keys))
	trimmed := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		trimmed = append(trimmed, key)
		watched = append(watched, itemKey(table, key))
	}
	err := s.watch(ctx, func(tx *redis.Tx) error {
		values, err := tx.MGet(ctx, watched...).Result()
		if err != nil {
			return err
		}
		previous := make([]ports.Item, len(values))
		for i, value := range values {
			raw, ok := value.(string)
			if !ok {
				continue
			}
			if previous[i], err = decodeItem([]byte(raw)); err != nil {
				return err
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, key := range trimmed {
				removeItem(ctx, pipe, table, key, previous[i])
			}
			return nil
		})
		return err
	}, watched...)
	if err != nil {
		return s.logError("poll_store_redis_batch_delete_failed", err, table, "batch_size", len(keys))
	}
	return nil
}

func (s *Store) loadItems(ctx context.Context, table string, keys []string) ([]ports.Item, error) {
	items := make([]ports.Item, 0, len(keys))
	if len(keys) == 0 {
		return items, nil
	}
	sort.Strings(keys)
	itemKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		itemKeys = append(itemKeys, itemKey(table, key))
	}
	values, err := s.client.MGet(ctx, itemKeys...).Result()
	if err != nil {
		return nil, s.logError("poll_store_redis_load_failed", err, table, "count", len(keys))
	}
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Removed between the set read and MGET.
			continue
		}
		item, err := decodeItem([]byte(raw))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (s *Store) checkTable(table string) error {
	if _, ok := s.tables[table]; !ok {
		return fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedTable, table)
	}
	return nil
}

func (s *Store) logError(event string, err error, table string, attrs ...any) error {
	fields := append([]any{
		"event", event,
		"module", "polling/poll-store",
		"layer", "adapter",
		"table", table,
		"error", err.Error(),
	}, attrs...)
	s.logger.Error("redis record store operation failed", fields...)
	return fmt.Errorf("%s: %w", strings.TrimPrefix(event, "poll_store_"), err)
}

func readItem(ctx context.Context, tx *redis.Tx, table string, key string) (ports.Item, bool, error) {
	raw, err := tx.Get(ctx, itemKey(table, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	item, err := decodeItem(raw)
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func writeItem(ctx context.Context, tx *redis.Tx, table string, previous ports.Item, next ports.Item) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrMalformedRecord, err)
	}
	key := next.Key()
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, itemKey(table, key), raw, 0)
		pipe.SAdd(ctx, keySetKey(table), key)
		oldPollID := pollIDOf(previous)
		newPollID := pollIDOf(next)
		if oldPollID != "" && oldPollID != newPollID {
			pipe.SRem(ctx, indexKey(table, ports.AttrPollID, oldPollID), key)
		}
		if newPollID != "" {
			pipe.SAdd(ctx, indexKey(table, ports.AttrPollID, newPollID), key)
		}
		return nil
	})
	return err
}

func removeItem(ctx context.Context, pipe redis.Pipeliner, table string, key string, previous ports.Item) {
	pipe.Del(ctx, itemKey(table, key))
	pipe.SRem(ctx, keySetKey(table), key)
	if pollID := pollIDOf(previous); pollID != "" {
		pipe.SRem(ctx, indexKey(table, ports.AttrPollID, pollID), key)
	}
}

func decodeItem(raw []byte) (ports.Item, error) {
	var item ports.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrMalformedRecord, err)
	}
	return item, nil
}

func pollIDOf(item ports.Item) string {
	if item == nil {
		return ""
	}
	pollID, _ := item[ports.AttrPollID].(string)
	return pollID
}

func itemKey(table string, key string) string {
	return table + ":item:" + strings.TrimSpace(key)
}

func keySetKey(table string) string {
	return table + ":keys"
}

func indexKey(table string, attribute string, value string) string {
	return table + ":index:" + attribute + ":" + value
}

var _ ports.RecordStore = (*Store)(nil)
