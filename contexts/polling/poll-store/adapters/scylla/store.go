package scylla

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	"pollkeeper/contexts/polling/poll-store/ports"

	"github.com/gocql/gocql"
	"github.com/scylladb/gocqlx"
	"github.com/scylladb/gocqlx/qb"
)

// Store maps each logical table onto a CQL table
//
//	(id text PRIMARY KEY, poll_id text, attributes map<text, text>)
//
// with a secondary index on poll_id. Attribute values are JSON encoded one
// by one so UpdateItem can merge with a single "attributes = attributes + ?".
type Store struct {
	session  *gocql.Session
	keyspace string
	logger   *slog.Logger
}

type recordRow struct {
	ID         string            `db:"id"`
	PollID     string            `db:"poll_id"`
	Attributes map[string]string `db:"attributes"`
}

func NewStore(session *gocql.Session, keyspace string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		session:  session,
		keyspace: strings.TrimSpace(keyspace),
		logger:   logger,
	}
}

// EnsureSchema creates the CQL tables and poll_id indexes for tables.
func (s *Store) EnsureSchema(ctx context.Context, tables ports.Tables) error {
	for _, table := range tables.All() {
		name := TableName(table)
		statements := []string{
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.%s (id text PRIMARY KEY, poll_id text, attributes map<text, text>)", s.keyspace, name),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_poll_id_idx ON %s.%s (poll_id)", name, s.keyspace, name),
		}
		for _, stmt := range statements {
			if err := s.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
				return s.logError("poll_store_cql_schema_failed", err, table)
			}
		}
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, table string, key string) (ports.Item, bool, error) {
	stmt, names := qb.Select(s.qualified(table)).
		Columns("id", "poll_id", "attributes").
		Where(qb.Eq("id")).
		ToCql()
	var row recordRow
	err := gocqlx.Query(s.session.Query(stmt).WithContext(ctx), names).
		BindMap(qb.M{"id": strings.TrimSpace(key)}).
		GetRelease(&row)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, s.logError("poll_store_cql_get_failed", err, table, "key", key)
	}
	item, err := row.toItem()
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func (s *Store) PutItem(ctx context.Context, table string, item ports.Item) error {
	key := strings.TrimSpace(item.Key())
	if key == "" {
		return fmt.Errorf("%w: item without %s", domainerrors.ErrMalformedRecord, ports.AttrID)
	}
	attributes, err := encodeAttributes(item)
	if err != nil {
		return err
	}
	stmt, names := qb.Insert(s.qualified(table)).
		Columns("id", "poll_id", "attributes").
		ToCql()
	err = gocqlx.Query(s.session.Query(stmt).WithContext(ctx), names).
		BindMap(qb.M{
			"id":         key,
			"poll_id":    pollIDOf(item),
			"attributes": attributes,
		}).
		ExecRelease()
	if err != nil {
		return s.logError("poll_store_cql_put_failed", err, table, "key", key)
	}
	return nil
}

// UpdateItem appends set to the attribute map. CQL updates are upserts, so
// an absent key becomes a row holding only the set attributes.
func (s *Store) UpdateItem(ctx context.Context, table string, key string, set ports.Item) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: update without key", domainerrors.ErrMalformedRecord)
	}
	attributes, err := encodeAttributes(set)
	if err != nil {
		return err
	}
	delete(attributes, ports.AttrID)
	attributes[ports.AttrID] = mustJSON(key)

	builder := qb.Update(s.qualified(table)).Add("attributes")
	bindings := qb.M{"id": key, "attributes": attributes}
	if pollID, ok := set[ports.AttrPollID].(string); ok {
		builder = builder.Set("poll_id")
		bindings["poll_id"] = pollID
	}
	stmt, names := builder.Where(qb.Eq("id")).ToCql()
	err = gocqlx.Query(s.session.Query(stmt).WithContext(ctx), names).
		BindMap(bindings).
		ExecRelease()
	if err != nil {
		return s.logError("poll_store_cql_update_failed", err, table, "key", key)
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, table string, key string) error {
	stmt, names := qb.Delete(s.qualified(table)).Where(qb.Eq("id")).ToCql()
	err := gocqlx.Query(s.session.Query(stmt).WithContext(ctx), names).
		BindMap(qb.M{"id": strings.TrimSpace(key)}).
		ExecRelease()
	if err != nil {
		return s.logError("poll_store_cql_delete_failed", err, table, "key", key)
	}
	return nil
}

func (s *Store) QueryItems(ctx context.Context, table string, index string, value string) ([]ports.Item, error) {
	if _, ok := ports.IndexAttribute(index); !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedIndex, index)
	}
	stmt, names := qb.Select(s.qualified(table)).
		Columns("id", "poll_id", "attributes").
		Where(qb.Eq("poll_id")).
		ToCql()
	var rows []recordRow
	err := gocqlx.Query(s.session.Query(stmt).WithContext(ctx), names).
		BindMap(qb.M{"poll_id": value}).
		SelectRelease(&rows)
	if err != nil {
		return nil, s.logError("poll_store_cql_query_failed", err, table, "index", index, "value", value)
	}
	return toItems(rows)
}

func (s *Store) ScanItems(ctx context.Context, table string) ([]ports.Item, error) {
	stmt, names := qb.Select(s.qualified(table)).
		Columns("id", "poll_id", "attributes").
		ToCql()
	var rows []recordRow
	if err := gocqlx.Query(s.session.Query(stmt).WithContext(ctx), names).SelectRelease(&rows); err != nil {
		return nil, s.logError("poll_store_cql_scan_failed", err, table)
	}
	return toItems(rows)
}

// BatchDeleteItems sends the deletes as one logged batch.
func (s *Store) BatchDeleteItems(ctx context.Context, table string, keys []string) error {
	if len(keys) > ports.MaxBatchDeleteSize {
		return fmt.Errorf("%w: %d keys, limit %d", domainerrors.ErrBatchTooLarge, len(keys), ports.MaxBatchDeleteSize)
	}
	if len(keys) == 0 {
		return nil
	}
	stmt, _ := qb.Delete(s.qualified(table)).Where(qb.Eq("id")).ToCql()
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, key := range keys {
		batch.Query(stmt, strings.TrimSpace(key))
	}
	if err := s.session.ExecuteBatch(batch); err != nil {
		return s.logError("poll_store_cql_batch_delete_failed", err, table, "batch_size", len(keys))
	}
	return nil
}

// TableName turns a logical table name into a CQL identifier.
func TableName(table string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(table)), "-", "_")
}

func (s *Store) qualified(table string) string {
	if s.keyspace == "" {
		return TableName(table)
	}
	return s.keyspace + "." + TableName(table)
}

func (s *Store) logError(event string, err error, table string, attrs ...any) error {
	fields := append([]any{
		"event", event,
		"module", "polling/poll-store",
		"layer", "adapter",
		"table", table,
		"error", err.Error(),
	}, attrs...)
	s.logger.Error("scylla record store operation failed", fields...)
	return fmt.Errorf("%s: %w", strings.TrimPrefix(event, "poll_store_"), err)
}

func encodeAttributes(item ports.Item) (map[string]string, error) {
	out := make(map[string]string, len(item))
	for name, value := range item {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %s: %v", domainerrors.ErrMalformedRecord, name, err)
		}
		out[name] = string(raw)
	}
	return out, nil
}

func (r recordRow) toItem() (ports.Item, error) {
	item := make(ports.Item, len(r.Attributes)+1)
	for name, raw := range r.Attributes {
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("%w: attribute %s: %v", domainerrors.ErrMalformedRecord, name, err)
		}
		item[name] = value
	}
	item[ports.AttrID] = r.ID
	return item, nil
}

func toItems(rows []recordRow) ([]ports.Item, error) {
	items := make([]ports.Item, 0, len(rows))
	for _, row := range rows {
		item, err := row.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func pollIDOf(item ports.Item) string {
	pollID, _ := item[ports.AttrPollID].(string)
	return pollID
}

func mustJSON(value string) string {
	raw, _ := json.Marshal(value)
	return string(raw)
}

var _ ports.RecordStore = (*Store)(nil)
