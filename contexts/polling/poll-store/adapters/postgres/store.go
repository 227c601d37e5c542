package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainerrors "pollkeeper/contexts/polling/poll-store/domain/errors"
	"pollkeeper/contexts/polling/poll-store/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store keeps every logical table in one poll_records relation keyed by
// (collection, id). Attributes live in a JSONB column; poll_id is lifted out
// so the PollId index can be served by a btree index.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates or migrates the poll_records relation.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&recordModel{}); err != nil {
		return s.logError("poll_store_pg_migrate_failed", err, "")
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, table string, key string) (ports.Item, bool, error) {
	var row recordModel
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", table, strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, s.logError("poll_store_pg_get_failed", err, table, "key", key)
	}
	return row.toItem(), true, nil
}

func (s *Store) PutItem(ctx context.Context, table string, item ports.Item) error {
	row, err := recordModelFromItem(table, item)
	if err != nil {
		return err
	}
	create := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"poll_id", "attributes", "updated_at"}),
	}).Create(&row)
	if create.Error != nil {
		return s.logError("poll_store_pg_put_failed", create.Error, table, "key", row.ID)
	}
	return nil
}

// UpdateItem merges set into the stored attributes under a row lock, or
// inserts a new row when the key is absent.
func (s *Store) UpdateItem(ctx context.Context, table string, key string, set ports.Item) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: update without key", domainerrors.ErrMalformedRecord)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row recordModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND id = ?", table, key).
			First(&row).
			Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item := ports.Item{ports.AttrID: key}
			mergeAttributes(item, set)
			created, err := recordModelFromItem(table, item)
			if err != nil {
				return err
			}
			return tx.Create(&created).Error
		case err != nil:
			return err
		}
		item := row.toItem()
		mergeAttributes(item, set)
		updated, err := recordModelFromItem(table, item)
		if err != nil {
			return err
		}
		updated.CreatedAt = row.CreatedAt
		return tx.Save(&updated).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			// A concurrent UpdateItem created the row first; merge into it.
			return s.UpdateItem(ctx, table, key, set)
		}
		return s.logError("poll_store_pg_update_failed", err, table, "key", key)
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, table string, key string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", table, strings.TrimSpace(key)).
		Delete(&recordModel{}).
		Error
	if err != nil {
		return s.logError("poll_store_pg_delete_failed", err, table, "key", key)
	}
	return nil
}

func (s *Store) QueryItems(ctx context.Context, table string, index string, value string) ([]ports.Item, error) {
	if _, ok := ports.IndexAttribute(index); !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedIndex, index)
	}
	var rows []recordModel
	if err := s.db.WithContext(ctx).
		Where("collection = ? AND poll_id = ?", table, value).
		Find(&rows).Error; err != nil {
		return nil, s.logError("poll_store_pg_query_failed", err, table, "index", index, "value", value)
	}
	return toItems(rows), nil
}

func (s *Store) ScanItems(ctx context.Context, table string) ([]ports.Item, error) {
	var rows []recordModel
	if err := s.db.WithContext(ctx).
		Where("collection = ?", table).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, s.logError("poll_store_pg_scan_failed", err, table)
	}
	return toItems(rows), nil
}

// BatchDeleteItems removes all keys with a single statement.
func (s *Store) BatchDeleteItems(ctx context.Context, table string, keys []string) error {
	if len(keys) > ports.MaxBatchDeleteSize {
		return fmt.Errorf("%w: %d keys, limit %d", domainerrors.ErrBatchTooLarge, len(keys), ports.MaxBatchDeleteSize)
	}
	if len(keys) == 0 {
		return nil
	}
	trimmed := make([]string, 0, len(keys))
	for _, key := range keys {
		trimmed = append(trimmed, strings.TrimSpace(key))
	}
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id IN ?", table, trimmed).
		Delete(&recordModel{}).
		Error
	if err != nil {
		return s.logError("poll_store_pg_batch_delete_failed", err, table, "batch_size", len(keys))
	}
	return nil
}

func (s *Store) logError(event string, err error, table string, attrs ...any) error {
	fields := []any{
		"event", event,
		"module", "polling/poll-store",
		"layer", "adapter",
		"table", table,
		"error", err.Error(),
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		fields = append(fields, "sqlstate", pgErr.Code)
	}
	fields = append(fields, attrs...)
	s.logger.Error("postgres record store operation failed", fields...)
	return fmt.Errorf("%s: %w", strings.TrimPrefix(event, "poll_store_"), err)
}

type recordModel struct {
	Collection string            `gorm:"column:collection;primaryKey"`
	ID         string            `gorm:"column:id;primaryKey"`
	PollID     *string           `gorm:"column:poll_id;index:idx_poll_records_poll_id"`
	Attributes datatypes.JSONMap `gorm:"column:attributes;type:jsonb"`
	CreatedAt  time.Time         `gorm:"column:created_at"`
	UpdatedAt  time.Time         `gorm:"column:updated_at"`
}

func (recordModel) TableName() string {
	return "poll_records"
}

func recordModelFromItem(table string, item ports.Item) (recordModel, error) {
	key := strings.TrimSpace(item.Key())
	if key == "" {
		return recordModel{}, fmt.Errorf("%w: item without %s", domainerrors.ErrMalformedRecord, ports.AttrID)
	}
	now := time.Now().UTC()
	row := recordModel{
		Collection: table,
		ID:         key,
		Attributes: datatypes.JSONMap(item.Clone()),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if pollID, ok := item[ports.AttrPollID].(string); ok && pollID != "" {
		row.PollID = &pollID
	}
	return row, nil
}

func (m recordModel) toItem() ports.Item {
	item := make(ports.Item, len(m.Attributes)+1)
	for name, value := range m.Attributes {
		item[name] = value
	}
	item[ports.AttrID] = m.ID
	return item
}

func toItems(rows []recordModel) []ports.Item {
	items := make([]ports.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toItem())
	}
	return items
}

func mergeAttributes(item ports.Item, set ports.Item) {
	for name, value := range set {
		if name == ports.AttrID {
			continue
		}
		item[name] = value
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.RecordStore = (*Store)(nil)
