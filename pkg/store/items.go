package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ewiq/leatly/pkg/domain"
)

// GetAllItems returns every stored item, newest first by savedAt. The
// aggregation view applies its own ordering; this one only keeps results
// deterministic.
func (s *Store) GetAllItems(ctx context.Context) ([]domain.StoredItem, error) {
	var rows []itemSQL
	if err := s.conn.SelectContext(ctx, &rows, "SELECT * FROM items ORDER BY saved_at DESC, id"); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	items := make([]domain.StoredItem, len(rows))
	for i := range rows {
		items[i] = toDomainItem(&rows[i])
	}
	return items, nil
}

// GetItemsByChannel returns the items belonging to one channel.
func (s *Store) GetItemsByChannel(ctx context.Context, channelID string) ([]domain.StoredItem, error) {
	var rows []itemSQL
	err := s.conn.SelectContext(ctx, &rows,
		"SELECT * FROM items WHERE channel_id = ? ORDER BY saved_at DESC, id", channelID)
	if err != nil {
		return nil, fmt.Errorf("get items by channel: %w", err)
	}
	items := make([]domain.StoredItem, len(rows))
	for i := range rows {
		items[i] = toDomainItem(&rows[i])
	}
	return items, nil
}

// GetItem returns a single item by id, nil when not stored.
func (s *Store) GetItem(ctx context.Context, id string) (*domain.StoredItem, error) {
	var row itemSQL
	err := s.conn.GetContext(ctx, &row, "SELECT * FROM items WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	item := toDomainItem(&row)
	return &item, nil
}

// UpdateItem merges the provided user flags into the item record; nil
// fields stay untouched. A missing item is a no-op, not an error.
func (s *Store) UpdateItem(ctx context.Context, id string, upd domain.ItemUpdate) error {
	if upd.Read == nil && upd.Closed == nil && upd.Favourite == nil {
		return nil
	}
	return withRetry(ctx, func() error {
		return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
			var existing itemSQL
			err := tx.GetContext(ctx, &existing, "SELECT * FROM items WHERE id = ?", id)
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("get item: %w", err)
			}
			if upd.Read != nil {
				existing.Read = *upd.Read
			}
			if upd.Closed != nil {
				existing.Closed = *upd.Closed
			}
			if upd.Favourite != nil {
				existing.Favourite = *upd.Favourite
			}
			_, err = tx.ExecContext(ctx, "UPDATE items SET read = ?, closed = ?, favourite = ? WHERE id = ?",
				existing.Read, existing.Closed, existing.Favourite, id)
			if err != nil {
				return fmt.Errorf("update item flags: %w", err)
			}
			return nil
		})
	})
}
