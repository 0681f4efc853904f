package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ewiq/leatly/pkg/domain"
)

// CreateCollection creates a collection with a fresh opaque id.
func (s *Store) CreateCollection(ctx context.Context, name string) (*domain.Collection, error) {
	coll := domain.Collection{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	err := withRetry(ctx, func() error {
		_, err := s.conn.ExecContext(ctx, "INSERT INTO collections (id, name, created_at) VALUES (?, ?, ?)",
			coll.ID, coll.Name, coll.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert collection: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &coll, nil
}

// DeleteCollection removes the collection and strips its id from every
// channel's membership set, so no dangling references remain. The channel
// records themselves survive.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	return withRetry(ctx, func() error {
		return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", id); err != nil {
				return fmt.Errorf("delete collection: %w", err)
			}

			var channels []channelSQL
			if err := tx.SelectContext(ctx, &channels, "SELECT * FROM channels"); err != nil {
				return fmt.Errorf("scan channels: %w", err)
			}
			for i := range channels {
				ch := &channels[i]
				if !contains(ch.CollectionIDs, id) {
					continue
				}
				stripped := remove(ch.CollectionIDs, id)
				if _, err := tx.ExecContext(ctx, "UPDATE channels SET collection_ids = ? WHERE link = ?", stripped, ch.Link); err != nil {
					return fmt.Errorf("strip collection from channel: %w", err)
				}
			}
			return nil
		})
	})
}

// GetAllCollections returns every collection in creation order.
func (s *Store) GetAllCollections(ctx context.Context) ([]domain.Collection, error) {
	var rows []collectionSQL
	if err := s.conn.SelectContext(ctx, &rows, "SELECT * FROM collections ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("get collections: %w", err)
	}
	collections := make([]domain.Collection, len(rows))
	for i := range rows {
		collections[i] = toDomainCollection(&rows[i])
	}
	return collections, nil
}
