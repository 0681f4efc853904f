package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ewiq/leatly/pkg/domain"
	"github.com/ewiq/leatly/pkg/search"
)

// SaveFeed upserts the channel and its items in one transaction: either
// every write lands or none do. Feed-derived channel fields are refreshed
// from the fetch; collection membership, hide flag and custom title are
// carried over from the existing record. Items are merged by identity:
// new ones are inserted with fresh savedAt and cleared flags, existing
// ones only get their content fields rewritten, and only when title,
// description or image actually changed.
func (s *Store) SaveFeed(ctx context.Context, feed *domain.Feed, sourceURL string) error {
	if feed == nil || feed.Channel.Link == "" {
		return fmt.Errorf("feed has no channel link")
	}
	now := time.Now().UTC()

	return withRetry(ctx, func() error {
		return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
			if err := upsertChannel(ctx, tx, feed, sourceURL, now); err != nil {
				return err
			}
			for i := range feed.Items {
				if err := mergeItem(ctx, tx, &feed.Items[i], feed.Channel.Link, now); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func upsertChannel(ctx context.Context, tx *sqlx.Tx, feed *domain.Feed, sourceURL string, now time.Time) error {
	ch := channelSQL{
		Link:          feed.Channel.Link,
		Title:         feed.Channel.Title,
		Description:   feed.Channel.Description,
		Language:      feed.Channel.Language,
		PubDate:       feed.Channel.PubDate,
		LastBuildDate: feed.Channel.LastBuildDate,
		Image:         feed.Channel.Image,
		FeedURL:       sourceURL,
		SavedAt:       now,
	}

	var existing channelSQL
	err := tx.GetContext(ctx, &existing, "SELECT * FROM channels WHERE link = ?", feed.Channel.Link)
	switch {
	case err == nil:
		// user-set fields survive the re-fetch verbatim
		ch.CollectionIDs = existing.CollectionIDs
		ch.HideOnMainFeed = existing.HideOnMainFeed
		ch.CustomTitle = existing.CustomTitle
	case errors.Is(err, sql.ErrNoRows):
		// first save, defaults apply
	default:
		return fmt.Errorf("get channel: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO channels (
			link, title, description, language, pub_date, last_build_date,
			image, feed_url, saved_at, collection_ids, hide_on_main_feed, custom_title
		) VALUES (
			:link, :title, :description, :language, :pub_date, :last_build_date,
			:image, :feed_url, :saved_at, :collection_ids, :hide_on_main_feed, :custom_title
		)
	`
	if _, err := tx.NamedExecContext(ctx, query, &ch); err != nil {
		return fmt.Errorf("upsert channel: %w", err)
	}
	return nil
}

func mergeItem(ctx context.Context, tx *sqlx.Tx, item *domain.Item, channelID string, now time.Time) error {
	id := domain.ItemID(item.Link, item.Title, channelID, item.PubDate)

	var existing itemSQL
	err := tx.GetContext(ctx, &existing, "SELECT * FROM items WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		rec := itemSQL{
			ID:           id,
			ChannelID:    channelID,
			Title:        item.Title,
			Description:  item.Description,
			Link:         item.Link,
			PubDate:      item.PubDate,
			Author:       item.Author,
			Categories:   stringsSQL(item.Categories),
			Image:        item.Image,
			GUID:         item.GUID,
			SavedAt:      now,
			SearchTokens: search.Tokens(*item),
		}
		query := `
			INSERT INTO items (
				id, channel_id, title, description, link, pub_date, author,
				categories, image, guid, saved_at, read, closed, favourite, search_tokens
			) VALUES (
				:id, :channel_id, :title, :description, :link, :pub_date, :author,
				:categories, :image, :guid, :saved_at, 0, 0, 0, :search_tokens
			)
		`
		if _, err := tx.NamedExecContext(ctx, query, &rec); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}

	// content drift check; an unchanged item produces no write at all
	if existing.Title == item.Title && existing.Description == item.Description && existing.Image == item.Image {
		return nil
	}

	query := `
		UPDATE items
		SET title = ?, description = ?, link = ?, pub_date = ?, author = ?,
		    categories = ?, image = ?, search_tokens = ?
		WHERE id = ?
	`
	_, err = tx.ExecContext(ctx, query, item.Title, item.Description, item.Link, item.PubDate,
		item.Author, stringsSQL(item.Categories), item.Image, search.Tokens(*item), id)
	if err != nil {
		return fmt.Errorf("update item content: %w", err)
	}
	return nil
}

// DeleteChannel removes the channel and, through the channel index, every
// item that belongs to it. Both happen in one transaction so no orphaned
// items survive. Deleting an unknown channel is a no-op.
func (s *Store) DeleteChannel(ctx context.Context, channelID string) error {
	return withRetry(ctx, func() error {
		return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE channel_id = ?", channelID); err != nil {
				return fmt.Errorf("delete channel items: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM channels WHERE link = ?", channelID); err != nil {
				return fmt.Errorf("delete channel: %w", err)
			}
			return nil
		})
	})
}

// UpdateChannelSettings merges the provided user-set fields into the
// channel record; nil fields stay untouched. A missing channel is a no-op,
// not an error.
func (s *Store) UpdateChannelSettings(ctx context.Context, channelID string, settings domain.ChannelSettings) error {
	if settings.HideOnMainFeed == nil && settings.CustomTitle == nil {
		return nil
	}
	return withRetry(ctx, func() error {
		return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
			var existing channelSQL
			err := tx.GetContext(ctx, &existing, "SELECT * FROM channels WHERE link = ?", channelID)
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("get channel: %w", err)
			}
			if settings.HideOnMainFeed != nil {
				existing.HideOnMainFeed = *settings.HideOnMainFeed
			}
			if settings.CustomTitle != nil {
				existing.CustomTitle = *settings.CustomTitle
			}
			_, err = tx.ExecContext(ctx, "UPDATE channels SET hide_on_main_feed = ?, custom_title = ? WHERE link = ?",
				existing.HideOnMainFeed, existing.CustomTitle, channelID)
			if err != nil {
				return fmt.Errorf("update channel settings: %w", err)
			}
			return nil
		})
	})
}

// ToggleChannelCollection adds or removes a collection id on a channel
// with set semantics: adding twice or removing an absent id is a no-op.
func (s *Store) ToggleChannelCollection(ctx context.Context, channelID, collectionID string, add bool) error {
	return withRetry(ctx, func() error {
		return s.InTransaction(ctx, func(tx *sqlx.Tx) error {
			var existing channelSQL
			err := tx.GetContext(ctx, &existing, "SELECT * FROM channels WHERE link = ?", channelID)
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("get channel: %w", err)
			}

			ids := existing.CollectionIDs
			changed := false
			if add {
				if !contains(ids, collectionID) {
					ids = append(ids, collectionID)
					changed = true
				}
			} else {
				if contains(ids, collectionID) {
					ids = remove(ids, collectionID)
					changed = true
				}
			}
			if !changed {
				return nil
			}
			if _, err := tx.ExecContext(ctx, "UPDATE channels SET collection_ids = ? WHERE link = ?", ids, channelID); err != nil {
				return fmt.Errorf("update channel collections: %w", err)
			}
			return nil
		})
	})
}

// GetAllChannels returns every stored channel ordered by save time, newest
// first.
func (s *Store) GetAllChannels(ctx context.Context) ([]domain.StoredChannel, error) {
	var rows []channelSQL
	if err := s.conn.SelectContext(ctx, &rows, "SELECT * FROM channels ORDER BY saved_at DESC, link"); err != nil {
		return nil, fmt.Errorf("get channels: %w", err)
	}
	channels := make([]domain.StoredChannel, len(rows))
	for i := range rows {
		channels[i] = toDomainChannel(&rows[i])
	}
	return channels, nil
}

// GetChannel returns a single channel by its link, nil when not stored.
func (s *Store) GetChannel(ctx context.Context, channelID string) (*domain.StoredChannel, error) {
	var row channelSQL
	err := s.conn.GetContext(ctx, &row, "SELECT * FROM channels WHERE link = ?", channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	ch := toDomainChannel(&row)
	return &ch, nil
}

func contains(list stringsSQL, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func remove(list stringsSQL, v string) stringsSQL {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
