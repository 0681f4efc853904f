package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ewiq/leatly/pkg/domain"
)

// stringsSQL is a JSON array of strings stored in a TEXT column.
type stringsSQL []string

// Value implements driver.Valuer for database storage.
func (s stringsSQL) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal([]string(s))
}

// Scan implements sql.Scanner for database retrieval.
func (s *stringsSQL) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for strings column: %T", value)
	}
	if len(data) == 0 {
		*s = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal strings column: %w", err)
	}
	if len(out) == 0 {
		*s = nil
		return nil
	}
	*s = out
	return nil
}

type channelSQL struct {
	Link           string     `db:"link"`
	Title          string     `db:"title"`
	Description    string     `db:"description"`
	Language       string     `db:"language"`
	PubDate        string     `db:"pub_date"`
	LastBuildDate  string     `db:"last_build_date"`
	Image          string     `db:"image"`
	FeedURL        string     `db:"feed_url"`
	SavedAt        time.Time  `db:"saved_at"`
	CollectionIDs  stringsSQL `db:"collection_ids"`
	HideOnMainFeed bool       `db:"hide_on_main_feed"`
	CustomTitle    string     `db:"custom_title"`
}

type itemSQL struct {
	ID           string     `db:"id"`
	ChannelID    string     `db:"channel_id"`
	Title        string     `db:"title"`
	Description  string     `db:"description"`
	Link         string     `db:"link"`
	PubDate      string     `db:"pub_date"`
	Author       string     `db:"author"`
	Categories   stringsSQL `db:"categories"`
	Image        string     `db:"image"`
	GUID         string     `db:"guid"`
	SavedAt      time.Time  `db:"saved_at"`
	Read         bool       `db:"read"`
	Closed       bool       `db:"closed"`
	Favourite    bool       `db:"favourite"`
	SearchTokens string     `db:"search_tokens"`
}

type collectionSQL struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func toDomainChannel(c *channelSQL) domain.StoredChannel {
	return domain.StoredChannel{
		Channel: domain.Channel{
			Title:         c.Title,
			Description:   c.Description,
			Link:          c.Link,
			Language:      c.Language,
			PubDate:       c.PubDate,
			LastBuildDate: c.LastBuildDate,
			Image:         c.Image,
		},
		FeedURL:        c.FeedURL,
		SavedAt:        c.SavedAt,
		CollectionIDs:  c.CollectionIDs,
		HideOnMainFeed: c.HideOnMainFeed,
		CustomTitle:    c.CustomTitle,
	}
}

func toDomainItem(it *itemSQL) domain.StoredItem {
	return domain.StoredItem{
		Item: domain.Item{
			Title:       it.Title,
			Description: it.Description,
			Link:        it.Link,
			PubDate:     it.PubDate,
			Author:      it.Author,
			Categories:  it.Categories,
			Image:       it.Image,
			GUID:        it.GUID,
		},
		ID:           it.ID,
		ChannelID:    it.ChannelID,
		SavedAt:      it.SavedAt,
		Read:         it.Read,
		Closed:       it.Closed,
		Favourite:    it.Favourite,
		SearchTokens: it.SearchTokens,
	}
}

func toDomainCollection(c *collectionSQL) domain.Collection {
	return domain.Collection{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}
