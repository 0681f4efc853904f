package domain

import "time"

// StoredChannel is a persisted channel. CollectionIDs, HideOnMainFeed and
// CustomTitle are user-set and survive every re-fetch; the embedded Channel
// fields are refreshed from the feed on each save.
type StoredChannel struct {
	Channel
	FeedURL        string    `json:"feedUrl"`
	SavedAt        time.Time `json:"savedAt"`
	CollectionIDs  []string  `json:"collectionIds"`
	HideOnMainFeed bool      `json:"hideOnMainFeed"`
	CustomTitle    string    `json:"customTitle,omitempty"`
}

// StoredItem is a persisted item. ID is a pure function of the identity
// tuple, see ItemID. SavedAt and the user flags are set once on first
// ingestion and never reset by a re-fetch.
type StoredItem struct {
	Item
	ID           string    `json:"id"`
	ChannelID    string    `json:"channelId"`
	SavedAt      time.Time `json:"savedAt"`
	Read         bool      `json:"read"`
	Closed       bool      `json:"closed"`
	Favourite    bool      `json:"favourite"`
	SearchTokens string    `json:"-"`
}

// Collection is a user-defined group of channels.
type Collection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ItemUpdate carries a partial update of user flags; nil fields are left
// untouched.
type ItemUpdate struct {
	Read      *bool `json:"read,omitempty"`
	Closed    *bool `json:"closed,omitempty"`
	Favourite *bool `json:"favourite,omitempty"`
}

// ChannelSettings carries a partial update of user-set channel fields; nil
// fields are left untouched.
type ChannelSettings struct {
	HideOnMainFeed *bool   `json:"hideOnMainFeed,omitempty"`
	CustomTitle    *string `json:"customTitle,omitempty"`
}
