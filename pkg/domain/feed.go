package domain

// Channel is the canonical channel representation produced by the
// normalizer, independent of the source dialect. Link is the natural key:
// two fetches resolve to the same channel only when Link matches.
type Channel struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Link          string `json:"link"`
	Language      string `json:"language,omitempty"`
	PubDate       string `json:"pubDate,omitempty"`
	LastBuildDate string `json:"lastBuildDate,omitempty"`
	Image         string `json:"image,omitempty"`
}

// Item is the canonical item representation. PubDate is kept verbatim as
// the feed published it, even when it is not a parseable date. Categories
// is nil when the feed carries none, never an empty slice.
type Item struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	PubDate     string   `json:"pubDate"`
	Author      string   `json:"author,omitempty"`
	Categories  []string `json:"category,omitempty"`
	Image       string   `json:"image,omitempty"`
	GUID        string   `json:"guid,omitempty"`
}

// Feed bundles a channel with its items as one normalized fetch result.
type Feed struct {
	Channel Channel `json:"channel"`
	Items   []Item  `json:"items"`
}
