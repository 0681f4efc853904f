// Package view builds the UI-ready, ordered item list from a snapshot of
// stored items and channels. It is a pure function of its inputs, no
// storage access involved.
package view

import (
	"sort"
	"time"

	"github.com/araddon/dateparse"
	"github.com/samber/lo"

	"github.com/ewiq/leatly/pkg/domain"
	"github.com/ewiq/leatly/pkg/search"
)

// unknownFeedTitle labels items whose channel reference no longer
// resolves; an unresolved join is never an error.
const unknownFeedTitle = "Unknown Feed"

// Query describes the active view filters. The zero value is the
// aggregated main feed.
type Query struct {
	Search         string
	ChannelID      string
	CollectionID   string
	FavouritesOnly bool
}

// mainFeed reports whether the aggregation rules (hidden channels,
// cross-channel link dedup) apply: only when no narrowing filter is
// active. A search query alone does not leave the main feed.
func (q Query) mainFeed() bool {
	return q.ChannelID == "" && q.CollectionID == "" && !q.FavouritesOnly
}

// Item is a stored item joined with its channel's display metadata.
type Item struct {
	domain.StoredItem
	ChannelTitle string `json:"channelTitle"`
	ChannelImage string `json:"channelImage,omitempty"`
}

// Build filters, joins, deduplicates and orders the snapshot according to
// the query. Ordering is by the item's own pubDate when it parses,
// silently falling back to savedAt otherwise; ties break on item id so the
// result is deterministic for any input order.
func Build(items []domain.StoredItem, channels []domain.StoredChannel, q Query) []Item {
	channelByID := lo.KeyBy(channels, func(c domain.StoredChannel) string { return c.Link })

	visible := lo.Filter(items, func(it domain.StoredItem, _ int) bool {
		if it.Closed {
			return false
		}
		if q.ChannelID != "" && it.ChannelID != q.ChannelID {
			return false
		}
		if q.CollectionID != "" {
			ch, ok := channelByID[it.ChannelID]
			if !ok || !lo.Contains(ch.CollectionIDs, q.CollectionID) {
				return false
			}
		}
		if q.FavouritesOnly && !it.Favourite {
			return false
		}
		if !search.Match(tokensFor(it), q.Search) {
			return false
		}
		return true
	})

	if q.mainFeed() {
		visible = lo.Filter(visible, func(it domain.StoredItem, _ int) bool {
			ch, ok := channelByID[it.ChannelID]
			return !ok || !ch.HideOnMainFeed
		})
		visible = dedupByLink(visible)
	}

	result := lo.Map(visible, func(it domain.StoredItem, _ int) Item {
		out := Item{StoredItem: it, ChannelTitle: unknownFeedTitle}
		if ch, ok := channelByID[it.ChannelID]; ok {
			out.ChannelTitle = ch.Title
			if ch.CustomTitle != "" {
				out.ChannelTitle = ch.CustomTitle
			}
			out.ChannelImage = ch.Image
		}
		return out
	})

	sort.Slice(result, func(i, j int) bool {
		ti, tj := sortTime(&result[i].StoredItem), sortTime(&result[j].StoredItem)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// dedupByLink keeps one instance per canonical item link across channels,
// preferring the latest savedAt and breaking ties on the smaller item id.
// Items without a link are never merged.
func dedupByLink(items []domain.StoredItem) []domain.StoredItem {
	keep := make(map[string]domain.StoredItem, len(items))
	var linkless []domain.StoredItem
	for _, it := range items {
		if it.Link == "" {
			linkless = append(linkless, it)
			continue
		}
		prev, ok := keep[it.Link]
		if !ok || it.SavedAt.After(prev.SavedAt) || (it.SavedAt.Equal(prev.SavedAt) && it.ID < prev.ID) {
			keep[it.Link] = it
		}
	}
	out := make([]domain.StoredItem, 0, len(keep)+len(linkless))
	for _, it := range items {
		if it.Link == "" {
			continue
		}
		if kept, ok := keep[it.Link]; ok && kept.ID == it.ID {
			out = append(out, it)
			delete(keep, it.Link)
		}
	}
	return append(out, linkless...)
}

// sortTime resolves the ordering timestamp: the parsed pubDate when the
// string yields one, savedAt otherwise.
func sortTime(it *domain.StoredItem) time.Time {
	if it.PubDate != "" {
		if t, err := dateparse.ParseAny(it.PubDate); err == nil {
			return t
		}
	}
	return it.SavedAt
}

func tokensFor(it domain.StoredItem) string {
	if it.SearchTokens != "" {
		return it.SearchTokens
	}
	return search.Tokens(it.Item)
}
