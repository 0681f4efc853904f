// Package search builds and matches the normalized full-text blobs stored
// alongside items.
package search

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ewiq/leatly/pkg/domain"
)

// stripPolicy removes any markup that survived description collapsing,
// e.g. when HTML-to-text fell back to the raw value.
var stripPolicy = bluemonday.StrictPolicy()

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases text and folds diacritics so "café" matches "cafe".
// Empty input normalizes to the empty string, which matches everything.
func Normalize(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// Tokens builds the searchable blob for an item from its title,
// description, author and categories.
func Tokens(item domain.Item) string {
	parts := []string{item.Title, item.Description, item.Author}
	parts = append(parts, item.Categories...)
	return Normalize(stripPolicy.Sanitize(strings.Join(parts, " ")))
}

// Match reports whether an item's token blob contains the normalized
// query. An empty query matches every item.
func Match(tokens, query string) bool {
	q := strings.TrimSpace(Normalize(query))
	if q == "" {
		return true
	}
	return strings.Contains(tokens, q)
}
