package feed

import (
	"regexp"
	"strings"
)

var imgSrcRe = regexp.MustCompile(`(?i)<img[^>]+src="([^">]+)"`)

// firstText returns the first non-empty value among the given text nodes.
func firstText(nodes ...TextNode) string {
	for _, n := range nodes {
		if n.Value != "" {
			return n.Value
		}
	}
	return ""
}

// extractLink picks a single link out of however many the element carried:
// an entry marked rel=alternate wins, then the first entry with an href
// attribute, then the first plain-text link. Empty string when nothing
// matches.
func extractLink(links []LinkNode) string {
	for _, l := range links {
		if l.Rel == "alternate" && l.Href != "" {
			return l.Href
		}
	}
	for _, l := range links {
		if l.Href != "" {
			return l.Href
		}
	}
	for _, l := range links {
		if s := strings.TrimSpace(l.Text); s != "" {
			return s
		}
	}
	return ""
}

// extractCategories maps category nodes to strings, preferring text over
// the structured term attribute. Returns nil, never an empty slice, when
// no category is present.
func extractCategories(cats []CategoryNode) []string {
	var out []string
	for _, c := range cats {
		v := strings.TrimSpace(c.Text)
		if v == "" {
			v = c.Term
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// extractImageURL reads a channel-level image: plain text URL, nested
// <url> block, or href attribute, in that order.
func extractImageURL(img *ImageNode) string {
	if img == nil {
		return ""
	}
	if s := strings.TrimSpace(img.Text); s != "" {
		return s
	}
	if img.URL.Value != "" {
		return img.URL.Value
	}
	return img.Href
}

// firstImage returns the image of the first of two channel image nodes
// that yields one.
func firstImage(nodes ...*ImageNode) string {
	for _, n := range nodes {
		if url := extractImageURL(n); url != "" {
			return url
		}
	}
	return ""
}

// extractItemImage probes the media-embedding conventions in priority
// order: media:content, image-typed enclosure, media:thumbnail,
// itunes:image, and finally the first <img src=...> inside the raw
// description HTML. Never fetches anything; empty string when no source
// matches.
func extractItemImage(media, thumbs []MediaNode, enc *EnclosureNode, itunes *ImageNode, rawDesc string) string {
	for _, m := range media {
		if m.Medium == "image" && m.URL != "" {
			return m.URL
		}
	}
	for _, m := range media {
		if m.URL != "" {
			return m.URL
		}
	}
	if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
		return enc.URL
	}
	for _, m := range thumbs {
		if m.URL != "" {
			return m.URL
		}
	}
	if itunes != nil && itunes.Href != "" {
		return itunes.Href
	}
	if rawDesc != "" {
		if m := imgSrcRe.FindStringSubmatch(rawDesc); m != nil {
			return m[1]
		}
	}
	return ""
}

// extractDescription resolves the item body from description, then
// content:encoded, then summary, collapsing HTML to plain text when the
// value contains markup. A failed collapse degrades to the raw text; it
// never fails the item.
func extractDescription(desc, encoded, summary TextNode) string {
	raw := firstText(desc, encoded, summary)
	if raw == "" {
		return ""
	}
	if !looksLikeHTML(raw) {
		return raw
	}
	if text, ok := collapseHTML(raw); ok {
		return text
	}
	return raw
}
