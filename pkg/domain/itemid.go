package domain

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// ItemID derives a deterministic identifier for an item from its link,
// title, owning channel link and verbatim pubDate. Link, title and channel
// are trimmed and lowercased first, so whitespace and case variants of the
// same item collapse to one id. The result is formatted like a UUID for
// storage-key compatibility but carries no randomness: identical input
// always yields the identical id. Not collision-proof and not for anything
// security-sensitive, only for dedup and key stability.
func ItemID(link, title, channelID, pubDate string) string {
	data := strings.ToLower(strings.TrimSpace(link)) + "|" +
		strings.ToLower(strings.TrimSpace(channelID)) + "|" +
		strings.ToLower(strings.TrimSpace(title)) + "|" +
		pubDate

	// two-lane 32-bit mixing hash (cyrb53). Runs over UTF-16 code units so
	// non-ASCII titles hash the same way regardless of encoding quirks.
	h1 := uint32(0xdeadbeef)
	h2 := uint32(0x41c6ce57)
	for _, ch := range utf16.Encode([]rune(data)) {
		h1 = (h1 ^ uint32(ch)) * 2654435761
		h2 = (h2 ^ uint32(ch)) * 1597334677
	}
	h1 = (h1 ^ (h1 >> 16)) * 2246822507
	h1 ^= (h2 ^ (h2 >> 13)) * 3266489909
	h2 = (h2 ^ (h2 >> 16)) * 2246822507
	h2 ^= (h1 ^ (h1 >> 13)) * 3266489909

	hex1 := fmt.Sprintf("%08x", h2)
	hex2 := fmt.Sprintf("%08x", h1)

	return fmt.Sprintf("%s-%s-%s-%s-%s%s", hex1, hex2[:4], hex2[4:], hex1[:4], hex1, hex2)
}
