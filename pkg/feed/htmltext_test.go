package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, looksLikeHTML("<p>hello</p>"))
	assert.True(t, looksLikeHTML("text with <br> break"))
	assert.False(t, looksLikeHTML("plain text"))
	assert.False(t, looksLikeHTML("a < b and b > c"))
}

func TestCollapseHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"inline tags vanish", "Some <b>bold</b> and <i>italic</i> text", "Some bold and italic text"},
		{"paragraphs separated by blank line", "<p>first</p><p>second</p>", "first\n\nsecond"},
		{"br becomes line", "one<br>two", "one\ntwo"},
		{"list items separated", "<ul><li>a</li><li>b</li></ul>", "a\n\nb"},
		{"script body dropped", `<p>visible</p><script>var hidden = "1";</script>`, "visible"},
		{"style body dropped", "<style>p { color: red }</style><p>shown</p>", "shown"},
		{"entities decoded", "fish &amp; chips", "fish & chips"},
		{"nested blocks squeeze to one blank line", "<div><div><p>deep</p></div></div><p>next</p>", "deep\n\nnext"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := collapseHTML(tt.in)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollapseHTML_NoText(t *testing.T) {
	_, ok := collapseHTML(`<img src="https://x/a.png">`)
	assert.False(t, ok, "markup with no text reports not-ok so callers keep the raw value")
}

func TestCollapseHTML_CapsInput(t *testing.T) {
	// oversized input is truncated, not rejected
	big := "<p>" + strings.Repeat("a", maxHTMLInput*2) + "</p>"
	got, ok := collapseHTML(big)
	assert.True(t, ok)
	assert.LessOrEqual(t, len(got), maxHTMLInput)
	assert.True(t, strings.HasPrefix(got, "aaa"))
}

func TestTidyLines(t *testing.T) {
	assert.Equal(t, "a\nb", tidyLines("  a  \n  b  "))
	assert.Equal(t, "a\nb", tidyLines("\n\na\nb\n\n"))
	assert.Equal(t, "a\n\nb", tidyLines("a\n \n \nb"))
	assert.Empty(t, tidyLines(" \n \n "))
}
