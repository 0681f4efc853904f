package feed

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// maxHTMLInput caps the amount of markup fed into the collapser so a
// pathological description cannot stall normalization.
const maxHTMLInput = 100000

var htmlTagRe = regexp.MustCompile(`(?is)<[a-z][\s\S]*>`)

// block elements and line breaks turn into newlines when collapsing.
var blockTags = map[string]bool{
	"p": true, "br": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "table": true, "blockquote": true, "pre": true, "hr": true,
}

func looksLikeHTML(s string) bool {
	return htmlTagRe.MatchString(s)
}

// collapseHTML converts markup to plain text, preserving line breaks for
// block-level elements and dropping script/style bodies. No word wrapping.
// Returns ok=false when the input produced no text at all, letting the
// caller keep the raw value instead.
func collapseHTML(s string) (string, bool) {
	if len(s) > maxHTMLInput {
		s = s[:maxHTMLInput]
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0 // inside script/style
	for {
		switch z.Next() {
		case html.ErrorToken:
			text := tidyLines(b.String())
			return text, text != ""
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		}
	}
}

// tidyLines trims each line and squeezes runs of blank lines left behind
// by nested block elements.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
