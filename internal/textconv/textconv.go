// Package textconv converts message text between plain text and HTML and
// normalizes line breaks.
package textconv

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()

	breakRx     = regexp.MustCompile(`(?i)<br\s*/?>`)
	paragraphRx = regexp.MustCompile(`(?i)</(?:p|h[1-6]|blockquote|pre|table|ul|ol)\s*>`)
	blockRx     = regexp.MustCompile(`(?i)</(?:div|li|tr|dt|dd)\s*>|<hr[^>]*>`)
	trailingRx  = regexp.MustCompile(`[ \t]+\n`)
	blankRx     = regexp.MustCompile(`\n{3,}`)
	paraSplitRx = regexp.MustCompile(`\n[ \t]*\n+`)
)

// HTMLToText strips the tags from an HTML fragment and returns the text left
// over. Line and paragraph breaking elements become line breaks. The content
// of script and style elements is dropped and entities are decoded.
func HTMLToText(h string) string {
	h = strings.ReplaceAll(h, "\r\n", "\n")
	h = breakRx.ReplaceAllString(h, "\n")
	h = paragraphRx.ReplaceAllString(h, "\n\n")
	h = blockRx.ReplaceAllString(h, "\n")

	text := html.UnescapeString(strict.Sanitize(h))
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = trailingRx.ReplaceAllString(text, "\n")
	text = blankRx.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// TextToHTML renders plain text as HTML. Text separated by blank lines
// becomes paragraphs and the remaining line breaks become <br/>.
func TextToHTML(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return ""
	}

	var b strings.Builder
	for i, para := range paraSplitRx.Split(text, -1) {
		if i > 0 {
			b.WriteString("\n")
		}

		b.WriteString("<p>")
		for j, line := range strings.Split(para, "\n") {
			if j > 0 {
				b.WriteString("<br/>")
			}
			b.WriteString(html.EscapeString(line))
		}
		b.WriteString("</p>")
	}

	return b.String()
}
