package message

import (
	"fmt"
	"html"
	"strings"

	"github.com/zostay/go-mailparse/internal/textconv"
	"github.com/zostay/go-mailparse/message/tree"
	"github.com/zostay/go-mailparse/message/walk"
)

// Separators used when joining the fragments of the message text.
const (
	TextSeparator = "\n\n"
	HTMLSeparator = "<br/>\n"
)

// AttachmentLinkFormat is the HTML inserted for an attachment when attachment
// links are enabled. It is given the content id and the escaped name.
const AttachmentLinkFormat = "\n<div class=\"mailparser-attachment\"><a href=\"cid:%s\">&lt;%s&gt;</a></div>"

type fragmentKind int

const (
	plainFragment fragmentKind = iota
	htmlFragment
	linkFragment
)

type fragment struct {
	kind fragmentKind
	text string

	// alternative is true for text within a multipart/alternative part
	alternative bool
}

// collect gathers the text fragments of the message in document order.
func collect(t *tree.Tree, attachments []*Attachment, links bool) []fragment {
	var frags []fragment
	_ = walk.AndProcess(
		func(p *tree.Part, parents []*tree.Part) error {
			if p.Multipart {
				return nil
			}

			if p.AttachmentIndex != tree.NoIndex {
				if links {
					a := attachments[p.AttachmentIndex]
					frags = append(frags, fragment{
						kind: linkFragment,
						text: fmt.Sprintf(AttachmentLinkFormat, a.ContentID, html.EscapeString(a.Name())),
					})
				}
				return nil
			}

			if !p.IsText {
				return nil
			}

			f := fragment{
				kind:        plainFragment,
				text:        p.Text,
				alternative: walk.HasAncestor(parents, "multipart/alternative"),
			}
			if p.MediaType() == "text/html" {
				f.kind = htmlFragment
			}
			frags = append(frags, f)
			return nil
		}, t, t.Root())

	return frags
}

// aggregate builds the plain text and HTML of the message. Fragments of each
// kind are joined in document order. If the message has no fragment of one
// kind, that kind is made from the fragments of the other kind, except those
// within a multipart/alternative, which already chose not to offer it.
func aggregate(t *tree.Tree, attachments []*Attachment, links bool) (string, string) {
	frags := collect(t, attachments, links)

	var hasPlain, hasHTML bool
	for _, f := range frags {
		switch f.kind {
		case plainFragment:
			hasPlain = true
		case htmlFragment:
			hasHTML = true
		}
	}

	var texts, htmls []string
	for _, f := range frags {
		switch f.kind {
		case plainFragment:
			texts = append(texts, f.text)
			if !hasHTML && !f.alternative {
				htmls = append(htmls, textconv.TextToHTML(f.text))
			}

		case htmlFragment:
			htmls = append(htmls, f.text)
			if !hasPlain && !f.alternative {
				texts = append(texts, textconv.HTMLToText(f.text))
			}

		case linkFragment:
			htmls = append(htmls, f.text)
		}
	}

	return strings.Join(texts, TextSeparator), strings.Join(htmls, HTMLSeparator)
}

// textAsHTML renders the plain text of the message as HTML.
func textAsHTML(text string) string {
	return textconv.TextToHTML(text)
}
