package message

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/zostay/go-mailparse/message/header"
	"github.com/zostay/go-mailparse/message/tree"
)

// Message is the result of parsing a message. The fields are projections of
// the header made for convenience. The header itself holds every field.
type Message struct {
	Header *header.Map `json:"-" yaml:"-"`

	Subject      string               `json:"subject,omitempty" yaml:"subject,omitempty"`
	From         []header.Address     `json:"from,omitempty" yaml:"from,omitempty"`
	To           []header.Address     `json:"to,omitempty" yaml:"to,omitempty"`
	Cc           []header.Address     `json:"cc,omitempty" yaml:"cc,omitempty"`
	Bcc          []header.Address     `json:"bcc,omitempty" yaml:"bcc,omitempty"`
	ReplyTo      []header.Address     `json:"replyTo,omitempty" yaml:"replyTo,omitempty"`
	Date         *time.Time           `json:"date,omitempty" yaml:"date,omitempty"`
	ReceivedDate *time.Time           `json:"receivedDate,omitempty" yaml:"receivedDate,omitempty"`
	MessageID    string               `json:"messageId,omitempty" yaml:"messageId,omitempty"`
	InReplyTo    []string             `json:"inReplyTo,omitempty" yaml:"inReplyTo,omitempty"`
	References   []string             `json:"references,omitempty" yaml:"references,omitempty"`
	Priority     header.PriorityLevel `json:"priority" yaml:"priority"`

	// Text is the plain text of the message and HTML its HTML. TextAsHTML is
	// Text rendered as HTML.
	Text       string `json:"text,omitempty" yaml:"text,omitempty"`
	HTML       string `json:"html,omitempty" yaml:"html,omitempty"`
	TextAsHTML string `json:"textAsHtml,omitempty" yaml:"textAsHtml,omitempty"`

	Attachments []*Attachment `json:"attachments,omitempty" yaml:"attachments,omitempty"`

	// Warnings lists the problems found in the message that did not stop it
	// from being parsed.
	Warnings []error `json:"-" yaml:"-"`

	// IsMbox is true when the message started with an mbox separator line,
	// which is kept in MboxFrom.
	IsMbox   bool   `json:"isMbox" yaml:"isMbox"`
	MboxFrom string `json:"mboxFrom,omitempty" yaml:"mboxFrom,omitempty"`

	// Tree is the part tree the message was built from.
	Tree *tree.Tree `json:"-" yaml:"-"`
}

// stripIDs removes the angle brackets from message ids.
func stripIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strings.Trim(id, "<>")
	}
	return out
}

// newMessage makes a message from the header of its root part.
func newMessage(h *header.Map) *Message {
	if h == nil {
		h = header.NewMap()
	}

	m := &Message{
		Header:   h,
		Priority: h.GetPriority(),
	}

	m.Subject, _ = h.Get(header.Subject)
	m.From, _ = h.GetAddresses(header.From)
	m.To, _ = h.GetAddresses(header.To)
	m.Cc, _ = h.GetAddresses(header.Cc)
	m.Bcc, _ = h.GetAddresses(header.Bcc)
	m.ReplyTo, _ = h.GetAddresses(header.ReplyTo)
	if date, err := h.GetTime(header.Date); err == nil {
		m.Date = &date
	}

	if ids, err := h.GetIDs(header.MessageID); err == nil && len(ids) > 0 {
		m.MessageID = strings.Trim(ids[0], "<>")
	}

	ids, _ := h.GetIDs(header.InReplyTo)
	m.InReplyTo = stripIDs(ids)
	ids, _ = h.GetIDs(header.References)
	m.References = stripIDs(ids)

	if rcvd := h.GetAll(header.Received); len(rcvd) > 0 {
		if date, err := header.ParseReceivedTime(rcvd[0]); err == nil {
			m.ReceivedDate = &date
		}
	}

	return m
}

// Resolver returns the replacement for a cid: reference to the attachment.
type Resolver func(ctx context.Context, a *Attachment) (string, error)

// DataURI is a Resolver that returns a data URI holding the content of the
// attachment. The attachment must be buffered.
func DataURI(_ context.Context, a *Attachment) (string, error) {
	if !a.IsBuffered() {
		return "", fmt.Errorf("%w: %s", ErrNotBuffered, a.ContentID)
	}

	return "data:" + a.ContentType + ";base64," + base64.StdEncoding.EncodeToString(a.Bytes()), nil
}

// RewriteInlineImages replaces the cid: references in the HTML of the message
// with the values returned by the resolver. The resolver is called once for
// each attachment that is referenced.
func (m *Message) RewriteInlineImages(ctx context.Context, resolve Resolver) error {
	for _, a := range m.Attachments {
		if a.ContentID == "" {
			continue
		}

		ref := "cid:" + a.ContentID
		rx := regexp.MustCompile(regexp.QuoteMeta(ref) + `(?:$|[^\w.@%+-])`)
		if !rx.MatchString(m.HTML) {
			continue
		}

		to, err := resolve(ctx, a)
		if err != nil {
			return fmt.Errorf("unable to resolve %s: %w", ref, err)
		}

		m.HTML = rx.ReplaceAllStringFunc(m.HTML, func(s string) string {
			return to + s[len(ref):]
		})
	}

	return nil
}
