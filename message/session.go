package message

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/zostay/go-mailparse/internal/mbox"
	"github.com/zostay/go-mailparse/message/charset"
	"github.com/zostay/go-mailparse/message/header"
	"github.com/zostay/go-mailparse/message/header/param"
	"github.com/zostay/go-mailparse/message/split"
	"github.com/zostay/go-mailparse/message/transfer"
	"github.com/zostay/go-mailparse/message/tree"
)

// State is the state of a Session.
type State int

// The states of a Session.
const (
	// StateStreaming means the session is reading the message.
	StateStreaming State = iota

	// StateAwaitingAttachmentRelease means an attachment has been handed to
	// the consumer and Next will wait for it to be released.
	StateAwaitingAttachmentRelease

	// StateDraining means the released attachment is being read to its end.
	StateDraining

	// StateFinished means the EndEvent has been produced.
	StateFinished

	// StateErrored means the session failed. Next returns the same error
	// from now on.
	StateErrored
)

// String returns the name of the state.
func (st State) String() string {
	switch st {
	case StateStreaming:
		return "streaming"
	case StateAwaitingAttachmentRelease:
		return "awaiting-attachment-release"
	case StateDraining:
		return "draining"
	case StateFinished:
		return "finished"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// Session parses a single message. Events are pulled with Next. The input is
// only read while Next runs or while the content of an attachment is read, so
// a consumer that stops calling Next stops the reading.
//
// A Session is not safe for concurrent use, except that Attachment.Release
// may be called from any goroutine and the content of the attachment in
// flight may be read from another goroutine while Next waits for its release.
type Session struct {
	pr  *parser
	log *slog.Logger
	dec *mime.WordDecoder

	in       io.Reader
	sp       *split.Splitter
	isMbox   bool
	mboxFrom string

	state State
	err   error
	start time.Time

	tree *tree.Tree
	root *header.Map
	leaf *tree.Part

	// pending holds the events read ahead by a body reader
	pending []*split.Event
	out     []Event

	inflight     *Attachment
	inflightPart *tree.Part
	inflightSrc  *bodyReader
	attachments []*Attachment
	names       fileNames
	warnings    []error
}

func newSession(pr *parser, r io.Reader) *Session {
	return &Session{
		pr:    pr,
		log:   pr.logger,
		dec:   charset.WordDecoder(),
		in:    r,
		tree:  tree.New(),
		names: fileNames{},
	}
}

// State returns the current state of the session.
func (s *Session) State() State {
	return s.state
}

// Next returns the next event of the session. The first event is always a
// *HeadersEvent. Each attachment results in an *AttachmentEvent, and after
// one is returned, Next waits until the attachment has been released. The
// last event is an *EndEvent, after which Next returns io.EOF.
//
// If ctx ends while Next is waiting, ctx.Err() is returned and Next may be
// called again later. Any other error is fatal: no EndEvent follows and every
// later call returns the same error.
func (s *Session) Next(ctx context.Context) (Event, error) {
	for {
		if len(s.out) > 0 {
			ev := s.out[0]
			s.out[0] = nil
			s.out = s.out[1:]
			return ev, nil
		}

		switch s.state {
		case StateFinished:
			return nil, io.EOF

		case StateErrored:
			return nil, s.err

		case StateAwaitingAttachmentRelease:
			select {
			case <-s.inflight.released:
				s.state = StateDraining
			case <-ctx.Done():
				return nil, ctx.Err()
			}

		case StateDraining:
			if err := s.finishAttachment(); err != nil {
				return nil, s.fail(err)
			}
			s.state = StateStreaming

		case StateStreaming:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := s.step(); err != nil {
				return nil, s.fail(err)
			}
		}
	}
}

// fail moves the session into the errored state.
func (s *Session) fail(err error) error {
	s.err = err
	s.state = StateErrored
	s.pr.metrics.ObserveSession(s.start, err)
	s.log.Error("message parse failed", "error", err)
	return err
}

// warn records a non-fatal problem.
func (s *Session) warn(p *tree.Part, err error) {
	s.warnings = append(s.warnings, err)

	kind := "header"
	var de *DecodeError
	switch {
	case errors.As(err, &de):
		kind = "decode"
	case errors.Is(err, tree.ErrStructuralAnomaly):
		kind = "anomaly"
	case errors.Is(err, split.ErrNoBoundary), errors.Is(err, split.ErrTooDeep):
		kind = "structure"
	}
	s.pr.metrics.ObserveWarning(kind)

	args := []any{"kind", kind, "error", err}
	if p != nil {
		args = append(args, "part_id", p.ID, "parent_id", p.ParentID)
	}
	s.log.Warn("problem found in message", args...)
}

// nextSplit returns the next structural event, taking those put back first.
func (s *Session) nextSplit() (*split.Event, error) {
	if len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		return ev, nil
	}

	return s.sp.Next()
}

// unread puts an event back to be returned by the next call to nextSplit.
func (s *Session) unread(ev *split.Event) {
	s.pending = append(s.pending, ev)
}

// begin looks for an mbox separator and starts the splitter.
func (s *Session) begin() error {
	s.start = time.Now()

	r, from, isMbox, err := mbox.Detect(s.in)
	if err != nil {
		return fmt.Errorf("unable to read message: %w", err)
	}

	if isMbox {
		s.isMbox = true
		s.mboxFrom = from
		r = mbox.NewReader(r)
	}

	s.sp = split.New(r, s.pr.splitOptions()...)
	return nil
}

// step makes one move forward through the message.
func (s *Session) step() error {
	if s.sp == nil {
		return s.begin()
	}

	if leaf := s.leaf; leaf != nil {
		s.leaf = nil
		if isAttachment(leaf) {
			return s.openAttachment(leaf)
		}
		return s.readText(leaf)
	}

	ev, err := s.nextSplit()
	if errors.Is(err, io.EOF) {
		s.finish()
		return nil
	} else if err != nil {
		return err
	}

	if ev.Kind == split.KindNode {
		s.openNode(ev.Node)
	}

	return nil
}

// openNode places a new node into the tree and normalizes its header.
func (s *Session) openNode(n *split.Node) {
	p, err := s.tree.Place(n.ID, n.ParentID, n.Root)
	if err != nil {
		s.warn(p, err)
	}
	s.pr.metrics.ObservePart()

	hdr, errs := header.Normalize(n.Lines, s.dec)
	p.Header = hdr
	for _, err := range n.Warnings {
		s.warn(p, err)
	}
	for _, err := range errs {
		s.warn(p, fmt.Errorf("part %d: %w", p.ID, err))
	}

	if ct, err := hdr.GetParam(header.ContentType); err == nil && ct.MediaType() != "" {
		p.ContentType = ct
		p.Charset = ct.Charset()
	} else if p.Root {
		p.ContentType = param.New("text/plain")
	}

	if cd, err := hdr.GetParam(header.ContentDisposition); err == nil {
		p.Disposition = strings.ToLower(cd.Disposition())
	}

	if cte, err := hdr.Get(header.ContentTransferEncoding); err == nil {
		p.TransferEncoding = transfer.Normalize(cte)
		if _, known := transfer.Decoders[p.TransferEncoding]; !known && !transfer.IsIdentity(cte) {
			s.log.Debug("unknown transfer encoding read verbatim",
				"part_id", p.ID,
				"transfer_encoding", p.TransferEncoding,
			)
		}
	}

	p.Multipart = n.Multipart

	s.log.Debug("part opened",
		"part_id", p.ID,
		"parent_id", p.ParentID,
		"content_type", p.MediaType(),
	)

	if p.Root && s.root == nil {
		s.root = hdr
		s.out = append(s.out, &HeadersEvent{Header: hdr})
	}

	if !p.Multipart {
		s.leaf = p
	} else {
		p.Finalize()
	}
}

// openAttachment hands a leaf to the consumer as an attachment.
func (s *Session) openAttachment(p *tree.Part) error {
	body := &bodyReader{s: s, id: p.ID}
	a := newAttachment(s.tree, p, nil)

	r := a.detectContentType(transfer.ApplyTransferDecoding(p.TransferEncoding, body))
	a.content.r = r
	a.GeneratedFilename = s.names.generate(a.Filename, a.ContentType)

	p.AttachmentIndex = len(s.attachments)
	s.attachments = append(s.attachments, a)
	s.inflight = a
	s.inflightPart = p
	s.inflightSrc = body

	if !s.pr.streamAttachments {
		_ = a.buffer()
		if body.srcErr != nil {
			return body.srcErr
		}
	}

	s.log.Debug("attachment emitted",
		"part_id", p.ID,
		"content_type", a.ContentType,
		"filename", a.GeneratedFilename,
	)

	s.out = append(s.out, &AttachmentEvent{Attachment: a, Header: s.root})
	s.state = StateAwaitingAttachmentRelease
	return nil
}

// finishAttachment reads what the consumer left of the released attachment
// and records its size and checksum.
func (s *Session) finishAttachment() error {
	a, p, body := s.inflight, s.inflightPart, s.inflightSrc
	s.inflight, s.inflightPart, s.inflightSrc = nil, nil, nil

	_, _ = io.Copy(io.Discard, a.content)
	if body.srcErr != nil {
		return body.srcErr
	}

	if err := a.content.decodeErr(); err != nil {
		s.warn(p, &DecodeError{PartID: a.PartID, Err: err})
	}

	if err := body.drain(); err != nil {
		return err
	}

	a.Size = a.content.n
	a.Checksum = a.content.sum()
	if !a.buffered {
		a.Content = nil
	}

	p.Finalize()

	s.pr.metrics.ObserveAttachment(a.Size)
	return nil
}

// finish builds the message once the input is exhausted.
func (s *Session) finish() {
	for _, p := range s.tree.Parts() {
		p.Finalize()
	}

	msg := newMessage(s.root)
	msg.Attachments = s.attachments
	msg.Warnings = s.warnings
	msg.IsMbox = s.isMbox
	msg.MboxFrom = s.mboxFrom
	msg.Tree = s.tree
	msg.Text, msg.HTML = aggregate(s.tree, s.attachments, s.pr.attachmentLinks)
	msg.TextAsHTML = textAsHTML(msg.Text)

	s.out = append(s.out, &EndEvent{Message: msg})
	s.state = StateFinished
	s.pr.metrics.ObserveSession(s.start, nil)

	s.log.Debug("message parsed",
		"parts", s.tree.Len(),
		"attachments", len(s.attachments),
		"warnings", len(s.warnings),
	)
}
