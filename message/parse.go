package message

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zostay/go-mailparse/internal/metrics"
	"github.com/zostay/go-mailparse/message/split"
)

// Constants related to Parser options.
const (
	// DefaultMaxMultipartDepth is the default depth the parser will recurse
	// into a message. Multiparts nested more deeply are treated as
	// attachments.
	DefaultMaxMultipartDepth = split.DefaultMaxMultipartDepth

	// DefaultChunkSize is the longest line the parser will hold in memory.
	// Longer lines are processed in pieces of this size. Defaults to 16K,
	// though this could change at any time.
	DefaultChunkSize = split.DefaultChunkSize

	// DefaultMaxHeaderLength is the default maximum byte length to scan before
	// giving up on finding the end of a header.
	DefaultMaxHeaderLength = split.DefaultMaxHeaderLength
)

type parser struct {
	maxHeaderLen int
	maxDepth     int
	chunkSize    int

	streamAttachments bool
	attachmentLinks   bool
	detectCharset     bool
	inlineImages      bool

	logger   *slog.Logger
	registry prometheus.Registerer
	metrics  *metrics.Metrics
}

func (pr *parser) clone() *parser {
	p := *pr
	return &p
}

var defaultParser = &parser{
	maxHeaderLen:      DefaultMaxHeaderLength,
	maxDepth:          DefaultMaxMultipartDepth,
	chunkSize:         DefaultChunkSize,
	streamAttachments: true,
}

// ParseOption refers to options that may be passed to New or Parse to modify
// how the parser works.
type ParseOption func(pr *parser)

// WithMaxHeaderLength is a ParseOption that sets the maximum size a header
// block is allowed to reach before parsing fails with split.ErrLargeHeader.
// This setting prevents bad input from resulting in an out of memory error.
// The default value is DefaultMaxHeaderLength.
func WithMaxHeaderLength(n int) ParseOption {
	return func(pr *parser) { pr.maxHeaderLen = n }
}

// WithChunkSize is a ParseOption that controls the longest line held in
// memory while parsing. The default chunk size is DefaultChunkSize.
func WithChunkSize(chunkSize int) ParseOption {
	return func(pr *parser) { pr.chunkSize = chunkSize }
}

// WithMaxDepth is a ParseOption that controls how deep the parser will go in
// recursively parsing a multipart message. This is set to
// DefaultMaxMultipartDepth by default.
func WithMaxDepth(maxDepth int) ParseOption {
	return func(pr *parser) { pr.maxDepth = maxDepth }
}

// WithStreamAttachments is a ParseOption that selects whether the content of
// an attachment is streamed to the consumer as it is read from the input
// (true, the default) or buffered in full before the AttachmentEvent is
// emitted. Either way, the session waits for Release before moving on.
func WithStreamAttachments(stream bool) ParseOption {
	return func(pr *parser) { pr.streamAttachments = stream }
}

// WithAttachmentLinks is a ParseOption that inserts a link to each attachment
// into the HTML of the message at the position the attachment was found.
func WithAttachmentLinks(show bool) ParseOption {
	return func(pr *parser) { pr.attachmentLinks = show }
}

// WithCharsetDetection is a ParseOption that enables statistical charset
// detection for text parts that do not declare a charset and are not valid
// UTF-8.
func WithCharsetDetection(detect bool) ParseOption {
	return func(pr *parser) { pr.detectCharset = detect }
}

// WithInlineImages is a ParseOption used by Parse. When set, the cid:
// references to attachments in the HTML of the message are replaced with data
// URIs holding the attachment content.
func WithInlineImages(inline bool) ParseOption {
	return func(pr *parser) { pr.inlineImages = inline }
}

// WithLogger is a ParseOption that sets the logger sessions report warnings
// and progress to. By default, nothing is logged.
func WithLogger(logger *slog.Logger) ParseOption {
	return func(pr *parser) { pr.logger = logger }
}

// WithMetrics is a ParseOption that registers the parser's collectors with the
// given registry. Parsers may share a registry.
func WithMetrics(reg prometheus.Registerer) ParseOption {
	return func(pr *parser) { pr.registry = reg }
}

// Parser holds the configuration used to parse messages. It is safe for
// concurrent use. Each message gets its own Session.
type Parser struct {
	pr *parser
}

// New returns a Parser configured with the given options.
func New(opts ...ParseOption) *Parser {
	pr := defaultParser.clone()
	for _, opt := range opts {
		opt(pr)
	}

	if pr.logger == nil {
		pr.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if pr.registry != nil {
		m, err := metrics.New(pr.registry)
		if err != nil {
			pr.logger.Warn("unable to register metrics", "error", err)
		}
		pr.metrics = m
	}

	return &Parser{pr}
}

// splitOptions returns the options of the structural splitter.
func (pr *parser) splitOptions() []split.Option {
	return []split.Option{
		split.WithMaxHeaderLength(pr.maxHeaderLen),
		split.WithMaxDepth(pr.maxDepth),
		split.WithChunkSize(pr.chunkSize),
	}
}

// NewSession starts parsing the message read from r. Nothing is read until
// the first call to Next.
func (p *Parser) NewSession(r io.Reader) *Session {
	return newSession(p.pr, r)
}

// NewWriter is for callers that receive the message as it arrives rather than
// owning an io.Reader. Bytes written to the returned writer feed the returned
// session. Writes block until the session has consumed them, so writing and
// calling Next must happen on different goroutines. Close the writer at the
// end of the message, or use CloseWithError to fail the session.
func (p *Parser) NewWriter() (*io.PipeWriter, *Session) {
	pr, pw := io.Pipe()
	return pw, p.NewSession(pr)
}

// Parse drives a session over the message read from r to its end. The
// content of every attachment is buffered in memory and each attachment is
// released as soon as it arrives. This is the simple way to use the parser
// when the size of the message is not a concern.
//
// If WithInlineImages is set, the cid: references of the HTML are replaced
// with data URIs before the message is returned.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Message, error) {
	s := p.NewSession(r)

	var msg *Message
	for {
		ev, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		switch ev := ev.(type) {
		case *AttachmentEvent:
			_ = ev.Attachment.buffer()
			ev.Attachment.Release()
		case *EndEvent:
			msg = ev.Message
		}
	}

	if p.pr.inlineImages {
		if err := msg.RewriteInlineImages(ctx, DataURI); err != nil {
			return msg, err
		}
	}

	return msg, nil
}

// Parse is a shortcut for New(opts...).Parse(ctx, r).
func Parse(ctx context.Context, r io.Reader, opts ...ParseOption) (*Message, error) {
	return New(opts...).Parse(ctx, r)
}
