package split

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/zostay/go-mailparse/internal/scanner"
	"github.com/zostay/go-mailparse/message/header"
	"github.com/zostay/go-mailparse/message/header/param"
)

// Constants related to Splitter options.
const (
	// DefaultMaxMultipartDepth is the default depth the splitter will recurse
	// into a message.
	DefaultMaxMultipartDepth = 10

	// DefaultChunkSize is the longest line the splitter will hold in memory.
	// Longer lines are emitted in pieces of this size. Defaults to 16K, though
	// this could change at any time.
	DefaultChunkSize = 16_384

	// DefaultMaxHeaderLength is the default maximum byte length to scan before
	// giving up on finding the end of a header.
	DefaultMaxHeaderLength = bufio.MaxScanTokenSize

	// MinChunkSize is the smallest chunk size permitted. A closing boundary
	// line of the longest boundary RFC 2046 permits has to fit.
	MinChunkSize = 78
)

// Errors that occur during splitting.
var (
	// ErrLargeHeader is returned by Next when a header is longer than the
	// configured WithMaxHeaderLength option (or the default,
	// DefaultMaxHeaderLength). It is fatal.
	ErrLargeHeader = errors.New("the header exceeds the maximum parse length")

	// ErrNoBoundary is recorded in the Warnings of a multipart node when the
	// boundary parameter is not set on its Content-type. The node is treated
	// as a leaf.
	ErrNoBoundary = errors.New("the boundary parameter is missing from Content-type")

	// ErrTooDeep is recorded in the Warnings of a multipart node nested more
	// deeply than permitted. The node is treated as a leaf.
	ErrTooDeep = errors.New("the multipart nesting exceeds the maximum depth")
)

type config struct {
	maxHeaderLen int
	maxDepth     int
	chunkSize    int
}

// Option refers to options that may be passed to New to modify how the
// splitter works.
type Option func(c *config)

// WithMaxHeaderLength sets the maximum length of a header block. A longer
// header is a fatal ErrLargeHeader.
func WithMaxHeaderLength(n int) Option {
	return func(c *config) {
		c.maxHeaderLen = n
	}
}

// WithMaxDepth sets the maximum multipart nesting depth. Multiparts nested
// more deeply are treated as leaves.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		c.maxDepth = n
	}
}

// WithChunkSize sets the length of the longest line held in memory. It is
// never less than MinChunkSize.
func WithChunkSize(n int) Option {
	return func(c *config) {
		c.chunkSize = n
	}
}

// Splitter turns a message into a stream of events. Use New to make one.
type Splitter struct {
	cfg config
	sc  *bufio.Scanner

	lastID int
	stack  []*Node
	cur    *Node

	inHeader    bool
	inLeaf      bool
	atLineStart bool
	header      bytes.Buffer
	held        []byte

	queue []*Event
	err   error
}

// New returns a Splitter that reads the message from r.
func New(r io.Reader, opts ...Option) *Splitter {
	cfg := config{
		maxHeaderLen: DefaultMaxHeaderLength,
		maxDepth:     DefaultMaxMultipartDepth,
		chunkSize:    DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.chunkSize < MinChunkSize {
		cfg.chunkSize = MinChunkSize
	}

	s := &Splitter{
		cfg:         cfg,
		sc:          scanner.New(r, cfg.chunkSize),
		inHeader:    true,
		atLineStart: true,
	}
	s.cur = s.newNode(nil)

	return s
}

// Next returns the next event. It returns io.EOF after the last event. Any
// other error is fatal and will be returned from every call that follows.
func (s *Splitter) Next() (*Event, error) {
	for len(s.queue) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		s.step()
	}

	ev := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return ev, nil
}

func (s *Splitter) emit(kind Kind, n *Node, data []byte) {
	s.queue = append(s.queue, &Event{Kind: kind, Node: n, Data: data})
}

func (s *Splitter) newNode(parent *Node) *Node {
	s.lastID++
	n := &Node{ID: s.lastID, Depth: len(s.stack)}
	if parent == nil {
		n.Root = true
	} else {
		n.ParentID = parent.ID
	}
	return n
}

// step consumes one line of input.
func (s *Splitter) step() {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			s.err = err
			return
		}

		s.finish()
		s.err = io.EOF
		return
	}

	tok := s.sc.Bytes()
	line, br := header.SplitBreak(tok)
	atStart := s.atLineStart
	s.atLineStart = br != header.None

	if s.inHeader {
		s.headerLine(tok, line, br, atStart)
		return
	}

	s.bodyLine(tok, line, br, atStart)
}

// finish emits whatever is left at the end of input.
func (s *Splitter) finish() {
	if s.inHeader {
		s.openNode(header.None)
		return
	}

	if s.inLeaf && len(s.held) > 0 {
		s.emit(KindBody, s.cur, s.held)
		s.held = nil
	}
}

func (s *Splitter) headerLine(tok, line []byte, br header.Break, atStart bool) {
	if atStart {
		// a boundary cuts the header short
		if _, _, isBoundary := s.matchBoundary(line); isBoundary {
			s.openNode(header.None)
			s.bodyLine(tok, line, br, atStart)
			return
		}
	}

	s.header.Write(tok)
	if s.header.Len() > s.cfg.maxHeaderLen {
		s.err = fmt.Errorf("%w: node %d header is over %d bytes", ErrLargeHeader, s.cur.ID, s.cfg.maxHeaderLen)
		return
	}

	if atStart && len(line) == 0 && br != header.None {
		s.openNode(br)
	}
}

// openNode finishes the header of the current node and emits it.
func (s *Splitter) openNode(br header.Break) {
	n := s.cur
	n.Header = bytes.Clone(s.header.Bytes())
	n.Break = br
	n.Lines, n.Warnings = header.ParseLines(n.Header)

	for _, l := range n.Lines {
		if l.Key == header.ContentType {
			n.ContentType, _ = param.ParseLenient(l.Value)
		}
	}

	if ct := n.ContentType; ct != nil && ct.Type() == "multipart" {
		switch {
		case ct.Boundary() == "":
			n.Warnings = append(n.Warnings, fmt.Errorf("node %d: %w", n.ID, ErrNoBoundary))
		case len(s.stack) >= s.cfg.maxDepth:
			n.Warnings = append(n.Warnings, fmt.Errorf("node %d: %w", n.ID, ErrTooDeep))
		default:
			n.Multipart = true
			n.Boundary = ct.Boundary()
			s.stack = append(s.stack, n)
		}
	}

	s.header.Reset()
	s.inHeader = false
	s.inLeaf = !n.Multipart
	s.emit(KindNode, n, nil)
}

func (s *Splitter) bodyLine(tok, line []byte, br header.Break, atStart bool) {
	if atStart {
		if ix, closing, isBoundary := s.matchBoundary(line); isBoundary {
			s.boundary(ix, closing, tok)
			return
		}
	}

	if !s.inLeaf {
		s.emit(KindData, s.cur, bytes.Clone(tok))
		return
	}

	// the line break is held back until it is known not to be part of a
	// boundary delimiter
	data := make([]byte, 0, len(s.held)+len(line))
	data = append(data, s.held...)
	data = append(data, line...)
	s.held = append(s.held[:0], br...)

	if len(data) > 0 {
		s.emit(KindBody, s.cur, data)
	}
}

// boundary handles a boundary line belonging to the multipart at index ix of
// the stack. Any multiparts nested inside of it are closed as well.
func (s *Splitter) boundary(ix int, closing bool, tok []byte) {
	data := make([]byte, 0, len(s.held)+len(tok))
	data = append(data, s.held...)
	data = append(data, tok...)
	s.held = s.held[:0]

	m := s.stack[ix]
	s.stack = s.stack[:ix+1]
	s.inLeaf = false
	s.emit(KindData, m, data)

	if closing {
		s.stack = s.stack[:ix]
		s.cur = m
		return
	}

	s.cur = s.newNode(m)
	s.inHeader = true
}

// matchBoundary checks whether the line is a boundary line of any open
// multipart, starting with the innermost. It returns the index of the
// multipart on the stack and whether it is the closing boundary.
func (s *Splitter) matchBoundary(line []byte) (int, bool, bool) {
	if len(s.stack) == 0 || !bytes.HasPrefix(line, []byte("--")) {
		return 0, false, false
	}

	for i := len(s.stack) - 1; i >= 0; i-- {
		rest, found := bytes.CutPrefix(line[2:], []byte(s.stack[i].Boundary))
		if !found {
			continue
		}

		rest = bytes.TrimRight(rest, " \t")
		switch {
		case len(rest) == 0:
			return i, false, true
		case bytes.Equal(rest, []byte("--")):
			return i, true, true
		}
	}

	return 0, false, false
}
