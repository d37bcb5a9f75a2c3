package message

import (
	"bufio"
	"errors"
	"io"

	"github.com/zostay/go-mailparse/internal/textconv"
	"github.com/zostay/go-mailparse/message/charset"
	"github.com/zostay/go-mailparse/message/flowed"
	"github.com/zostay/go-mailparse/message/split"
	"github.com/zostay/go-mailparse/message/transfer"
	"github.com/zostay/go-mailparse/message/tree"
)

// bodyReader reads the raw body of one leaf from the session's event stream.
// It ends at the first event that does not belong to the leaf, which is put
// back for the session to handle.
type bodyReader struct {
	s    *Session
	id   int
	buf  []byte
	done bool

	// srcErr is the error returned by the splitter, which is fatal
	srcErr error
}

// Read implements io.Reader.
func (br *bodyReader) Read(p []byte) (int, error) {
	for len(br.buf) == 0 {
		if br.srcErr != nil {
			return 0, br.srcErr
		}

		if br.done {
			return 0, io.EOF
		}

		ev, err := br.s.nextSplit()
		if errors.Is(err, io.EOF) {
			br.done = true
			continue
		} else if err != nil {
			br.srcErr = err
			continue
		}

		if ev.Kind != split.KindBody || ev.Node.ID != br.id {
			br.s.unread(ev)
			br.done = true
			continue
		}

		br.buf = ev.Data
	}

	n := copy(p, br.buf)
	br.buf = br.buf[n:]
	return n, nil
}

// drain discards whatever is left of the body.
func (br *bodyReader) drain() error {
	_, err := io.Copy(io.Discard, br)
	return err
}

// textReader returns the decode pipeline of a text leaf: the transfer
// encoding is removed, the charset converted to UTF-8, line breaks normalized
// to LF, and format=flowed text rejoined.
func (s *Session) textReader(p *tree.Part, r io.Reader) io.Reader {
	r = transfer.ApplyTransferDecoding(p.TransferEncoding, r)

	label := p.Charset
	if label == "" {
		br := bufio.NewReaderSize(r, charset.SniffLength)
		head, _ := br.Peek(charset.SniffLength)
		label = charset.Sniff(head, p.MediaType(), s.pr.detectCharset)
		r = br
	}

	r = charset.NewReader(label, r)
	r = textconv.NewLineBreakReader(r)

	if ct := p.ContentType; ct != nil && ct.IsFlowed() {
		r = flowed.NewReader(r, ct.DelSp())
	}

	return r
}

// readText runs a text leaf through its pipeline and keeps the result on the
// part. Decoding problems are warnings. An error reading the message is
// returned.
func (s *Session) readText(p *tree.Part) error {
	body := &bodyReader{s: s, id: p.ID}

	text, err := io.ReadAll(s.textReader(p, body))
	if body.srcErr != nil {
		return body.srcErr
	}

	if err != nil {
		s.warn(p, &DecodeError{PartID: p.ID, Err: err})
		if err := body.drain(); err != nil {
			return err
		}
	}

	p.Text = string(text)
	p.IsText = true
	p.Finalize()

	s.log.Debug("text part decoded",
		"part_id", p.ID,
		"content_type", p.MediaType(),
		"length", len(p.Text),
	)

	return nil
}
