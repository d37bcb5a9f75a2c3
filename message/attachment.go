package message

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"mime"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/zostay/go-mailparse/message/header"
	"github.com/zostay/go-mailparse/message/tree"
	"github.com/zostay/go-mailparse/message/walk"
)

const (
	// GeneratedIDDomain is the domain of the content ids made up for
	// attachments that do not have one.
	GeneratedIDDomain = "mailparser"

	// OctetStream is the media type of content of unknown type.
	OctetStream = "application/octet-stream"

	// sniffLength is how much content is examined to detect its type.
	sniffLength = 3072
)

// Attachment is a leaf of the message that is not part of its text. The
// content is read from Content. Once done with it, the consumer must call
// Release, or the session will wait forever.
type Attachment struct {
	// Content is the transfer decoded content of the attachment. It is only
	// valid until Release is called.
	Content io.Reader `json:"-" yaml:"-"`

	// ContentType is the media type declared for the attachment, or if that
	// is missing or application/octet-stream, the one detected from the file
	// name or the content.
	ContentType string `json:"contentType" yaml:"contentType"`

	// Disposition is "attachment", "inline", or empty.
	Disposition string `json:"disposition,omitempty" yaml:"disposition,omitempty"`

	// ContentID is the content id without angle brackets. One is generated
	// when the part does not have one: the MD5 of the content when it is
	// buffered, a random id when it is streamed.
	ContentID string `json:"contentId" yaml:"contentId"`

	// Filename is the file name given in the header, if any.
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`

	// GeneratedFilename is a file name that is unique within the message.
	GeneratedFilename string `json:"generatedFilename" yaml:"generatedFilename"`

	// Related is true when the part declared a content id and is within a
	// multipart/related part.
	Related bool `json:"related" yaml:"related"`

	// Size is the decoded size in bytes and Checksum the MD5 of the content
	// in hex. Both are set once the attachment has been released.
	Size     int64  `json:"size" yaml:"size"`
	Checksum string `json:"checksum" yaml:"checksum"`

	// Header is the normalized header of the part.
	Header *header.Map `json:"-" yaml:"-"`

	// PartID is the ID of the part in the message.
	PartID int `json:"partId" yaml:"partId"`

	content  *contentReader
	data        []byte
	buffered    bool
	generatedID bool

	released chan struct{}
	once     sync.Once
}

// Release tells the session the consumer is done with the content. It may be
// called any number of times from any goroutine.
func (a *Attachment) Release() {
	a.once.Do(func() { close(a.released) })
}

// Bytes returns the content of a buffered attachment. It returns nil if the
// content was streamed.
func (a *Attachment) Bytes() []byte {
	return a.data
}

// IsBuffered returns true if the content is held in memory.
func (a *Attachment) IsBuffered() bool {
	return a.buffered
}

// buffer reads the rest of the content into memory and makes Content a
// reader of that copy.
func (a *Attachment) buffer() error {
	if a.buffered {
		return nil
	}

	data, err := io.ReadAll(a.Content)
	a.data = append(a.data, data...)
	a.Content = bytes.NewReader(a.data)
	a.buffered = true

	if err == nil && a.generatedID {
		a.ContentID = a.content.sum() + "@" + GeneratedIDDomain
	}
	return err
}

// Name returns Filename or, when that is empty, GeneratedFilename.
func (a *Attachment) Name() string {
	if a.Filename != "" {
		return a.Filename
	}
	return a.GeneratedFilename
}

// contentReader counts and hashes the content as it is read.
type contentReader struct {
	r   io.Reader
	h   hash.Hash
	n   int64
	err error
}

func newContentReader(r io.Reader) *contentReader {
	return &contentReader{r: r, h: md5.New()}
}

// Read implements io.Reader. The first error is sticky.
func (cr *contentReader) Read(p []byte) (int, error) {
	if cr.err != nil {
		return 0, cr.err
	}

	n, err := cr.r.Read(p)
	cr.h.Write(p[:n])
	cr.n += int64(n)
	if err != nil {
		cr.err = err
	}
	return n, err
}

// decodeErr returns the error that ended the content, if it was anything
// other than io.EOF.
func (cr *contentReader) decodeErr() error {
	if errors.Is(cr.err, io.EOF) {
		return nil
	}
	return cr.err
}

// sum returns the MD5 of everything read so far in hex.
func (cr *contentReader) sum() string {
	return hex.EncodeToString(cr.h.Sum(nil))
}

// isAttachment returns true if the leaf is handed to the consumer rather than
// being made part of the message text.
func isAttachment(p *tree.Part) bool {
	if p.Disposition == "attachment" {
		return true
	}

	switch p.MediaType() {
	case "text/plain", "text/html":
		return false
	}

	return true
}

// newAttachment builds the attachment record of a leaf from its header. The
// content type may be refined later by detectContentType.
func newAttachment(t *tree.Tree, p *tree.Part, content io.Reader) *Attachment {
	a := &Attachment{
		ContentType: p.MediaType(),
		Disposition: p.Disposition,
		Header:      p.Header,
		PartID:      p.ID,
		content:     newContentReader(content),
		released:    make(chan struct{}),
	}
	a.Content = a.content

	if pv, err := p.Header.GetParam(header.ContentDisposition); err == nil {
		a.Filename = pv.Filename()
	}
	if a.Filename == "" && p.ContentType != nil {
		a.Filename = p.ContentType.Name()
	}

	if cid, err := p.Header.Get(header.ContentID); err == nil {
		a.ContentID = strings.Trim(strings.TrimSpace(cid), "<>")
	}

	if a.ContentID != "" {
		a.Related = walk.HasAncestor(t.Ancestors(p), "multipart/related")
	} else {
		a.ContentID = generateContentID()
		a.generatedID = true
	}

	return a
}

// generateContentID returns a new content id in the generated id domain.
func generateContentID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "") + "@" + GeneratedIDDomain
}

// detectContentType fills in the content type when the declared one says
// nothing useful. The file name is consulted first. If there is no declared
// type at all, the leading bytes of the content are sniffed. The returned
// reader must be used in place of r.
func (a *Attachment) detectContentType(r io.Reader) io.Reader {
	if a.ContentType != "" && a.ContentType != OctetStream {
		return r
	}

	if a.Filename != "" {
		if ix := strings.LastIndexByte(a.Filename, '.'); ix >= 0 {
			if mt, _, _ := strings.Cut(mime.TypeByExtension(a.Filename[ix:]), ";"); mt != "" {
				a.ContentType = strings.TrimSpace(mt)
				return r
			}
		}
	}

	if a.ContentType != "" {
		return r
	}

	br := bufio.NewReaderSize(r, sniffLength)
	head, _ := br.Peek(sniffLength)
	mt, _, _ := strings.Cut(mimetype.Detect(head).String(), ";")
	a.ContentType = mt
	return br
}

// extension returns the file name extension, with its leading dot, used for
// files of the given media type.
func extension(mediaType string) string {
	if m := mimetype.Lookup(mediaType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".bin"
}

var numberedRx = regexp.MustCompile(`(?:-\d+)+(\.[^.]*)$`)

// fileNames hands out file names unique within a message. Names are counted
// by their root, which is the name with any numeric suffixes removed, so
// "a.txt", "a-1.txt", and "a-1-1.txt" all share a counter.
type fileNames map[string]int

// generate returns a unique file name based upon the given name or, when that
// is empty, the media type.
func (fn fileNames) generate(name, mediaType string) string {
	if name == "" {
		name = "attachment" + extension(mediaType)
	}

	root := numberedRx.ReplaceAllString(name, "$1")
	if root == "" {
		root = "attachment"
	}

	n, seen := fn[root]
	if !seen {
		fn[root] = 0
		return name
	}

	n++
	fn[root] = n

	suffix := "-" + strconv.Itoa(n)
	if ix := strings.LastIndexByte(name, '.'); ix >= 0 {
		return name[:ix] + suffix + name[ix:]
	}
	return name + suffix
}
