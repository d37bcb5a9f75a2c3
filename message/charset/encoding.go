package charset

import (
	"errors"
	"fmt"
	"io"
	"mime"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnsupported is returned by Encoding when no decoder exists for the given
// identifier.
var ErrUnsupported = errors.New("unsupported charset")

// Encoding returns the encoding for a canonical identifier as returned by
// Resolve. The IANA index is consulted first, so that iso-8859-1 really means
// ISO 8859-1. The WHATWG index is the fallback for the few identifiers only it
// knows.
func Encoding(name string) (encoding.Encoding, error) {
	if name == "utf-8" {
		return unicode.UTF8, nil
	}

	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}

	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupported, name)
}

// lookupEncoding resolves the label and returns its encoding. It falls back to
// the encoding of Default.
func lookupEncoding(label string) encoding.Encoding {
	enc, err := Encoding(Resolve(label))
	if err != nil {
		enc, _ = Encoding(Default)
	}
	return enc
}

// NewReader returns an io.Reader that decodes the text read from r from the
// charset named by label into UTF-8. Labels are resolved with Resolve, so any
// label is accepted. Bytes that are invalid in the source charset become
// unicode.ReplacementChar.
func NewReader(label string, r io.Reader) io.Reader {
	if IsUTF8(label) {
		return transform.NewReader(r, unicode.UTF8.NewDecoder())
	}

	return transform.NewReader(r, lookupEncoding(label).NewDecoder())
}

// CharsetReader has the signature required by mime.WordDecoder. It never
// fails because every label resolves to some decoder.
func CharsetReader(label string, r io.Reader) (io.Reader, error) {
	return NewReader(label, r), nil
}

// WordDecoder returns a mime.WordDecoder that is able to decode encoded words
// in any charset Resolve can place.
func WordDecoder() *mime.WordDecoder {
	return &mime.WordDecoder{CharsetReader: CharsetReader}
}
