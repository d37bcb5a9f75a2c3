package transfer

import (
	"io"

	"golang.org/x/text/transform"
)

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values [256]byte

func init() {
	for i := range base64Values {
		base64Values[i] = 0xff
	}
	for i := 0; i < len(base64Alphabet); i++ {
		base64Values[base64Alphabet[i]] = byte(i)
	}

	// URL-safe variants show up often enough to accept them too
	base64Values['-'] = 62
	base64Values['_'] = 63
}

// base64Decoder is a transform.Transformer that decodes base64 without ever
// failing. Anything outside the alphabet is skipped. Padding ends the current
// quantum, which allows multiple concatenated base64 chunks. A partial quantum
// left at the end is decoded as far as it goes.
type base64Decoder struct {
	quantum [4]byte
	n       int
}

// Reset implements transform.Transformer.
func (d *base64Decoder) Reset() {
	d.n = 0
}

// flush writes the bytes for a full or partial quantum to dst.
func (d *base64Decoder) flush(dst []byte) int {
	q := d.quantum
	n := 0
	switch d.n {
	case 4:
		dst[2] = q[2]<<6 | q[3]
		n = 3
		fallthrough
	case 3:
		dst[1] = q[1]<<4 | q[2]>>2
		if n == 0 {
			n = 2
		}
		fallthrough
	case 2:
		dst[0] = q[0]<<2 | q[1]>>4
		if n == 0 {
			n = 1
		}
	}
	d.n = 0
	return n
}

// Transform implements transform.Transformer.
func (d *base64Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]

		if c == '=' {
			if len(dst)-nDst < 3 {
				return nDst, nSrc, transform.ErrShortDst
			}
			nDst += d.flush(dst[nDst:])
			nSrc++
			continue
		}

		v := base64Values[c]
		if v == 0xff {
			nSrc++
			continue
		}

		if d.n == 3 && len(dst)-nDst < 3 {
			return nDst, nSrc, transform.ErrShortDst
		}

		d.quantum[d.n] = v
		d.n++
		nSrc++

		if d.n == 4 {
			nDst += d.flush(dst[nDst:])
		}
	}

	if atEOF && d.n > 0 {
		if len(dst)-nDst < 3 {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += d.flush(dst[nDst:])
	}

	return nDst, nSrc, nil
}

// NewBase64Decoder will translate all bytes read from the given io.Reader as
// base64 and return the binary data to the returned io.Reader. Bytes outside
// the base64 alphabet are ignored and a truncated final quantum is decoded as
// far as it goes.
func NewBase64Decoder(r io.Reader) io.Reader {
	return transform.NewReader(r, &base64Decoder{})
}
