package transfer

import (
	"io"

	"golang.org/x/text/transform"
)

// maxSoftBreakPadding is the longest run of whitespace permitted between an
// "=" and the line break that follows to treat the pair as a soft line break.
const maxSoftBreakPadding = 76

// qpDecoder is a transform.Transformer that decodes quoted-printable. Unlike
// mime/quotedprintable, it never fails. An "=" that does not start a valid
// escape or a soft line break is passed through literally.
type qpDecoder struct {
	transform.NopResetter
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// Transform implements transform.Transformer.
func (qpDecoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}

		c := src[nSrc]
		if c != '=' {
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}

		rest := src[nSrc+1:]

		// soft line break, possibly with trailing whitespace
		i := 0
		for i < len(rest) && i < maxSoftBreakPadding && (rest[i] == ' ' || rest[i] == '\t') {
			i++
		}

		switch {
		case i == len(rest):
			if !atEOF {
				return nDst, nSrc, transform.ErrShortSrc
			}

			// a dangling "=" at the very end is a soft break into nothing
			nSrc += 1 + i
			continue

		case rest[i] == '\n':
			nSrc += 1 + i + 1
			continue

		case rest[i] == '\r':
			if i+1 == len(rest) && !atEOF {
				return nDst, nSrc, transform.ErrShortSrc
			}

			nSrc += 1 + i + 1
			if i+1 < len(rest) && rest[i+1] == '\n' {
				nSrc++
			}
			continue
		}

		if i == 0 && len(rest) == 1 && !atEOF {
			return nDst, nSrc, transform.ErrShortSrc
		}

		if i == 0 && len(rest) >= 2 && isHex(rest[0]) && isHex(rest[1]) {
			dst[nDst] = unhex(rest[0])<<4 | unhex(rest[1])
			nDst++
			nSrc += 3
			continue
		}

		// not an escape, keep the "=" as it is
		dst[nDst] = '='
		nDst++
		nSrc++
	}

	return nDst, nSrc, nil
}

// NewQuotedPrintableDecoder will read bytes from the given io.Reader and return
// them in the returned io.Reader after decoding them from quoted-printable
// format. Invalid escapes are passed through unchanged.
func NewQuotedPrintableDecoder(r io.Reader) io.Reader {
	return transform.NewReader(r, qpDecoder{})
}
