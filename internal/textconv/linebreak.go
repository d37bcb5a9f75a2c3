package textconv

import (
	"io"

	"golang.org/x/text/transform"
)

// lineBreaks rewrites CRLF and bare CR line breaks as LF.
type lineBreaks struct {
	prevCR bool
}

// NewLineBreakNormalizer returns a transformer that turns every CRLF and CR
// line break into LF.
func NewLineBreakNormalizer() transform.Transformer {
	return &lineBreaks{}
}

// NewLineBreakReader returns a reader of r with line breaks normalized to LF.
func NewLineBreakReader(r io.Reader) io.Reader {
	return transform.NewReader(r, NewLineBreakNormalizer())
}

// Reset implements transform.Transformer.
func (lb *lineBreaks) Reset() {
	lb.prevCR = false
}

// Transform implements transform.Transformer.
func (lb *lineBreaks) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]
		if c == '\n' && lb.prevCR {
			lb.prevCR = false
			nSrc++
			continue
		}

		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}

		lb.prevCR = c == '\r'
		if lb.prevCR {
			c = '\n'
		}

		dst[nDst] = c
		nDst++
		nSrc++
	}

	return nDst, nSrc, nil
}
