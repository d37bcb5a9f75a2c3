// Package flowed reverses the soft line wrapping of text/plain content sent
// with format=flowed, as described in RFC 3676.
package flowed

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// Signature is the line that separates a message from the signature that
// follows it. It is never joined with its neighbors.
const Signature = "-- "

// Reader rejoins the lines of a format=flowed text. Its output uses LF line
// breaks.
type Reader struct {
	r     *bufio.Reader
	delSp bool

	// para is the paragraph being built from flowed lines
	para  []byte
	depth int
	open  bool

	out []byte
	err error
}

// NewReader returns a reader that decodes the format=flowed text read from r.
// When delSp is true, the space that marks a soft line break is deleted as
// the lines are joined (the delsp=yes parameter). Otherwise it is kept.
func NewReader(r io.Reader, delSp bool) *Reader {
	return &Reader{r: bufio.NewReader(r), delSp: delSp}
}

// quoteDepth returns the number of leading quote marks on the line.
func quoteDepth(line []byte) int {
	n := 0
	for n < len(line) && line[n] == '>' {
		n++
	}
	return n
}

// flush moves the open paragraph to the output.
func (fr *Reader) flush(lbr bool) {
	if !fr.open {
		return
	}

	fr.out = append(fr.out, fr.para...)
	if lbr {
		fr.out = append(fr.out, '\n')
	}

	fr.para = fr.para[:0]
	fr.open = false
}

// line processes a single physical line, without its line break.
func (fr *Reader) line(line []byte, lbr bool) {
	depth := quoteDepth(line)
	text := line[depth:]
	if len(text) > 0 && text[0] == ' ' {
		text = text[1:]
	}

	sig := string(text) == Signature
	if fr.open && (sig || depth != fr.depth) {
		fr.flush(true)
	}

	if fr.open {
		// a continuation line loses its quote marks and stuffing
		fr.para = append(fr.para, text...)
	} else if depth > 0 {
		fr.para = append(fr.para, line...)
	} else {
		fr.para = append(fr.para, text...)
	}
	fr.open = true
	fr.depth = depth

	flowed := !sig && len(text) > 0 && text[len(text)-1] == ' ' && lbr
	if !flowed {
		fr.flush(lbr)
		return
	}

	if fr.delSp {
		fr.para = fr.para[:len(fr.para)-1]
	}
}

// fill processes input lines until some output is ready or the input ends.
func (fr *Reader) fill() {
	for len(fr.out) == 0 && fr.err == nil {
		line, err := fr.r.ReadBytes('\n')
		if len(line) > 0 {
			lbr := line[len(line)-1] == '\n'
			line = bytes.TrimSuffix(bytes.TrimSuffix(line, []byte{'\n'}), []byte{'\r'})
			fr.line(line, lbr)
		}

		if err != nil {
			fr.flush(false)
			fr.err = err
		}
	}
}

// Read implements io.Reader.
func (fr *Reader) Read(p []byte) (int, error) {
	fr.fill()

	if len(fr.out) > 0 {
		n := copy(p, fr.out)
		fr.out = fr.out[n:]
		return n, nil
	}

	if errors.Is(fr.err, io.EOF) {
		return 0, io.EOF
	}
	return 0, fr.err
}
