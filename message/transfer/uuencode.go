package transfer

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// ErrBadUUEncode is returned while reading from a uudecoder when the content
// does not contain a "begin" line.
var ErrBadUUEncode = errors.New("uuencoded content is missing its begin line")

// uuDecoder decodes the classic unix-to-unix encoding, one line at a time.
type uuDecoder struct {
	r     *bufio.Reader
	buf   []byte
	begun bool
	done  bool
}

// NewUUDecoder returns an io.Reader that decodes uuencoded content read from
// r. Everything before the "begin" line is ignored, as is everything after
// the "end" line (or the zero length line before it).
func NewUUDecoder(r io.Reader) io.Reader {
	return &uuDecoder{r: bufio.NewReader(r)}
}

// readLine returns the next line without its line break. It returns io.EOF
// only when no more bytes remain.
func (d *uuDecoder) readLine() ([]byte, error) {
	line, err := d.r.ReadBytes('\n')
	if len(line) > 0 {
		return bytes.TrimRight(line, "\r\n"), nil
	}
	return nil, err
}

func uuValue(c byte) byte {
	return (c - ' ') & 0x3f
}

// decodeUULine decodes a single line of uuencoded content. The first character
// tells how many bytes the line holds.
func decodeUULine(line []byte) []byte {
	if len(line) == 0 {
		return nil
	}

	n := int(uuValue(line[0]))
	out := make([]byte, 0, n)
	for i := 1; len(out) < n; i += 4 {
		var q [4]byte
		for j := range q {
			if i+j < len(line) {
				q[j] = uuValue(line[i+j])
			}
		}

		for _, b := range []byte{
			q[0]<<2 | q[1]>>4,
			q[1]<<4 | q[2]>>2,
			q[2]<<6 | q[3],
		} {
			if len(out) < n {
				out = append(out, b)
			}
		}

		if i >= len(line) {
			break
		}
	}

	return out
}

// Read implements io.Reader.
func (d *uuDecoder) Read(p []byte) (int, error) {
	for len(d.buf) == 0 {
		if d.done {
			return 0, io.EOF
		}

		line, err := d.readLine()
		if errors.Is(err, io.EOF) {
			if !d.begun {
				return 0, ErrBadUUEncode
			}
			d.done = true
			continue
		} else if err != nil {
			return 0, err
		}

		if !d.begun {
			d.begun = bytes.HasPrefix(line, []byte("begin "))
			continue
		}

		if bytes.Equal(bytes.TrimSpace(line), []byte("end")) {
			d.done = true
			continue
		}

		d.buf = decodeUULine(line)
		if len(line) > 0 && uuValue(line[0]) == 0 {
			d.done = true
		}
	}

	n := copy(p, d.buf)
	d.buf = d.buf[n:]
	return n, nil
}
