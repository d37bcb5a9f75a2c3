// Package scanner provides a bufio.SplitFunc for splitting mail into lines.
package scanner

import (
	"bufio"
	"bytes"
	"io"
)

// Lines returns a bufio.SplitFunc that splits input into lines. Each token
// includes the line break that ended it, which may be CRLF, LF, or a bare CR.
// The last token in the input has no line break if the input did not end with
// one.
//
// A line longer than maxLine bytes is returned in pieces of maxLine bytes,
// none of which has a line break except the last. This keeps the memory needed
// for a line bounded. The buffer given to the bufio.Scanner using this
// function must be able to hold at least maxLine+1 bytes.
func Lines(maxLine int) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}

		if ix := bytes.IndexAny(data, "\r\n"); ix >= 0 && ix < maxLine {
			if data[ix] == '\n' {
				return ix + 1, data[:ix+1], nil
			}

			// a CR at the end of the buffer might be the start of a CRLF
			if ix+1 == len(data) && !atEOF {
				return 0, nil, nil
			}

			if ix+1 < len(data) && data[ix+1] == '\n' {
				return ix + 2, data[:ix+2], nil
			}

			return ix + 1, data[:ix+1], nil
		}

		if len(data) >= maxLine {
			return maxLine, data[:maxLine], nil
		}

		if atEOF {
			return len(data), data, nil
		}

		return 0, nil, nil
	}
}

// New returns a bufio.Scanner that splits the input into lines with
// Lines(maxLine).
func New(r io.Reader, maxLine int) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), maxLine+2)
	s.Split(Lines(maxLine))
	return s
}
