package header

import (
	"bytes"
	"fmt"
	"strings"
)

// Line is a single unfolded header field. The Key is lower-case and trimmed.
// The Value is the raw field body with folding removed and surrounding
// whitespace trimmed. Encoded words have not been decoded.
type Line struct {
	Key   string
	Value string
}

// splitPhysical splits the block into lines at any of CRLF, LF, or a bare CR.
func splitPhysical(block []byte) [][]byte {
	var lines [][]byte
	for len(block) > 0 {
		ix := bytes.IndexAny(block, "\r\n")
		if ix < 0 {
			lines = append(lines, block)
			break
		}

		lines = append(lines, block[:ix])
		if block[ix] == '\r' && ix+1 < len(block) && block[ix+1] == '\n' {
			ix++
		}
		block = block[ix+1:]
	}
	return lines
}

// ParseLines splits a header block into unfolded lines. Lines starting with
// whitespace continue the previous field. The block ends at the first empty
// line, if there is one.
//
// Lines that are not fields (no colon, or an empty field name) are skipped.
// Each such line is reported as an error wrapping ErrBadLine, but parsing
// carries on.
func ParseLines(block []byte) ([]Line, []error) {
	var (
		lines []Line
		errs  []error
		cur   *strings.Builder
		key   string
	)

	finish := func() {
		if cur != nil {
			lines = append(lines, Line{Key: key, Value: strings.TrimSpace(cur.String())})
			cur = nil
		}
	}

	for i, pl := range splitPhysical(block) {
		if len(pl) == 0 {
			break
		}

		if pl[0] == ' ' || pl[0] == '\t' {
			if cur == nil {
				errs = append(errs, fmt.Errorf("%w: line %d continues nothing", ErrBadLine, i+1))
				continue
			}
			cur.Write(pl)
			continue
		}

		finish()

		colon := bytes.IndexByte(pl, ':')
		if colon < 0 {
			errs = append(errs, fmt.Errorf("%w: line %d has no colon", ErrBadLine, i+1))
			continue
		}

		key = strings.ToLower(strings.TrimSpace(string(pl[:colon])))
		if key == "" {
			errs = append(errs, fmt.Errorf("%w: line %d has an empty name", ErrBadLine, i+1))
			continue
		}

		cur = &strings.Builder{}
		cur.Write(pl[colon+1:])
	}

	finish()

	return lines, errs
}
