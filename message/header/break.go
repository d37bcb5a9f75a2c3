package header

import "bytes"

// Break is the line terminator the splitter found at the end of a line.
type Break string

// The line breaks found in mail. Mail on the wire uses CRLF, but mail that has
// been stored on disk is frequently converted to LF, and the occasional
// message from an old Mac uses CR.
const (
	None Break = ""         // the line ended at the end of input
	CRLF Break = "\x0d\x0a"
	LF   Break = "\x0a"
	CR   Break = "\x0d"
)

func (b Break) String() string {
	return string(b)
}

// Bytes returns a new slice holding the break characters.
func (b Break) Bytes() []byte {
	return []byte(b)
}

// SplitBreak separates a scanned line from its terminator. Only the final
// terminator is removed, so "\n\r" yields "\n" and CR.
func SplitBreak(line []byte) ([]byte, Break) {
	switch {
	case bytes.HasSuffix(line, CRLF.Bytes()):
		return line[:len(line)-2], CRLF
	case bytes.HasSuffix(line, LF.Bytes()):
		return line[:len(line)-1], LF
	case bytes.HasSuffix(line, CR.Bytes()):
		return line[:len(line)-1], CR
	}
	return line, None
}
