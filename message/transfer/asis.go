package transfer

import "io"

// identity lists the transfer encodings that leave the body bytes alone.
var identity = map[string]bool{
	None:   true,
	Bit7:   true,
	Bit8:   true,
	Binary: true,
}

// IsIdentity returns true when the named transfer encoding does not alter the
// bytes of the body. Encodings that are unknown are also read verbatim, but
// are not reported as identity encodings.
func IsIdentity(cte string) bool {
	return identity[Normalize(cte)]
}

// NewAsIsDecoder is the Decoder used for the identity encodings. Bodies
// labelled 7bit that actually carry 8-bit data are passed through too; the
// charset step deals with them.
func NewAsIsDecoder(r io.Reader) io.Reader {
	return r
}
