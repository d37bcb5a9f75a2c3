package transfer

import (
	"io"
	"strings"
)

// Content-Transfer-Encoding names, as returned by Normalize.
const (
	None   = ""
	Bit7   = "7bit"
	Bit8   = "8bit"
	Binary = "binary"

	QuotedPrintable = "quoted-printable"
	Base64          = "base64"

	// UUEncode is not registered with IANA, but shows up in older mail along
	// with its x- spellings.
	UUEncode  = "uuencode"
	XUUEncode = "x-uuencode"
	XUUE      = "x-uue"
)

// Decoder wraps a reader of encoded body bytes with one yielding the decoded
// bytes.
type Decoder func(io.Reader) io.Reader

// Decoders maps normalized Content-Transfer-Encoding names to their decoders.
// Registering an entry here makes every parse honor it.
var Decoders = map[string]Decoder{
	None:            NewAsIsDecoder,
	Bit7:            NewAsIsDecoder,
	Bit8:            NewAsIsDecoder,
	Binary:          NewAsIsDecoder,
	QuotedPrintable: NewQuotedPrintableDecoder,
	Base64:          NewBase64Decoder,
	UUEncode:        NewUUDecoder,
	XUUEncode:       NewUUDecoder,
	XUUE:            NewUUDecoder,
}

// Normalize returns the transfer encoding name in the form used as a key in
// Decoders.
func Normalize(cte string) string {
	return strings.ToLower(strings.Trim(cte, " \t\r\n\"'"))
}

// ApplyTransferDecoding wraps r in the decoder registered for the named
// transfer encoding. Names missing from Decoders leave r unwrapped.
//
// Multipart containers must not be passed through here. Their bodies are
// split, never decoded.
func ApplyTransferDecoding(cte string, r io.Reader) io.Reader {
	if dec, hasCode := Decoders[Normalize(cte)]; hasCode {
		return dec(r)
	}

	return r
}
