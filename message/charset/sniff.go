package charset

import (
	"unicode/utf8"

	"github.com/gogs/chardet"
	htmlcharset "golang.org/x/net/html/charset"
)

const (
	// SniffLength is the number of leading bytes Sniff needs to see to make
	// its best guess.
	SniffLength = 1024

	// MinConfidence is the lowest statistical detection confidence (out of
	// 100) that Sniff will act upon.
	MinConfidence = 50
)

// Sniff guesses the charset of content that did not declare one. The guess is
// made from the leading bytes of the content, b, and from the media type of
// the part (a text/html part may carry a meta charset declaration). It looks
// for a byte order mark, then a meta declaration, then checks whether the
// bytes are valid UTF-8.
//
// If all of that is inconclusive and detect is true, a statistical detector is
// asked for a guess, which is used if it is at least MinConfidence sure of
// itself. Otherwise, the result is Default.
//
// The returned value is a canonical identifier as returned by Resolve.
func Sniff(b []byte, mediaType string, detect bool) string {
	if len(b) > SniffLength {
		b = b[:SniffLength]
	}

	_, name, certain := htmlcharset.DetermineEncoding(b, mediaType)
	if certain || name == "utf-8" {
		return Resolve(name)
	}

	if validUTF8(b, len(b) == SniffLength) {
		return "utf-8"
	}

	if detect {
		if label, confidence := Detect(b); confidence >= MinConfidence {
			return Resolve(label)
		}
	}

	return Resolve(name)
}

// validUTF8 reports whether b is UTF-8. When b was cut short, a rune split at
// the end does not count against it.
func validUTF8(b []byte, truncated bool) bool {
	if truncated && len(b) > 0 {
		i := len(b) - 1
		for i > 0 && i > len(b)-utf8.UTFMax && !utf8.RuneStart(b[i]) {
			i--
		}
		if !utf8.FullRune(b[i:]) {
			b = b[:i]
		}
	}

	return utf8.Valid(b)
}

// Detect runs statistical charset detection over b. It returns the detected
// label and the confidence (0 to 100). The confidence is 0 when nothing could
// be detected.
func Detect(b []byte) (string, int) {
	res, err := chardet.NewTextDetector().DetectBest(b)
	if err != nil {
		return "", 0
	}

	return res.Charset, res.Confidence
}
