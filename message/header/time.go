package header

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Even more custom date formats, built from those seen in the wild that the
// usual parsers have trouble with.
const (
	// UnixDateWithEarlyYear is a weird one, eh?
	UnixDateWithEarlyYear = "Mon Jan 02 15:04:05 2006 MST"
)

// ParseTime provides the time parsing used for the date field and for the
// time stamps of received fields. This will attempt to parse the date using
// the format specified by RFC 5322 first and fallback to parsing it in many
// other formats.
//
// It either returns a parsed time or an error wrapping ErrBadDate.
func ParseTime(body string) (time.Time, error) {
	body = strings.TrimSpace(body)

	t, err := mail.ParseDate(body)
	if err == nil {
		return t, nil
	}

	t, err = dateparse.ParseAny(stripComment(body))
	if err == nil {
		return t, nil
	}

	t, err = time.Parse(UnixDateWithEarlyYear, body)
	if err == nil {
		return t, nil
	}

	return t, fmt.Errorf("%w: time string %q cannot be parsed", ErrBadDate, body)
}

// stripComment drops a trailing comment like the "(PST)" that often follows
// the zone offset.
func stripComment(body string) string {
	if strings.HasSuffix(body, ")") {
		if ix := strings.LastIndexByte(body, '('); ix > 0 {
			return strings.TrimSpace(body[:ix])
		}
	}
	return body
}

// ParseReceivedTime returns the time stamp of a received field, which is the
// text following the last semicolon.
func ParseReceivedTime(body string) (time.Time, error) {
	ix := strings.LastIndexByte(body, ';')
	if ix < 0 {
		return time.Time{}, fmt.Errorf("%w: received field has no time stamp", ErrBadDate)
	}

	return ParseTime(body[ix+1:])
}
