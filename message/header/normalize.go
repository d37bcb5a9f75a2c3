package header

import (
	"fmt"
	"mime"
	"strings"

	"github.com/zostay/go-mailparse/message/header/param"
)

// ensureID wraps a message id token in angle brackets, as needed. It returns
// an empty string for an empty token.
func ensureID(tok string) string {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return ""
	}

	if !strings.HasPrefix(tok, "<") {
		tok = "<" + tok
	}
	if !strings.HasSuffix(tok, ">") {
		tok += ">"
	}
	return tok
}

// ParseIDs splits a references or in-reply-to body on whitespace and puts
// each message id into angle brackets.
func ParseIDs(body string) []string {
	var ids []string
	for _, tok := range strings.Fields(body) {
		if id := ensureID(tok); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// decodeWords decodes the encoded words in a field body. The body is
// returned unchanged when decoding fails.
func decodeWords(dec *mime.WordDecoder, body string) string {
	if !strings.Contains(body, "=?") {
		return body
	}

	s, err := dec.DecodeHeader(body)
	if err != nil {
		return body
	}
	return s
}

// Normalize builds a Map from header lines. The dec is used to decode encoded
// words and should be able to handle any charset that might be found in mail
// (see charset.WordDecoder).
//
// Normalization is lenient. Values that cannot be parsed are either kept in
// their raw form or left out. Each such problem is reported in the returned
// slice of errors, none of which make the returned Map unusable.
func Normalize(lines []Line, dec *mime.WordDecoder) (*Map, []error) {
	if dec == nil {
		dec = &mime.WordDecoder{}
	}

	var (
		m    = NewMap()
		list ListFields
		errs []error
	)

	for _, line := range lines {
		key, body := line.Key, strings.TrimSpace(line.Value)

		var value any
		switch key {
		case ContentType, ContentDisposition:
			pv, err := param.ParseLenient(body)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
			value = param.Modify(pv, param.DecodeWords(dec))

		case Date:
			t, err := ParseTime(body)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				value = body
			} else {
				value = t
			}

		case References, InReplyTo:
			if ids := ParseIDs(body); len(ids) > 0 {
				value = ids
			}

		case MessageID:
			if id := ensureID(body); id != "" {
				value = id
			}

		case Priority, XPriority, XMSMailPriority, Importance:
			key = Priority
			value = ParsePriority(body)

		case From, To, Cc, Bcc, Sender, ReplyTo, DeliveredTo, ReturnPath:
			if as := ParseAddressList(body, dec); len(as) > 0 {
				value = as
			}

		default:
			if sub, isList := strings.CutPrefix(key, ListPrefix); isList && sub != "" {
				if list == nil {
					list = ListFields{}
				}
				le := ParseListEntry(body, dec)
				if prev, exists := list[sub]; exists {
					prev.merge(le)
				} else {
					list[sub] = le
				}
				continue
			}

			if s := strings.TrimSpace(decodeWords(dec, body)); s != "" {
				value = s
			}
		}

		if value == nil {
			continue
		}

		m.Add(key, value)
	}

	if list != nil {
		m.Set(List, list)
	}

	return m, errs
}
