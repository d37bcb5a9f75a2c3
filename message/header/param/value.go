package param

import (
	"errors"
	"fmt"
	"mime"
	"sort"
	"strings"
)

const (
	// Charset is the name of the charset parameter that may be present in the
	// Content-type header.
	Charset = "charset"

	// Boundary is the name of the boundary paramter that may be present in the
	// Content-type header.
	Boundary = "boundary"

	// Filename is the name of the filename parameter that may be present in the
	// Content-disposition header.
	Filename = "filename"

	// Name is the name of the name parameter that older mail clients put on
	// the Content-type header to carry the file name of an attachment.
	Name = "name"

	// Format is the name of the format parameter of text/plain, which is set
	// to "flowed" for RFC 3676 text.
	Format = "format"

	// DelSp is the name of the delsp parameter that goes with format=flowed.
	DelSp = "delsp"
)

// ErrInvalid is matched by the error ParseLenient returns when it had to fall
// back to the lenient parser.
var ErrInvalid = errors.New("invalid parameterized header value")

// Value represents a parsed parameterized header field, such as is used in the
// Content-type and Content-disposition headers. A Value object is immutable:
// You cannot change it in place. However, a Modify() function is provided to
// perform transformation of a Value into a new Value.
type Value struct {
	v  string
	ps map[string]string
}

// Parse takes a header field body, parses it as a Value and returns it. If an
// error occurs in the process, it returns an error.
func Parse(v string) (*Value, error) {
	mt, ps, err := mime.ParseMediaType(v)
	if err != nil {
		return nil, err
	}

	return &Value{mt, ps}, nil
}

// ParseLenient works like Parse, but never fails. When the strict parse
// rejects the field body, the body is split on semicolons that are not inside
// quotes and each piece after the first is treated as a key=value pair. Pieces
// that cannot be read as a pair are dropped.
//
// The error returned is the error from the strict parse, if any, and is
// informational only. The returned Value is always usable.
func ParseLenient(v string) (*Value, error) {
	pv, err := Parse(v)
	if err == nil {
		return pv, nil
	}

	// mime.ParseMediaType keeps the media type when only the parameters are
	// broken, but we want whatever parameters can be saved, too
	pieces := splitQuoted(v, ';')
	pv = &Value{
		v:  strings.ToLower(strings.TrimSpace(pieces[0])),
		ps: make(map[string]string, len(pieces)-1),
	}

	for _, piece := range pieces[1:] {
		k, val, found := strings.Cut(piece, "=")
		if !found {
			continue
		}

		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}

		val = strings.TrimSpace(val)
		if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
			val = strings.ReplaceAll(val[1:len(val)-1], `\"`, `"`)
		}

		pv.ps[k] = val
	}

	return pv, fmt.Errorf("%w %q: %v", ErrInvalid, v, err)
}

// splitQuoted splits s on sep wherever sep is not inside a double quoted
// string.
func splitQuoted(s string, sep rune) []string {
	var (
		parts   []string
		cur     strings.Builder
		quoted  bool
		escaped bool
	)

	for _, c := range s {
		switch {
		case escaped:
			escaped = false
		case c == '\\' && quoted:
			escaped = true
		case c == '"':
			quoted = !quoted
		case c == sep && !quoted:
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(c)
	}

	return append(parts, cur.String())
}

// New creates a new parameterized header field with no parameters.
func New(v string) *Value {
	return &Value{v, map[string]string{}}
}

// NewWithParams creates a new parametersized header field with the given
// parameters.
func NewWithParams(v string, ps map[string]string) *Value {
	return &Value{v, ps}
}

// Modifier is a modification to apply to a Value when calling the Modify()
// function.
type Modifier func(*Value)

// Change is a Modifier that replaces the primary value of the Value.
func Change(value string) Modifier {
	return func(pv *Value) {
		pv.v = value
	}
}

// Set is a Modifier that sets a parameter with the given name on the Value.
func Set(name, value string) Modifier {
	return func(pv *Value) {
		pv.ps[name] = value
	}
}

// Delete is a Modifier that removes the parameter with the given name from the
// Value.
func Delete(name string) Modifier {
	return func(pv *Value) {
		delete(pv.ps, name)
	}
}

// DecodeWords is a Modifier that decodes RFC 2047 encoded words found in each
// parameter value with the given decoder. Each parameter is decoded on its
// own, so a broken encoded word in one parameter leaves that raw value in
// place and does not affect the others.
func DecodeWords(dec *mime.WordDecoder) Modifier {
	return func(pv *Value) {
		for k, v := range pv.ps {
			if !strings.Contains(v, "=?") {
				continue
			}

			dv, err := dec.DecodeHeader(v)
			if err != nil {
				continue
			}

			pv.ps[k] = dv
		}
	}
}

// Modify clones a Value, applies the given modifications (if any) and returns
// the new Value. You can pass multiple changes to this function:
//
//	v, _ := value.Parse("multipart/mixed; boundary=abc123; charset=latin1")
//	nv := value.Modify(v, Change("multipart/alternate"), Set("charset", "utf-8"))
func Modify(pv *Value, changes ...Modifier) *Value {
	copy := pv.Clone()
	for _, change := range changes {
		change(copy)
	}
	return copy
}

// Value returns the primary value of the Value. This is the value before the
// first semi-colon.
func (pv *Value) Value() string {
	return pv.v
}

// Disposition is a synonym for Value() and returns the Content-disposition,
// either "inline" or "attachment".
func (pv *Value) Disposition() string {
	return pv.v
}

// MediaType is a synonym for Value() and returns the Content-type value, e.g.,
// "text/html", "image/jpeg", "multipart/mixed", etc.
func (pv *Value) MediaType() string {
	return pv.v
}

// Type is only intended for use with the Content-type header. It searches the
// MediaType() for a slash. If found, it will return the string before that
// slash. If no slash is found, it returns an empty string.
//
// For example, if MediaType() returns "image/jpeg", this method will return
// "image".
func (pv *Value) Type() string {
	if ix := strings.IndexRune(pv.v, '/'); ix >= 0 {
		return pv.v[:ix]
	}
	return ""
}

// Subtype is only intended for use with the Content-type header. It searches
// the MediaType() for a slash. If found, it will return the string after that
// slash. If no slash is found, it returns an empty string.
//
// For example, if MediaType() returns "text/html", this method will return
// "html".
func (pv *Value) Subtype() string {
	if ix := strings.IndexRune(pv.v, '/'); ix >= 0 {
		return pv.v[ix+1:]
	}
	return ""
}

// Parameters returns the parameters encoded on this Value as a map. Do not
// modify this map. The behavior if you do is not defined and may change in the
// future. If you need to modify it, make a copy first.
func (pv *Value) Parameters() map[string]string {
	return pv.ps
}

// Parameter returns the value of the parameter with the given name.
func (pv *Value) Parameter(k string) string {
	return pv.ps[k]
}

// Filename returns the value of the "filename" parameter. It is intended for
// use with the Content-disposition header.
func (pv *Value) Filename() string {
	return pv.ps[Filename]
}

// Name returns the value of the "name" parameter. It is intended for use with
// the Content-type header.
func (pv *Value) Name() string {
	return pv.ps[Name]
}

// Charset returns the value of the "charset" parameter. It is intended for use
// with the Content-type header.
func (pv *Value) Charset() string {
	return pv.ps[Charset]
}

// Boundary returns the value of the "boundary" parameter. It is intended for
// use with the Content-type header.
func (pv *Value) Boundary() string {
	return pv.ps[Boundary]
}

// IsFlowed returns true when the value is a text/plain Content-type carrying
// format=flowed.
func (pv *Value) IsFlowed() bool {
	return pv.v == "text/plain" && strings.EqualFold(pv.ps[Format], "flowed")
}

// DelSp returns true when the delsp=yes parameter is set.
func (pv *Value) DelSp() bool {
	return strings.EqualFold(pv.ps[DelSp], "yes")
}

// String returns the serialized value of the Value including the primary value
// and all parameters.
func (pv *Value) String() string {
	pks := make([]string, 0, len(pv.ps))
	for k := range pv.ps {
		pks = append(pks, k)
	}
	sort.Strings(pks)

	parts := make([]string, len(pv.ps)+1)
	parts[0] = pv.v

	for n, k := range pks {
		parts[n+1] = fmt.Sprintf("%s=%s", k, pv.ps[k])
	}

	return strings.Join(parts, "; ")
}

// Clone returns a deep copy of the Value.
func (pv *Value) Clone() *Value {
	var copy Value
	copy.v = pv.v
	copy.ps = make(map[string]string, len(pv.ps))
	for k, v := range pv.ps {
		copy.ps[k] = v
	}
	return &copy
}
