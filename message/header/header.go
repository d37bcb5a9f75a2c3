package header

import (
	"fmt"
	"strings"
	"time"

	"github.com/zostay/go-mailparse/message/header/param"
)

// These are the keys of the fields given special treatment by Normalize. Keys
// in a Map are always lower-case.
const (
	Bcc                     = "bcc"
	Cc                      = "cc"
	ContentDescription      = "content-description"
	ContentDisposition      = "content-disposition"
	ContentID               = "content-id"
	ContentTransferEncoding = "content-transfer-encoding"
	ContentType             = "content-type"
	Date                    = "date"
	DeliveredTo             = "delivered-to"
	ErrorsTo                = "errors-to"
	From                    = "from"
	Importance              = "importance"
	InReplyTo               = "in-reply-to"
	ListPrefix              = "list-"
	List                    = "list"
	MessageID               = "message-id"
	MIMEVersion             = "mime-version"
	Precedence              = "precedence"
	Priority                = "priority"
	Received                = "received"
	References              = "references"
	ReplyTo                 = "reply-to"
	ReturnPath              = "return-path"
	Sender                  = "sender"
	Subject                 = "subject"
	To                      = "to"
	XMSMailPriority         = "x-msmail-priority"
	XPriority               = "x-priority"
)

// singular lists the keys for which only the last occurrence is kept.
var singular = map[string]bool{
	MessageID:               true,
	From:                    true,
	Sender:                  true,
	ReplyTo:                 true,
	Subject:                 true,
	Date:                    true,
	ContentDisposition:      true,
	ContentType:             true,
	ContentTransferEncoding: true,
	Priority:                true,
	MIMEVersion:             true,
	ContentDescription:      true,
	Precedence:              true,
	ErrorsTo:                true,
	ContentID:               true,
}

// IsSingular returns true if only the last occurrence of the named field is
// kept in a normalized Map.
func IsSingular(key string) bool {
	return singular[strings.ToLower(key)]
}

// Map is an ordered mapping from lower-case field keys to the normalized
// values of those fields. Singular fields have exactly one value. Others have
// one value per occurrence, in the order they appeared.
//
// The values stored depend on the key: string for most fields, time.Time for
// a parseable date, *param.Value for content-type and content-disposition,
// []Address for address fields, []string of message ids for message-id,
// in-reply-to, and references, PriorityLevel for priority, and ListFields for
// list.
type Map struct {
	keys   []string
	values map[string][]any
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: map[string][]any{}}
}

// Clone returns a copy of the map. The values themselves are shared.
func (m *Map) Clone() *Map {
	c := &Map{
		keys:   make([]string, len(m.keys)),
		values: make(map[string][]any, len(m.values)),
	}
	copy(c.keys, m.keys)
	for k, vs := range m.values {
		c.values[k] = append([]any(nil), vs...)
	}
	return c
}

// Keys returns the keys in the order they first appeared.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of distinct keys.
func (m *Map) Len() int {
	return len(m.keys)
}

// Has returns true if the map holds at least one value for the key.
func (m *Map) Has(key string) bool {
	return len(m.values[strings.ToLower(key)]) > 0
}

// Values returns every value stored for the key.
func (m *Map) Values(key string) []any {
	return m.values[strings.ToLower(key)]
}

// Add appends a value to the key. For singular keys, it replaces the value
// instead.
func (m *Map) Add(key string, v any) {
	key = strings.ToLower(key)
	if singular[key] {
		m.Set(key, v)
		return
	}

	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append(m.values[key], v)
}

// Set replaces all values of the key with the given value.
func (m *Map) Set(key string, v any) {
	key = strings.ToLower(key)
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = []any{v}
}

// Delete removes the key and all of its values.
func (m *Map) Delete(key string) {
	key = strings.ToLower(key)
	if _, exists := m.values[key]; !exists {
		return
	}

	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Value returns the first value stored for the key. It returns
// ErrNoSuchField if there is none.
func (m *Map) Value(key string) (any, error) {
	vs := m.Values(key)
	if len(vs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchField, key)
	}
	return vs[0], nil
}

// Get returns the first value of the key as a string. Values that are not
// strings, but implement fmt.Stringer are stringified. Anything else results
// in ErrWrongType.
func (m *Map) Get(key string) (string, error) {
	v, err := m.Value(key)
	if err != nil {
		return "", err
	}

	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}

	return "", fmt.Errorf("%w: %s is %T", ErrWrongType, key, v)
}

// GetAll returns every string value of the key. Values of other types are
// skipped.
func (m *Map) GetAll(key string) []string {
	var ss []string
	for _, v := range m.Values(key) {
		if s, isString := v.(string); isString {
			ss = append(ss, s)
		}
	}
	return ss
}

// GetTime returns the time stored for the key. A date that could not be
// parsed is stored as a string, which results in ErrWrongType.
func (m *Map) GetTime(key string) (time.Time, error) {
	v, err := m.Value(key)
	if err != nil {
		return time.Time{}, err
	}

	t, isTime := v.(time.Time)
	if !isTime {
		return time.Time{}, fmt.Errorf("%w: %s is %T", ErrWrongType, key, v)
	}

	return t, nil
}

// GetParam returns the parameterized value stored for the key, as used by
// content-type and content-disposition.
func (m *Map) GetParam(key string) (*param.Value, error) {
	v, err := m.Value(key)
	if err != nil {
		return nil, err
	}

	pv, isParam := v.(*param.Value)
	if !isParam {
		return nil, fmt.Errorf("%w: %s is %T", ErrWrongType, key, v)
	}

	return pv, nil
}

// GetAddresses returns the addresses of every occurrence of the key joined
// into a single list.
func (m *Map) GetAddresses(key string) ([]Address, error) {
	vs := m.Values(key)
	if len(vs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchField, key)
	}

	var as []Address
	for _, v := range vs {
		al, isAddrs := v.([]Address)
		if !isAddrs {
			return nil, fmt.Errorf("%w: %s is %T", ErrWrongType, key, v)
		}
		as = append(as, al...)
	}

	return as, nil
}

// GetIDs returns the message ids of every occurrence of the key joined into a
// single list. The ids keep their angle brackets.
func (m *Map) GetIDs(key string) ([]string, error) {
	vs := m.Values(key)
	if len(vs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchField, key)
	}

	var ids []string
	for _, v := range vs {
		switch id := v.(type) {
		case []string:
			ids = append(ids, id...)
		case string:
			ids = append(ids, id)
		default:
			return nil, fmt.Errorf("%w: %s is %T", ErrWrongType, key, v)
		}
	}

	return ids, nil
}

// GetPriority returns the normalized priority. It is PriorityNormal when the
// message carries no priority field.
func (m *Map) GetPriority() PriorityLevel {
	v, err := m.Value(Priority)
	if err != nil {
		return PriorityNormal
	}

	p, isPriority := v.(PriorityLevel)
	if !isPriority {
		return PriorityNormal
	}

	return p
}

// GetList returns the merged mailing list fields.
func (m *Map) GetList() (ListFields, error) {
	v, err := m.Value(List)
	if err != nil {
		return nil, err
	}

	l, isList := v.(ListFields)
	if !isList {
		return nil, fmt.Errorf("%w: %s is %T", ErrWrongType, List, v)
	}

	return l, nil
}
