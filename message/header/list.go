package header

import (
	"mime"
	"strings"
)

// ListEntry holds the parts of a single list-* field, such as list-id or
// list-unsubscribe, sorted by what they look like.
type ListEntry struct {
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Mail string `json:"mail,omitempty" yaml:"mail,omitempty"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
}

// ListFields maps the sub-key of list-* fields (the "unsubscribe" of
// list-unsubscribe, for example) to the entry parsed from it.
type ListFields map[string]*ListEntry

func isURL(s string) bool {
	s = strings.ToLower(s)
	return strings.HasPrefix(s, "http:") || strings.HasPrefix(s, "https:")
}

// ParseListEntry parses the body of a list-* field. The body is read as an
// address list and each item is sorted: a name or address that is an
// http(s) URL is the URL, any other name is the Name, a mailto: address is
// the Mail, an address without an @ is the ID, and any other address is the
// Mail.
func ParseListEntry(body string, dec *mime.WordDecoder) *ListEntry {
	le := &ListEntry{}
	for _, a := range ParseAddressList(body, dec) {
		switch {
		case isURL(a.Name):
			le.URL = a.Name
		case a.Name != "":
			le.Name = a.Name
		}

		switch {
		case a.Address == "":
		case isURL(a.Address):
			le.URL = a.Address
		case strings.HasPrefix(strings.ToLower(a.Address), "mailto:"):
			le.Mail = a.Address[len("mailto:"):]
		case !strings.Contains(a.Address, "@"):
			le.ID = a.Address
		default:
			le.Mail = a.Address
		}
	}
	return le
}

// merge copies the fields set in o into le.
func (le *ListEntry) merge(o *ListEntry) {
	if o.URL != "" {
		le.URL = o.URL
	}
	if o.Name != "" {
		le.Name = o.Name
	}
	if o.Mail != "" {
		le.Mail = o.Mail
	}
	if o.ID != "" {
		le.ID = o.ID
	}
}
