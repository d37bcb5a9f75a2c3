package header

import (
	"mime"
	"strings"

	"github.com/zostay/go-addr/pkg/addr"
	"golang.org/x/net/idna"
)

// Address is a normalized mailbox or group. A group has a Name and the
// members in Group, but no Address.
type Address struct {
	Name    string    `json:"name" yaml:"name"`
	Address string    `json:"address,omitempty" yaml:"address,omitempty"`
	Group   []Address `json:"group,omitempty" yaml:"group,omitempty"`
}

// IsGroup returns true if the address is a named group of addresses.
func (a Address) IsGroup() bool {
	return a.Group != nil
}

// String renders the address in the usual form for a header.
func (a Address) String() string {
	if a.IsGroup() {
		ms := make([]string, len(a.Group))
		for i, m := range a.Group {
			ms[i] = m.String()
		}
		return displayName(a.Name) + ": " + strings.Join(ms, ", ") + ";"
	}

	if a.Name == "" {
		return a.Address
	}

	return displayName(a.Name) + " <" + a.Address + ">"
}

// displayName encodes a name that is not plain ASCII as an encoded word and
// quotes a name containing specials.
func displayName(name string) string {
	if enc := mime.QEncoding.Encode("utf-8", name); enc != name {
		return enc
	}

	if strings.ContainsAny(name, `()<>[]:;@\,."`) {
		return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name) + `"`
	}

	return name
}

// splitAddressList splits a list of addresses at top-level commas. When
// groups is true, group syntax ("name: member, member;") is kept together as
// a single item. Commas inside quoted strings, comments, and angle brackets do
// not split.
func splitAddressList(body string, groups bool) []string {
	var (
		items   []string
		cur     strings.Builder
		quoted  bool
		escaped bool
		comment int
		angle   bool
		group   bool
	)

	for _, c := range body {
		switch {
		case escaped:
			escaped = false
		case c == '\\' && (quoted || comment > 0):
			escaped = true
		case quoted:
			quoted = c != '"'
		case comment > 0:
			switch c {
			case '(':
				comment++
			case ')':
				comment--
			}
		case c == '"':
			quoted = true
		case c == '(':
			comment++
		case angle:
			angle = c != '>'
		case c == '<':
			angle = true
		case c == ':' && groups && !group:
			group = true
		case c == ';' && group:
			group = false
			cur.WriteRune(c)
			items = append(items, cur.String())
			cur.Reset()
			continue
		case c == ',' && !group:
			items = append(items, cur.String())
			cur.Reset()
			continue
		}

		cur.WriteRune(c)
	}
	items = append(items, cur.String())

	// a colon without a closing semicolon was not a group after all
	if group {
		return splitAddressList(body, false)
	}

	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// splitGroup returns the name and member list of a group item. The ok result
// is false for items that are not groups.
func splitGroup(item string) (name, members string, ok bool) {
	if !strings.HasSuffix(item, ";") {
		return "", "", false
	}

	colon := -1
	quoted := false
	for i, c := range item {
		if c == '"' {
			quoted = !quoted
		}
		if c == '<' && !quoted {
			return "", "", false
		}
		if c == ':' && !quoted {
			colon = i
			break
		}
	}
	if colon < 0 {
		return "", "", false
	}

	return strings.TrimSpace(unquote(item[:colon])), item[colon+1 : len(item)-1], true
}

// unquote removes the surrounding double quotes and escapes from a display
// name.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}

	var b strings.Builder
	escaped := false
	for _, c := range s[1 : len(s)-1] {
		if !escaped && c == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(c)
	}
	return b.String()
}

// parseMailboxes parses a list of mailboxes with the strict parser from
// go-addr and falls back to lenient parsing if that fails.
func parseMailboxes(body string) []Address {
	if strings.TrimSpace(body) == "" {
		return nil
	}

	al, err := addr.ParseEmailAddressList(body)
	if err != nil {
		return parseEmailAddressList(body)
	}

	as := make([]Address, 0, len(al))
	for _, a := range al {
		switch a := a.(type) {
		case *addr.Mailbox:
			as = append(as, mailboxAddress(a))
		case *addr.Group:
			for _, mb := range a.MailboxList() {
				as = append(as, mailboxAddress(mb))
			}
		}
	}
	return as
}

// mailboxAddress converts a parsed mailbox, dropping any comments from the
// address. A mailbox without a display name is named by its comment.
func mailboxAddress(mb *addr.Mailbox) Address {
	name := mb.DisplayName()
	if name == "" {
		name = strings.TrimSpace(mb.Comment())
	}

	return Address{
		Name:    name,
		Address: strings.TrimSuffix(mb.LocalPart()+"@"+mb.Domain(), "@"),
	}
}

// ParseAddressList parses the body of an address field such as from, to, or
// cc. Groups are kept as groups. It will attempt a strict parse of each
// address list. However, if that fails, an extremely lenient parsing will be
// attempted, which might result in results that can only be described as
// "weird" in the effort to provide some kind of result. It is so forgiving, it
// will return some kind of value for any input.
//
// Encoded words in names are decoded with dec, when it is not nil, and
// internationalized domain names are converted from punycode to Unicode.
func ParseAddressList(body string, dec *mime.WordDecoder) []Address {
	var as []Address
	for _, item := range splitAddressList(body, true) {
		if name, members, isGroup := splitGroup(item); isGroup {
			g := Address{Name: name, Group: parseMailboxes(members)}
			if g.Group == nil {
				g.Group = []Address{}
			}
			as = append(as, g)
			continue
		}

		as = append(as, parseMailboxes(item)...)
	}

	decodeAddresses(as, dec)
	return as
}

// decodeAddresses decodes the names and domains of the addresses in place.
func decodeAddresses(as []Address, dec *mime.WordDecoder) {
	for i := range as {
		a := &as[i]
		if dec != nil && strings.Contains(a.Name, "=?") {
			if name, err := dec.DecodeHeader(a.Name); err == nil {
				a.Name = name
			}
		}

		if ix := strings.LastIndexByte(a.Address, '@'); ix >= 0 {
			domain := a.Address[ix+1:]
			if strings.Contains(strings.ToLower(domain), "xn--") {
				if u, err := idna.Punycode.ToUnicode(domain); err == nil {
					a.Address = a.Address[:ix+1] + u
				}
			}
		}

		decodeAddresses(a.Group, dec)
	}
}

// parseEmailAddressList is a fallback method for email address parsing. The
// parser in github.com/zostay/go-addr is a strict parser, which is useful for
// getting good accurate parsing of email addresses, especially for validating
// data entry. However, when working with the mess that is the Internet, you
// want to get something useful (strict out/liberal in), even if its technically
// wrong, well, this method can be used to clean up the mess.
//
// It works as follows:
//
// 1. Split the string up by top-level commas.
// 2. The comments are stripped from each string and held.
// 3. If there is an angle bracketed part, it is the address and whatever
// precedes it is the display name.
// 4. Otherwise, all the words at the start are treated as the display name and
// the last word at the end is treated as the email address.
//
// A mailbox with no display name takes its comment as its name.
func parseEmailAddressList(v string) []Address {
	extractComments := func(s string) (string, string) {
		var clean, comment strings.Builder
		nestLevel := 0
		for _, c := range s {
			switch {
			case c == '(':
				nestLevel++
				if nestLevel == 1 {
					continue
				} else {
					comment.WriteRune(c)
				}
			case c == ')':
				nestLevel--
				switch {
				case nestLevel == 0:
					continue
				case nestLevel < 0:
					nestLevel = 0
					clean.WriteRune(c)
				default:
					comment.WriteRune(c)
				}
			case nestLevel > 0:
				comment.WriteRune(c)
			default:
				clean.WriteRune(c)
			}
		}

		return clean.String(), comment.String()
	}

	mbs := splitAddressList(v, false)
	as := make([]Address, 0, len(mbs))
	for _, orig := range mbs {
		mb, com := extractComments(orig)

		mb = strings.TrimSpace(mb)
		com = strings.TrimSpace(com)

		var dn, email string
		if lt := strings.LastIndexByte(mb, '<'); lt >= 0 {
			dn = unquote(mb[:lt])
			email = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(mb[lt+1:]), ">"))
		} else {
			parts := strings.Fields(mb)
			switch {
			case len(parts) == 0:
				email = ""
			case len(parts) > 1:
				dn = unquote(strings.Join(parts[:len(parts)-1], " "))
				email = parts[len(parts)-1]
			default:
				email = parts[0]
			}
		}

		if email == "" && dn == "" {
			continue
		}

		if dn == "" {
			dn = com
		}

		as = append(as, Address{Name: dn, Address: strings.TrimSuffix(email, "@")})
	}

	return as
}
