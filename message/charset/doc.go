// Package charset maps the charset labels found in email messages onto
// decoders that turn the text into UTF-8.
//
// Labels in the wild are messy: "latin1", "win-1252", "utf_8", "ks_c_5601-1987",
// quoted, mixed case, and sometimes plain wrong. Resolve turns any label into
// a canonical identifier using an alias table, the IANA registry index of
// golang.org/x/text, and a handful of normalizing rewrites. It never fails:
// labels it cannot place resolve to windows-1252, which decodes every byte.
//
// When a part declares no charset at all, Sniff looks at the first bytes of
// the content to make a guess.
package charset
