package charset

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// Default is the identifier Resolve returns for labels it cannot place.
const Default = "windows-1252"

// aliases holds the labels seen in email that are either missing from the
// IANA registry or that we want resolved differently from it. Keys are lower
// case. Values are canonical identifiers accepted by Encoding.
var aliases = map[string]string{
	"utf8":              "utf-8",
	"utf-8":             "utf-8",
	"unicode-1-1-utf-8": "utf-8",
	"x-unicode20utf8":   "utf-8",

	"utf-16":    "utf-16",
	"utf16":     "utf-16",
	"utf-16le":  "utf-16le",
	"utf16le":   "utf-16le",
	"utf-16be":  "utf-16be",
	"utf16be":   "utf-16be",
	"unicode":   "utf-16le",
	"ucs-2":     "utf-16le",
	"csunicode": "utf-16le",

	"latin1":             "iso-8859-1",
	"l1":                 "iso-8859-1",
	"iso-ir-100":         "iso-8859-1",
	"iso_8859-1:1987":    "iso-8859-1",
	"cp819":              "iso-8859-1",
	"ibm819":             "iso-8859-1",
	"csisolatin1":        "iso-8859-1",
	"latin2":             "iso-8859-2",
	"l2":                 "iso-8859-2",
	"csisolatin2":        "iso-8859-2",
	"latin3":             "iso-8859-3",
	"l3":                 "iso-8859-3",
	"latin4":             "iso-8859-4",
	"l4":                 "iso-8859-4",
	"cyrillic":           "iso-8859-5",
	"csisolatincyrillic": "iso-8859-5",
	"arabic":             "iso-8859-6",
	"asmo-708":           "iso-8859-6",
	"ecma-114":           "iso-8859-6",
	"greek":              "iso-8859-7",
	"greek8":             "iso-8859-7",
	"elot_928":           "iso-8859-7",
	"ecma-118":           "iso-8859-7",
	"hebrew":             "iso-8859-8",
	"iso-8859-8-i":       "iso-8859-8",
	"iso-8859-8-e":       "iso-8859-8",
	"visual":             "iso-8859-8",
	"latin5":             "iso-8859-9",
	"l5":                 "iso-8859-9",
	"latin6":             "iso-8859-10",
	"l6":                 "iso-8859-10",
	"latin7":             "iso-8859-13",
	"latin8":             "iso-8859-14",
	"latin9":             "iso-8859-15",
	"l9":                 "iso-8859-15",
	"latin10":            "iso-8859-16",

	"thai":        "windows-874",
	"tis-620":     "windows-874",
	"dos-874":     "windows-874",
	"cp874":       "windows-874",
	"iso-8859-11": "windows-874",

	"koi8-r":  "koi8-r",
	"koi8r":   "koi8-r",
	"koi8":    "koi8-r",
	"koi":     "koi8-r",
	"cskoi8r": "koi8-r",
	"koi8-u":  "koi8-u",
	"koi8u":   "koi8-u",
	"koi8-ru": "koi8-u",

	"gbk":         "gbk",
	"x-gbk":       "gbk",
	"gb2312":      "gbk",
	"csgb2312":    "gbk",
	"gb_2312":     "gbk",
	"gb_2312-80":  "gbk",
	"chinese":     "gbk",
	"iso-ir-58":   "gbk",
	"euc-cn":      "gbk",
	"cp936":       "gbk",
	"ms936":       "gbk",
	"windows-936": "gbk",
	"gb18030":     "gb18030",

	"big5":       "big5",
	"big5-hkscs": "big5",
	"cn-big5":    "big5",
	"csbig5":     "big5",
	"x-x-big5":   "big5",
	"cp950":      "big5",

	"shift_jis":   "shift_jis",
	"shift-jis":   "shift_jis",
	"sjis":        "shift_jis",
	"x-sjis":      "shift_jis",
	"ms_kanji":    "shift_jis",
	"csshiftjis":  "shift_jis",
	"windows-31j": "shift_jis",
	"cp932":       "shift_jis",
	"ms932":       "shift_jis",

	"euc-jp":              "euc-jp",
	"eucjp":               "euc-jp",
	"x-euc-jp":            "euc-jp",
	"cseucpkdfmtjapanese": "euc-jp",
	"iso-2022-jp":         "iso-2022-jp",
	"csiso2022jp":         "iso-2022-jp",
	"euc-kr":              "euc-kr",
	"euckr":               "euc-kr",
	"cseuckr":             "euc-kr",
	"korean":              "euc-kr",
	"ks_c_5601-1987":      "euc-kr",
	"ks_c_5601-1989":      "euc-kr",
	"ksc5601":             "euc-kr",
	"ksc_5601":            "euc-kr",
	"csksc56011987":       "euc-kr",
	"iso-ir-149":          "euc-kr",
	"windows-949":         "euc-kr",
	"x-windows-949":       "euc-kr",
	"cp949":               "euc-kr",

	"ibm866":          "ibm866",
	"cp866":           "ibm866",
	"866":             "ibm866",
	"csibm866":        "ibm866",
	"macintosh":       "macintosh",
	"mac":             "macintosh",
	"x-mac-roman":     "macintosh",
	"csmacintosh":     "macintosh",
	"x-mac-cyrillic":  "x-mac-cyrillic",
	"x-mac-ukrainian": "x-mac-cyrillic",
}

// asciiLabels are the names of US-ASCII. They resolve to windows-1252, a
// superset that decodes every byte.
var asciiLabels = map[string]bool{
	"us-ascii":         true,
	"ascii":            true,
	"us":               true,
	"csascii":          true,
	"iso646-us":        true,
	"iso-ir-6":         true,
	"ansi_x3.4-1968":   true,
	"ansi_x3.4-1986":   true,
	"iso_646.irv:1991": true,
	"cp367":            true,
	"ibm367":           true,
}

func init() {
	for l := range asciiLabels {
		aliases[l] = Default
	}

	for n := 1; n <= 16; n++ {
		if n == 11 || n == 12 {
			continue
		}

		ns := strconv.Itoa(n)
		canon := "iso-8859-" + ns
		for _, l := range []string{canon, "iso8859-" + ns, "iso_8859-" + ns, "iso8859" + ns, "iso-8859" + ns} {
			if _, exists := aliases[l]; !exists {
				aliases[l] = canon
			}
		}
	}

	for n := 1250; n <= 1258; n++ {
		ns := strconv.Itoa(n)
		canon := "windows-" + ns
		for _, l := range []string{canon, "cp" + ns, "win-" + ns, "x-cp" + ns} {
			aliases[l] = canon
		}
	}
}

// Rewrites applied when the label is not found as given.
var (
	windowsRx = regexp.MustCompile(`^(?:win|windows|cp)-?(125[0-8])$`)
	asciiRx   = regexp.MustCompile(`^(?:us-?)?ascii$`)
	latin1Rx  = regexp.MustCompile(`^(?:latin-?1|iso-?8859-?1)$`)
	isoRx     = regexp.MustCompile(`^iso-?8859-?(\d{1,2})$`)
)

// lookup tries the alias table and then the IANA index.
func lookup(label string) (string, bool) {
	if canon, found := aliases[label]; found {
		return canon, true
	}

	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		return "", false
	}

	name, err := ianaindex.MIME.Name(enc)
	if err != nil {
		return "", false
	}

	name = strings.ToLower(name)
	if name == "us-ascii" {
		return Default, true
	}

	return name, true
}

// rewrite normalizes common misspellings of labels.
func rewrite(label string) string {
	label = strings.ReplaceAll(label, "_", "-")

	switch {
	case asciiRx.MatchString(label):
		return Default
	case latin1Rx.MatchString(label):
		return "iso-8859-1"
	}

	if m := windowsRx.FindStringSubmatch(label); m != nil {
		return "windows-" + m[1]
	}

	if m := isoRx.FindStringSubmatch(label); m != nil {
		return "iso-8859-" + m[1]
	}

	return label
}

// Resolve maps a free-form charset label to the canonical identifier of a
// decoder. The label is trimmed, unquoted and lower-cased, then looked up in
// the alias table and the IANA index. If that fails, the label is rewritten
// to repair common variations (utf_8, win1250, latin1, iso88592, ascii, ...)
// and looked up again. Anything still unknown resolves to Default.
//
// Resolve has no side-effects and always returns the same identifier for the
// same label. Every identifier it returns is accepted by Encoding.
func Resolve(label string) string {
	label = strings.ToLower(strings.Trim(label, " \t\r\n\"'"))
	if label == "" {
		return Default
	}

	if canon, found := lookup(label); found {
		return canon
	}

	if canon, found := lookup(rewrite(label)); found {
		return canon
	}

	return Default
}

// IsUTF8 returns true if the label names UTF-8 or plain ASCII, which are both
// read as UTF-8 without a charset conversion step.
func IsUTF8(label string) bool {
	label = strings.ToLower(strings.Trim(label, " \t\r\n\"'"))
	if label == "" {
		return false
	}

	if asciiLabels[label] || asciiRx.MatchString(strings.ReplaceAll(label, "_", "-")) {
		return true
	}

	return Resolve(label) == "utf-8"
}
