package charset_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zostay/go-mailparse/message/charset"
)

func TestSniff(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "utf-8", charset.Sniff([]byte("plain ascii"), "text/plain", false))
	assert.Equal(t, "utf-8", charset.Sniff([]byte("ÕÄÖÜ"), "text/plain", false))
	assert.Equal(t, "utf-8", charset.Sniff([]byte("\xef\xbb\xbfhi"), "text/plain", true))

	// invalid UTF-8 without a declaration falls back to the default
	assert.Equal(t, charset.Default, charset.Sniff([]byte("\xd5\xc4\xd6\xdc"), "text/plain", false))

	// a rune split by the sniff window is still UTF-8
	long := []byte(strings.Repeat("a", charset.SniffLength-1) + "Õ")
	assert.Equal(t, "utf-8", charset.Sniff(long[:charset.SniffLength], "text/plain", false))
	bad := []byte("\xd5" + strings.Repeat("a", charset.SniffLength))
	assert.Equal(t, charset.Default, charset.Sniff(bad, "text/plain", false))

	html := []byte(`<html><head><meta charset="koi8-r"></head><body>` + "\xf0\xd2\xc9" + `</body></html>`)
	assert.Equal(t, "koi8-r", charset.Sniff(html, "text/html", false))
}

func TestDetect(t *testing.T) {
	t.Parallel()

	label, confidence := charset.Detect([]byte("\xef\xbb\xbfThis is some UTF-8 text with a byte order mark."))
	assert.Equal(t, "UTF-8", label)
	assert.GreaterOrEqual(t, confidence, charset.MinConfidence)
}
