package transfer_test

import (
	"io"
	"mime/quotedprintable"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zostay/go-mailparse/message/transfer"
)

func decodeQP(t require.TestingT, s string) string {
	r := transfer.NewQuotedPrintableDecoder(strings.NewReader(s))
	db, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(db)
}

func TestNewQuotedPrintableDecoder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		enc, dec string
	}{
		{"=3D>?", "=>?"},
		{"=c3=95", "Õ"},
		{"soft =\r\nbreak", "soft break"},
		{"soft =\nbreak", "soft break"},
		{"soft = \t\r\nbreak", "soft break"},
		{"hard\r\nbreak", "hard\r\nbreak"},
		{"trailing=", "trailing"},
		{"bad =ZZ escape", "bad =ZZ escape"},
		{"short =A", "short =A"},
		{"==C3==95=C3=84=C3=96=C3=9C=", "=\xc3=\x95ÄÖÜ"},
	}

	for _, c := range cases {
		assert.Equal(t, c.dec, decodeQP(t, c.enc), "decoding %q", c.enc)
	}
}

func TestNewQuotedPrintableDecoder_OneByteReads(t *testing.T) {
	t.Parallel()

	r := transfer.NewQuotedPrintableDecoder(
		iotest.OneByteReader(strings.NewReader("a=3Db =\r\nc=\rd=C3=84")))
	db, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "a=b cdÄ", string(db))
}

func TestNewQuotedPrintableDecoder_RoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOf(rapid.Byte()).Draw(t, "raw")

		var enc strings.Builder
		w := quotedprintable.NewWriter(&enc)
		w.Binary = true
		_, err := w.Write(raw)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		assert.Equal(t, string(raw), decodeQP(t, enc.String()))
	})
}
