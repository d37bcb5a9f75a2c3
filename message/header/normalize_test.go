package header_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zostay/go-mailparse/message/charset"
	"github.com/zostay/go-mailparse/message/header"
)

func normalize(t *testing.T, block string) (*header.Map, []error) {
	t.Helper()

	lines, errs := header.ParseLines([]byte(block))
	require.Empty(t, errs)

	return header.Normalize(lines, charset.WordDecoder())
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	m, errs := normalize(t, "Subject: first\r\n"+
		"Subject: =?UTF-8?Q?=C3=95=C3=84=C3=96=C3=9C?=\r\n"+
		"Date: Wed, 08 Jan 2014 09:52:26 -0800\r\n"+
		"Message-ID: abc@example.com\r\n"+
		"References: <mail1>\r\n"+
		"References: <mail3> mail4\r\n"+
		"In-Reply-To: <mail1>\r\n"+
		"In-Reply-To: <mail3>\r\n"+
		"Received: one\r\n"+
		"Received: two\r\n"+
		"Reply-TO: andris <andris@disposebox.com>\r\n"+
		"Content-Type: text/plain; charset=utf-8; name=\"=?UTF-8?Q?=C3=95.txt?=\"\r\n"+
		"X-Empty:    \r\n"+
		"X-Encoded: =?ISO-8859-1?Q?a=E4?=\r\n")
	assert.Empty(t, errs)

	assert.Equal(t, []string{
		"subject", "date", "message-id", "references", "in-reply-to",
		"received", "reply-to", "content-type", "x-encoded",
	}, m.Keys())

	subject, err := m.Get(header.Subject)
	assert.NoError(t, err)
	assert.Equal(t, "ÕÄÖÜ", subject)
	assert.Len(t, m.Values(header.Subject), 1)

	date, err := m.GetTime(header.Date)
	assert.NoError(t, err)
	assert.Equal(t, "2014-01-08T17:52:26Z", date.UTC().Format(time.RFC3339))

	ids, err := m.GetIDs(header.MessageID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"<abc@example.com>"}, ids)

	ids, err = m.GetIDs(header.References)
	assert.NoError(t, err)
	assert.Equal(t, []string{"<mail1>", "<mail3>", "<mail4>"}, ids)

	ids, err = m.GetIDs(header.InReplyTo)
	assert.NoError(t, err)
	assert.Equal(t, []string{"<mail1>", "<mail3>"}, ids)

	assert.Equal(t, []string{"one", "two"}, m.GetAll(header.Received))

	rt, err := m.GetAddresses(header.ReplyTo)
	assert.NoError(t, err)
	assert.Equal(t, []header.Address{{Name: "andris", Address: "andris@disposebox.com"}}, rt)

	ct, err := m.GetParam(header.ContentType)
	assert.NoError(t, err)
	assert.Equal(t, "text/plain", ct.MediaType())
	assert.Equal(t, "Õ.txt", ct.Name())

	assert.False(t, m.Has("x-empty"))

	enc, err := m.Get("X-Encoded")
	assert.NoError(t, err)
	assert.Equal(t, "aä", enc)

	assert.Equal(t, header.PriorityNormal, m.GetPriority())
}

func TestNormalize_Priority(t *testing.T) {
	t.Parallel()

	m, _ := normalize(t, "X-Priority: 1 (Highest)\r\n")
	assert.Equal(t, header.PriorityHigh, m.GetPriority())

	m, _ = normalize(t, "Importance: low\r\nX-MSMail-Priority: High\r\n")
	assert.Equal(t, header.PriorityHigh, m.GetPriority())
	assert.Equal(t, []string{"priority"}, m.Keys())
}

func TestNormalize_BadDate(t *testing.T) {
	t.Parallel()

	m, errs := normalize(t, "Date: not a date at all\r\n")
	if assert.Len(t, errs, 1) {
		assert.ErrorIs(t, errs[0], header.ErrBadDate)
	}

	_, err := m.GetTime(header.Date)
	assert.ErrorIs(t, err, header.ErrWrongType)

	raw, err := m.Get(header.Date)
	assert.NoError(t, err)
	assert.Equal(t, "not a date at all", raw)
}

func TestNormalize_List(t *testing.T) {
	t.Parallel()

	m, _ := normalize(t, "List-Id: Some List <list.example.com>\r\n"+
		"List-Unsubscribe: <mailto:unsub@example.com>\r\n"+
		"List-Unsubscribe: <http://example.com/unsub>\r\n"+
		"Subject: after\r\n")

	assert.Equal(t, []string{"subject", "list"}, m.Keys())

	l, err := m.GetList()
	require.NoError(t, err)
	assert.Equal(t, header.ListFields{
		"id": {Name: "Some List", ID: "list.example.com"},
		"unsubscribe": {
			URL:  "http://example.com/unsub",
			Mail: "unsub@example.com",
		},
	}, l)
}

func TestMap(t *testing.T) {
	t.Parallel()

	m := header.NewMap()
	m.Add("X-One", "a")
	m.Add("x-one", "b")
	m.Add("Subject", "first")
	m.Add("subject", "second")

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []any{"a", "b"}, m.Values("X-ONE"))
	assert.Equal(t, []any{"second"}, m.Values("subject"))

	c := m.Clone()
	m.Delete("x-one")
	assert.False(t, m.Has("x-one"))
	assert.True(t, c.Has("x-one"))
	assert.Equal(t, []string{"subject"}, m.Keys())

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, header.ErrNoSuchField)

	m.Set("x-number", 42)
	_, err = m.Get("x-number")
	assert.ErrorIs(t, err, header.ErrWrongType)

	assert.True(t, header.IsSingular("Content-Type"))
	assert.False(t, header.IsSingular("In-Reply-To"))
}
