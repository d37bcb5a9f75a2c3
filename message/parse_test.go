package message_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zostay/go-mailparse/internal/textconv"
	"github.com/zostay/go-mailparse/message"
	"github.com/zostay/go-mailparse/message/header"
)

func parse(t *testing.T, in string, opts ...message.ParseOption) *message.Message {
	t.Helper()

	msg, err := message.Parse(context.Background(), strings.NewReader(in), opts...)
	require.NoError(t, err)
	require.NotNil(t, msg)
	return msg
}

func TestParse_TextEncodings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		text string
	}{
		{
			name: "undeclared latin-1",
			in:   "\r\n\xd5\xc4\xd6\xdc",
			text: "ÕÄÖÜ",
		},
		{
			name: "declared utf-8",
			in:   "Content-Type: TEXT/PLAIN; CHARSET=UTF-8\r\n\r\nÕÄÖÜ",
			text: "ÕÄÖÜ",
		},
		{
			name: "8bit utf-8",
			in:   "Content-type: text/plain; charset=utf-8\r\nContent-Transfer-Encoding: 8bit\r\n\r\nÕÄÖÜ",
			text: "ÕÄÖÜ",
		},
		{
			name: "quoted-printable latin-1",
			in:   "Content-Type: text/plain; charset=ISO-8859-1\r\nContent-Transfer-Encoding: quoted-printable\r\n\r\n=D5=C4=D6=DC",
			text: "ÕÄÖÜ",
		},
		{
			name: "misspelled charset",
			in:   "Content-Type: text/plain; charset=latin_1\r\n\r\n\xd5\xc4\xd6\xdc",
			text: "ÕÄÖÜ",
		},
		{
			name: "invalid quoted-printable",
			in:   "Content-type: text/plain; charset=utf-8\r\nContent-Transfer-Encoding: QUOTED-PRINTABLE\r\n\r\n==C3==95=C3=84=C3=96=C3=9C=",
			text: "=�=�ÄÖÜ",
		},
		{
			name: "invalid base64",
			in:   "Content-type: text/plain; charset=utf-8\r\nContent-Transfer-Encoding: base64\r\n\r\nw5XDhMOWw5",
			text: "ÕÄÖ�",
		},
		{
			name: "line breaks",
			in:   "Content-Type: text/plain; charset=utf-8\r\n\r\n1234\r\nÕÄÖÜ\rÜÖÄÕ\n1234",
			text: "1234\nÕÄÖÜ\nÜÖÄÕ\n1234",
		},
		{
			name: "flowed",
			in:   "Content-Type: text/plain; format=flowed\r\n\r\nFirst line \r\ncontinued \r\nand so on",
			text: "First line continued and so on",
		},
		{
			name: "flowed delsp",
			in:   "Content-Type: text/plain; format=flowed; delsp=yes\r\n\r\nFirst line \r\ncontinued \r\nand so on",
			text: "First linecontinuedand so on",
		},
		{
			name: "fixed",
			in:   "Content-Type: text/plain\r\n\r\nFirst line \r\ncontinued \r\nand so on",
			text: "First line \ncontinued \nand so on",
		},
		{
			name: "flowed signature",
			in:   "Content-Type: text/plain; format=flowed\r\n\r\nHow are you today?\r\n-- \r\nSignature\r\n",
			text: "How are you today?\n-- \nSignature\n",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			msg := parse(t, test.in)
			assert.Equal(t, test.text, msg.Text)
		})
	}
}

func TestParse_HTMLEncodings(t *testing.T) {
	t.Parallel()

	msg := parse(t, "Content-Type: text/html\r\n\r\n<html><head><meta charset=\"utf-8\"/></head><body>ÕÄÖÜ")
	assert.True(t, strings.HasSuffix(msg.HTML, "ÕÄÖÜ"))
	assert.Equal(t, "ÕÄÖÜ", msg.Text)

	msg = parse(t, "Content-Type: text/html; charset=latin1\r\n\r\n<b>\xd5\xc4\xd6\xdc</b>")
	assert.Equal(t, "<b>ÕÄÖÜ</b>", msg.HTML)
	assert.Equal(t, "ÕÄÖÜ", msg.Text)
}

func TestParse_Header(t *testing.T) {
	t.Parallel()

	msg := parse(t, "From: =?gb2312?B?086yyZjl?= user@ldkf.com.tw\r\n"+
		"To: =?ISO-8859-1?Q?Keld_J=F8rn_Simonsen?= <to@email.com>\r\n"+
		"Reply-TO: andris <andris@disposebox.com>\r\n"+
		"Subject: =?iso-8859-1?Q?Avaldu?= =?iso-8859-1?Q?s_lepingu_?=\r\n =?iso-8859-1?Q?l=F5petamise?= =?iso-8859-1?Q?ks?=\r\n"+
		"X-Test: =?UTF-8?Q?=C3=95=C3=84?= =?UTF-8?Q?=C3=96=C3=9C?=\r\n"+
		"Message-ID: abc@example.com\r\n"+
		"References: <mail1>\r\n"+
		"References: <mail3>\r\n"+
		"In-Reply-To: <mail1>\r\n"+
		"In-Reply-To: <mail3>\r\n"+
		"X-Priority: 1 (Highest)\r\n"+
		"Date: Wed, 08 Jan 2014 09:52:26 -0800\r\n"+
		"\r\n"+
		"Body")

	assert.Equal(t, []header.Address{{Name: "游采樺", Address: "user@ldkf.com.tw"}}, msg.From)
	assert.Equal(t, []header.Address{{Name: "Keld Jørn Simonsen", Address: "to@email.com"}}, msg.To)
	assert.Equal(t, []header.Address{{Name: "andris", Address: "andris@disposebox.com"}}, msg.ReplyTo)
	assert.Equal(t, "Avaldus lepingu lõpetamiseks", msg.Subject)
	assert.Equal(t, "abc@example.com", msg.MessageID)
	assert.Equal(t, []string{"mail1", "mail3"}, msg.References)
	assert.Equal(t, []string{"mail1", "mail3"}, msg.InReplyTo)
	assert.Equal(t, header.PriorityHigh, msg.Priority)
	require.NotNil(t, msg.Date)
	assert.True(t, time.Date(2014, 1, 8, 17, 52, 26, 0, time.UTC).Equal(*msg.Date))
	assert.Equal(t, "Body", msg.Text)

	xt, err := msg.Header.Get("X-Test")
	require.NoError(t, err)
	assert.Equal(t, "ÕÄÖÜ", xt)

	assert.Nil(t, msg.Cc)
	assert.Nil(t, msg.ReceivedDate)
	assert.Empty(t, msg.Warnings)
}

func TestParse_Priority(t *testing.T) {
	t.Parallel()

	msg := parse(t, "Subject: test\r\n\r\nbody")
	assert.Equal(t, header.PriorityNormal, msg.Priority)

	msg = parse(t, "Importance: low\r\n\r\nbody")
	assert.Equal(t, header.PriorityLow, msg.Priority)
}

func TestParse_Dates(t *testing.T) {
	t.Parallel()

	msg := parse(t, "Received: by 10.25.25.72 with SMTP id 69csp2404548lfz;\r\n"+
		"        Fri, 6 Feb 2015 20:15:32 -0800 (PST)\r\n"+
		"X-Received: by 10.194.200.68 with SMTP id jq4mr7518476wjc.128.1423264531879;\r\n"+
		"        Fri, 06 Feb 2015 15:15:31 -0800 (PST)\r\n"+
		"Received: from mail.formilux.org (flx02.formilux.org. [195.154.117.161])\r\n"+
		"        by mx.google.com with ESMTP id wn4si6920692wjc.106.2015.02.06.15.15.31\r\n"+
		"        for <test@example.com>;\r\n"+
		"        Fri, 06 Feb 2015 15:15:31 -0800 (PST)\r\n"+
		"Date: Fri, 6 Feb 2015 16:13:51 -0700 (MST)\r\n"+
		"\r\n"+
		"1cTW3A==")

	require.NotNil(t, msg.Date)
	require.NotNil(t, msg.ReceivedDate)
	assert.True(t, time.Date(2015, 2, 6, 23, 13, 51, 0, time.UTC).Equal(*msg.Date))
	assert.True(t, time.Date(2015, 2, 7, 4, 15, 32, 0, time.UTC).Equal(*msg.ReceivedDate))

	msg = parse(t, "Date: zzzzz\r\n\r\n1cTW3A==")
	assert.Nil(t, msg.Date)
	raw, err := msg.Header.Get(header.Date)
	require.NoError(t, err)
	assert.Equal(t, "zzzzz", raw)
	require.Len(t, msg.Warnings, 1)
	assert.ErrorIs(t, msg.Warnings[0], header.ErrBadDate)

	msg = parse(t, "Subject: test\r\n\r\n1cTW3A==")
	assert.Nil(t, msg.Date)

	out, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"date"`)
	assert.False(t, msg.Header.Has(header.Date))
}

func TestParse_Multipart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		text string
		html string
	}{
		{
			name: "simple",
			in:   "Content-type: multipart/mixed; boundary=ABC\r\n\r\n--ABC\r\nContent-type: text/plain; charset=utf-8\r\n\r\nÕÄÖÜ\r\n--ABC--",
			text: "ÕÄÖÜ",
			html: "<p>ÕÄÖÜ</p>",
		},
		{
			name: "nested",
			in: "Content-type: multipart/mixed; boundary=ABC\r\n" +
				"\r\n" +
				"--ABC\r\n" +
				"Content-type: multipart/related; boundary=DEF\r\n" +
				"\r\n" +
				"--DEF\r\n" +
				"Content-type: text/plain; charset=utf-8\r\n" +
				"\r\n" +
				"ÕÄÖÜ\r\n" +
				"--DEF--\r\n" +
				"--ABC--",
			text: "ÕÄÖÜ",
			html: "<p>ÕÄÖÜ</p>",
		},
		{
			name: "inline text",
			in: "Content-type: multipart/mixed; boundary=ABC\r\n" +
				"\r\n" +
				"--ABC\r\n" +
				"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
				"Content-Transfer-Encoding: 8bit\r\n" +
				"Content-Disposition: inline\r\n" +
				"\r\n" +
				"ÕÄÖÜ\r\n" +
				"--ABC--",
			text: "ÕÄÖÜ",
			html: "<p>ÕÄÖÜ</p>",
		},
		{
			name: "different levels",
			in: "Content-type: multipart/mixed; boundary=ABC\r\n" +
				"\r\n" +
				"--ABC\r\n" +
				"Content-type: text/html; charset=utf-8\r\n" +
				"\r\n" +
				"ÕÄÖÜ2\r\n" +
				"--ABC\r\n" +
				"Content-type: multipart/related; boundary=DEF\r\n" +
				"\r\n" +
				"--DEF\r\n" +
				"Content-type: text/plain; charset=utf-8\r\n" +
				"\r\n" +
				"ÕÄÖÜ1\r\n" +
				"--DEF--\r\n" +
				"--ABC--",
			text: "ÕÄÖÜ1",
			html: "ÕÄÖÜ2",
		},
		{
			name: "three levels",
			in: "Content-type: multipart/mixed; boundary=A\r\n" +
				"\r\n" +
				"--A\r\n" +
				"Content-type: multipart/related; boundary=B\r\n" +
				"\r\n" +
				"--B\r\n" +
				"Content-type: multipart/alternative; boundary=C\r\n" +
				"\r\n" +
				"--C\r\n" +
				"Content-type: text/plain; charset=utf-8\r\n" +
				"\r\n" +
				"deepest\r\n" +
				"--C--\r\n" +
				"--B--\r\n" +
				"--A--\r\n",
			text: "deepest",
			html: "",
		},
		{
			name: "several plain parts",
			in: "Content-type: multipart/mixed; boundary=ABC\r\n" +
				"\r\n" +
				"--ABC\r\n" +
				"\r\n" +
				"one\r\n" +
				"--ABC\r\n" +
				"Content-type: text/plain\r\n" +
				"\r\n" +
				"two\r\n" +
				"--ABC--",
			text: "two",
			html: "<p>two</p>",
		},
		{
			name: "plain and plain",
			in: "Content-type: multipart/mixed; boundary=ABC\r\n" +
				"\r\n" +
				"--ABC\r\n" +
				"Content-type: text/plain\r\n" +
				"\r\n" +
				"one\r\n" +
				"--ABC\r\n" +
				"Content-type: text/plain\r\n" +
				"\r\n" +
				"two\r\n" +
				"--ABC--",
			text: "one\n\ntwo",
			html: "<p>one</p><br/>\n<p>two</p>",
		},
		{
			name: "alternative with only html",
			in: "Content-Type: multipart/alternative; boundary=ABC\r\n" +
				"\r\n" +
				"--ABC\r\n" +
				"Content-Type: text/html\r\n" +
				"\r\n" +
				"<p>Hello</p>\r\n" +
				"--ABC--",
			text: "",
			html: "<p>Hello</p>",
		},
		{
			name: "alternative",
			in: "Content-Type: multipart/alternative; boundary=ABC\r\n" +
				"\r\n" +
				"--ABC\r\n" +
				"Content-Type: text/plain\r\n" +
				"\r\n" +
				"Hello\r\n" +
				"--ABC\r\n" +
				"Content-Type: text/html\r\n" +
				"\r\n" +
				"<p>Hello</p>\r\n" +
				"--ABC--",
			text: "Hello",
			html: "<p>Hello</p>",
		},
		{
			name: "lone html",
			in:   "Content-Type: text/html\r\n\r\n<p>Hello <b>World</b></p>",
			text: "Hello World",
			html: "<p>Hello <b>World</b></p>",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			msg := parse(t, test.in)
			assert.Equal(t, test.text, msg.Text)
			assert.Equal(t, test.html, msg.HTML)
			assert.Equal(t, textconv.TextToHTML(test.text), msg.TextAsHTML)
		})
	}
}

func TestParse_Mbox(t *testing.T) {
	t.Parallel()

	msg := parse(t, "Content-Type: text/plain; charset=utf-8\r\n\r\nÕÄ\r\nÖÜ")
	assert.False(t, msg.IsMbox)
	assert.Equal(t, "ÕÄ\nÖÜ", msg.Text)

	msg = parse(t, "From MAILER-DAEMON Fri Jul  8 12:08:34 2011\r\nContent-Type: text/plain; charset=utf-8\r\n\r\nÕÄ\r\nÖÜ")
	assert.True(t, msg.IsMbox)
	assert.Equal(t, "From MAILER-DAEMON Fri Jul  8 12:08:34 2011", msg.MboxFrom)
	assert.Equal(t, "ÕÄ\nÖÜ", msg.Text)

	msg = parse(t, "Content-Type: text/plain; charset=utf-8\r\n\r\n>From test\r\n>>From pest")
	assert.Equal(t, ">From test\n>>From pest", msg.Text)

	msg = parse(t, "From MAILER-DAEMON Fri Jul  8 12:08:34 2011\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n>From test\r\n>>From pest")
	assert.Equal(t, "From test\n>From pest", msg.Text)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	msg := parse(t, "")
	assert.Equal(t, 0, msg.Header.Len())
	assert.Equal(t, "", msg.Text)
	assert.Equal(t, "", msg.HTML)
	assert.Empty(t, msg.Attachments)
}
