package message_test

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zostay/go-mailparse/message"
)

var generatedIDRx = regexp.MustCompile(`^[0-9a-f]{32}@mailparser$`)

func TestParse_AttachmentContent(t *testing.T) {
	t.Parallel()

	binary := []byte{0, 1, 2, 3, 253, 254, 255}

	tests := []struct {
		name     string
		in       string
		content  []byte
		checksum string
	}{
		{
			name:     "quoted-printable",
			in:       "Content-Type: application/octet-stream\r\nContent-Transfer-Encoding: QUOTED-PRINTABLE\r\n\r\n=00=01=02=03=FD=FE=FF",
			content:  binary,
			checksum: "",
		},
		{
			name:    "base64",
			in:      "Content-Type: application/octet-stream\r\nContent-Transfer-Encoding: base64\r\n\r\nAAECA/3+/w==",
			content: binary,
		},
		{
			name: "checksum",
			in: "Content-type: multipart/mixed; boundary=ABC\r\n" +
				"\r\n" +
				"--ABC\r\n" +
				"Content-Type: application/octet-stream\r\n" +
				"Content-Transfer-Encoding: base64\r\n" +
				"\r\n" +
				"AAECAwQFBg==\r\n" +
				"--ABC--",
			content:  []byte{0, 1, 2, 3, 4, 5, 6},
			checksum: "9aa461e1eca4086f9230aa49c90b0c61",
		},
		{
			name: "8bit",
			in: "Content-type: multipart/mixed; boundary=ABC\r\n" +
				"\r\n" +
				"--ABC\r\n" +
				"Content-Type: application/octet-stream\r\n" +
				"Content-Transfer-Encoding: 8bit\r\n" +
				"\r\n" +
				"ÕÄ\r\n" +
				"ÖÜ\r\n" +
				"--ABC--",
			content:  []byte("ÕÄ\r\nÖÜ"),
			checksum: "cad0f72629a7245dd3d2cbf41473e3ca",
		},
		{
			name: "uuencode",
			in: "Content-type: multipart/mixed; boundary=ABC\r\n" +
				"\r\n" +
				"--ABC\r\n" +
				"Content-Type: application/octet-stream\r\n" +
				"Content-Transfer-Encoding: uuencode\r\n" +
				"\r\n" +
				"begin 644 buffer.bin\r\n" +
				"#0V%T\r\n" +
				"`\r\n" +
				"end\r\n" +
				"--ABC--",
			content:  []byte("Cat"),
			checksum: "fa3ebd6742c360b2d9652b7f78d9bd7d",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			msg := parse(t, test.in)
			require.Len(t, msg.Attachments, 1)

			a := msg.Attachments[0]
			assert.Equal(t, test.content, a.Bytes())
			assert.True(t, a.IsBuffered())
			assert.Equal(t, int64(len(test.content)), a.Size)
			if test.checksum != "" {
				assert.Equal(t, test.checksum, a.Checksum)
			}
			assert.Equal(t, "application/octet-stream", a.ContentType)
			assert.Equal(t, "attachment.bin", a.GeneratedFilename)
			assert.Empty(t, msg.Text)
			assert.Empty(t, msg.Warnings)
		})
	}
}

func TestParse_AttachmentContentID(t *testing.T) {
	t.Parallel()

	msg := parse(t, "Content-type: multipart/mixed; boundary=ABC\r\n"+
		"\r\n"+
		"--ABC\r\n"+
		"Content-Type: application/octet-stream\r\n"+
		"Content-Transfer-Encoding: base64\r\n"+
		"\r\n"+
		"AAECAwQFBg==\r\n"+
		"--ABC\r\n"+
		"Content-Type: application/octet-stream\r\n"+
		"Content-Id: test@localhost\r\n"+
		"Content-Transfer-Encoding: base64\r\n"+
		"\r\n"+
		"AAECAwQFBg==\r\n"+
		"--ABC--")

	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "9aa461e1eca4086f9230aa49c90b0c61@mailparser", msg.Attachments[0].ContentID)
	assert.False(t, msg.Attachments[0].Related)
	assert.Equal(t, "test@localhost", msg.Attachments[1].ContentID)
	assert.False(t, msg.Attachments[1].Related)
}

func TestParse_AttachmentFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		filename string
	}{
		{
			name:     "encoded word",
			header:   "Content-Disposition: attachment; filename=\"=?UTF-8?Q?=C3=95=C3=84=C3=96=C3=9C?=\"",
			filename: "ÕÄÖÜ",
		},
		{
			name:     "rfc 2231",
			header:   "Content-Disposition: attachment; filename*=utf-8''%C3%95%C3%84%C3%96%C3%9C.txt",
			filename: "ÕÄÖÜ.txt",
		},
		{
			name:     "semicolon",
			header:   "Content-Disposition: attachment; filename=\"hello;world;test.txt\"",
			filename: "hello;world;test.txt",
		},
		{
			name:     "content type name",
			header:   "Content-Type: application/octet-stream; name=\"test.bin\"",
			filename: "test.bin",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			msg := parse(t, "Content-type: multipart/mixed; boundary=ABC\r\n"+
				"\r\n"+
				"--ABC\r\n"+
				test.header+"\r\n"+
				"\r\n"+
				"=00=01=02=03=04=05=06\r\n"+
				"--ABC--")

			require.Len(t, msg.Attachments, 1)
			assert.Equal(t, test.filename, msg.Attachments[0].Filename)
			assert.Equal(t, test.filename, msg.Attachments[0].GeneratedFilename)
			assert.Equal(t, test.filename, msg.Attachments[0].Name())
		})
	}
}

func multipartWith(parts ...string) string {
	var b strings.Builder
	b.WriteString("Content-type: multipart/mixed; boundary=ABC\r\n\r\n")
	for _, p := range parts {
		b.WriteString("--ABC\r\n")
		b.WriteString(p)
		b.WriteString("\r\n")
	}
	b.WriteString("--ABC--")
	return b.String()
}

func TestParse_GeneratedFilenames(t *testing.T) {
	t.Parallel()

	named := func(name string) string {
		return fmt.Sprintf("Content-Type: application/octet-stream\r\nContent-Disposition: attachment; filename=%q\r\n\r\nabc", name)
	}

	tests := []struct {
		name  string
		parts []string
		want  []string
	}{
		{
			name: "default names",
			parts: []string{
				"Content-Type: application/pdf\r\n\r\nabc",
				"Content-Type: application/octet-stream\r\n\r\nabc",
			},
			want: []string{"attachment.pdf", "attachment.bin"},
		},
		{
			name: "same default names",
			parts: []string{
				"Content-Type: application/pdf\r\n\r\nabc",
				"Content-Type: application/pdf\r\n\r\nabc",
			},
			want: []string{"attachment.pdf", "attachment-1.pdf"},
		},
		{
			name:  "same names",
			parts: []string{named("test.txt"), named("test.txt")},
			want:  []string{"test.txt", "test-1.txt"},
		},
		{
			name: "numbered names",
			parts: []string{
				named("somename.txt"),
				named("somename-1.txt"),
				named("somename.txt"),
				named("somename-1-1.txt"),
			},
			want: []string{
				"somename.txt",
				"somename-1-1.txt",
				"somename-2.txt",
				"somename-1-1-3.txt",
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			msg := parse(t, multipartWith(test.parts...))

			var got []string
			for _, a := range msg.Attachments {
				got = append(got, a.GeneratedFilename)
			}
			assert.Equal(t, test.want, got)
		})
	}
}

func TestParse_DetectContentType(t *testing.T) {
	t.Parallel()

	msg := parse(t, multipartWith(
		"Content-Type: application/octet-stream\r\n"+
			"Content-Disposition: attachment; filename=\"test.pdf\"\r\n"+
			"\r\n"+
			"abc",
		"Content-Disposition: attachment\r\n"+
			"\r\n"+
			"%PDF-1.4\r\n%%EOF",
		"Content-Type: application/octet-stream\r\n"+
			"\r\n"+
			"%PDF-1.4\r\n%%EOF",
	))

	require.Len(t, msg.Attachments, 3)

	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.Equal(t, "test.pdf", msg.Attachments[0].GeneratedFilename)

	assert.Equal(t, "application/pdf", msg.Attachments[1].ContentType)
	assert.Equal(t, "attachment", msg.Attachments[1].Disposition)
	assert.Equal(t, "attachment.pdf", msg.Attachments[1].GeneratedFilename)
	assert.Equal(t, []byte("%PDF-1.4\r\n%%EOF"), msg.Attachments[1].Bytes())

	// a declared octet-stream is believed
	assert.Equal(t, "application/octet-stream", msg.Attachments[2].ContentType)
	assert.Equal(t, "attachment.bin", msg.Attachments[2].GeneratedFilename)
}

func TestParse_InlineNonText(t *testing.T) {
	t.Parallel()

	msg := parse(t, multipartWith(
		"Content-Type: text/plain\r\n\r\nHello",
		"Content-Type: image/png\r\nContent-Disposition: inline\r\nContent-Transfer-Encoding: base64\r\n\r\niVBORw0KGgo=",
		"Content-Type: text/plain\r\nContent-Disposition: attachment; filename=notes.txt\r\n\r\nnot text of the message",
	))

	assert.Equal(t, "Hello", msg.Text)
	require.Len(t, msg.Attachments, 2)

	assert.Equal(t, "image/png", msg.Attachments[0].ContentType)
	assert.Equal(t, "inline", msg.Attachments[0].Disposition)
	assert.Equal(t, "attachment.png", msg.Attachments[0].GeneratedFilename)

	assert.Equal(t, "text/plain", msg.Attachments[1].ContentType)
	assert.Equal(t, "notes.txt", msg.Attachments[1].Filename)
	assert.Equal(t, []byte("not text of the message"), msg.Attachments[1].Bytes())
}

func TestParse_AttachmentLinks(t *testing.T) {
	t.Parallel()

	in := multipartWith(
		"Content-Type: text/html\r\n\r\n<p>test 1</p>",
		"Content-Type: application/pdf\r\nContent-Disposition: inline; filename=test.pdf\r\n\r\nAAECAwQFBg==",
		"Content-Type: text/html\r\n\r\n<p>test 2</p>",
	)

	msg := parse(t, in, message.WithAttachmentLinks(true))
	require.Len(t, msg.Attachments, 1)

	cid := msg.Attachments[0].ContentID
	assert.Regexp(t, generatedIDRx, cid)
	assert.Equal(t, "<p>test 1</p><br/>\n\n"+
		"<div class=\"mailparser-attachment\"><a href=\"cid:"+cid+"\">&lt;test.pdf&gt;</a></div><br/>\n"+
		"<p>test 2</p>", msg.HTML)

	msg = parse(t, in)
	assert.Equal(t, "<p>test 1</p><br/>\n<p>test 2</p>", msg.HTML)
	assert.Equal(t, "test 1\n\ntest 2", msg.Text)
}

const relatedMessage = "Content-Type: multipart/related; boundary=ABC\r\n" +
	"\r\n" +
	"--ABC\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<img src=\"cid:img1@example\"><img src=\"cid:img1@example.org\">\r\n" +
	"--ABC\r\n" +
	"Content-Type: image/png\r\n" +
	"Content-ID: <img1@example>\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"iVBORw0KGgo=\r\n" +
	"--ABC--"

func TestParse_Related(t *testing.T) {
	t.Parallel()

	msg := parse(t, relatedMessage)
	require.Len(t, msg.Attachments, 1)

	a := msg.Attachments[0]
	assert.Equal(t, "img1@example", a.ContentID)
	assert.True(t, a.Related)
	assert.Equal(t, "", a.Disposition)
	assert.Equal(t, "image/png", a.ContentType)
	assert.Equal(t, int64(8), a.Size)
	assert.Contains(t, msg.HTML, "cid:img1@example\"")
}

func TestParse_InlineImages(t *testing.T) {
	t.Parallel()

	msg := parse(t, relatedMessage, message.WithInlineImages(true))
	assert.Equal(t, "<img src=\"data:image/png;base64,iVBORw0KGgo=\"><img src=\"cid:img1@example.org\">", msg.HTML)
}

func TestMessage_RewriteInlineImages(t *testing.T) {
	t.Parallel()

	msg := parse(t, relatedMessage)

	calls := 0
	err := msg.RewriteInlineImages(context.Background(), func(_ context.Context, a *message.Attachment) (string, error) {
		calls++
		return "https://example.com/" + a.GeneratedFilename, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "<img src=\"https://example.com/attachment.png\"><img src=\"cid:img1@example.org\">", msg.HTML)

	msg = parse(t, relatedMessage)
	err = msg.RewriteInlineImages(context.Background(), func(context.Context, *message.Attachment) (string, error) {
		return "", io.ErrUnexpectedEOF
	})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDataURI_NotBuffered(t *testing.T) {
	t.Parallel()

	s := message.New().NewSession(strings.NewReader(relatedMessage))
	ctx := context.Background()

	var a *message.Attachment
	for {
		ev, err := s.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		if ae, isAttachment := ev.(*message.AttachmentEvent); isAttachment {
			a = ae.Attachment
			a.Release()
		}
	}

	require.NotNil(t, a)
	assert.False(t, a.IsBuffered())
	assert.Nil(t, a.Content)

	_, err := message.DataURI(ctx, a)
	assert.ErrorIs(t, err, message.ErrNotBuffered)
}
