package filter

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	return msg
}

func TestExtractContentPlain(t *testing.T) {
	msg := parse(t, "Subject: Hi\r\n\r\nVisit https://example.com/a, or http://b.example/login.\r\nThanks\r\n")

	content := extractContent(msg)
	assert.Contains(t, content.Text, "Visit https://example.com/a")
	assert.Equal(t, []string{"https://example.com/a", "http://b.example/login"}, content.Links)
}

func TestExtractContentMultipart(t *testing.T) {
	raw := strings.Join([]string{
		"Subject: =?utf-8?q?Urgent_action?=",
		"Content-Type: multipart/mixed; boundary=outer",
		"",
		"--outer",
		"Content-Type: multipart/alternative; boundary=inner",
		"",
		"--inner",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"Verify your acc=",
		"ount at http://verify.example",
		"--inner",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><head><style>p{}</style></head><body><p>Click <a href=\"https://phish.example/x\">here</a></p>" +
			"<a href=\"mailto:a@b.example\">mail</a><script>var x = 1;</script></body></html>",
		"--inner--",
		"--outer",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment; filename=invoice.pdf",
		"Content-Transfer-Encoding: base64",
		"",
		"JVBERi0xLjQK",
		"--outer",
		"Content-Type: text/plain",
		"Content-Disposition: attachment; filename=notes.txt",
		"",
		"attached text http://attached.example",
		"--outer--",
		"",
	}, "\r\n")

	msg := parse(t, raw)
	content := extractContent(msg)

	assert.Contains(t, content.Text, "Verify your account at http://verify.example")
	assert.Contains(t, content.Text, "Click here")
	assert.NotContains(t, content.Text, "var x")
	assert.NotContains(t, content.Text, "attached text")
	assert.Equal(t, []string{"http://verify.example", "https://phish.example/x"}, content.Links)

	email := emailFromMessage(parse(t, raw))
	assert.Equal(t, "Urgent action", email.Subject)
	assert.Equal(t, content.Links, email.Links)
}

func TestExtractContentBase64Text(t *testing.T) {
	raw := "Content-Type: text/plain\r\nContent-Transfer-Encoding: base64\r\n\r\n" +
		"UGxlYXNlIGxvZyBpbiBhdCBodHRw\r\nczovL2xvZ2luLmV4YW1wbGU=\r\n"

	content := extractContent(parse(t, raw))
	assert.Equal(t, "Please log in at https://login.example", content.Text)
	assert.Equal(t, []string{"https://login.example"}, content.Links)
}

func TestExtractContentIgnoresUnknownParts(t *testing.T) {
	raw := "Content-Type: image/png\r\n\r\nbinary"

	content := extractContent(parse(t, raw))
	assert.Empty(t, content.Text)
	assert.Empty(t, content.Links)
}

func TestDecodeEncodedHeader(t *testing.T) {
	decoded, err := decodeEncodedHeader("=?UTF-8?B?QWNjb3VudCBzdXNwZW5kZWQ=?=")
	require.NoError(t, err)
	assert.Equal(t, "Account suspended", decoded)

	plain, err := decodeEncodedHeader("Plain subject")
	require.NoError(t, err)
	assert.Equal(t, "Plain subject", plain)
}
