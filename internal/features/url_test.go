package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractURLIPLiteralAndAtSymbol(t *testing.T) {
	f := ExtractURL("http://1.2.3.4/login@evil.com", "", 0)

	assert.True(t, f.HasIPLiteral)
	assert.True(t, f.HasAtSymbol)
	assert.True(t, f.HasSuspiciousKeyword)
	assert.False(t, f.IsHTTPS)
	assert.Equal(t, 29, f.Length)
}

func TestExtractURLSubdomains(t *testing.T) {
	tests := []struct {
		url  string
		want int
	}{
		{"https://example.com", 0},
		{"https://www.example.com", 1},
		{"https://a.b.c.example.com/path", 3},
		{"example.co", 0},
		{"mail.google.com/inbox", 1},
		{"localhost", 0},
		{"http://%zz", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractURL(tt.url, "", 0).SubdomainCount)
		})
	}
}

func TestExtractURLIPv6Host(t *testing.T) {
	f := ExtractURL("http://[2001:db8::1]/index.html", "", 0)
	assert.True(t, f.HasIPLiteral)
	assert.Equal(t, 0, f.SubdomainCount)
}

func TestExtractURLKeywordsAreCaseInsensitive(t *testing.T) {
	f := ExtractURL("HTTPS://Secure-BANK.example.com/?a=1&b=2", "Please VERIFY now, Limited Time offer", 3)

	assert.True(t, f.IsHTTPS)
	assert.True(t, f.HasSuspiciousKeyword)
	assert.Equal(t, []string{"verify", "limited time"}, f.SuspiciousWordsFound)
	assert.Equal(t, 5, f.SpecialCharCount)
	assert.Equal(t, 3, f.LinkCount)
}

func TestExtractURLCleanPage(t *testing.T) {
	f := ExtractURL("https://golang.org/doc", "The Go programming language", 12)

	assert.False(t, f.HasIPLiteral)
	assert.False(t, f.HasAtSymbol)
	assert.False(t, f.HasSuspiciousKeyword)
	assert.Empty(t, f.SuspiciousWordsFound)
	assert.Equal(t, 12, f.LinkCount)
}

func TestExtractURLNegativeLinkCount(t *testing.T) {
	assert.Equal(t, 0, ExtractURL("https://example.com", "", -4).LinkCount)
}

func TestHostname(t *testing.T) {
	assert.Equal(t, "example.com", Hostname("HTTPS://Example.COM:8443/x"))
	assert.Equal(t, "example.com", Hostname("example.com/path"))
	assert.Equal(t, "", Hostname("   "))
}
