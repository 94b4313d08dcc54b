package core

import (
	"net/url"
	"strings"
)

// EmailFingerprintBodyChars is the body prefix length that keys email
// assessments. Emails sharing a subject and this prefix share a verdict.
const EmailFingerprintBodyChars = 100

// SubjectKind tags the two kinds of assessed content
type SubjectKind string

const (
	KindURL   SubjectKind = "url"
	KindEmail SubjectKind = "email"
)

// Subject is a page or email handed in by a scraper
type Subject interface {
	Kind() SubjectKind
	Fingerprint() string
}

// PageSubject is a web page
type PageSubject struct {
	URL       string
	PageText  string
	LinkCount int
}

// EmailSubject is an email message
type EmailSubject struct {
	Subject string
	Body    string
	Links   []string
}

func (p *PageSubject) Kind() SubjectKind { return KindURL }

// Fingerprint keys the page by its normalized URL
func (p *PageSubject) Fingerprint() string {
	return "url:" + NormalizeURL(p.URL)
}

func (e *EmailSubject) Kind() SubjectKind { return KindEmail }

// Fingerprint keys the email by its subject and the start of its body
func (e *EmailSubject) Fingerprint() string {
	return "email:" + e.Subject + ":" + prefixRunes(e.Body, EmailFingerprintBodyChars)
}

// NormalizeURL lowercases scheme and host and drops the fragment. Input
// that does not parse as an absolute URL is only trimmed.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return trimmed
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func prefixRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
