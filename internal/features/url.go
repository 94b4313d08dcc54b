package features

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ipv4Pattern     = regexp.MustCompile(`(\d{1,3}\.){3}\d{1,3}`)
	specialPattern  = regexp.MustCompile(`[-_?=&]`)
	schemePrefixRgx = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
)

// URLFeatures is the feature record of a web page subject
type URLFeatures struct {
	Length               int      `json:"length"`
	HasIPLiteral         bool     `json:"has_ip_literal"`
	HasAtSymbol          bool     `json:"has_at_symbol"`
	SubdomainCount       int      `json:"subdomain_count"`
	IsHTTPS              bool     `json:"is_https"`
	SpecialCharCount     int      `json:"special_char_count"`
	HasSuspiciousKeyword bool     `json:"has_suspicious_keyword"`
	SuspiciousWordsFound []string `json:"suspicious_words_found"`
	LinkCount            int      `json:"link_count"`
}

// ExtractURL builds the feature record for a URL, its page text and the
// number of links on the page. Malformed URLs never fail extraction.
func ExtractURL(rawURL, pageText string, linkCount int) URLFeatures {
	folded := fold(rawURL)

	if linkCount < 0 {
		linkCount = 0
	}

	return URLFeatures{
		Length:               utf8.RuneCountInString(rawURL),
		HasIPLiteral:         hasIPLiteral(rawURL),
		HasAtSymbol:          strings.Contains(rawURL, "@"),
		SubdomainCount:       subdomainCount(rawURL),
		IsHTTPS:              strings.HasPrefix(folded, "https"),
		SpecialCharCount:     len(specialPattern.FindAllStringIndex(rawURL, -1)),
		HasSuspiciousKeyword: countMatches(folded, URLRiskWords) > 0,
		SuspiciousWordsFound: matchedWords(fold(pageText), PageSuspiciousWords),
		LinkCount:            linkCount,
	}
}

// Hostname returns the lowercased host of rawURL, or "" when it cannot be parsed
func Hostname(rawURL string) string {
	candidate := strings.TrimSpace(rawURL)
	if candidate == "" {
		return ""
	}
	if !schemePrefixRgx.MatchString(candidate) {
		candidate = "http://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func hasIPLiteral(rawURL string) bool {
	if ipv4Pattern.MatchString(rawURL) {
		return true
	}
	host := Hostname(rawURL)
	return host != "" && net.ParseIP(host) != nil
}

func subdomainCount(rawURL string) int {
	host := Hostname(rawURL)
	if host == "" {
		return 0
	}
	labels := len(strings.Split(host, "."))
	if labels <= 2 {
		return 0
	}
	return labels - 2
}
