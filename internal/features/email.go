package features

import (
	"strings"
	"unicode/utf8"
)

// EmailFeatures is the feature record of an email subject
type EmailFeatures struct {
	Length                 int     `json:"length"`
	LinkCount              int     `json:"link_count"`
	UrgentWordCount        int     `json:"urgent_word_count"`
	SuspiciousKeywordCount int     `json:"suspicious_keyword_count"`
	CapitalRatio           float64 `json:"capital_ratio"`
	ExclamationCount       int     `json:"exclamation_count"`
	AttachmentKeywordCount int     `json:"attachment_keyword_count"`
}

// ExtractEmail builds the feature record for an email. Subject and body are
// analysed as one text, joined by a single space when both are present.
func ExtractEmail(subject, body string, links []string) EmailFeatures {
	text := subject + body
	if subject != "" && body != "" {
		text = subject + " " + body
	}
	folded := fold(text)

	return EmailFeatures{
		Length:                 utf8.RuneCountInString(text),
		LinkCount:              len(links),
		UrgentWordCount:        countMatches(folded, UrgentWords),
		SuspiciousKeywordCount: countMatches(folded, EmailSuspiciousWords),
		CapitalRatio:           CapitalRatio(text),
		ExclamationCount:       strings.Count(text, "!"),
		AttachmentKeywordCount: countMatches(folded, AttachmentWords),
	}
}

// CapitalRatio is the share of ASCII letters in text that are upper case.
// It is 0 when text holds no ASCII letters.
func CapitalRatio(text string) float64 {
	letters, upper := 0, 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'A' && c <= 'Z':
			letters++
			upper++
		case c >= 'a' && c <= 'z':
			letters++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}
