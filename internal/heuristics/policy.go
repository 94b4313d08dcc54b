// Package heuristics scores feature records with a fixed additive rule table.
package heuristics

import (
	"fmt"

	"github.com/mikey/phish-guard/internal/features"
)

// MaxScore bounds every heuristic score
const MaxScore = 100

// Result is a heuristic score together with the indicators that produced it
type Result struct {
	Score      int
	Indicators []string
}

type urlRule struct {
	name   string
	weight func(f features.URLFeatures) int
}

type emailRule struct {
	name   string
	weight func(f features.EmailFeatures) int
}

// Every weight is non-negative, which keeps scoring monotonic in the indicators.
var urlRules = []urlRule{
	{"at_symbol", func(f features.URLFeatures) int { return when(f.HasAtSymbol, 20) }},
	{"url_risk_keyword", func(f features.URLFeatures) int { return when(f.HasSuspiciousKeyword, 15) }},
	{"long_url", func(f features.URLFeatures) int { return when(f.Length > 75, 10) }},
	{"ip_literal", func(f features.URLFeatures) int { return when(f.HasIPLiteral, 25) }},
	{"many_subdomains", func(f features.URLFeatures) int { return when(f.SubdomainCount > 2, 10) }},
	{"suspicious_page_words", func(f features.URLFeatures) int { return 10 * len(f.SuspiciousWordsFound) }},
	{"many_links", func(f features.URLFeatures) int { return when(f.LinkCount > 50, 15) }},
}

var emailRules = []emailRule{
	{"capitals", func(f features.EmailFeatures) int { return when(f.CapitalRatio > 0.5, 15) }},
	{"exclamations", func(f features.EmailFeatures) int { return when(f.ExclamationCount > 3, 10) }},
	{"many_links", func(f features.EmailFeatures) int { return when(f.LinkCount > 10, 10) }},
	{"urgent_words", func(f features.EmailFeatures) int { return 10 * nonNegative(f.UrgentWordCount) }},
	{"suspicious_keywords", func(f features.EmailFeatures) int { return 10 * nonNegative(f.SuspiciousKeywordCount) }},
	{"attachment_keywords", func(f features.EmailFeatures) int { return 5 * nonNegative(f.AttachmentKeywordCount) }},
}

// ScoreURL applies the URL rule table
func ScoreURL(f features.URLFeatures) Result {
	var r Result
	total := 0
	for _, rule := range urlRules {
		if w := rule.weight(f); w > 0 {
			total += w
			r.Indicators = append(r.Indicators, fmt.Sprintf("%s(+%d)", rule.name, w))
		}
	}
	r.Score = clamp(total)
	return r
}

// ScoreEmail applies the email rule table
func ScoreEmail(f features.EmailFeatures) Result {
	var r Result
	total := 0
	for _, rule := range emailRules {
		if w := rule.weight(f); w > 0 {
			total += w
			r.Indicators = append(r.Indicators, fmt.Sprintf("%s(+%d)", rule.name, w))
		}
	}
	r.Score = clamp(total)
	return r
}

func when(cond bool, weight int) int {
	if cond {
		return weight
	}
	return 0
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
