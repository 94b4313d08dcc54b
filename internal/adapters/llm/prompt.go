package llm

import (
	"fmt"
	"strings"

	"github.com/mikey/phish-guard/internal/core"
	"github.com/mikey/phish-guard/internal/utils"
)

const (
	// MaxPageTextChars bounds the page text placed in a prompt
	MaxPageTextChars = 1000
	// MaxEmailBodyChars bounds the email body placed in a prompt
	MaxEmailBodyChars = 2000
	// maxPromptLinks keeps link lists in prompts short
	maxPromptLinks = 20
)

// SystemPrompt is sent as the system message where the provider supports one
const SystemPrompt = "You are a phishing detection system. Respond only with JSON."

const responseContract = `Respond with a JSON object containing:
- risk_score: number between 0 and 100 (higher means more likely to be phishing)
- risk_level: one of "Safe" (0-30), "Suspicious" (31-60) or "Dangerous" (61-100)
- probability: number between 0 and 1 (probability that this is phishing)

Respond only with the JSON object and nothing else.`

const urlPromptFormat = `You are a phishing detection system. Analyze the following web page and determine if it is a phishing page.
%s

Page:
URL: %s
Number of links: %d
Text:
%s`

const emailPromptFormat = `You are a phishing detection system. Analyze the following email and determine if it is a phishing attempt.
%s

Email:
Subject: %s
Links:
%s
Body:
%s`

// PromptBuilder renders subjects into classification prompts
type PromptBuilder struct {
	textProcessor *utils.TextProcessor
}

// NewPromptBuilder creates a new PromptBuilder
func NewPromptBuilder(textProcessor *utils.TextProcessor) *PromptBuilder {
	return &PromptBuilder{textProcessor: textProcessor}
}

// URLPrompt renders a page prompt
func (b *PromptBuilder) URLPrompt(page *core.PageSubject) string {
	text := b.textProcessor.ProcessText(page.PageText, MaxPageTextChars)
	return fmt.Sprintf(urlPromptFormat, responseContract, page.URL, page.LinkCount, text)
}

// EmailPrompt renders an email prompt
func (b *PromptBuilder) EmailPrompt(email *core.EmailSubject) string {
	body := b.textProcessor.ProcessText(email.Body, MaxEmailBodyChars)
	return fmt.Sprintf(emailPromptFormat, responseContract, email.Subject, formatLinks(email.Links), body)
}

func formatLinks(links []string) string {
	if len(links) == 0 {
		return "(none)"
	}
	shown := links
	if len(shown) > maxPromptLinks {
		shown = shown[:maxPromptLinks]
	}
	var sb strings.Builder
	for _, link := range shown {
		sb.WriteString("- ")
		sb.WriteString(link)
		sb.WriteString("\n")
	}
	if len(links) > len(shown) {
		fmt.Fprintf(&sb, "(and %d more)\n", len(links)-len(shown))
	}
	return strings.TrimRight(sb.String(), "\n")
}
