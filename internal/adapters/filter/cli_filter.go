package filter

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mikey/phish-guard/internal/core"
	"github.com/mikey/phish-guard/internal/ports"
)

// CliFilter implements a command-line interface for phishing detection
type CliFilter struct {
	assessor ports.Assessor
	logger   *zap.Logger
	verbose  bool
	out      io.Writer
}

// NewCliFilter creates a new CLI filter that prints to stdout
func NewCliFilter(assessor ports.Assessor, logger *zap.Logger, verbose bool) *CliFilter {
	return &CliFilter{
		assessor: assessor,
		logger:   logger,
		verbose:  verbose,
		out:      os.Stdout,
	}
}

// SetOutput redirects the report
func (f *CliFilter) SetOutput(w io.Writer) {
	f.out = w
}

// ParseEmail turns a raw RFC 5322 message into an email subject
func ParseEmail(r io.Reader) (*core.EmailSubject, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}
	return emailFromMessage(msg), nil
}

// ProcessEmail assesses an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.EmailSubject) (*core.RiskAssessment, error) {
	f.logger.Debug("Processing email", zap.String("subject", email.Subject))

	fmt.Fprintf(f.out, "\n=== Email Summary ===\n")
	fmt.Fprintf(f.out, "Subject: %s\n", email.Subject)
	fmt.Fprintf(f.out, "Body length: %d characters\n", utf8.RuneCountInString(email.Body))
	fmt.Fprintf(f.out, "Links: %d\n", len(email.Links))

	if f.verbose {
		fmt.Fprintf(f.out, "\nBody preview:\n%s\n", preview(email.Body, 500))
		for _, link := range email.Links {
			fmt.Fprintf(f.out, "  %s\n", link)
		}
	}

	return f.assess(ctx, email)
}

// ProcessURL assesses a web page and displays the results
func (f *CliFilter) ProcessURL(ctx context.Context, page *core.PageSubject) (*core.RiskAssessment, error) {
	f.logger.Debug("Processing URL", zap.String("url", page.URL))

	fmt.Fprintf(f.out, "\n=== Page Summary ===\n")
	fmt.Fprintf(f.out, "URL: %s\n", page.URL)
	fmt.Fprintf(f.out, "Text length: %d characters\n", utf8.RuneCountInString(page.PageText))
	fmt.Fprintf(f.out, "Links: %d\n", page.LinkCount)

	if f.verbose && page.PageText != "" {
		fmt.Fprintf(f.out, "\nText preview:\n%s\n", preview(page.PageText, 500))
	}

	return f.assess(ctx, page)
}

func (f *CliFilter) assess(ctx context.Context, subject core.Subject) (*core.RiskAssessment, error) {
	fmt.Fprintf(f.out, "\n=== Analysis ===\n")
	startTime := time.Now()
	result, err := f.assessor.Assess(ctx, subject)
	if err != nil {
		f.logger.Error("Failed to assess subject", zap.Error(err))
		fmt.Fprintf(f.out, "Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Risk level: %s\n", result.Level)
	fmt.Fprintf(f.out, "Risk score: %d\n", result.FinalScore)
	fmt.Fprintf(f.out, "Source: %s\n", result.Source)
	if result.HeuristicScore != nil {
		fmt.Fprintf(f.out, "Heuristic score: %d\n", *result.HeuristicScore)
	}
	if result.MLScore != nil {
		fmt.Fprintf(f.out, "ML score: %d\n", *result.MLScore)
	}
	if len(result.Indicators) > 0 {
		fmt.Fprintf(f.out, "Indicators: %s\n", strings.Join(result.Indicators, ", "))
	}
	fmt.Fprintf(f.out, "Explanation: %s\n", core.Explain(result))
	fmt.Fprintf(f.out, "Processing time: %v\n", duration)

	return result, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}

func preview(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max]) + "..."
}
