package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phish-guard/internal/core"
)

// Completer sends a single prompt to a language model and returns its text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Classifier adapts a Completer to the MLClient interface
type Classifier struct {
	completer Completer
	prompts   *PromptBuilder
	timeout   time.Duration
	provider  string
	logger    *zap.Logger
}

// NewClassifier creates a new Classifier. A non-positive timeout leaves
// the call bounded only by ctx.
func NewClassifier(provider string, completer Completer, prompts *PromptBuilder, timeout time.Duration, logger *zap.Logger) *Classifier {
	return &Classifier{
		completer: completer,
		prompts:   prompts,
		timeout:   timeout,
		provider:  provider,
		logger:    logger,
	}
}

// ClassifyURL asks the model about a web page
func (c *Classifier) ClassifyURL(ctx context.Context, page *core.PageSubject) (*core.MLResult, error) {
	return c.classify(ctx, c.prompts.URLPrompt(page))
}

// ClassifyEmail asks the model about an email
func (c *Classifier) ClassifyEmail(ctx context.Context, email *core.EmailSubject) (*core.MLResult, error) {
	return c.classify(ctx, c.prompts.EmailPrompt(email))
}

// Close releases the underlying client when it holds resources
func (c *Classifier) Close() error {
	if closer, ok := c.completer.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (c *Classifier) classify(ctx context.Context, prompt string) (*core.MLResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %s completion failed: %v", core.ErrUnavailable, c.provider, err)
	}

	result, err := ParseResponse(text)
	if err != nil {
		c.logger.Debug("Unusable LLM response", zap.String("provider", c.provider), zap.String("response", text))
		return nil, fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}

	c.logger.Debug("LLM classification received",
		zap.String("provider", c.provider),
		zap.Int("risk_score", result.RiskScore),
		zap.String("risk_level", result.RiskLevel.String()),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}
