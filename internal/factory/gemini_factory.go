package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phish-guard/internal/adapters/gemini"
	"github.com/mikey/phish-guard/internal/config"
)

// GeminiFactory creates Gemini completers
type GeminiFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewGeminiFactory creates a new Gemini factory
func NewGeminiFactory(cfg *config.Config, logger *zap.Logger) *GeminiFactory {
	return &GeminiFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCompleter creates a Gemini completer
func (f *GeminiFactory) CreateCompleter(ctx context.Context) (*gemini.GeminiClient, error) {
	geminiCfg := f.cfg.GetGemini()

	if geminiCfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	return gemini.NewGeminiClient(
		ctx,
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		f.logger.Named("gemini"),
	)
}
