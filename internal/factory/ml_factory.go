package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phish-guard/internal/adapters/llm"
	"github.com/mikey/phish-guard/internal/adapters/mlapi"
	"github.com/mikey/phish-guard/internal/config"
	"github.com/mikey/phish-guard/internal/core"
	"github.com/mikey/phish-guard/internal/utils"
)

// MLFactory creates remote classifiers
type MLFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewMLFactory creates a new ML factory
func NewMLFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *MLFactory {
	return &MLFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateMLClient creates a new remote classifier based on the configuration
func (f *MLFactory) CreateMLClient(ctx context.Context) (core.MLClient, error) {
	mlCfg, err := f.cfg.GetML()
	if err != nil {
		return nil, err
	}

	var completer llm.Completer
	switch mlCfg.Provider {
	case "api":
		if mlCfg.Endpoint == "" {
			return nil, fmt.Errorf("ml.endpoint is required for the api provider")
		}
		return mlapi.NewClient(mlCfg.Endpoint, mlCfg.Timeout, f.logger.Named("mlapi"), f.textProcessor), nil
	case "openai":
		completer, err = NewOpenAIFactory(f.cfg, f.logger).CreateCompleter()
	case "gemini":
		completer, err = NewGeminiFactory(f.cfg, f.logger).CreateCompleter(ctx)
	case "bedrock":
		completer, err = NewBedrockFactory(f.cfg, f.logger).CreateCompleter(ctx)
	default:
		return nil, fmt.Errorf("unsupported ml provider: %s", mlCfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return llm.NewClassifier(
		mlCfg.Provider,
		completer,
		llm.NewPromptBuilder(f.textProcessor),
		mlCfg.Timeout,
		f.logger.Named("llm"),
	), nil
}
