package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phish-guard/internal/config"
	"github.com/mikey/phish-guard/internal/core"
	"github.com/mikey/phish-guard/internal/factory"
	"github.com/mikey/phish-guard/internal/logging"
	"github.com/mikey/phish-guard/internal/ports"
	"github.com/mikey/phish-guard/internal/utils"
	"github.com/mikey/phish-guard/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideEngine(container); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register whitelist
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		return whitelist.NewChecker(cfg.GetStringSlice("server.whitelisted_domains"), logger.Named("whitelist"))
	}); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideEngine registers the remote classifier, the service options and
// the assessment service. The caller registers the cache repository.
func provideEngine(container *dig.Container) error {
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}
	if err := container.Provide(factory.NewMLFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}

	// Register remote classifier
	if err := container.Provide(func(f *factory.MLFactory) (core.MLClient, error) {
		return f.CreateMLClient(context.Background())
	}); err != nil {
		return err
	}

	// Register service options
	if err := container.Provide(func(cfg *config.Config, f *factory.CacheFactory) (core.ServiceOptions, error) {
		assessmentCfg, err := cfg.GetAssessment()
		if err != nil {
			return core.ServiceOptions{}, err
		}
		return core.ServiceOptions{
			CacheEnabled:   f.IsCacheEnabled(),
			EmailMode:      core.EmailMode(assessmentCfg.EmailMode),
			DedupeInFlight: assessmentCfg.DedupeInFlight,
		}, nil
	}); err != nil {
		return err
	}

	// Register assessment service
	if err := container.Provide(core.NewAssessmentService); err != nil {
		return err
	}
	return container.Provide(func(s *core.AssessmentService) ports.Assessor {
		return s
	})
}
