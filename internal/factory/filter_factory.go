package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phish-guard/internal/adapters/filter"
	"github.com/mikey/phish-guard/internal/config"
	"github.com/mikey/phish-guard/internal/ports"
	"github.com/mikey/phish-guard/internal/whitelist"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	assessor  ports.Assessor
	whitelist *whitelist.Checker
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, assessor ports.Assessor, whitelist *whitelist.Checker) *FilterFactory {
	return &FilterFactory{
		cfg:       cfg,
		logger:    logger,
		assessor:  assessor,
		whitelist: whitelist,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "postfix":
		analysisTimeout, err := f.cfg.GetDuration("server.analysis_timeout")
		if err != nil {
			return nil, err
		}
		return filter.NewPostfixFilter(
			f.assessor,
			f.whitelist,
			f.logger.Named("postfix"),
			filter.PostfixOptions{
				ListenAddr:     f.cfg.GetString("server.listen_address"),
				BlockDangerous: f.cfg.GetBool("server.block_dangerous"),
				Headers: filter.HeaderNames{
					Level:  f.cfg.GetString("server.headers.level"),
					Score:  f.cfg.GetString("server.headers.score"),
					Source: f.cfg.GetString("server.headers.source"),
					Reason: f.cfg.GetString("server.headers.reason"),
				},
				PostfixAddr:     f.cfg.GetString("server.postfix.address"),
				PostfixPort:     f.cfg.GetInt("server.postfix.port"),
				PostfixEnabled:  f.cfg.GetBool("server.postfix.enabled"),
				SubjectPrefix:   f.cfg.GetString("server.subject_prefix"),
				ModifySubject:   f.cfg.GetBool("server.modify_subject"),
				AnalysisTimeout: analysisTimeout,
			},
		), nil
	case "cli":
		return f.CreateCliFilter(), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}

// CreateCliFilter creates the interactive filter
func (f *FilterFactory) CreateCliFilter() *filter.CliFilter {
	return filter.NewCliFilter(f.assessor, f.logger, f.cfg.GetBool("cli.verbose"))
}
