package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mikey/phish-guard/internal/features"
	"github.com/mikey/phish-guard/internal/heuristics"
)

// EmailMode selects how email subjects are scored
type EmailMode string

const (
	// EmailModeFused blends email heuristics with the remote result
	EmailModeFused EmailMode = "fused"
	// EmailModeMLOnly reports the remote result alone
	EmailModeMLOnly EmailMode = "ml_only"
)

// ServiceOptions tunes the assessment service
type ServiceOptions struct {
	CacheEnabled bool
	EmailMode    EmailMode
	// DedupeInFlight collapses concurrent misses on one fingerprint into a
	// single remote call. Off by default: each miss calls the remote model.
	DedupeInFlight bool
}

// Outcome is the asynchronous reply of AssessAsync
type Outcome struct {
	Assessment *RiskAssessment
	Err        error
}

// AssessmentService is the core service for phishing risk assessment
type AssessmentService struct {
	mlClient MLClient
	cache    CacheRepository
	logger   *zap.Logger
	opts     ServiceOptions
	inflight singleflight.Group
}

// NewAssessmentService creates a new assessment service. mlClient and cache may be nil.
func NewAssessmentService(
	mlClient MLClient,
	cache CacheRepository,
	logger *zap.Logger,
	opts ServiceOptions,
) *AssessmentService {
	if opts.EmailMode == "" {
		opts.EmailMode = EmailModeFused
	}
	return &AssessmentService{
		mlClient: mlClient,
		cache:    cache,
		logger:   logger,
		opts:     opts,
	}
}

// Assess produces the risk assessment of a subject. It returns ctx.Err()
// once the caller stops waiting; the pending evaluation still completes
// and its result is cached.
func (s *AssessmentService) Assess(ctx context.Context, subject Subject) (*RiskAssessment, error) {
	select {
	case out := <-s.AssessAsync(ctx, subject):
		return out.Assessment, out.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AssessAsync starts an assessment and delivers exactly one Outcome on the
// returned channel. The channel is buffered so nobody has to receive it.
func (s *AssessmentService) AssessAsync(ctx context.Context, subject Subject) <-chan Outcome {
	out := make(chan Outcome, 1)
	detached := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Assessment panicked", zap.Any("panic", r))
				out <- Outcome{Err: &AssessmentError{Op: "evaluate", Err: fmt.Errorf("panic: %v", r)}}
			}
		}()

		assessment, err := s.assess(detached, subject)
		out <- Outcome{Assessment: assessment, Err: err}
	}()

	return out
}

func (s *AssessmentService) assess(ctx context.Context, subject Subject) (*RiskAssessment, error) {
	if subject == nil {
		return nil, &AssessmentError{Op: "validate", Err: errors.New("nil subject")}
	}
	key := subject.Fingerprint()

	if s.cacheEnabled() {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			s.logger.Debug("Cache hit for subject", zap.String("fingerprint", truncateKey(key)))
			return cached, nil
		case errors.Is(err, ErrCacheMiss):
		default:
			return nil, &AssessmentError{Op: "cache lookup", Fingerprint: key, Err: err}
		}
	}

	if !s.opts.DedupeInFlight {
		return s.evaluate(ctx, key, subject)
	}

	v, err, shared := s.inflight.Do(key, func() (interface{}, error) {
		return s.evaluate(ctx, key, subject)
	})
	if shared {
		s.logger.Debug("Shared in-flight assessment", zap.String("fingerprint", truncateKey(key)))
	}
	if err != nil {
		return nil, err
	}
	return v.(*RiskAssessment), nil
}

// evaluate scores a subject that missed the cache and stores the result
func (s *AssessmentService) evaluate(ctx context.Context, key string, subject Subject) (*RiskAssessment, error) {
	var assessment *RiskAssessment

	switch subj := subject.(type) {
	case *PageSubject:
		f := features.ExtractURL(subj.URL, subj.PageText, subj.LinkCount)
		h := heuristics.ScoreURL(f)
		ml := s.classifyRemote(key, func() (*MLResult, error) {
			return s.mlClient.ClassifyURL(ctx, subj)
		})
		assessment = Combine(h.Score, ml)
		assessment.Indicators = h.Indicators

	case *EmailSubject:
		if s.opts.EmailMode == EmailModeMLOnly {
			ml := s.classifyRemote(key, func() (*MLResult, error) {
				return s.mlClient.ClassifyEmail(ctx, subj)
			})
			assessment = MLOnly(ml)
			break
		}
		f := features.ExtractEmail(subj.Subject, subj.Body, subj.Links)
		h := heuristics.ScoreEmail(f)
		ml := s.classifyRemote(key, func() (*MLResult, error) {
			return s.mlClient.ClassifyEmail(ctx, subj)
		})
		assessment = Combine(h.Score, ml)
		assessment.Indicators = h.Indicators

	default:
		return nil, &AssessmentError{
			Op:          "extract",
			Fingerprint: key,
			Err:         fmt.Errorf("unsupported subject kind %q", subject.Kind()),
		}
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, key, assessment); err != nil {
			return nil, &AssessmentError{Op: "cache store", Fingerprint: key, Err: err}
		}
	}

	s.logger.Info("Assessment complete",
		zap.String("kind", string(subject.Kind())),
		zap.String("fingerprint", truncateKey(key)),
		zap.Int("final_score", assessment.FinalScore),
		zap.String("level", assessment.Level.String()),
		zap.String("source", string(assessment.Source)))

	return assessment, nil
}

// classifyRemote runs one remote call and degrades every failure to nil
func (s *AssessmentService) classifyRemote(key string, call func() (*MLResult, error)) *MLResult {
	if s.mlClient == nil {
		return nil
	}
	result, err := call()
	if err != nil {
		s.logger.Warn("Remote classification unavailable, using heuristics",
			zap.String("fingerprint", truncateKey(key)),
			zap.Error(err))
		return nil
	}
	return result
}

// ClearCache drops every cached assessment
func (s *AssessmentService) ClearCache(ctx context.Context) error {
	if !s.cacheEnabled() {
		return nil
	}
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	s.logger.Info("Cache cleared")
	return nil
}

// CheckRemote probes the remote classifier, independently of any assessment
func (s *AssessmentService) CheckRemote(ctx context.Context) error {
	checker, ok := s.mlClient.(HealthChecker)
	if !ok {
		return ErrNoHealthProbe
	}
	return checker.Health(ctx)
}

func (s *AssessmentService) cacheEnabled() bool {
	return s.opts.CacheEnabled && s.cache != nil
}

// truncateKey keeps log lines short
func truncateKey(key string) string {
	return prefixRunes(key, 50)
}
