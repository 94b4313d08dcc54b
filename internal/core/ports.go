package core

import (
	"context"
)

// MLClient classifies subjects with a remote model. Any failure is
// reported as an error wrapping ErrUnavailable.
type MLClient interface {
	// ClassifyURL asks the remote model about a web page
	ClassifyURL(ctx context.Context, page *PageSubject) (*MLResult, error)

	// ClassifyEmail asks the remote model about an email
	ClassifyEmail(ctx context.Context, email *EmailSubject) (*MLResult, error)
}

// HealthChecker is implemented by remote clients that expose a liveness probe
type HealthChecker interface {
	Health(ctx context.Context) error
}

// CacheRepository memoizes assessments by fingerprint
type CacheRepository interface {
	// Get returns the live assessment for key or ErrCacheMiss. An expired
	// entry is deleted by the lookup that finds it.
	Get(ctx context.Context, key string) (*RiskAssessment, error)

	// Set stores an assessment, replacing any previous one for key
	Set(ctx context.Context, key string, assessment *RiskAssessment) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Clear removes every entry
	Clear(ctx context.Context) error
}
