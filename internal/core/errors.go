package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks a remote classification that could not be obtained
	ErrUnavailable = errors.New("remote classifier unavailable")
	// ErrCacheMiss is returned by a cache when no live entry exists for a key
	ErrCacheMiss = errors.New("cache miss")
)

// AssessmentError is a failure of the engine itself, as opposed to a
// degraded remote opinion
type AssessmentError struct {
	Op          string
	Fingerprint string
	Err         error
}

func (e *AssessmentError) Error() string {
	return fmt.Sprintf("assessment %s failed for %q: %v", e.Op, e.Fingerprint, e.Err)
}

func (e *AssessmentError) Unwrap() error {
	return e.Err
}

// ErrNoHealthProbe is returned when the configured remote client has no liveness probe
var ErrNoHealthProbe = errors.New("remote classifier exposes no health probe")
