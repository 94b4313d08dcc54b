package ports

import (
	"context"

	"github.com/mikey/phish-guard/internal/core"
)

// EmailFilter defines the interface for mail transports that assess messages
type EmailFilter interface {
	// ProcessEmail assesses an email and returns the verdict
	ProcessEmail(ctx context.Context, email *core.EmailSubject) (*core.RiskAssessment, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
