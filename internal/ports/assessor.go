package ports

import (
	"context"

	"github.com/mikey/phish-guard/internal/core"
)

// Assessor is what transports need from the assessment engine
type Assessor interface {
	Assess(ctx context.Context, subject core.Subject) (*core.RiskAssessment, error)
}

var _ Assessor = (*core.AssessmentService)(nil)
