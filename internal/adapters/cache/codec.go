package cache

import (
	"encoding/json"
	"fmt"

	"github.com/mikey/phish-guard/internal/core"
)

// SQL backends store assessments as JSON documents

func encodeAssessment(a *core.RiskAssessment) (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to encode assessment: %w", err)
	}
	return string(data), nil
}

func decodeAssessment(data string) (*core.RiskAssessment, error) {
	var a core.RiskAssessment
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, fmt.Errorf("failed to decode assessment: %w", err)
	}
	return &a, nil
}
