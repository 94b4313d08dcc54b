package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikey/phish-guard/internal/core"
)

// AnalysisResponse is the JSON object the model is asked to produce
type AnalysisResponse struct {
	RiskScore   *float64 `json:"risk_score"`
	RiskLevel   string   `json:"risk_level"`
	Probability *float64 `json:"probability"`
}

// ParseResponse extracts and validates the model's JSON answer. Models
// often wrap the object in prose or code fences, so the outermost braces
// are tried when the whole text is not valid JSON.
func ParseResponse(text string) (*core.MLResult, error) {
	var resp AnalysisResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("failed to extract JSON from LLM response: %w", err)
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
		}
	}

	if resp.RiskScore == nil {
		return nil, fmt.Errorf("LLM response has no risk_score")
	}

	level := resp.RiskLevel
	if level == "" {
		level = core.Classify(int(*resp.RiskScore + 0.5)).String()
	}

	probability := *resp.RiskScore / 100
	if resp.Probability != nil {
		probability = *resp.Probability
	}

	return core.NewMLResult(*resp.RiskScore, level, probability)
}
