package core

import (
	"fmt"
	"math"
	"time"
)

// Level is the user-facing risk category
type Level int

const (
	LevelSafe Level = iota
	LevelSuspicious
	LevelDangerous
)

var levelNames = map[Level]string{
	LevelSafe:       "Safe",
	LevelSuspicious: "Suspicious",
	LevelDangerous:  "Dangerous",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel converts the wire form of a level
func ParseLevel(s string) (Level, error) {
	for level, name := range levelNames {
		if name == s {
			return level, nil
		}
	}
	return LevelSafe, fmt.Errorf("unknown risk level %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (l Level) MarshalText() ([]byte, error) {
	if _, ok := levelNames[l]; !ok {
		return nil, fmt.Errorf("invalid risk level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *Level) UnmarshalText(text []byte) error {
	level, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// Source records which signals produced an assessment
type Source string

const (
	SourceHeuristicOnly Source = "heuristic-only"
	SourceCombined      Source = "combined"
	SourceMLOnly        Source = "ml-only"
	SourceNone          Source = "none"
)

// MLResult is the opinion of the remote classifier
type MLResult struct {
	RiskScore   int     `json:"risk_score"`
	RiskLevel   Level   `json:"risk_level"`
	Probability float64 `json:"probability"`
}

// NewMLResult validates a remote opinion. The score is rounded to the
// nearest integer and must lie within 0..100; probability within 0..1.
func NewMLResult(score float64, level string, probability float64) (*MLResult, error) {
	rounded := math.Floor(score + 0.5)
	if math.IsNaN(rounded) || rounded < 0 || rounded > 100 {
		return nil, fmt.Errorf("risk_score %v out of range", score)
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return nil, fmt.Errorf("probability %v out of range", probability)
	}
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return &MLResult{
		RiskScore:   int(rounded),
		RiskLevel:   parsed,
		Probability: probability,
	}, nil
}

// RiskAssessment is the final verdict for a subject. It is never mutated
// after construction; cached values are shared between callers.
type RiskAssessment struct {
	FinalScore     int       `json:"final_score"`
	Level          Level     `json:"level"`
	Source         Source    `json:"source"`
	HeuristicScore *int      `json:"heuristic_score,omitempty"`
	MLScore        *int      `json:"ml_score,omitempty"`
	MLProbability  *float64  `json:"ml_probability,omitempty"`
	Indicators     []string  `json:"indicators,omitempty"`
	AssessedAt     time.Time `json:"assessed_at"`
}

// CacheEntry is a stored assessment and the moment it was inserted
type CacheEntry struct {
	Key        string
	Assessment *RiskAssessment
	InsertedAt time.Time
}
