package core

import (
	"math"
	"time"
)

const (
	// SafeCeiling is the highest score still classified Safe
	SafeCeiling = 30
	// SuspiciousCeiling is the highest score still classified Suspicious
	SuspiciousCeiling = 60

	heuristicWeight = 0.4
	remoteWeight    = 0.6

	// disagreementThreshold is the score gap above which the remote level wins
	disagreementThreshold = 30
)

// Classify maps a score in [0,100] to a level. Boundaries belong to the lower band.
func Classify(score int) Level {
	switch {
	case score <= SafeCeiling:
		return LevelSafe
	case score <= SuspiciousCeiling:
		return LevelSuspicious
	default:
		return LevelDangerous
	}
}

// Combine fuses a heuristic score with an optional remote result
func Combine(heuristicScore int, ml *MLResult) *RiskAssessment {
	h := clampScore(heuristicScore)

	if ml == nil {
		return &RiskAssessment{
			FinalScore:     h,
			Level:          Classify(h),
			Source:         SourceHeuristicOnly,
			HeuristicScore: &h,
			AssessedAt:     time.Now(),
		}
	}

	remote := clampScore(ml.RiskScore)
	final := clampScore(int(math.Floor(heuristicWeight*float64(h) + remoteWeight*float64(remote) + 0.5)))

	level := Classify(final)
	if abs(h-remote) > disagreementThreshold {
		level = ml.RiskLevel
	}

	probability := ml.Probability
	return &RiskAssessment{
		FinalScore:     final,
		Level:          level,
		Source:         SourceCombined,
		HeuristicScore: &h,
		MLScore:        &remote,
		MLProbability:  &probability,
		AssessedAt:     time.Now(),
	}
}

// MLOnly builds an assessment from the remote result alone. Without a
// remote result the subject is reported Safe with source none.
func MLOnly(ml *MLResult) *RiskAssessment {
	if ml == nil {
		return &RiskAssessment{
			FinalScore: 0,
			Level:      LevelSafe,
			Source:     SourceNone,
			AssessedAt: time.Now(),
		}
	}

	remote := clampScore(ml.RiskScore)
	probability := ml.Probability
	return &RiskAssessment{
		FinalScore:    remote,
		Level:         ml.RiskLevel,
		Source:        SourceMLOnly,
		MLScore:       &remote,
		MLProbability: &probability,
		AssessedAt:    time.Now(),
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
