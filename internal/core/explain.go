package core

// Explain renders the one line explanation shown next to an assessment
func Explain(a *RiskAssessment) string {
	if a == nil {
		return ""
	}

	var label string
	switch a.Source {
	case SourceCombined:
		label = "AI + Heuristic"
	case SourceMLOnly:
		label = "AI Analysis"
	case SourceNone:
		label = "No analysis available"
	default:
		label = "Heuristic only"
	}

	switch a.Level {
	case LevelSafe:
		return "No major phishing indicators detected. (" + label + ")"
	case LevelSuspicious:
		return "Some phishing indicators detected. Proceed with caution. (" + label + ")"
	default:
		return "DANGEROUS: Multiple strong phishing indicators detected! (" + label + ")"
	}
}
