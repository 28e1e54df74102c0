package quote

// Decision is the outcome of the canonical replacement table.
type Decision int

const (
	// DecisionDiscard drops the match; the segment remains plain speech.
	DecisionDiscard Decision = iota
	// DecisionSuggest attaches the match for review without replacing text.
	DecisionSuggest
	// DecisionReplace swaps the segment text for the canonical line.
	DecisionReplace
)

// ReplacerConfig holds the replacement thresholds.
type ReplacerConfig struct {
	AutoReplaceFloor float64
	ReviewFloor      float64
}

// DefaultReplacerConfig returns the standard replacement thresholds:
// replace at 0.90 and above, suggest between 0.70 and 0.90, discard below.
func DefaultReplacerConfig() ReplacerConfig {
	return ReplacerConfig{
		AutoReplaceFloor: 0.90,
		ReviewFloor:      0.70,
	}
}

// Decide evaluates the decision table in order.
func Decide(match *Match, cfg ReplacerConfig) Decision {
	if match == nil {
		return DecisionDiscard
	}
	switch {
	case match.MatchConfidence >= cfg.AutoReplaceFloor:
		return DecisionReplace
	case match.MatchConfidence >= cfg.ReviewFloor:
		return DecisionSuggest
	default:
		return DecisionDiscard
	}
}
