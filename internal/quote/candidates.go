// Package quote detects scripture quote candidates in transcribed segments,
// matches them against the canonical index, and decides replacement.
package quote

import (
	"fmt"

	"github.com/kathascribe/kathascribe/internal/lexicon"
	"github.com/kathascribe/kathascribe/internal/router"
	"github.com/kathascribe/kathascribe/internal/textutil"
)

// Candidate is a text span flagged as possibly containing scripture.
type Candidate struct {
	Text                string
	DetectionConfidence float64
	Reasons             []string
}

// Signal confidences. A candidate's confidence is the maximum of the firing
// signals.
const (
	confRouteHint   = 0.6
	confCuePhrase   = 0.7
	confVocabulary  = 0.5
	confArchaicLine = 0.4
)

// DetectorConfig tunes candidate detection. High recall is the goal; false
// positives are filtered by the matcher.
type DetectorConfig struct {
	VocabRatioFloor float64
	// Quote length window in words for the archaic-structure signal.
	QuoteLenMin int
	QuoteLenMax int
}

// DefaultDetectorConfig returns the standard detection thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		VocabRatioFloor: 0.3,
		QuoteLenMin:     3,
		QuoteLenMax:     30,
	}
}

// Detector finds quote candidates in converted segment text.
type Detector struct {
	cfg DetectorConfig
	lex *lexicon.Lexicon
}

// NewDetector creates a candidate detector over the given lexicon.
func NewDetector(cfg DetectorConfig, lex *lexicon.Lexicon) *Detector {
	return &Detector{cfg: cfg, lex: lex}
}

// Detect inspects one converted segment draft. texts carries every available
// variant (the fused Gurmukhi first, then per-hypothesis renditions); each
// distinct text yields at most one candidate, scored by the strongest firing
// signal.
func (d *Detector) Detect(route router.Kind, texts []string) []Candidate {
	seen := make(map[string]struct{})
	var out []Candidate
	for _, text := range texts {
		cleaned := textutil.Clean(text)
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		if cand, ok := d.detectOne(route, cleaned); ok {
			out = append(out, cand)
		}
	}
	return out
}

func (d *Detector) detectOne(route router.Kind, text string) (Candidate, bool) {
	var conf float64
	var reasons []string
	fire := func(c float64, reason string) {
		reasons = append(reasons, reason)
		if c > conf {
			conf = c
		}
	}

	if route == router.RouteScriptureLikely {
		fire(confRouteHint, "route_hint")
	}
	if cue := d.lex.MatchCue(text); cue != "" {
		fire(confCuePhrase, "cue_phrase: "+cue)
	}
	if ratio := d.lex.VocabularyRatio(text); ratio >= d.cfg.VocabRatioFloor {
		fire(confVocabulary, fmt.Sprintf("vocabulary_density: %.2f", ratio))
	}
	words := len(textutil.Tokenize(text))
	if words >= d.cfg.QuoteLenMin && words <= d.cfg.QuoteLenMax && d.lex.EndsWithFinalMarker(text) {
		fire(confArchaicLine, "archaic_structure")
	}

	if conf == 0 {
		return Candidate{}, false
	}
	return Candidate{
		Text:                text,
		DetectionConfidence: conf,
		Reasons:             reasons,
	}, true
}
