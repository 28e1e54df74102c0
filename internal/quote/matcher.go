package quote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kathascribe/kathascribe/internal/lexicon"
	"github.com/kathascribe/kathascribe/internal/scripture"
	"github.com/kathascribe/kathascribe/internal/textutil"
)

// Match attaches a candidate to a specific canonical line.
type Match struct {
	Line            scripture.Line
	MatchConfidence float64
	FuzzyScore      float64
	SemanticScore   float64
	VerifierPassed  bool
	SpokenText      string
}

// MatchError reports an index failure during matching. The candidate is
// demoted to plain speech; the job continues.
type MatchError struct {
	Err error
}

func (e *MatchError) Error() string { return fmt.Sprintf("quote match: %v", e.Err) }

func (e *MatchError) Unwrap() error { return e.Err }

// EmbeddingScorer optionally replaces word-overlap semantic scoring with an
// embedding cosine when an embedding index is available.
type EmbeddingScorer interface {
	Score(ctx context.Context, spoken string, line scripture.Line) (float64, error)
}

// MatcherConfig holds the matching weights and verifier thresholds.
// FuzzyWeight + SemanticWeight must sum to 1.
type MatcherConfig struct {
	TopK           int
	FuzzyWeight    float64
	SemanticWeight float64
	VerifierFloor  float64
	LenRatioLo     float64
	LenRatioHi     float64
}

// DefaultMatcherConfig returns the standard matching parameters.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		TopK:           20,
		FuzzyWeight:    0.6,
		SemanticWeight: 0.4,
		VerifierFloor:  0.7,
		LenRatioLo:     0.6,
		LenRatioHi:     1.6,
	}
}

// Matcher runs the three-stage assisted match: fuzzy retrieval, semantic
// verification, verifier rules.
type Matcher struct {
	index     *scripture.Index
	lex       *lexicon.Lexicon
	cfg       MatcherConfig
	embedding EmbeddingScorer
}

// NewMatcher creates a matcher over the scripture index. embedding may be nil.
func NewMatcher(index *scripture.Index, lex *lexicon.Lexicon, cfg MatcherConfig, embedding EmbeddingScorer) *Matcher {
	if cfg.TopK <= 0 {
		cfg.TopK = 20
	}
	return &Matcher{index: index, lex: lex, cfg: cfg, embedding: embedding}
}

// Match finds the best canonical line for the candidates. variants carries
// every available text rendition (fused Gurmukhi plus per-engine hypotheses
// converted to Gurmukhi). Returns nil when nothing survives the verifier;
// zero index hits are a normal empty result.
func (m *Matcher) Match(ctx context.Context, candidates []Candidate, variants []string) (*Match, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if m.index == nil {
		return nil, &MatchError{Err: fmt.Errorf("scripture index unavailable")}
	}

	primary := candidates[0]
	for _, c := range candidates[1:] {
		if c.DetectionConfidence > primary.DetectionConfidence {
			primary = c
		}
	}

	searchTexts := dedupeTexts(append([]string{primary.Text}, variants...))

	// Stage A: fuzzy retrieval across all variants, max score per line.
	type retrieved struct {
		line  scripture.Line
		fuzzy float64
	}
	byID := make(map[string]*retrieved)
	for _, text := range searchTexts {
		form := scripture.ToSearchForm(textutil.Clean(text))
		for _, line := range m.index.SearchByText(text, m.cfg.TopK) {
			score := textutil.Similarity(form, scripture.ToSearchForm(textutil.Clean(line.Gurmukhi)))
			if r, ok := byID[line.ID]; ok {
				if score > r.fuzzy {
					r.fuzzy = score
				}
			} else {
				byID[line.ID] = &retrieved{line: line, fuzzy: score}
			}
		}
	}
	if len(byID) == 0 {
		slog.DebugContext(ctx, "quote: no fuzzy matches", slog.String("text", primary.Text))
		return nil, nil
	}

	// Stage B: semantic verification on stoplist-filtered content tokens.
	spokenContent := m.contentTokens(searchTexts...)
	var best *Match
	for _, r := range byID {
		semantic, err := m.semanticScore(ctx, primary.Text, spokenContent, r.line)
		if err != nil {
			return nil, &MatchError{Err: err}
		}
		combined := m.cfg.FuzzyWeight*r.fuzzy + m.cfg.SemanticWeight*semantic

		// Stage C: verifier rules.
		if !m.verify(primary.Text, r.line, spokenContent, combined) {
			continue
		}
		if best == nil || combined > best.MatchConfidence {
			best = &Match{
				Line:            r.line,
				MatchConfidence: combined,
				FuzzyScore:      r.fuzzy,
				SemanticScore:   semantic,
				VerifierPassed:  true,
				SpokenText:      primary.Text,
			}
		}
	}

	if best != nil {
		slog.DebugContext(ctx, "quote: match verified",
			slog.String("line_id", best.Line.ID),
			slog.Float64("confidence", best.MatchConfidence),
			slog.Float64("fuzzy", best.FuzzyScore),
			slog.Float64("semantic", best.SemanticScore),
		)
	}
	return best, nil
}

func (m *Matcher) semanticScore(ctx context.Context, spoken string, spokenContent []string, line scripture.Line) (float64, error) {
	if m.embedding != nil {
		return m.embedding.Score(ctx, spoken, line)
	}
	lineContent := m.contentTokens(line.Gurmukhi)
	return textutil.OverlapRatio(spokenContent, lineContent), nil
}

// verify applies the stage C rules: token-count ratio within bounds, at least
// one distinctive content token in common, combined score above the floor.
func (m *Matcher) verify(spoken string, line scripture.Line, spokenContent []string, combined float64) bool {
	if combined < m.cfg.VerifierFloor {
		return false
	}

	spokenCount := len(textutil.Tokenize(spoken))
	lineCount := len(textutil.Tokenize(line.Gurmukhi))
	if spokenCount == 0 || lineCount == 0 {
		return false
	}
	ratio := float64(spokenCount) / float64(lineCount)
	if ratio < m.cfg.LenRatioLo || ratio > m.cfg.LenRatioHi {
		return false
	}

	lineContent := m.contentTokens(line.Gurmukhi)
	lineSet := make(map[string]struct{}, len(lineContent))
	for _, t := range lineContent {
		lineSet[t] = struct{}{}
	}
	// Corpus lines are stored in ASCII search form; compare in that space.
	for _, t := range spokenContent {
		if _, ok := lineSet[t]; ok {
			return true
		}
	}
	return false
}

// contentTokens strips function words in the original script, then maps the
// survivors into the corpus search space for comparison.
func (m *Matcher) contentTokens(texts ...string) []string {
	var out []string
	for _, text := range texts {
		for _, tok := range m.lex.ContentTokens(textutil.Tokenize(textutil.Clean(text))) {
			out = append(out, scripture.ToSearchForm(tok))
		}
	}
	return out
}

func dedupeTexts(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		cleaned := textutil.Clean(t)
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}
