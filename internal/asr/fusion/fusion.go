// Package fusion merges per-engine ASR hypotheses for one chunk into a
// single fused hypothesis and decides whether a re-decode pass is warranted.
package fusion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kathascribe/kathascribe/internal/asr"
	"github.com/kathascribe/kathascribe/internal/textutil"
)

// Config holds the fusion thresholds and tie-break priority.
type Config struct {
	RedecodeFloor       float64
	ReviewFloor         float64
	AgreementFloor      float64
	MaxRedecodeAttempts int
	// EnginePriority breaks voting ties; earlier wins. Defaults to A > B > C.
	EnginePriority []string
}

// DefaultConfig returns the standard fusion thresholds.
func DefaultConfig() Config {
	return Config{
		RedecodeFloor:       0.6,
		ReviewFloor:         0.7,
		AgreementFloor:      0.6,
		MaxRedecodeAttempts: 2,
		EnginePriority:      []string{asr.RoleGeneral, asr.RoleIndic, asr.RoleEnglish},
	}
}

// Result is the outcome of combining hypotheses for one chunk. The input
// hypotheses are retained verbatim for audit.
type Result struct {
	FusedText        string
	FusedConfidence  float64
	FusedLanguage    string
	AgreementScore   float64
	Hypotheses       []asr.Hypothesis
	SelectedEngine   string
	NeedsRedecode    bool
	NeedsReview      bool
	RedecodeAttempts int
}

// Error reports that a chunk produced zero usable hypotheses.
type Error struct {
	ChunkIndex int
}

func (e *Error) Error() string {
	return fmt.Sprintf("fusion: no hypotheses for chunk %d", e.ChunkIndex)
}

// Fuse combines 1-3 hypotheses covering the same time range.
// preferredLanguage (from the chunk's route) settles the mixed-content case
// where two engines disagree on language with both confident.
func Fuse(hypotheses []asr.Hypothesis, chunkIndex int, preferredLanguage string, cfg Config) (Result, error) {
	usable := make([]asr.Hypothesis, 0, len(hypotheses))
	for _, h := range hypotheses {
		if h.EngineError == "" && strings.TrimSpace(h.Text) != "" {
			usable = append(usable, h)
		}
	}
	if len(hypotheses) == 0 {
		return Result{}, &Error{ChunkIndex: chunkIndex}
	}
	if len(usable) == 0 {
		// Every engine failed or returned silence; the segment survives as
		// empty text flagged for review.
		return Result{
			Hypotheses:     hypotheses,
			AgreementScore: 1.0,
			NeedsReview:    true,
		}, nil
	}

	ordered := orderByPriority(usable, cfg.EnginePriority)

	if len(ordered) == 1 {
		h := ordered[0]
		res := Result{
			FusedText:       textutil.Clean(h.Text),
			FusedConfidence: h.Confidence,
			FusedLanguage:   h.LanguageCode,
			AgreementScore:  1.0,
			Hypotheses:      hypotheses,
			SelectedEngine:  h.EngineID,
		}
		res.NeedsRedecode = res.FusedConfidence < cfg.RedecodeFloor
		res.NeedsReview = res.FusedConfidence < cfg.ReviewFloor
		return res, nil
	}

	agreement := meanPairwiseSimilarity(ordered)

	pivot := pickPivot(ordered, preferredLanguage, agreement, cfg)
	fusedText := voteTokens(ordered, pivot, cfg)

	var confSum float64
	for _, h := range ordered {
		confSum += h.Confidence
	}
	fusedConf := (confSum / float64(len(ordered))) * (0.5 + 0.5*agreement)

	res := Result{
		FusedText:       fusedText,
		FusedConfidence: fusedConf,
		FusedLanguage:   ordered[pivot].LanguageCode,
		AgreementScore:  agreement,
		Hypotheses:      hypotheses,
		SelectedEngine:  ordered[pivot].EngineID,
	}
	res.NeedsRedecode = fusedConf < cfg.RedecodeFloor
	res.NeedsReview = fusedConf < cfg.ReviewFloor || agreement < cfg.AgreementFloor
	return res, nil
}

// Merge folds a re-decode hypothesis into a prior result, keeping whichever
// fused outcome is stronger.
func Merge(prior Result, redecoded asr.Hypothesis, chunkIndex int, preferredLanguage string, cfg Config) Result {
	all := append(append([]asr.Hypothesis(nil), prior.Hypotheses...), redecoded)
	next, err := Fuse(all, chunkIndex, preferredLanguage, cfg)
	if err != nil {
		next = prior
	}
	next.RedecodeAttempts = prior.RedecodeAttempts + 1
	if next.FusedConfidence < prior.FusedConfidence {
		// Keep the better of old vs new, but record the attempt.
		attempts := next.RedecodeAttempts
		next = prior
		next.RedecodeAttempts = attempts
		next.Hypotheses = all
	}
	next.NeedsRedecode = next.FusedConfidence < cfg.RedecodeFloor &&
		next.RedecodeAttempts < cfg.MaxRedecodeAttempts
	return next
}

// AmbiguousLanguage reports whether the hypotheses disagree on language with
// both sides confident, signalling that a re-decode with an alternate hint
// could help.
func AmbiguousLanguage(hypotheses []asr.Hypothesis) bool {
	langs := make(map[string]float64)
	for _, h := range hypotheses {
		if h.EngineError != "" || h.LanguageCode == "" {
			continue
		}
		if h.Confidence > langs[h.LanguageCode] {
			langs[h.LanguageCode] = h.Confidence
		}
	}
	confident := 0
	for _, conf := range langs {
		if conf >= 0.5 {
			confident++
		}
	}
	return confident >= 2
}

func orderByPriority(hyps []asr.Hypothesis, priority []string) []asr.Hypothesis {
	rank := func(id string) int {
		for i, p := range priority {
			if p == id {
				return i
			}
		}
		return len(priority)
	}
	out := append([]asr.Hypothesis(nil), hyps...)
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i].EngineID) < rank(out[j].EngineID)
	})
	return out
}

// pickPivot chooses which hypothesis anchors the token vote. With strong
// disagreement and opposite languages, prefer the hypothesis matching the
// route; fall back to priority order (engine A first).
func pickPivot(ordered []asr.Hypothesis, preferredLanguage string, agreement float64, cfg Config) int {
	if agreement < cfg.AgreementFloor && preferredLanguage != "" && AmbiguousLanguage(ordered) {
		for i, h := range ordered {
			if h.LanguageCode == preferredLanguage && h.Confidence >= 0.5 {
				return i
			}
		}
	}
	return 0
}

// voteTokens produces the fused text by majority vote at each pivot token
// position. Ties break by engine priority (the ordered slice is already in
// priority order), then by per-engine confidence.
func voteTokens(ordered []asr.Hypothesis, pivot int, cfg Config) string {
	pivotTokens := strings.Fields(textutil.Clean(ordered[pivot].Text))
	if len(pivotTokens) == 0 {
		return ""
	}

	position := make([]map[string]*vote, len(pivotTokens))
	for i := range position {
		position[i] = make(map[string]*vote)
	}

	cast := func(pos int, token string, rank int, conf float64) {
		if pos < 0 || pos >= len(position) || token == "" {
			return
		}
		v, ok := position[pos][token]
		if !ok {
			v = &vote{token: token, bestRank: rank, confidence: conf}
			position[pos][token] = v
		}
		v.count++
		if rank < v.bestRank {
			v.bestRank = rank
		}
		if conf > v.confidence {
			v.confidence = conf
		}
	}

	for i, tok := range pivotTokens {
		cast(i, tok, pivot, ordered[pivot].Confidence)
	}
	for rank, h := range ordered {
		if rank == pivot {
			continue
		}
		otherTokens := strings.Fields(textutil.Clean(h.Text))
		for _, pair := range alignToPivot(pivotTokens, otherTokens) {
			if pair.ok {
				cast(pair.pivotPos, pair.token, rank, h.Confidence)
			}
		}
	}

	out := make([]string, 0, len(pivotTokens))
	for i := range position {
		var best *vote
		for _, v := range position[i] {
			if best == nil || betterVote(v, best) {
				best = v
			}
		}
		if best != nil {
			out = append(out, best.token)
		}
	}
	return strings.Join(out, " ")
}

type vote struct {
	token      string
	count      int
	bestRank   int
	confidence float64
}

func betterVote(a, b *vote) bool {
	if a.count != b.count {
		return a.count > b.count
	}
	if a.bestRank != b.bestRank {
		return a.bestRank < b.bestRank
	}
	return a.confidence > b.confidence
}

func meanPairwiseSimilarity(hyps []asr.Hypothesis) float64 {
	n := len(hyps)
	if n < 2 {
		return 1.0
	}
	var sum float64
	pairs := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += textutil.Similarity(hyps[i].Text, hyps[j].Text)
			pairs++
		}
	}
	return sum / float64(pairs)
}
