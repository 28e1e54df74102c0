// Package router labels each audio chunk with a processing route that guides
// the ASR fan-out.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kathascribe/kathascribe/internal/audio"
)

// Kind enumerates the processing routes.
type Kind string

const (
	RoutePunjabi         Kind = "punjabi"
	RouteEnglish         Kind = "english"
	RouteScriptureLikely Kind = "scripture_quote_likely"
	RouteMixed           Kind = "mixed"
	RouteUnknown         Kind = "unknown"
)

// Route is the label attached to a chunk for downstream stages. The reason
// string identifies the rule that fired and is retained for audit.
type Route struct {
	Kind   Kind
	Reason string
}

// LanguageCode returns the ASR language hint for a route, empty when the
// engines should auto-detect.
func (r Route) LanguageCode() string {
	switch r.Kind {
	case RoutePunjabi, RouteScriptureLikely:
		return "pa"
	case RouteEnglish:
		return "en"
	default:
		return ""
	}
}

// Classification is the output of a fast on-audio language pass.
type Classification struct {
	// Scores maps language codes to confidence in [0,1].
	Scores map[string]float64
	// Text is the quick-pass transcription, used for scripture cues.
	Text string
}

// Classifier runs a cheap language identification pass over a chunk. It is
// optional; without one the router falls back to priors and audio features.
type Classifier interface {
	Classify(ctx context.Context, chunk audio.Chunk) (Classification, error)
}

// Lexicon supplies the scripture cue knowledge the router needs. Implemented
// by the domain lexicon package.
type Lexicon interface {
	// MatchCue returns the name of the first cue phrase pattern matching the
	// text, or empty.
	MatchCue(text string) string
	// VocabularyRatio returns the fraction of tokens found in the scripture
	// vocabulary.
	VocabularyRatio(text string) float64
}

// Config holds the routing thresholds.
type Config struct {
	LangIDFloor       float64
	LangIDTieDelta    float64
	ScriptureShortSec float64
	// VocabRouteFloor is the vocabulary density above which a chunk routes as
	// scripture-likely even without a cue phrase.
	VocabRouteFloor float64
}

// DefaultConfig returns the standard routing thresholds.
func DefaultConfig() Config {
	return Config{
		LangIDFloor:       0.6,
		LangIDTieDelta:    0.15,
		ScriptureShortSec: 15.0,
		VocabRouteFloor:   0.3,
	}
}

// Router assigns routes to chunks, carrying the previous chunk's language as
// a prior within a job.
type Router struct {
	cfg        Config
	classifier Classifier
	lexicon    Lexicon

	prior Kind
}

// New creates a router. classifier may be nil.
func New(cfg Config, classifier Classifier, lexicon Lexicon) *Router {
	return &Router{
		cfg:        cfg,
		classifier: classifier,
		lexicon:    lexicon,
		prior:      RouteUnknown,
	}
}

// Route labels one chunk. Rules are evaluated in order: scripture cue on a
// short chunk, confident single language, near-tie between two languages,
// prior from earlier chunks, unknown.
func (r *Router) Route(ctx context.Context, chunk audio.Chunk) Route {
	route := r.route(ctx, chunk)
	if route.Kind == RoutePunjabi || route.Kind == RouteEnglish {
		r.prior = route.Kind
	}
	slog.DebugContext(ctx, "router: chunk routed",
		slog.String("job_id", chunk.JobID),
		slog.Int("chunk_index", chunk.Index),
		slog.String("route", string(route.Kind)),
		slog.String("reason", route.Reason),
	)
	return route
}

func (r *Router) route(ctx context.Context, chunk audio.Chunk) Route {
	var cls Classification
	if r.classifier != nil {
		var err error
		cls, err = r.classifier.Classify(ctx, chunk)
		if err != nil {
			slog.WarnContext(ctx, "router: classifier failed, using prior",
				slog.Int("chunk_index", chunk.Index),
				slog.String("error", err.Error()),
			)
			cls = Classification{}
		}
	}

	// Scripture cue on a short chunk wins outright.
	if r.lexicon != nil && cls.Text != "" && chunk.Duration() < r.cfg.ScriptureShortSec {
		if cue := r.lexicon.MatchCue(cls.Text); cue != "" {
			return Route{Kind: RouteScriptureLikely, Reason: "cue_phrase: " + cue}
		}
		if ratio := r.lexicon.VocabularyRatio(cls.Text); ratio >= r.cfg.VocabRouteFloor {
			return Route{
				Kind:   RouteScriptureLikely,
				Reason: fmt.Sprintf("archaic_vocabulary: ratio %.2f", ratio),
			}
		}
	}

	best, second := topTwo(cls.Scores)
	if best.lang != "" && best.score >= r.cfg.LangIDFloor {
		if second.lang != "" && best.score-second.score <= r.cfg.LangIDTieDelta && second.score >= r.cfg.LangIDFloor {
			return Route{
				Kind:   RouteMixed,
				Reason: fmt.Sprintf("langid_tie: %s %.2f vs %s %.2f", best.lang, best.score, second.lang, second.score),
			}
		}
		switch best.lang {
		case "pa", "hi", "ur":
			return Route{Kind: RoutePunjabi, Reason: fmt.Sprintf("langid: %s %.2f", best.lang, best.score)}
		case "en":
			return Route{Kind: RouteEnglish, Reason: fmt.Sprintf("langid: en %.2f", best.score)}
		}
	}
	if second.lang != "" && best.score-second.score <= r.cfg.LangIDTieDelta {
		return Route{
			Kind:   RouteMixed,
			Reason: fmt.Sprintf("langid_tie_below_floor: %s %.2f vs %s %.2f", best.lang, best.score, second.lang, second.score),
		}
	}

	if r.prior != RouteUnknown {
		return Route{Kind: r.prior, Reason: "prior_language"}
	}
	return Route{Kind: RouteUnknown, Reason: "no_signal"}
}

type langScore struct {
	lang  string
	score float64
}

func topTwo(scores map[string]float64) (langScore, langScore) {
	var best, second langScore
	for lang, score := range scores {
		switch {
		case score > best.score:
			second = best
			best = langScore{lang: lang, score: score}
		case score > second.score:
			second = langScore{lang: lang, score: score}
		}
	}
	return best, second
}

// EngineRolesFor returns which logical ASR engines should run for a route.
// A always runs; B joins for punjabi/scripture/mixed; C for english/mixed.
func EngineRolesFor(kind Kind) (runIndic, runEnglish bool) {
	switch kind {
	case RoutePunjabi, RouteScriptureLikely:
		return true, false
	case RouteEnglish:
		return false, true
	case RouteMixed:
		return true, true
	default:
		return false, false
	}
}
