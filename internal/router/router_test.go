package router

import (
	"context"
	"strings"
	"testing"

	"github.com/kathascribe/kathascribe/internal/audio"
	"github.com/kathascribe/kathascribe/internal/lexicon"
)

type fakeClassifier struct {
	cls Classification
	err error
}

func (f *fakeClassifier) Classify(_ context.Context, _ audio.Chunk) (Classification, error) {
	return f.cls, f.err
}

func chunkOfDuration(sec float64) audio.Chunk {
	return audio.Chunk{JobID: "job", StartSec: 0, EndSec: sec}
}

func TestRouteScriptureCue(t *testing.T) {
	r := New(DefaultConfig(), &fakeClassifier{cls: Classification{
		Scores: map[string]float64{"pa": 0.9},
		Text:   "ਜਿਵੇਂ ਬਾਣੀ ਚ ਕਿਹਾ ਹੈ ਸਤਿ ਨਾਮੁ",
	}}, lexicon.Default("sggs"))

	route := r.Route(context.Background(), chunkOfDuration(5))
	if route.Kind != RouteScriptureLikely {
		t.Fatalf("route = %q, want scripture_quote_likely", route.Kind)
	}
	if !strings.Contains(route.Reason, "cue_phrase") {
		t.Errorf("reason %q does not name the cue rule", route.Reason)
	}
}

func TestRouteCueIgnoredOnLongChunk(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScriptureShortSec = 4
	r := New(cfg, &fakeClassifier{cls: Classification{
		Scores: map[string]float64{"pa": 0.9},
		Text:   "ਜਿਵੇਂ ਬਾਣੀ ਚ ਕਿਹਾ ਹੈ",
	}}, lexicon.Default("sggs"))

	route := r.Route(context.Background(), chunkOfDuration(20))
	if route.Kind == RouteScriptureLikely {
		t.Error("long chunk routed as scripture despite short-chunk rule")
	}
}

func TestRouteConfidentLanguage(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]float64
		want   Kind
	}{
		{name: "punjabi", scores: map[string]float64{"pa": 0.85}, want: RoutePunjabi},
		{name: "english", scores: map[string]float64{"en": 0.9}, want: RouteEnglish},
		{name: "urdu maps to punjabi", scores: map[string]float64{"ur": 0.8}, want: RoutePunjabi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(DefaultConfig(), &fakeClassifier{cls: Classification{Scores: tt.scores}}, lexicon.Default("sggs"))
			route := r.Route(context.Background(), chunkOfDuration(10))
			if route.Kind != tt.want {
				t.Errorf("route = %q, want %q (reason %q)", route.Kind, tt.want, route.Reason)
			}
		})
	}
}

func TestRouteTieIsMixed(t *testing.T) {
	r := New(DefaultConfig(), &fakeClassifier{cls: Classification{
		Scores: map[string]float64{"pa": 0.7, "en": 0.65},
	}}, lexicon.Default("sggs"))
	route := r.Route(context.Background(), chunkOfDuration(10))
	if route.Kind != RouteMixed {
		t.Errorf("route = %q, want mixed (reason %q)", route.Kind, route.Reason)
	}
}

func TestRoutePriorCarriesForward(t *testing.T) {
	r := New(DefaultConfig(), &fakeClassifier{cls: Classification{
		Scores: map[string]float64{"pa": 0.9},
	}}, lexicon.Default("sggs"))

	first := r.Route(context.Background(), chunkOfDuration(10))
	if first.Kind != RoutePunjabi {
		t.Fatalf("first route = %q", first.Kind)
	}

	// Classifier goes quiet; the prior should carry.
	r.classifier = &fakeClassifier{cls: Classification{}}
	second := r.Route(context.Background(), chunkOfDuration(10))
	if second.Kind != RoutePunjabi {
		t.Errorf("second route = %q, want prior punjabi", second.Kind)
	}
	if second.Reason != "prior_language" {
		t.Errorf("reason = %q, want prior_language", second.Reason)
	}
}

func TestRouteUnknownWithoutSignals(t *testing.T) {
	r := New(DefaultConfig(), nil, lexicon.Default("sggs"))
	route := r.Route(context.Background(), chunkOfDuration(10))
	if route.Kind != RouteUnknown {
		t.Errorf("route = %q, want unknown", route.Kind)
	}
}

func TestEngineRolesFor(t *testing.T) {
	tests := []struct {
		kind          Kind
		indic, english bool
	}{
		{RoutePunjabi, true, false},
		{RouteScriptureLikely, true, false},
		{RouteEnglish, false, true},
		{RouteMixed, true, true},
		{RouteUnknown, false, false},
	}
	for _, tt := range tests {
		indic, english := EngineRolesFor(tt.kind)
		if indic != tt.indic || english != tt.english {
			t.Errorf("EngineRolesFor(%q) = (%v, %v), want (%v, %v)", tt.kind, indic, english, tt.indic, tt.english)
		}
	}
}
