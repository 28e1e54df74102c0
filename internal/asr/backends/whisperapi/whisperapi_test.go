package whisperapi

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kathascribe/kathascribe/internal/asr"
	"github.com/kathascribe/kathascribe/internal/audio"
)

func TestFactoryRequiresAPIKey(t *testing.T) {
	if _, err := newEngine(map[string]string{}, "asr-a", ""); err == nil {
		t.Error("expected error without openai_api_key")
	}
}

func TestFactoryDefaults(t *testing.T) {
	e, err := newEngine(map[string]string{"openai_api_key": "sk-test"}, "asr-a", "")
	if err != nil {
		t.Fatalf("newEngine: %v", err)
	}
	if e.model != openai.Whisper1 {
		t.Errorf("model = %q, want whisper-1 default", e.model)
	}
	if e.ID() != "asr-a" {
		t.Errorf("id = %q", e.ID())
	}
}

func TestSegmentConfidence(t *testing.T) {
	tests := []struct {
		name         string
		avgLogprob   float64
		noSpeechProb float64
		lo, hi       float64
	}{
		{name: "near-zero logprob is confident", avgLogprob: -0.05, noSpeechProb: 0.01, lo: 0.9, hi: 1.0},
		{name: "poor logprob is unconfident", avgLogprob: -2.5, noSpeechProb: 0.2, lo: 0.0, hi: 0.2},
		{name: "no-speech probability drags down", avgLogprob: 0, noSpeechProb: 1.0, lo: 0.4, hi: 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segmentConfidence(tt.avgLogprob, tt.noSpeechProb)
			if got < tt.lo || got > tt.hi {
				t.Errorf("segmentConfidence = %v, want in [%v, %v]", got, tt.lo, tt.hi)
			}
		})
	}
}

func TestMeanConfidenceWithoutSegments(t *testing.T) {
	if got := meanConfidence(nil); got != 0.5 {
		t.Errorf("meanConfidence(nil) = %v, want 0.5", got)
	}
}

func TestClosedEngineRejectsWork(t *testing.T) {
	e, err := newEngine(map[string]string{"openai_api_key": "sk-test"}, "asr-a", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if !closed {
		t.Error("engine not marked closed")
	}
	if _, err := e.Transcribe(context.Background(), audio.Chunk{}, asr.Options{}); err == nil {
		t.Error("Transcribe on a closed engine returned no error")
	}
}
