package pipeline

import (
	"context"
	"fmt"

	"github.com/kathascribe/kathascribe/internal/asr"
	"github.com/kathascribe/kathascribe/internal/audio"
	"github.com/kathascribe/kathascribe/internal/router"
)

// quickPassClassifier runs a cheap transcription over a short prefix of the
// chunk with the general engine and derives language scores from the result.
// It shares the engine slot with the main fan-out, so quick passes and full
// decodes on the same engine serialize cleanly.
type quickPassClassifier struct {
	slot          *engineSlot
	timeoutFactor float64
	prefixSec     float64
}

// QuickPassClassifier builds the router's language classifier on top of the
// general ASR engine. Returns nil when no general engine is loaded.
func (o *Orchestrator) QuickPassClassifier() router.Classifier {
	if o.engines.general == nil {
		return nil
	}
	return &quickPassClassifier{
		slot:          o.engines.general,
		timeoutFactor: o.cfg.ASRTimeoutFactor,
		prefixSec:     4.0,
	}
}

// Classify transcribes the chunk prefix without a language hint and maps the
// detected language to a score.
func (q *quickPassClassifier) Classify(ctx context.Context, chunk audio.Chunk) (router.Classification, error) {
	prefix := chunk
	maxBytes := int(q.prefixSec * float64(audio.SampleRate) * audio.BytesPerSample)
	if len(prefix.Samples) > maxBytes {
		prefix.Samples = prefix.Samples[:maxBytes]
		prefix.EndSec = prefix.StartSec + q.prefixSec
	}

	// No hint: the engine's own language detection is the signal here.
	hyp := q.slot.transcribe(ctx, prefix, asr.Options{}, q.timeoutFactor)
	if hyp.EngineError != "" {
		return router.Classification{}, fmt.Errorf("quick pass: %s", hyp.EngineError)
	}
	cls := router.Classification{Text: hyp.Text}
	if hyp.LanguageCode != "" {
		cls.Scores = map[string]float64{hyp.LanguageCode: hyp.Confidence}
	}
	return cls, nil
}
