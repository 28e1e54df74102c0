package asr

import (
	"context"
	"fmt"

	"github.com/kathascribe/kathascribe/internal/audio"
	"github.com/kathascribe/kathascribe/internal/registry"
)

// Engine role identifiers. A is the general multilingual engine and always
// runs; B and C join depending on the chunk's route.
const (
	RoleGeneral = "asr-a"
	RoleIndic   = "asr-b"
	RoleEnglish = "asr-c"
)

// WordTiming is an optional word-level timestamp within a hypothesis.
type WordTiming struct {
	Word     string
	StartSec float64
	EndSec   float64
}

// Hypothesis is one engine's output for one chunk. Immutable once produced.
type Hypothesis struct {
	EngineID     string
	Text         string
	LanguageCode string
	Confidence   float64
	WordTimings  []WordTiming
	// EngineError carries the failure reason when the engine crashed or timed
	// out; Text is empty and Confidence zero in that case, which is enough
	// for fusion to ignore it.
	EngineError string
}

// Options tune a single transcription call.
type Options struct {
	LanguageHint string
	BeamSize     int
	// Prompt biases decoding toward domain vocabulary when the backend
	// supports conditioning text.
	Prompt string
}

// Engine transcribes a single audio chunk. Implementations are stateful,
// heavy, single-threaded units: one instance processes one chunk at a time.
type Engine interface {
	ID() string
	Transcribe(ctx context.Context, chunk audio.Chunk, opts Options) (Hypothesis, error)
	Close() error
}

// Backends is the registry of available ASR engine factories. Backend
// packages register themselves via init().
var Backends = registry.New[Engine]()

// ErrorHypothesis builds the degraded hypothesis an engine contributes when
// it fails: empty text, zero confidence, reason attached.
func ErrorHypothesis(engineID string, err error) Hypothesis {
	return Hypothesis{
		EngineID:    engineID,
		EngineError: fmt.Sprintf("engine_error: %v", err),
	}
}
