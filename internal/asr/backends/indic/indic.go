// Package indic provides the Indic-tuned ASR engine. It drives an external
// recognizer binary (a conformer or wav2vec2 model server) that reads WAV on
// stdin and prints a JSON result on stdout.
package indic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/kathascribe/kathascribe/internal/asr"
	"github.com/kathascribe/kathascribe/internal/audio"
)

func init() {
	asr.Backends.Register("indic", func(config map[string]string) (asr.Engine, error) {
		binaryPath := config["binary_path"]
		if binaryPath == "" {
			binaryPath = "indic-asr"
		}
		modelPath := config["model_path"]
		if modelPath == "" {
			modelPath = "./models/indicconformer-pa.onnx"
		}
		language := config["language"]
		if language == "" {
			language = "pa"
		}
		return NewEngine(binaryPath, modelPath, language), nil
	})
}

// Engine runs one external recognizer process per chunk. The process is
// serialized by a mutex: the model is a heavy single-threaded unit.
type Engine struct {
	binaryPath string
	modelPath  string
	language   string

	mu sync.Mutex
}

// NewEngine creates the Indic-tuned engine.
func NewEngine(binaryPath, modelPath, language string) *Engine {
	return &Engine{
		binaryPath: binaryPath,
		modelPath:  modelPath,
		language:   language,
	}
}

// ID returns the engine role identifier.
func (e *Engine) ID() string { return asr.RoleIndic }

// result is the recognizer's stdout contract.
type result struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
	Words      []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// Transcribe runs the recognizer over one chunk.
func (e *Engine) Transcribe(ctx context.Context, chunk audio.Chunk, opts asr.Options) (asr.Hypothesis, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	language := e.language
	if opts.LanguageHint != "" {
		language = opts.LanguageHint
	}
	args := []string{
		"--model", e.modelPath,
		"--language", language,
		"--format", "json",
	}
	if opts.BeamSize > 0 {
		args = append(args, "--beam-size", fmt.Sprintf("%d", opts.BeamSize))
	}

	cmd := exec.CommandContext(ctx, e.binaryPath, args...)
	cmd.Stdin = bytes.NewReader(audio.EncodeWAV(chunk.Samples))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return asr.Hypothesis{}, fmt.Errorf("indic ASR: %w: %s", err, stderr.String())
	}

	var res result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return asr.Hypothesis{}, fmt.Errorf("indic ASR: parse output: %w", err)
	}

	hyp := asr.Hypothesis{
		EngineID:     asr.RoleIndic,
		Text:         res.Text,
		LanguageCode: res.Language,
		Confidence:   res.Confidence,
	}
	if hyp.LanguageCode == "" {
		hyp.LanguageCode = language
	}
	for _, w := range res.Words {
		hyp.WordTimings = append(hyp.WordTimings, asr.WordTiming{
			Word:     w.Word,
			StartSec: chunk.StartSec + w.Start,
			EndSec:   chunk.StartSec + w.End,
		})
	}
	return hyp, nil
}

// Close releases engine resources.
func (e *Engine) Close() error { return nil }
