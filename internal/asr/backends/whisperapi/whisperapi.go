// Package whisperapi provides Whisper-based ASR engines over the OpenAI
// audio transcription API. Two backends register: "whisper" (the general
// multilingual engine) and "whisper-english" (English-tuned, language forced).
package whisperapi

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kathascribe/kathascribe/internal/asr"
	"github.com/kathascribe/kathascribe/internal/audio"
)

func init() {
	asr.Backends.Register("whisper", func(config map[string]string) (asr.Engine, error) {
		return newEngine(config, asr.RoleGeneral, "")
	})
	asr.Backends.Register("whisper-english", func(config map[string]string) (asr.Engine, error) {
		return newEngine(config, asr.RoleEnglish, "en")
	})
}

// Engine calls the Whisper transcription API for one chunk at a time.
type Engine struct {
	id            string
	client        *openai.Client
	model         string
	forceLanguage string
	prompt        string

	mu     sync.Mutex
	closed bool
}

func newEngine(config map[string]string, id, forceLanguage string) (*Engine, error) {
	apiKey := config["openai_api_key"]
	if apiKey == "" {
		return nil, fmt.Errorf("whisper backend requires openai_api_key")
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if base := config["openai_base_url"]; base != "" {
		clientCfg.BaseURL = base
	}
	model := config["model"]
	if model == "" {
		model = openai.Whisper1
	}
	return &Engine{
		id:            id,
		client:        openai.NewClientWithConfig(clientCfg),
		model:         model,
		forceLanguage: forceLanguage,
		prompt:        config["domain_prompt"],
	}, nil
}

// ID returns the engine role identifier.
func (e *Engine) ID() string { return e.id }

// Transcribe sends one chunk to the API and maps the verbose response to a
// hypothesis. Deterministic for a fixed model and input (temperature 0).
func (e *Engine) Transcribe(ctx context.Context, chunk audio.Chunk, opts asr.Options) (asr.Hypothesis, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return asr.Hypothesis{}, fmt.Errorf("whisper engine %s is closed", e.id)
	}
	e.mu.Unlock()

	language := e.forceLanguage
	if language == "" {
		language = opts.LanguageHint
	}
	prompt := e.prompt
	if opts.Prompt != "" {
		prompt = opts.Prompt
	}

	resp, err := e.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       e.model,
		Reader:      bytes.NewReader(audio.EncodeWAV(chunk.Samples)),
		FilePath:    "chunk.wav",
		Format:      openai.AudioResponseFormatVerboseJSON,
		Language:    language,
		Prompt:      prompt,
		Temperature: 0,
	})
	if err != nil {
		return asr.Hypothesis{}, fmt.Errorf("whisper %s transcription: %w", e.id, err)
	}

	hyp := asr.Hypothesis{
		EngineID:     e.id,
		Text:         resp.Text,
		LanguageCode: resp.Language,
	}
	var confidences []float64
	for _, seg := range resp.Segments {
		confidences = append(confidences, segmentConfidence(seg.AvgLogprob, seg.NoSpeechProb))
		hyp.WordTimings = append(hyp.WordTimings, asr.WordTiming{
			Word:     seg.Text,
			StartSec: chunk.StartSec + seg.Start,
			EndSec:   chunk.StartSec + seg.End,
		})
	}
	hyp.Confidence = meanConfidence(confidences)
	return hyp, nil
}

// segmentConfidence maps a segment's average log-probability to [0,1], with
// heavy no-speech probability dragging it down.
func segmentConfidence(avgLogprob, noSpeechProb float64) float64 {
	p := math.Exp(avgLogprob)
	if p > 1 {
		p = 1
	}
	p *= 1 - noSpeechProb*0.5
	if p < 0 {
		p = 0
	}
	return p
}

// meanConfidence averages per-segment confidences. Without segment data a
// mid confidence is reported rather than claiming certainty.
func meanConfidence(confidences []float64) float64 {
	if len(confidences) == 0 {
		return 0.5
	}
	var sum float64
	for _, c := range confidences {
		sum += c
	}
	conf := sum / float64(len(confidences))
	if conf > 1 {
		conf = 1
	}
	return conf
}

// Close marks the engine unusable. The underlying HTTP client needs no
// teardown.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
