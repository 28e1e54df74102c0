// Package script detects the writing system of fused ASR text, converts
// Shahmukhi to Gurmukhi, normalizes Gurmukhi diacritics, and produces a
// Roman transliteration.
package script

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kathascribe/kathascribe/internal/textutil"
)

// ConvertedText is the converter's immutable output for one text.
type ConvertedText struct {
	OriginalText         string
	OriginalScript       Code
	Gurmukhi             string
	Roman                string
	ConversionConfidence float64
	NeedsReview          bool
}

// ConversionError reports an unrecoverable failure inside the converter.
// The pipeline passes the text through as-is and flags review.
type ConversionError struct {
	Stage string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("script conversion (%s): %v", e.Stage, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Config tunes the converter.
type Config struct {
	Scheme          string // iso15919 | iast | practical
	MixDelta        float64
	ReviewFloor     float64
	StrictGurmukhi  bool
	PurityFloor     float64
	CapitalizeRoman bool
}

// DefaultConfig returns the standard conversion settings.
func DefaultConfig() Config {
	return Config{
		Scheme:      "practical",
		MixDelta:    0.15,
		ReviewFloor: 0.7,
		PurityFloor: 0.95,
	}
}

// Converter runs the full text pipeline: normalize, detect, convert,
// normalize diacritics, romanize.
type Converter struct {
	cfg       Config
	dict      WordDictionary
	romanizer Romanizer
}

// NewConverter builds a converter; dict supplies the Shahmukhi word layer and
// may be nil.
func NewConverter(cfg Config, dict WordDictionary) (*Converter, error) {
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "practical"
	}
	romanizer, err := Romanizers.Create(scheme, map[string]string{
		"capitalize_words": fmt.Sprintf("%t", cfg.CapitalizeRoman),
	})
	if err != nil {
		return nil, &ConversionError{Stage: "romanize", Err: fmt.Errorf("scheme %q: %w", scheme, err)}
	}
	return &Converter{cfg: cfg, dict: dict, romanizer: romanizer}, nil
}

// Scheme returns the active romanization scheme name.
func (c *Converter) Scheme() string { return c.romanizer.Scheme() }

// Convert produces both Gurmukhi and Roman renditions of the input. Content
// is never discarded: English passes through unchanged in the Gurmukhi field
// and unknown codepoints survive conversion.
func (c *Converter) Convert(ctx context.Context, text string) ConvertedText {
	original := text
	cleaned := textutil.Clean(text)
	if cleaned == "" {
		return ConvertedText{
			OriginalText:         original,
			OriginalScript:       Empty,
			ConversionConfidence: 1.0,
		}
	}

	detection := Detect(cleaned, c.cfg.MixDelta)
	confidence := detection.Confidence
	gurmukhi := cleaned
	var roman string

	switch detection.Script {
	case Shahmukhi, Mixed:
		if detection.ShahmukhiCount > 0 {
			converted, dictFraction := ConvertShahmukhi(cleaned, c.dict)
			gurmukhi = converted
			// Words resolved by the dictionary carry full weight; rule-layer
			// words carry half.
			confidence *= dictFraction + (1-dictFraction)*0.5
		}
		gurmukhi = NormalizeGurmukhi(gurmukhi)
		roman = c.romanizer.Romanize(gurmukhi)
	case Latin:
		// English text passes through; Roman is the text itself.
		roman = cleaned
	default:
		gurmukhi = NormalizeGurmukhi(gurmukhi)
		roman = c.romanizer.Romanize(gurmukhi)
	}

	out := ConvertedText{
		OriginalText:         original,
		OriginalScript:       detection.Script,
		Gurmukhi:             gurmukhi,
		Roman:                roman,
		ConversionConfidence: confidence,
	}
	out.NeedsReview = confidence < c.cfg.ReviewFloor

	if c.cfg.StrictGurmukhi {
		if purity := gurmukhiPurity(gurmukhi); purity < c.cfg.PurityFloor {
			out.NeedsReview = true
			slog.DebugContext(ctx, "script: output below purity floor",
				slog.Float64("purity", purity),
				slog.Float64("floor", c.cfg.PurityFloor),
			)
		}
	}
	return out
}

// gurmukhiPurity returns the fraction of letter codepoints in the Gurmukhi
// block.
func gurmukhiPurity(text string) float64 {
	d := Detect(text, 0)
	if d.TotalLetters == 0 {
		return 1.0
	}
	return float64(d.GurmukhiCount) / float64(d.TotalLetters)
}
