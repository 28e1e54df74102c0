package config

import (
	"fmt"

	"github.com/pitabwire/frame/config"

	"github.com/kathascribe/kathascribe/internal/asr/fusion"
	"github.com/kathascribe/kathascribe/internal/audio"
	"github.com/kathascribe/kathascribe/internal/quote"
	"github.com/kathascribe/kathascribe/internal/router"
	"github.com/kathascribe/kathascribe/internal/script"
)

// PipelineConfig holds every tunable of the transcription pipeline.
type PipelineConfig struct {
	config.ConfigurationDefault

	// ASR
	WhisperModelSize   string  `envDefault:"small"                           env:"WHISPER_MODEL_SIZE"`
	OpenAIAPIKey       string  `envDefault:""                                env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string  `envDefault:"https://api.openai.com/v1"       env:"OPENAI_BASE_URL"`
	IndicBinaryPath    string  `envDefault:"indic-asr"                       env:"INDIC_ASR_BINARY"`
	IndicModelPath     string  `envDefault:"./models/indicconformer-pa.onnx" env:"INDIC_ASR_MODEL"`
	ASRParallelWorkers int     `envDefault:"2"                               env:"ASR_PARALLEL_WORKERS"`
	ChunkWorkers       int     `envDefault:"4"                               env:"CHUNK_PARALLEL_WORKERS"`
	ASRTimeoutFactor   float64 `envDefault:"4.0"                             env:"ASR_TIMEOUT_FACTOR"`

	// Domain
	DomainMode     string `envDefault:"sggs"  env:"DOMAIN_MODE"`
	StrictGurmukhi bool   `envDefault:"true"  env:"STRICT_GURMUKHI"`
	LexiconDir     string `envDefault:"./data/lexicons" env:"LEXICON_DIR"`

	// Scripture
	ScriptureDBPath string `envDefault:"./data/sggs.sqlite" env:"SCRIPTURE_DB_PATH"`
	DasamDBPath     string `envDefault:""                   env:"DASAM_DB_PATH"`

	// Chunking
	MinChunkSec    float64 `envDefault:"1.0"  env:"VAD_MIN_CHUNK_SEC"`
	MaxChunkSec    float64 `envDefault:"30.0" env:"VAD_MAX_CHUNK_SEC"`
	TargetChunkSec float64 `envDefault:"12.0" env:"VAD_TARGET_CHUNK_SEC"`
	OverlapSec     float64 `envDefault:"0.5"  env:"VAD_OVERLAP_SEC"`
	GapCloseMs     int     `envDefault:"700"  env:"VAD_GAP_CLOSE_MS"`
	VADLevel       int     `envDefault:"2"    env:"VAD_AGGRESSIVENESS"`
	LiveFlushMs    int     `envDefault:"1500" env:"LIVE_FLUSH_MS"`
	LiveQueueDepth int     `envDefault:"8"    env:"LIVE_QUEUE_DEPTH"`

	// Routing
	LangIDFloor       float64 `envDefault:"0.6"  env:"LANGID_FLOOR"`
	LangIDTieDelta    float64 `envDefault:"0.15" env:"LANGID_TIE_DELTA"`
	ScriptureShortSec float64 `envDefault:"15.0" env:"SCRIPTURE_SHORT_SEC"`

	// Fusion
	RedecodeFloor       float64 `envDefault:"0.6" env:"REDECODE_FLOOR"`
	ReviewFloor         float64 `envDefault:"0.7" env:"REVIEW_FLOOR"`
	AgreementFloor      float64 `envDefault:"0.6" env:"AGREEMENT_FLOOR"`
	MaxRedecodeAttempts int     `envDefault:"2"   env:"MAX_REDECODE_ATTEMPTS"`

	// Script conversion
	RomanizationScheme string  `envDefault:"practical" env:"ROMAN_TRANSLITERATION_SCHEME"`
	ScriptMixDelta     float64 `envDefault:"0.15"      env:"SCRIPT_MIX_DELTA"`
	ScriptReviewFloor  float64 `envDefault:"0.7"       env:"SCRIPT_REVIEW_FLOOR"`
	ScriptPurityFloor  float64 `envDefault:"0.95"      env:"SCRIPT_PURITY_FLOOR"`

	// Quote engine
	AutoReplaceFloor float64 `envDefault:"0.90" env:"QUOTE_MATCH_CONFIDENCE_THRESHOLD"`
	QuoteReviewFloor float64 `envDefault:"0.70" env:"QUOTE_REVIEW_FLOOR"`
	VerifierFloor    float64 `envDefault:"0.70" env:"QUOTE_VERIFIER_FLOOR"`
	FuzzyWeight      float64 `envDefault:"0.6"  env:"QUOTE_FUZZY_WEIGHT"`
	SemanticWeight   float64 `envDefault:"0.4"  env:"QUOTE_SEMANTIC_WEIGHT"`
	VocabRatioFloor  float64 `envDefault:"0.3"  env:"QUOTE_VOCAB_RATIO_FLOOR"`
	LenRatioLo       float64 `envDefault:"0.6"  env:"QUOTE_LEN_RATIO_LO"`
	LenRatioHi       float64 `envDefault:"1.6"  env:"QUOTE_LEN_RATIO_HI"`
	QuoteTopK        int     `envDefault:"20"   env:"QUOTE_TOP_K"`

	// Denoising
	DenoiseEnabled  bool   `envDefault:"false"    env:"ENABLE_DENOISING"`
	DenoiseBackend  string `envDefault:"spectral" env:"DENOISE_BACKEND"`
	DenoiseStrength string `envDefault:"medium"   env:"DENOISE_STRENGTH"`
}

// Validate rejects contradictory settings before any work starts.
func (c *PipelineConfig) Validate() error {
	if c.MinChunkSec <= 0 || c.MaxChunkSec <= c.MinChunkSec {
		return fmt.Errorf("config: chunk bounds invalid (min %.2f, max %.2f)", c.MinChunkSec, c.MaxChunkSec)
	}
	if c.TargetChunkSec < c.MinChunkSec || c.TargetChunkSec > c.MaxChunkSec {
		return fmt.Errorf("config: target chunk %.2fs outside [%.2f, %.2f]", c.TargetChunkSec, c.MinChunkSec, c.MaxChunkSec)
	}
	if c.VADLevel < 0 || c.VADLevel > 3 {
		return fmt.Errorf("config: VAD aggressiveness %d outside 0-3", c.VADLevel)
	}
	if sum := c.FuzzyWeight + c.SemanticWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("config: quote weights must sum to 1 (fuzzy %.2f + semantic %.2f = %.2f)", c.FuzzyWeight, c.SemanticWeight, sum)
	}
	if c.AutoReplaceFloor < c.QuoteReviewFloor {
		return fmt.Errorf("config: auto-replace floor %.2f below review floor %.2f", c.AutoReplaceFloor, c.QuoteReviewFloor)
	}
	switch c.RomanizationScheme {
	case "iso15919", "iast", "practical":
	default:
		return fmt.Errorf("config: unknown romanization scheme %q (want iso15919, iast, or practical)", c.RomanizationScheme)
	}
	switch c.DomainMode {
	case "sggs", "dasam", "generic":
	default:
		return fmt.Errorf("config: unknown domain mode %q (want sggs, dasam, or generic)", c.DomainMode)
	}
	return nil
}

// Chunker maps the config onto chunker settings.
func (c *PipelineConfig) Chunker() audio.ChunkerConfig {
	vad := audio.DefaultVADConfig()
	vad.Aggressiveness = c.VADLevel
	return audio.ChunkerConfig{
		MinChunkSec:    c.MinChunkSec,
		MaxChunkSec:    c.MaxChunkSec,
		TargetChunkSec: c.TargetChunkSec,
		OverlapSec:     c.OverlapSec,
		GapCloseMs:     c.GapCloseMs,
		LiveFlushMs:    c.LiveFlushMs,
		VAD:            vad,
	}
}

// Router maps the config onto routing thresholds.
func (c *PipelineConfig) Router() router.Config {
	cfg := router.DefaultConfig()
	cfg.LangIDFloor = c.LangIDFloor
	cfg.LangIDTieDelta = c.LangIDTieDelta
	cfg.ScriptureShortSec = c.ScriptureShortSec
	cfg.VocabRouteFloor = c.VocabRatioFloor
	return cfg
}

// Fusion maps the config onto fusion thresholds.
func (c *PipelineConfig) Fusion() fusion.Config {
	cfg := fusion.DefaultConfig()
	cfg.RedecodeFloor = c.RedecodeFloor
	cfg.ReviewFloor = c.ReviewFloor
	cfg.AgreementFloor = c.AgreementFloor
	cfg.MaxRedecodeAttempts = c.MaxRedecodeAttempts
	return cfg
}

// Script maps the config onto converter settings.
func (c *PipelineConfig) Script() script.Config {
	return script.Config{
		Scheme:         c.RomanizationScheme,
		MixDelta:       c.ScriptMixDelta,
		ReviewFloor:    c.ScriptReviewFloor,
		StrictGurmukhi: c.StrictGurmukhi,
		PurityFloor:    c.ScriptPurityFloor,
	}
}

// QuoteDetector maps the config onto candidate detection settings.
func (c *PipelineConfig) QuoteDetector() quote.DetectorConfig {
	cfg := quote.DefaultDetectorConfig()
	cfg.VocabRatioFloor = c.VocabRatioFloor
	return cfg
}

// QuoteMatcher maps the config onto matcher settings.
func (c *PipelineConfig) QuoteMatcher() quote.MatcherConfig {
	return quote.MatcherConfig{
		TopK:           c.QuoteTopK,
		FuzzyWeight:    c.FuzzyWeight,
		SemanticWeight: c.SemanticWeight,
		VerifierFloor:  c.VerifierFloor,
		LenRatioLo:     c.LenRatioLo,
		LenRatioHi:     c.LenRatioHi,
	}
}

// QuoteReplacer maps the config onto replacement thresholds.
func (c *PipelineConfig) QuoteReplacer() quote.ReplacerConfig {
	return quote.ReplacerConfig{
		AutoReplaceFloor: c.AutoReplaceFloor,
		ReviewFloor:      c.QuoteReviewFloor,
	}
}

// Denoise maps the config onto the denoise filter settings.
func (c *PipelineConfig) Denoise() audio.DenoiseConfig {
	return audio.DenoiseConfig{
		Enabled:  c.DenoiseEnabled,
		Backend:  c.DenoiseBackend,
		Strength: audio.DenoiseStrength(c.DenoiseStrength),
	}
}

// ASRServiceConfig builds the backend factory config map.
func (c *PipelineConfig) ASRServiceConfig() map[string]string {
	return map[string]string{
		"openai_api_key":  c.OpenAIAPIKey,
		"openai_base_url": c.OpenAIBaseURL,
		"model_size":      c.WhisperModelSize,
		"binary_path":     c.IndicBinaryPath,
		"model_path":      c.IndicModelPath,
	}
}
