package pipeline

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	ksconfig "github.com/kathascribe/kathascribe/config"
	"github.com/kathascribe/kathascribe/internal/asr"
	"github.com/kathascribe/kathascribe/internal/audio"
	"github.com/kathascribe/kathascribe/internal/router"
	"github.com/kathascribe/kathascribe/internal/scripture"
	"github.com/kathascribe/kathascribe/pkg/transcript"
)

// stubEngine returns scripted hypotheses regardless of audio content.
type stubEngine struct {
	id    string
	reply func(chunk audio.Chunk, opts asr.Options) asr.Hypothesis
}

func (s *stubEngine) ID() string { return s.id }

func (s *stubEngine) Transcribe(_ context.Context, chunk audio.Chunk, opts asr.Options) (asr.Hypothesis, error) {
	return s.reply(chunk, opts), nil
}

func (s *stubEngine) Close() error { return nil }

func fixedReply(id, text string, conf float64, lang string) *stubEngine {
	return &stubEngine{id: id, reply: func(audio.Chunk, asr.Options) asr.Hypothesis {
		return asr.Hypothesis{EngineID: id, Text: text, Confidence: conf, LanguageCode: lang}
	}}
}

type fixedClassifier struct {
	cls router.Classification
}

func (f *fixedClassifier) Classify(context.Context, audio.Chunk) (router.Classification, error) {
	return f.cls, nil
}

func testConfig() *ksconfig.PipelineConfig {
	return &ksconfig.PipelineConfig{
		ASRParallelWorkers:  2,
		ChunkWorkers:        2,
		ASRTimeoutFactor:    4,
		DomainMode:          "sggs",
		MinChunkSec:         0.5,
		MaxChunkSec:         30,
		TargetChunkSec:      12,
		OverlapSec:          0.2,
		GapCloseMs:          700,
		VADLevel:            2,
		LiveFlushMs:         600,
		LiveQueueDepth:      8,
		LangIDFloor:         0.6,
		LangIDTieDelta:      0.15,
		ScriptureShortSec:   15,
		RedecodeFloor:       0.6,
		ReviewFloor:         0.7,
		AgreementFloor:      0.6,
		MaxRedecodeAttempts: 2,
		RomanizationScheme:  "practical",
		ScriptMixDelta:      0.15,
		ScriptReviewFloor:   0.7,
		ScriptPurityFloor:   0.95,
		AutoReplaceFloor:    0.90,
		QuoteReviewFloor:    0.70,
		VerifierFloor:       0.70,
		FuzzyWeight:         0.6,
		SemanticWeight:      0.4,
		VocabRatioFloor:     0.3,
		LenRatioLo:          0.6,
		LenRatioHi:          1.6,
		QuoteTopK:           20,
	}
}

func testScripture() *scripture.Index {
	return scripture.NewIndex([]scripture.Line{
		{ID: "1", Source: scripture.SourceSGGS, Gurmukhi: "ਸਤਿ ਨਾਮੁ ਕਰਤਾ ਪੁਰਖੁ", Ang: 1, ShabadID: "s1", LinePosition: 1},
		{ID: "2", Source: scripture.SourceSGGS, Gurmukhi: "ਨਿਰਭਉ ਨਿਰਵੈਰੁ ਅਕਾਲ ਮੂਰਤਿ", Ang: 1, ShabadID: "s1", LinePosition: 2},
	})
}

func pcmTone(amplitude int16, sec float64) []byte {
	n := int(sec * audio.SampleRate)
	out := make([]byte, n*audio.BytesPerSample)
	for i := 0; i < n; i++ {
		sample := amplitude
		if i%16 < 8 {
			sample = -amplitude
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}

func writeWAV(t *testing.T, pcm []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.wav")
	if err := os.WriteFile(path, audio.EncodeWAV(pcm), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestOrchestrator(t *testing.T, cfg *ksconfig.PipelineConfig, general, indic, english asr.Engine) *Orchestrator {
	t.Helper()
	orch := NewFromEngines(cfg, testScripture(), nil, nil, nil, nil, general, indic, english)
	t.Cleanup(orch.Close)
	return orch
}

func TestTranscribeFilePlainSpeech(t *testing.T) {
	cfg := testConfig()
	engine := fixedReply(asr.RoleGeneral, "ਧੰਨ ਗੁਰੂ ਨਾਨਕ ਦੇਵ ਜੀ", 0.92, "pa")
	orch := newTestOrchestrator(t, cfg, engine, nil, nil)

	result, err := orch.TranscribeFile(context.Background(), writeWAV(t, pcmTone(8000, 3)), Options{})
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	if len(result.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(result.Segments))
	}
	seg := result.Segments[0]
	if seg.Kind != transcript.KindSpeech {
		t.Errorf("kind = %q, want speech", seg.Kind)
	}
	if seg.Gurmukhi != "ਧੰਨ ਗੁਰੂ ਨਾਨਕ ਦੇਵ ਜੀ" {
		t.Errorf("gurmukhi = %q", seg.Gurmukhi)
	}
	if seg.Roman != "dhan gurū nānak dev jī" {
		t.Errorf("roman = %q", seg.Roman)
	}
	if seg.ASRConfidence != 0.92 {
		t.Errorf("asr confidence = %v, want 0.92", seg.ASRConfidence)
	}
	if seg.NeedsReview {
		t.Error("clean segment flagged for review")
	}
	if len(seg.Hypotheses) != 1 {
		t.Errorf("hypotheses = %d, want 1", len(seg.Hypotheses))
	}
}

func TestTranscribeFileEmptyAudio(t *testing.T) {
	cfg := testConfig()
	engine := fixedReply(asr.RoleGeneral, "ਕੁਝ", 0.9, "pa")
	orch := newTestOrchestrator(t, cfg, engine, nil, nil)

	result, err := orch.TranscribeFile(context.Background(), writeWAV(t, nil), Options{})
	if err != nil {
		t.Fatalf("TranscribeFile on empty audio: %v", err)
	}
	if len(result.Segments) != 0 {
		t.Errorf("segments = %d, want 0 for empty audio", len(result.Segments))
	}
}

func TestTranscribeFileQuoteReplacement(t *testing.T) {
	cfg := testConfig()
	engine := fixedReply(asr.RoleGeneral, "ਸਤਿ ਨਾਮੁ ਕਰਤਾ ਪੁਰਖੁ", 0.88, "pa")
	orch := newTestOrchestrator(t, cfg, engine, nil, nil)
	orch.SetClassifier(&fixedClassifier{cls: router.Classification{
		Scores: map[string]float64{"pa": 0.9},
		Text:   "ਜਿਵੇਂ ਬਾਣੀ ਚ ਕਿਹਾ",
	}})

	result, err := orch.TranscribeFile(context.Background(), writeWAV(t, pcmTone(8000, 3)), Options{})
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	if len(result.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(result.Segments))
	}
	seg := result.Segments[0]
	if seg.Route != string(router.RouteScriptureLikely) {
		t.Fatalf("route = %q, want scripture_quote_likely (%s)", seg.Route, seg.RouteReason)
	}
	if seg.Kind != transcript.KindScripture {
		t.Fatalf("kind = %q, want scripture_quote", seg.Kind)
	}
	if seg.SpokenText != "ਸਤਿ ਨਾਮੁ ਕਰਤਾ ਪੁਰਖੁ" {
		t.Errorf("spoken text = %q, provenance lost", seg.SpokenText)
	}
	if seg.QuoteMatch == nil {
		t.Fatal("quote match missing on scripture segment")
	}
	if seg.QuoteMatch.Ang != 1 {
		t.Errorf("ang = %d, want 1", seg.QuoteMatch.Ang)
	}
	if seg.QuoteMatch.MatchConfidence < 0.90 {
		t.Errorf("match confidence = %v, want >= 0.90", seg.QuoteMatch.MatchConfidence)
	}
	if seg.NeedsReview {
		t.Error("auto-replaced quote flagged for review")
	}
	if result.Metrics.QuotesReplaced != 1 {
		t.Errorf("quotes replaced = %d, want 1", result.Metrics.QuotesReplaced)
	}
}

func TestTranscribeFileAmbiguousQuoteSuggested(t *testing.T) {
	cfg := testConfig()
	// Truncated quote: close enough to suggest, not enough to auto-replace.
	engine := fixedReply(asr.RoleGeneral, "ਸਤਿ ਨਾਮੁ ਕਰਤਾ", 0.88, "pa")
	orch := newTestOrchestrator(t, cfg, engine, nil, nil)
	orch.SetClassifier(&fixedClassifier{cls: router.Classification{
		Scores: map[string]float64{"pa": 0.9},
		Text:   "ਜਿਵੇਂ ਬਾਣੀ ਚ ਕਿਹਾ",
	}})

	result, err := orch.TranscribeFile(context.Background(), writeWAV(t, pcmTone(8000, 3)), Options{})
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	seg := result.Segments[0]
	if seg.Kind != transcript.KindSpeech {
		t.Errorf("kind = %q, want speech (no replacement)", seg.Kind)
	}
	if seg.Gurmukhi != "ਸਤਿ ਨਾਮੁ ਕਰਤਾ" {
		t.Errorf("gurmukhi = %q, spoken text must survive", seg.Gurmukhi)
	}
	if seg.QuoteMatch == nil {
		t.Fatal("suggestion not attached")
	}
	if seg.QuoteMatch.MatchConfidence >= 0.90 || seg.QuoteMatch.MatchConfidence < 0.70 {
		t.Errorf("match confidence = %v, want in the review band", seg.QuoteMatch.MatchConfidence)
	}
	if !seg.NeedsReview {
		t.Error("suggested quote not flagged for review")
	}
}

func TestSegmentsReleasedInChunkOrder(t *testing.T) {
	cfg := testConfig()
	cfg.TargetChunkSec = 1.0
	cfg.MinChunkSec = 0.3
	cfg.ChunkWorkers = 4

	// Completion order is scrambled by per-chunk sleeps; emission order must
	// still follow chunk index.
	engine := &stubEngine{id: asr.RoleGeneral, reply: func(chunk audio.Chunk, _ asr.Options) asr.Hypothesis {
		time.Sleep(time.Duration((chunk.Index%3)*7) * time.Millisecond)
		return asr.Hypothesis{EngineID: asr.RoleGeneral, Text: "ਗੁਰੂ", Confidence: 0.9, LanguageCode: "pa"}
	}}
	orch := newTestOrchestrator(t, cfg, engine, nil, nil)

	result, err := orch.TranscribeFile(context.Background(), writeWAV(t, pcmTone(8000, 8)), Options{})
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	if len(result.Segments) < 4 {
		t.Fatalf("segments = %d, want several", len(result.Segments))
	}
	for i, seg := range result.Segments {
		if seg.ChunkIndex != i {
			t.Errorf("segment %d has chunk index %d", i, seg.ChunkIndex)
		}
		if i > 0 && seg.Start < result.Segments[i-1].Start {
			t.Errorf("segment %d start %.2f precedes previous %.2f", i, seg.Start, result.Segments[i-1].Start)
		}
	}
}

func TestEngineFanOutByRoute(t *testing.T) {
	cfg := testConfig()
	var indicCalled, englishCalled bool
	general := fixedReply(asr.RoleGeneral, "ਸਤਿ", 0.9, "pa")
	indic := &stubEngine{id: asr.RoleIndic, reply: func(audio.Chunk, asr.Options) asr.Hypothesis {
		indicCalled = true
		return asr.Hypothesis{EngineID: asr.RoleIndic, Text: "ਸਤਿ", Confidence: 0.85, LanguageCode: "pa"}
	}}
	english := &stubEngine{id: asr.RoleEnglish, reply: func(audio.Chunk, asr.Options) asr.Hypothesis {
		englishCalled = true
		return asr.Hypothesis{EngineID: asr.RoleEnglish, Text: "sat", Confidence: 0.4, LanguageCode: "en"}
	}}

	orch := newTestOrchestrator(t, cfg, general, indic, english)
	orch.SetClassifier(&fixedClassifier{cls: router.Classification{Scores: map[string]float64{"pa": 0.9}}})

	if _, err := orch.TranscribeFile(context.Background(), writeWAV(t, pcmTone(8000, 2)), Options{}); err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	if !indicCalled {
		t.Error("punjabi route did not run the indic engine")
	}
	if englishCalled {
		t.Error("punjabi route ran the english engine")
	}
}

func TestAllEnginesFailedYieldsReviewSegment(t *testing.T) {
	cfg := testConfig()
	failing := &stubEngine{id: asr.RoleGeneral, reply: func(audio.Chunk, asr.Options) asr.Hypothesis {
		return asr.ErrorHypothesis(asr.RoleGeneral, context.DeadlineExceeded)
	}}
	orch := newTestOrchestrator(t, cfg, failing, nil, nil)

	result, err := orch.TranscribeFile(context.Background(), writeWAV(t, pcmTone(8000, 2)), Options{})
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	if len(result.Segments) != 1 {
		t.Fatalf("segments = %d, want the degraded segment", len(result.Segments))
	}
	seg := result.Segments[0]
	if !seg.NeedsReview {
		t.Error("all-engines-failed segment not flagged for review")
	}
	if seg.Gurmukhi != "" {
		t.Errorf("gurmukhi = %q, want empty", seg.Gurmukhi)
	}
	if len(seg.Errors) == 0 {
		t.Error("engine failure reason not captured in segment")
	}
}

func TestRedecodeTriggeredOnLowConfidence(t *testing.T) {
	cfg := testConfig()
	calls := 0
	general := &stubEngine{id: asr.RoleGeneral, reply: func(_ audio.Chunk, opts asr.Options) asr.Hypothesis {
		calls++
		if opts.BeamSize > 0 {
			// The wider-beam pass returns a confident reading.
			return asr.Hypothesis{EngineID: asr.RoleGeneral, Text: "ਸਤਿ ਨਾਮੁ ਕਰਤਾ ਪੁਰਖੁ", Confidence: 0.9, LanguageCode: "pa"}
		}
		return asr.Hypothesis{EngineID: asr.RoleGeneral, Text: "ਸਤਿ ਨਾਮੁ ਕਰਤਾ ਪੁਰਖੁ", Confidence: 0.4, LanguageCode: "pa"}
	}}
	orch := newTestOrchestrator(t, cfg, general, nil, nil)

	result, err := orch.TranscribeFile(context.Background(), writeWAV(t, pcmTone(8000, 2)), Options{})
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	if calls < 2 {
		t.Errorf("engine calls = %d, want a re-decode pass", calls)
	}
	if result.Metrics.Redecodes == 0 {
		t.Error("redecode not counted in metrics")
	}
	if got := result.Segments[0].ASRConfidence; got < 0.6 {
		t.Errorf("confidence after redecode = %v, want improved", got)
	}
}
