// Package pipeline composes chunking, routing, ASR fan-out, fusion, script
// conversion, and quote replacement into batch and live transcription runs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pitabwire/frame/workerpool"
	"github.com/rs/xid"

	"github.com/kathascribe/kathascribe/config"
	"github.com/kathascribe/kathascribe/internal/asr"
	"github.com/kathascribe/kathascribe/internal/asr/fusion"
	"github.com/kathascribe/kathascribe/internal/audio"
	"github.com/kathascribe/kathascribe/internal/lexicon"
	"github.com/kathascribe/kathascribe/internal/quote"
	"github.com/kathascribe/kathascribe/internal/router"
	"github.com/kathascribe/kathascribe/internal/script"
	"github.com/kathascribe/kathascribe/internal/scripture"
	"github.com/kathascribe/kathascribe/pkg/events"
	"github.com/kathascribe/kathascribe/pkg/transcript"
)

// Options carries per-job overrides of the process-wide configuration.
// Zero values defer to the config.
type Options struct {
	DomainMode string
	Scheme     string
	Denoise    *bool
}

// Orchestrator owns the long-lived pipeline resources: the scripture index,
// the loaded ASR engines, the lexicon, and the worker pool.
type Orchestrator struct {
	cfg       *config.PipelineConfig
	index     *scripture.Index
	lexLoader *lexicon.Loader
	pool      workerpool.WorkerPool
	pub       *events.Publisher
	metrics   *Metrics

	engines    *engineSet
	classifier router.Classifier
}

// New constructs an orchestrator, creating the ASR engines from the backend
// registry. Engine A is required; B and C degrade to absent with a warning
// when their backends cannot be built.
func New(ctx context.Context, cfg *config.PipelineConfig, index *scripture.Index, lexLoader *lexicon.Loader, pool workerpool.WorkerPool, pub *events.Publisher, metrics *Metrics) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	svcConfig := cfg.ASRServiceConfig()

	general, err := asr.Backends.Create("whisper", svcConfig)
	if err != nil {
		return nil, fmt.Errorf("create general ASR engine: %w", err)
	}
	indic, err := asr.Backends.Create("indic", svcConfig)
	if err != nil {
		slog.WarnContext(ctx, "pipeline: indic engine unavailable", slog.String("error", err.Error()))
		indic = nil
	}
	english, err := asr.Backends.Create("whisper-english", svcConfig)
	if err != nil {
		slog.WarnContext(ctx, "pipeline: english engine unavailable", slog.String("error", err.Error()))
		english = nil
	}

	return NewFromEngines(cfg, index, lexLoader, pool, pub, metrics, general, indic, english), nil
}

// NewFromEngines constructs an orchestrator with pre-built engines (for
// testing and custom wiring).
func NewFromEngines(cfg *config.PipelineConfig, index *scripture.Index, lexLoader *lexicon.Loader, pool workerpool.WorkerPool, pub *events.Publisher, metrics *Metrics, general, indic, english asr.Engine) *Orchestrator {
	if lexLoader == nil {
		lexLoader = lexicon.NewLoader("")
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Orchestrator{
		cfg:       cfg,
		index:     index,
		lexLoader: lexLoader,
		pool:      pool,
		pub:       pub,
		metrics:   metrics,
		engines:   newEngineSet(general, indic, english),
	}
}

// SetClassifier injects the optional quick-pass language classifier used by
// the router.
func (o *Orchestrator) SetClassifier(c router.Classifier) { o.classifier = c }

// Close releases the ASR engines.
func (o *Orchestrator) Close() {
	o.engines.close()
}

// jobPipeline bundles the per-job stage instances. Routers carry per-job
// prior state, so each job gets its own.
type jobPipeline struct {
	orch      *Orchestrator
	jobID     string
	router    *router.Router
	converter *script.Converter
	detector  *quote.Detector
	matcher   *quote.Matcher
	fusionCfg fusion.Config
	replacer  quote.ReplacerConfig
	lex       *lexicon.Lexicon

	mu      sync.Mutex
	metrics transcript.Metrics
}

func (o *Orchestrator) newJobPipeline(jobID string, opts Options) (*jobPipeline, error) {
	mode := o.cfg.DomainMode
	if opts.DomainMode != "" {
		mode = opts.DomainMode
	}
	lex := o.lexLoader.Get(mode)

	scriptCfg := o.cfg.Script()
	if opts.Scheme != "" {
		scriptCfg.Scheme = opts.Scheme
	}
	converter, err := script.NewConverter(scriptCfg, lex)
	if err != nil {
		return nil, err
	}

	return &jobPipeline{
		orch:      o,
		jobID:     jobID,
		router:    router.New(o.cfg.Router(), o.classifier, lex),
		converter: converter,
		detector:  quote.NewDetector(o.cfg.QuoteDetector(), lex),
		matcher:   quote.NewMatcher(o.index, lex, o.cfg.QuoteMatcher(), nil),
		fusionCfg: o.cfg.Fusion(),
		replacer:  o.cfg.QuoteReplacer(),
		lex:       lex,
	}, nil
}

// TranscribeFile runs the batch pipeline over one audio file. Chunks are
// processed in parallel across the worker pool; segments are released
// strictly in chunk order.
func (o *Orchestrator) TranscribeFile(ctx context.Context, path string, opts Options) (*transcript.Result, error) {
	jobID := xid.New().String()
	started := time.Now()
	slog.InfoContext(ctx, "pipeline: batch job started",
		slog.String("job_id", jobID),
		slog.String("path", path),
	)
	o.emit(ctx, events.JobStarted, jobID, events.JobStartedData{Mode: string(audio.ModeBatch), SourcePath: path})

	pcm, err := audio.DecodeFile(ctx, path)
	if err != nil {
		o.emit(ctx, events.JobFailed, jobID, events.JobFailedData{Reason: err.Error()})
		return nil, err
	}

	denoise := o.cfg.Denoise()
	if opts.Denoise != nil {
		denoise.Enabled = *opts.Denoise
	}
	if denoise.Enabled && len(pcm) > 0 {
		denoiser := audio.NewDenoiser(ctx, denoise)
		cleaned, derr := denoiser.Denoise(ctx, pcm)
		if derr != nil {
			slog.WarnContext(ctx, "pipeline: denoise failed, using raw audio",
				slog.String("backend", denoiser.Name()),
				slog.String("error", derr.Error()),
			)
		} else {
			pcm = cleaned
		}
	}

	job, err := o.newJobPipeline(jobID, opts)
	if err != nil {
		return nil, err
	}

	segments, err := o.runChunks(ctx, job, audio.ChunkAll(jobID, pcm, o.cfg.Chunker()))
	if err != nil {
		o.emit(ctx, events.JobFailed, jobID, events.JobFailedData{Reason: err.Error()})
		return nil, err
	}

	result := &transcript.Result{
		JobID:    jobID,
		Segments: segments,
		Metrics:  job.metrics,
		Source: transcript.SourceMetadata{
			Path:       path,
			Mode:       string(audio.ModeBatch),
			DomainMode: job.lex.Name(),
			Scheme:     job.converter.Scheme(),
			StartedAt:  started.UTC(),
			FinishedAt: time.Now().UTC(),
		},
	}
	result.Metrics.Chunks = len(segments)

	o.emit(ctx, events.JobCompleted, jobID, events.JobCompletedData{
		Segments:       len(segments),
		QuotesReplaced: result.Metrics.QuotesReplaced,
		DurationMs:     time.Since(started).Milliseconds(),
	})
	slog.InfoContext(ctx, "pipeline: batch job completed",
		slog.String("job_id", jobID),
		slog.Int("segments", len(segments)),
		slog.Int("quotes_replaced", result.Metrics.QuotesReplaced),
	)
	return result, nil
}

// runChunks drains the chunk stream through the worker pool, buffering
// out-of-order completions and releasing segments by chunk index.
func (o *Orchestrator) runChunks(ctx context.Context, job *jobPipeline, stream *audio.Stream) ([]transcript.Segment, error) {
	workers := o.cfg.ChunkWorkers
	if workers <= 0 {
		workers = 1
	}

	type done struct {
		index   int
		segment transcript.Segment
	}
	results := make(chan done)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	collectCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			chunk, ok := stream.Next()
			if !ok {
				break
			}
			if collectCtx.Err() != nil {
				// Cancellation: in-flight chunks finish, the rest are dropped.
				break
			}
			// Routing uses the previous chunk's language as a prior, so it
			// stays on the feed goroutine in chunk order.
			route := job.router.Route(ctx, chunk)

			sem <- struct{}{}
			wg.Add(1)
			run := func(chunk audio.Chunk, route router.Route) func() {
				return func() {
					defer wg.Done()
					defer func() { <-sem }()
					seg := job.processChunk(ctx, chunk, route)
					select {
					case results <- done{index: chunk.Index, segment: seg}:
					case <-collectCtx.Done():
					}
				}
			}(chunk, route)
			if o.pool != nil {
				if err := o.pool.Submit(ctx, run); err != nil {
					run()
				}
			} else {
				go run()
			}
		}
		wg.Wait()
		close(results)
	}()

	var segments []transcript.Segment
	pending := make(map[int]transcript.Segment)
	next := 0
	for d := range results {
		pending[d.index] = d.segment
		for {
			seg, ok := pending[next]
			if !ok {
				break
			}
			segments = append(segments, seg)
			delete(pending, next)
			next++
		}
	}
	if err := ctx.Err(); err != nil {
		return segments, err
	}
	return segments, nil
}

// processChunk drives one chunk through ASR, fusion, conversion, and the
// quote engine. Per-chunk faults degrade into the segment; they never abort
// the job.
func (j *jobPipeline) processChunk(ctx context.Context, chunk audio.Chunk, route router.Route) transcript.Segment {
	return j.processChunkStages(ctx, chunk, route, nil)
}

// processChunkStages is processChunk with a hook between conversion and the
// quote engine; live sessions use it to emit the draft segment.
func (j *jobPipeline) processChunkStages(ctx context.Context, chunk audio.Chunk, route router.Route, onDraft func(transcript.Segment)) transcript.Segment {
	o := j.orch
	seg := transcript.Segment{
		ID:          xid.New().String(),
		ChunkIndex:  chunk.Index,
		Start:       chunk.StartSec,
		End:         chunk.EndSec,
		Kind:        transcript.KindSpeech,
		Route:       string(route.Kind),
		RouteReason: route.Reason,
	}

	// ASR fan-out.
	asrStart := time.Now()
	opts := asr.Options{LanguageHint: route.LanguageCode()}
	hypotheses := o.engines.fanOut(ctx, chunk, route, opts, o.cfg.ASRParallelWorkers, o.cfg.ASRTimeoutFactor)
	j.observe("asr", asrStart, &j.metrics.StageLatency.ASRMs)

	for _, h := range hypotheses {
		seg.Hypotheses = append(seg.Hypotheses, transcript.EngineHypothesis{
			EngineID:   h.EngineID,
			Text:       h.Text,
			Confidence: h.Confidence,
		})
		if h.EngineError != "" {
			seg.Errors = append(seg.Errors, h.EngineError)
		}
	}

	// Fusion with re-decode policy.
	fusionStart := time.Now()
	fused, err := fusion.Fuse(hypotheses, chunk.Index, route.LanguageCode(), j.fusionCfg)
	if err != nil {
		// Zero hypotheses: emit an empty reviewable segment.
		seg.NeedsReview = true
		seg.Errors = append(seg.Errors, err.Error())
		j.observe("fusion", fusionStart, &j.metrics.StageLatency.FusionMs)
		j.count(route)
		return seg
	}
	for fused.NeedsRedecode {
		redecoded := j.redecode(ctx, chunk, fused, opts)
		if redecoded == nil {
			break
		}
		fused = fusion.Merge(fused, *redecoded, chunk.Index, route.LanguageCode(), j.fusionCfg)
		j.addRedecode()
	}
	if fused.RedecodeAttempts > 0 {
		// Re-decode passes join the audit trail.
		seg.Hypotheses = seg.Hypotheses[:0]
		for _, h := range fused.Hypotheses {
			seg.Hypotheses = append(seg.Hypotheses, transcript.EngineHypothesis{
				EngineID:   h.EngineID,
				Text:       h.Text,
				Confidence: h.Confidence,
			})
		}
	}
	j.observe("fusion", fusionStart, &j.metrics.StageLatency.FusionMs)

	seg.SpokenText = fused.FusedText
	seg.ASRConfidence = fused.FusedConfidence
	seg.Language = fused.FusedLanguage
	if seg.Language == "" {
		seg.Language = route.LanguageCode()
	}
	if fused.NeedsReview {
		seg.NeedsReview = true
	}
	if len(hypotheses) == 0 || fused.FusedText == "" {
		seg.NeedsReview = true
	}

	// Script conversion.
	convStart := time.Now()
	converted := j.converter.Convert(ctx, fused.FusedText)
	j.observe("conversion", convStart, &j.metrics.StageLatency.ConversionMs)
	seg.Gurmukhi = converted.Gurmukhi
	seg.Roman = converted.Roman
	seg.ScriptConfidence = converted.ConversionConfidence
	if converted.NeedsReview {
		seg.NeedsReview = true
	}

	if onDraft != nil {
		onDraft(seg)
	}

	// Quote engine: candidates over the fused Gurmukhi plus each engine's
	// hypothesis converted to Gurmukhi.
	quoteStart := time.Now()
	variants := []string{converted.Gurmukhi}
	for _, h := range hypotheses {
		if h.Text == "" {
			continue
		}
		hv := j.converter.Convert(ctx, h.Text)
		if hv.Gurmukhi != "" {
			variants = append(variants, hv.Gurmukhi)
		}
	}
	candidates := j.detector.Detect(route.Kind, variants)
	if len(candidates) > 0 {
		j.applyQuote(ctx, &seg, candidates, variants)
	}
	j.observe("quote", quoteStart, &j.metrics.StageLatency.QuoteMs)

	if seg.NeedsReview {
		j.mu.Lock()
		j.metrics.NeedsReview++
		j.mu.Unlock()
	}
	j.count(route)
	return seg
}

// redecode reruns engine A with a wider beam, switching the language hint
// when the original language looked ambiguous.
func (j *jobPipeline) redecode(ctx context.Context, chunk audio.Chunk, prior fusion.Result, opts asr.Options) *asr.Hypothesis {
	o := j.orch
	if o.engines.general == nil {
		return nil
	}
	retryOpts := asr.Options{
		LanguageHint: opts.LanguageHint,
		BeamSize:     10,
		Prompt:       opts.Prompt,
	}
	if fusion.AmbiguousLanguage(prior.Hypotheses) {
		// The hint itself may be the problem; let the engine auto-detect.
		retryOpts.LanguageHint = ""
	}
	hyp := o.engines.general.transcribe(ctx, chunk, retryOpts, o.cfg.ASRTimeoutFactor)
	if hyp.EngineError != "" {
		return nil
	}
	return &hyp
}

// applyQuote runs the matcher and the replacement decision table over a
// segment draft.
func (j *jobPipeline) applyQuote(ctx context.Context, seg *transcript.Segment, candidates []quote.Candidate, variants []string) {
	j.addQuoteDetected()
	for _, c := range candidates {
		seg.QuoteReasons = append(seg.QuoteReasons, c.Reasons...)
	}

	match, err := j.matcher.Match(ctx, candidates, variants)
	if err != nil {
		// Matcher failure demotes to plain speech; the job continues.
		seg.NeedsReview = true
		seg.Errors = append(seg.Errors, err.Error())
		slog.WarnContext(ctx, "quote: matcher failed, keeping spoken text",
			slog.Int("chunk_index", seg.ChunkIndex),
			slog.String("error", err.Error()),
		)
		return
	}
	if match == nil {
		return
	}

	qm := &transcript.QuoteMatch{
		Source:          string(match.Line.Source),
		LineID:          match.Line.ID,
		Ang:             match.Line.Ang,
		Raag:            match.Line.Raag,
		Author:          match.Line.Author,
		MatchConfidence: match.MatchConfidence,
	}

	switch quote.Decide(match, j.replacer) {
	case quote.DecisionReplace:
		seg.Kind = transcript.KindScripture
		seg.Gurmukhi = match.Line.Gurmukhi
		if match.Line.Roman != "" {
			seg.Roman = match.Line.Roman
		} else {
			seg.Roman = j.converter.Convert(ctx, match.Line.Gurmukhi).Roman
		}
		seg.QuoteMatch = qm
		seg.NeedsReview = false
		j.addQuoteReplaced()
	case quote.DecisionSuggest:
		seg.QuoteMatch = qm
		seg.NeedsReview = true
		j.addQuoteSuggested()
	}
}

func (o *Orchestrator) emit(ctx context.Context, t events.EventType, jobID string, data interface{}) {
	if o.pub == nil {
		return
	}
	if err := o.pub.Emit(ctx, t, jobID, data); err != nil {
		slog.WarnContext(ctx, "pipeline: event emit failed",
			slog.String("event_type", string(t)),
			slog.String("error", err.Error()),
		)
	}
}

func (j *jobPipeline) observe(stage string, since time.Time, total *int64) {
	elapsed := time.Since(since)
	j.orch.metrics.StageLatency.WithLabelValues(stage).Observe(elapsed.Seconds())
	j.mu.Lock()
	*total += elapsed.Milliseconds()
	j.mu.Unlock()
}

func (j *jobPipeline) count(route router.Route) {
	j.orch.metrics.ChunksProcessed.WithLabelValues(string(route.Kind)).Inc()
}

func (j *jobPipeline) addQuoteDetected() {
	j.orch.metrics.QuotesDetected.Inc()
	j.mu.Lock()
	j.metrics.QuotesDetected++
	j.mu.Unlock()
}

func (j *jobPipeline) addQuoteReplaced() {
	j.orch.metrics.QuotesReplaced.Inc()
	j.mu.Lock()
	j.metrics.QuotesReplaced++
	j.mu.Unlock()
}

func (j *jobPipeline) addQuoteSuggested() {
	j.orch.metrics.QuotesSuggested.Inc()
	j.mu.Lock()
	j.metrics.QuotesSuggested++
	j.mu.Unlock()
}

func (j *jobPipeline) addRedecode() {
	j.orch.metrics.Redecodes.Inc()
	j.mu.Lock()
	j.metrics.Redecodes++
	j.mu.Unlock()
}
