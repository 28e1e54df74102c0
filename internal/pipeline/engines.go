package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kathascribe/kathascribe/internal/asr"
	"github.com/kathascribe/kathascribe/internal/audio"
	"github.com/kathascribe/kathascribe/internal/router"
)

// engineSlot serializes access to one heavy engine instance. Engines of the
// same chunk run concurrently; the mutex only orders different chunks on the
// same engine.
type engineSlot struct {
	mu     sync.Mutex
	engine asr.Engine
}

// transcribe runs one engine over one chunk with the per-chunk timeout.
// Failures and timeouts degrade to an empty hypothesis with the reason
// attached; they never propagate.
func (s *engineSlot) transcribe(ctx context.Context, chunk audio.Chunk, opts asr.Options, timeoutFactor float64) asr.Hypothesis {
	if s == nil || s.engine == nil {
		return asr.Hypothesis{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	timeout := time.Duration(chunk.Duration() * timeoutFactor * float64(time.Second))
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hyp, err := s.engine.Transcribe(callCtx, chunk, opts)
	if err != nil {
		slog.WarnContext(ctx, "asr: engine failed, contributing empty hypothesis",
			slog.String("engine", s.engine.ID()),
			slog.Int("chunk_index", chunk.Index),
			slog.String("error", err.Error()),
		)
		return asr.ErrorHypothesis(s.engine.ID(), err)
	}
	return hyp
}

// engineSet holds the three logical engine roles.
type engineSet struct {
	general *engineSlot
	indic   *engineSlot
	english *engineSlot
}

func newEngineSet(general, indic, english asr.Engine) *engineSet {
	set := &engineSet{}
	if general != nil {
		set.general = &engineSlot{engine: general}
	}
	if indic != nil {
		set.indic = &engineSlot{engine: indic}
	}
	if english != nil {
		set.english = &engineSlot{engine: english}
	}
	return set
}

// fanOut runs engine A plus whichever of B and C the route warrants, in
// parallel, bounded by the ASR worker limit.
func (e *engineSet) fanOut(ctx context.Context, chunk audio.Chunk, route router.Route, opts asr.Options, parallel int, timeoutFactor float64) []asr.Hypothesis {
	runIndic, runEnglish := router.EngineRolesFor(route.Kind)

	slots := []*engineSlot{e.general}
	if runIndic && e.indic != nil {
		slots = append(slots, e.indic)
	}
	if runEnglish && e.english != nil {
		slots = append(slots, e.english)
	}

	if parallel <= 0 {
		parallel = 2
	}
	sem := make(chan struct{}, parallel)
	results := make([]asr.Hypothesis, len(slots))
	var wg sync.WaitGroup
	for i, slot := range slots {
		if slot == nil {
			continue
		}
		wg.Add(1)
		go func(i int, slot *engineSlot) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = slot.transcribe(ctx, chunk, opts, timeoutFactor)
		}(i, slot)
	}
	wg.Wait()

	out := make([]asr.Hypothesis, 0, len(results))
	for _, h := range results {
		if h.EngineID != "" || h.EngineError != "" {
			out = append(out, h)
		}
	}
	return out
}

// close releases every engine.
func (e *engineSet) close() {
	for _, slot := range []*engineSlot{e.general, e.indic, e.english} {
		if slot != nil && slot.engine != nil {
			slot.engine.Close()
		}
	}
}
