package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rs/xid"

	"github.com/kathascribe/kathascribe/internal/audio"
	"github.com/kathascribe/kathascribe/pkg/events"
	"github.com/kathascribe/kathascribe/pkg/transcript"
)

// Callbacks receive live session output. OnDraft fires immediately after
// script conversion with needs_review tentatively set; OnVerified fires once
// the quote engine resolves and is an authoritative replacement for the
// draft carrying the same segment id.
type Callbacks struct {
	OnDraft    func(transcript.Segment)
	OnVerified func(transcript.Segment)
	OnLoss     func(events.ChunkDroppedData)
}

// LiveSession is a handle to one live transcription stream. Submit feeds PCM
// audio; Close flushes the trailing partial chunk and stops the worker.
type LiveSession struct {
	orch      *Orchestrator
	job       *jobPipeline
	jobID     string
	callbacks Callbacks
	chunker   *audio.Chunker
	denoiser  audio.Denoiser

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queue  []audio.Chunk
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// StartLiveSession opens a live transcription session. Chunks are processed
// strictly in order, so drafts and verified events never overtake each other
// across chunk indexes.
func (o *Orchestrator) StartLiveSession(ctx context.Context, opts Options, callbacks Callbacks) (*LiveSession, error) {
	jobID := xid.New().String()
	job, err := o.newJobPipeline(jobID, opts)
	if err != nil {
		return nil, err
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	s := &LiveSession{
		orch:      o,
		job:       job,
		jobID:     jobID,
		callbacks: callbacks,
		chunker:   audio.NewChunker(jobID, audio.ModeLive, o.cfg.Chunker()),
		ctx:       sessionCtx,
		cancel:    cancel,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	denoise := o.cfg.Denoise()
	if opts.Denoise != nil {
		denoise.Enabled = *opts.Denoise
	}
	if denoise.Enabled {
		s.denoiser = audio.NewDenoiser(ctx, denoise)
	}

	go s.run()

	o.emit(ctx, events.JobStarted, jobID, events.JobStartedData{Mode: string(audio.ModeLive)})
	slog.InfoContext(ctx, "pipeline: live session started", slog.String("job_id", jobID))
	return s, nil
}

// JobID returns the session's job identifier.
func (s *LiveSession) JobID() string { return s.jobID }

// Submit feeds PCM16 frames into the session. Completed chunks enter the
// processing queue; beyond the configured depth the oldest unstarted chunk
// is dropped with a loss event. A chunk already being transcribed is never
// dropped.
func (s *LiveSession) Submit(pcm []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("live session %s is closed", s.jobID)
	}
	s.mu.Unlock()

	if s.denoiser != nil {
		cleaned, err := s.denoiser.Denoise(s.ctx, pcm)
		if err == nil {
			pcm = cleaned
		}
	}

	for _, chunk := range s.chunker.Push(pcm) {
		s.enqueue(chunk)
	}
	return nil
}

// Close flushes the trailing partial chunk, waits for queued chunks to
// finish, and releases the session.
func (s *LiveSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if chunk, ok := s.chunker.Finish(); ok {
		s.enqueue(chunk)
	}
	s.wakeWorker()
	<-s.done
	s.cancel()
	s.orch.emit(context.Background(), events.JobCompleted, s.jobID, events.JobCompletedData{
		Segments:       s.job.metrics.Chunks,
		QuotesReplaced: s.job.metrics.QuotesReplaced,
	})
	slog.Info("pipeline: live session closed", slog.String("job_id", s.jobID))
}

func (s *LiveSession) enqueue(chunk audio.Chunk) {
	depth := s.orch.cfg.LiveQueueDepth
	s.mu.Lock()
	if depth > 0 && len(s.queue) >= depth {
		dropped := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.orch.metrics.ChunksDropped.Inc()
		loss := events.ChunkDroppedData{
			ChunkIndex: dropped.Index,
			StartSec:   dropped.StartSec,
			EndSec:     dropped.EndSec,
			QueueDepth: depth,
		}
		s.orch.emit(s.ctx, events.ChunkDropped, s.jobID, loss)
		if s.callbacks.OnLoss != nil {
			s.callbacks.OnLoss(loss)
		}
		slog.Warn("pipeline: live chunk dropped by backpressure",
			slog.String("job_id", s.jobID),
			slog.Int("chunk_index", dropped.Index),
		)
		s.mu.Lock()
	}
	s.queue = append(s.queue, chunk)
	s.mu.Unlock()
	s.wakeWorker()
}

func (s *LiveSession) wakeWorker() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run is the single processing worker. Sequential processing preserves the
// ordering guarantee: for each chunk index the draft precedes the verified
// event, and indexes never overtake.
func (s *LiveSession) run() {
	defer close(s.done)
	for {
		chunk, ok := s.dequeue()
		if !ok {
			s.mu.Lock()
			closed := s.closed && len(s.queue) == 0
			s.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-s.ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}
		s.processLiveChunk(chunk)
	}
}

func (s *LiveSession) dequeue() (audio.Chunk, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return audio.Chunk{}, false
	}
	chunk := s.queue[0]
	s.queue = s.queue[1:]
	return chunk, true
}

// processLiveChunk emits a draft right after conversion, then the verified
// segment after quote resolution. Both carry the same segment id and bounds.
func (s *LiveSession) processLiveChunk(chunk audio.Chunk) {
	route := s.job.router.Route(s.ctx, chunk)
	seg := s.job.processChunkStages(s.ctx, chunk, route, func(draft transcript.Segment) {
		draft.NeedsReview = true
		s.orch.emit(s.ctx, events.TranscriptDraft, s.jobID, events.SegmentData{Segment: draft})
		if s.callbacks.OnDraft != nil {
			s.callbacks.OnDraft(draft)
		}
	})

	s.job.mu.Lock()
	s.job.metrics.Chunks++
	s.job.mu.Unlock()

	s.orch.emit(s.ctx, events.TranscriptVerified, s.jobID, events.SegmentData{Segment: seg})
	if s.callbacks.OnVerified != nil {
		s.callbacks.OnVerified(seg)
	}
}
