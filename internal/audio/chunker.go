package audio

import "github.com/rs/xid"

// ChunkerConfig controls how continuous audio is split into ASR-sized chunks.
type ChunkerConfig struct {
	MinChunkSec    float64
	MaxChunkSec    float64
	TargetChunkSec float64
	OverlapSec     float64
	GapCloseMs     int
	LiveFlushMs    int
	VAD            VADConfig
}

// DefaultChunkerConfig returns the standard chunking parameters.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MinChunkSec:    1.0,
		MaxChunkSec:    30.0,
		TargetChunkSec: 12.0,
		OverlapSec:     0.5,
		GapCloseMs:     700,
		LiveFlushMs:    1500,
		VAD:            DefaultVADConfig(),
	}
}

// Chunker splits PCM audio into chunks at non-speech boundaries where
// possible. A single Chunker instance serves one job; it is not safe for
// concurrent use.
type Chunker struct {
	cfg   ChunkerConfig
	vad   *VAD
	jobID string
	mode  SourceMode

	// frame assembly for live mode, where pushes need not be frame-aligned
	pending []byte

	// current segment state
	buf        []byte
	bufStart   float64 // absolute time of buf[0]
	inSegment  bool
	speechSec  float64
	silenceMs  int
	clockSec   float64 // absolute time of the next frame to classify
	chunkIndex int

	// overlap carried from the tail of the previously emitted chunk
	carry      []byte
	carryStart float64
}

// NewChunker creates a chunker for one job.
func NewChunker(jobID string, mode SourceMode, cfg ChunkerConfig) *Chunker {
	if jobID == "" {
		jobID = xid.New().String()
	}
	return &Chunker{
		cfg:   cfg,
		vad:   NewVAD(cfg.VAD),
		jobID: jobID,
		mode:  mode,
	}
}

// ChunkAll consumes a whole PCM16 buffer and returns a lazy, non-restartable
// stream of chunks. Empty audio yields a stream that is immediately done.
func ChunkAll(jobID string, pcm []byte, cfg ChunkerConfig) *Stream {
	return &Stream{
		chunker: NewChunker(jobID, ModeBatch, cfg),
		pcm:     pcm,
	}
}

// Stream is a lazy batch chunk sequence. It is finite and cannot be restarted.
type Stream struct {
	chunker *Chunker
	pcm     []byte
	pos     int
	queue   []Chunk
	done    bool
}

// Next returns the next chunk, advancing through the audio only as far as
// needed. The second return is false once the stream is exhausted.
func (s *Stream) Next() (Chunk, bool) {
	for len(s.queue) == 0 && !s.done {
		if s.pos >= len(s.pcm) {
			if c, ok := s.chunker.Finish(); ok {
				s.queue = append(s.queue, c)
			}
			s.done = true
			break
		}
		frameBytes := s.chunker.vad.FrameBytes()
		end := s.pos + frameBytes
		if end > len(s.pcm) {
			end = len(s.pcm)
		}
		s.queue = append(s.queue, s.chunker.Push(s.pcm[s.pos:end])...)
		s.pos = end
	}
	if len(s.queue) == 0 {
		return Chunk{}, false
	}
	c := s.queue[0]
	s.queue = s.queue[1:]
	return c, true
}

// Push feeds PCM bytes into the chunker and returns any chunks completed by
// this input. Pushes need not be frame-aligned. In live mode a partial chunk
// is flushed after LiveFlushMs of silence.
func (c *Chunker) Push(pcm []byte) []Chunk {
	c.pending = append(c.pending, pcm...)
	frameBytes := c.vad.FrameBytes()

	var out []Chunk
	for len(c.pending) >= frameBytes {
		frame := c.pending[:frameBytes]
		c.pending = c.pending[frameBytes:]
		if chunk, ok := c.feedFrame(frame); ok {
			out = append(out, chunk)
		}
	}
	return out
}

// Finish flushes the remaining partial segment, if any. Used at end of input
// in batch mode and on session close in live mode.
func (c *Chunker) Finish() (Chunk, bool) {
	// A leftover partial frame is too short for VAD; it joins the open
	// segment, if any, and otherwise only advances the clock.
	if len(c.pending) > 0 {
		if c.inSegment {
			c.buf = append(c.buf, c.pending...)
		}
		c.clockSec += bytesToSec(len(c.pending))
		c.pending = nil
	}
	return c.finish()
}

func (c *Chunker) feedFrame(frame []byte) (Chunk, bool) {
	frameSec := bytesToSec(len(frame))
	frameMs := c.cfg.VAD.FrameSizeMs
	speech := c.vad.IsSpeech(frame)
	start := c.clockSec
	c.clockSec += frameSec

	if !c.inSegment {
		if !speech {
			// Leading silence: drop any stale overlap carry once the gap
			// exceeds the close threshold, so chunks do not bridge long
			// pauses.
			c.silenceMs += frameMs
			if c.silenceMs >= c.cfg.GapCloseMs {
				c.carry = nil
			}
			return Chunk{}, false
		}
		c.openSegment(start)
		c.buf = append(c.buf, frame...)
		c.speechSec = frameSec
		c.silenceMs = 0
		return Chunk{}, false
	}

	c.buf = append(c.buf, frame...)
	if speech {
		c.speechSec += frameSec
		c.silenceMs = 0
	} else {
		c.silenceMs += frameMs
	}

	bufSec := bytesToSec(len(c.buf))
	atBoundary := c.silenceMs >= c.cfg.GapCloseMs
	liveFlush := c.mode == ModeLive && c.cfg.LiveFlushMs > 0 && c.silenceMs >= c.cfg.LiveFlushMs

	switch {
	case bufSec >= c.cfg.MaxChunkSec:
		return c.emit(), true
	case atBoundary && bufSec >= c.cfg.MinChunkSec:
		return c.emit(), true
	case c.speechSec >= c.cfg.TargetChunkSec:
		return c.emit(), true
	case atBoundary || liveFlush:
		// Gap reached before the buffer holds the minimum: too short to be
		// worth an ASR pass on its own. The segment stays open, so further
		// silence or speech keeps accumulating, and it is emitted once the
		// buffer reaches the minimum (or the maximum length).
		if liveFlush && bufSec >= c.cfg.MinChunkSec {
			return c.emit(), true
		}
		return Chunk{}, false
	}
	return Chunk{}, false
}

func (c *Chunker) openSegment(start float64) {
	c.inSegment = true
	if len(c.carry) > 0 {
		c.buf = append([]byte(nil), c.carry...)
		c.bufStart = c.carryStart
	} else {
		c.buf = nil
		c.bufStart = start
	}
	c.carry = nil
}

func (c *Chunker) emit() Chunk {
	chunk := Chunk{
		JobID:      c.jobID,
		Index:      c.chunkIndex,
		StartSec:   c.bufStart,
		EndSec:     c.bufStart + bytesToSec(len(c.buf)),
		Samples:    c.buf,
		SourceMode: c.mode,
	}
	c.chunkIndex++

	// Keep the tail as the head of the next chunk for boundary recognition.
	if c.cfg.OverlapSec > 0 {
		tail := secToBytes(c.cfg.OverlapSec)
		if tail > len(c.buf) {
			tail = len(c.buf)
		}
		c.carry = append([]byte(nil), c.buf[len(c.buf)-tail:]...)
		c.carryStart = chunk.EndSec - bytesToSec(tail)
	}

	c.buf = nil
	c.inSegment = false
	c.speechSec = 0
	c.silenceMs = 0
	return chunk
}

func (c *Chunker) finish() (Chunk, bool) {
	if !c.inSegment || len(c.buf) == 0 {
		return Chunk{}, false
	}
	if bytesToSec(len(c.buf)) < c.cfg.MinChunkSec && c.speechSec == 0 {
		c.buf = nil
		c.inSegment = false
		return Chunk{}, false
	}
	return c.emit(), true
}
