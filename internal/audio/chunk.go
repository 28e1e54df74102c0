package audio

import "fmt"

// SampleRate is the pipeline-wide PCM sample rate. All audio entering the
// chunker is mono 16 kHz signed 16-bit little-endian.
const SampleRate = 16000

// BytesPerSample for PCM16 mono.
const BytesPerSample = 2

// SourceMode distinguishes batch file processing from live streaming.
type SourceMode string

const (
	ModeBatch SourceMode = "batch"
	ModeLive  SourceMode = "live"
)

// Chunk is a bounded window of PCM audio belonging to a job. Chunks are
// created by the chunker and never mutated downstream.
type Chunk struct {
	JobID      string
	Index      int
	StartSec   float64
	EndSec     float64
	Samples    []byte // PCM16 mono little-endian
	SourceMode SourceMode
}

// Duration returns the chunk length in seconds.
func (c Chunk) Duration() float64 { return c.EndSec - c.StartSec }

// DecodeError reports input bytes that could not be decoded to PCM. It is
// fatal for the job that submitted the audio.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("decode audio %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("decode audio: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func bytesToSec(n int) float64 {
	return float64(n) / float64(SampleRate*BytesPerSample)
}

func secToBytes(sec float64) int {
	n := int(sec * float64(SampleRate) * BytesPerSample)
	// Keep sample alignment.
	return n - n%BytesPerSample
}
