package audio

import (
	"encoding/binary"
	"math"
)

// VADConfig holds voice activity detection parameters.
type VADConfig struct {
	Aggressiveness int // 0-3, higher rejects more borderline frames as non-speech
	FrameSizeMs    int // 10, 20, or 30
	SampleRate     int
}

// DefaultVADConfig returns sensible defaults for 16kHz audio.
func DefaultVADConfig() VADConfig {
	return VADConfig{
		Aggressiveness: 2,
		FrameSizeMs:    30,
		SampleRate:     SampleRate,
	}
}

// energy thresholds per aggressiveness level. A higher level needs more RMS
// energy before a frame counts as speech.
var aggressivenessThresholds = [4]float64{180, 300, 500, 800}

// VAD classifies short PCM16 frames as speech or non-speech using RMS energy
// scaled by the configured aggressiveness.
type VAD struct {
	config    VADConfig
	threshold float64
}

// NewVAD creates a voice activity detector.
func NewVAD(cfg VADConfig) *VAD {
	level := cfg.Aggressiveness
	if level < 0 {
		level = 0
	}
	if level > 3 {
		level = 3
	}
	return &VAD{
		config:    cfg,
		threshold: aggressivenessThresholds[level],
	}
}

// FrameBytes returns the byte length of one analysis frame.
func (v *VAD) FrameBytes() int {
	return v.config.SampleRate * v.config.FrameSizeMs / 1000 * BytesPerSample
}

// IsSpeech reports whether a frame of 16-bit PCM contains speech.
func (v *VAD) IsSpeech(pcm []byte) bool {
	return rmsEnergy(pcm) >= v.threshold
}

// rmsEnergy computes the root-mean-square energy of 16-bit signed PCM audio.
func rmsEnergy(pcm []byte) float64 {
	if len(pcm) < BytesPerSample {
		return 0
	}

	numSamples := len(pcm) / BytesPerSample
	var sumSquares float64

	for i := 0; i < numSamples; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		sumSquares += float64(sample) * float64(sample)
	}

	return math.Sqrt(sumSquares / float64(numSamples))
}
