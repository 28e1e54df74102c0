package audio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// DenoiseStrength selects how hard the filter suppresses noise.
type DenoiseStrength string

const (
	DenoiseLight      DenoiseStrength = "light"
	DenoiseMedium     DenoiseStrength = "medium"
	DenoiseAggressive DenoiseStrength = "aggressive"
)

// DenoiseConfig toggles and tunes the pre-transcription noise filter.
type DenoiseConfig struct {
	Enabled  bool
	Backend  string // spectral | learned1 | learned2
	Strength DenoiseStrength
}

// Denoiser removes background noise from PCM16 audio. The filtering itself is
// an external concern; implementations wrap external tools.
type Denoiser interface {
	Denoise(ctx context.Context, pcm []byte) ([]byte, error)
	Name() string
}

// NewDenoiser constructs the configured backend. Unknown backends fall back
// to the spectral filter with a warning rather than failing the job.
func NewDenoiser(ctx context.Context, cfg DenoiseConfig) Denoiser {
	switch cfg.Backend {
	case "", "spectral":
		return &spectralDenoiser{strength: cfg.Strength}
	case "learned1":
		return &execDenoiser{name: "learned1", binary: "deepfilter-stream", strength: cfg.Strength}
	case "learned2":
		return &execDenoiser{name: "learned2", binary: "denoiser-dns64", strength: cfg.Strength}
	default:
		slog.WarnContext(ctx, "denoise: unknown backend, using spectral",
			slog.String("backend", cfg.Backend))
		return &spectralDenoiser{strength: cfg.Strength}
	}
}

// spectralDenoiser applies ffmpeg's FFT denoise filter over raw PCM.
type spectralDenoiser struct {
	strength DenoiseStrength
}

func (d *spectralDenoiser) Name() string { return "spectral" }

func (d *spectralDenoiser) Denoise(ctx context.Context, pcm []byte) ([]byte, error) {
	// Noise floor offset in dB per strength.
	nf := "-25"
	switch d.strength {
	case DenoiseLight:
		nf = "-30"
	case DenoiseAggressive:
		nf = "-20"
	}
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-f", "s16le", "-ar", fmt.Sprintf("%d", SampleRate), "-ac", "1",
		"-i", "-",
		"-af", "afftdn=nf="+nf,
		"-f", "s16le",
		"-",
	)
	cmd.Stdin = bytes.NewReader(pcm)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("spectral denoise: %w: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// execDenoiser pipes PCM through an external learned-model binary that reads
// raw s16le on stdin and writes it on stdout.
type execDenoiser struct {
	name     string
	binary   string
	strength DenoiseStrength
}

func (d *execDenoiser) Name() string { return d.name }

func (d *execDenoiser) Denoise(ctx context.Context, pcm []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, d.binary,
		"--rate", fmt.Sprintf("%d", SampleRate),
		"--strength", string(d.strength),
	)
	cmd.Stdin = bytes.NewReader(pcm)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s denoise: %w: %s", d.name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}
