package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DecodeFile decodes any supported audio file to mono 16 kHz PCM16. WAV files
// already in the pipeline format are parsed natively; everything else goes
// through ffmpeg.
func DecodeFile(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if len(data) == 0 {
		return nil, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		pcm, err := decodeWAV(data)
		if err == nil {
			return pcm, nil
		}
		slog.DebugContext(ctx, "audio: native wav parse failed, falling back to ffmpeg",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
	return ffmpegDecode(ctx, path)
}

// ffmpegDecode shells out to ffmpeg to produce raw mono 16 kHz PCM16.
func ffmpegDecode(ctx context.Context, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-i", path,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-f", "s16le",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("ffmpeg: %w: %s", err, stderr.String())}
	}
	return stdout.Bytes(), nil
}

// decodeWAV parses a canonical RIFF/WAVE file containing 16-bit mono 16 kHz
// PCM. Anything else is rejected so the ffmpeg path can handle it.
func decodeWAV(data []byte) ([]byte, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	pos := 12
	var fmtFound bool
	var audioFormat, channels uint16
	var rate uint32
	var bits uint16
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			return nil, fmt.Errorf("truncated %q chunk", chunkID)
		}
		switch chunkID {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt chunk too small")
			}
			audioFormat = binary.LittleEndian.Uint16(data[body : body+2])
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			rate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bits = binary.LittleEndian.Uint16(data[body+14 : body+16])
			fmtFound = true
		case "data":
			if !fmtFound {
				return nil, fmt.Errorf("data chunk before fmt")
			}
			if audioFormat != 1 || channels != 1 || rate != SampleRate || bits != 16 {
				return nil, fmt.Errorf("unsupported wav format (format=%d channels=%d rate=%d bits=%d)",
					audioFormat, channels, rate, bits)
			}
			return data[body : body+size], nil
		}
		pos = body + size
		if size%2 == 1 {
			pos++ // chunk padding
		}
	}
	return nil, fmt.Errorf("no data chunk")
}
