package audio

import "testing"

func collect(s *Stream) []Chunk {
	var out []Chunk
	for {
		c, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}

func testChunkerConfig() ChunkerConfig {
	cfg := DefaultChunkerConfig()
	cfg.MinChunkSec = 0.5
	cfg.TargetChunkSec = 2.0
	cfg.MaxChunkSec = 5.0
	cfg.OverlapSec = 0.2
	return cfg
}

func TestChunkAllEmptyAudio(t *testing.T) {
	chunks := collect(ChunkAll("job", nil, testChunkerConfig()))
	if len(chunks) != 0 {
		t.Errorf("empty audio produced %d chunks, want 0", len(chunks))
	}
}

func TestChunkAllSilence(t *testing.T) {
	chunks := collect(ChunkAll("job", pcmSilence(10), testChunkerConfig()))
	if len(chunks) != 0 {
		t.Errorf("silent audio produced %d chunks, want 0", len(chunks))
	}
}

func TestChunkAllContinuousSpeech(t *testing.T) {
	chunks := collect(ChunkAll("job", pcmTone(8000, 7), testChunkerConfig()))
	if len(chunks) < 2 {
		t.Fatalf("7s of speech produced %d chunks, want several", len(chunks))
	}

	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d, want monotonically increasing", i, c.Index)
		}
		if c.EndSec <= c.StartSec {
			t.Errorf("chunk %d has end %.2f <= start %.2f", i, c.EndSec, c.StartSec)
		}
		if c.Duration() > testChunkerConfig().MaxChunkSec+0.1 {
			t.Errorf("chunk %d duration %.2f exceeds max", i, c.Duration())
		}
		if c.SourceMode != ModeBatch {
			t.Errorf("chunk %d mode = %q, want batch", i, c.SourceMode)
		}
	}

	// Consecutive chunks overlap at the boundary.
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartSec >= chunks[i-1].EndSec {
			t.Errorf("chunks %d and %d do not overlap (prev end %.2f, next start %.2f)",
				i-1, i, chunks[i-1].EndSec, chunks[i].StartSec)
		}
	}
}

func TestChunkAllBreaksAtSilence(t *testing.T) {
	var pcm []byte
	pcm = append(pcm, pcmTone(8000, 1.0)...)
	pcm = append(pcm, pcmSilence(1.5)...)
	pcm = append(pcm, pcmTone(8000, 1.0)...)

	chunks := collect(ChunkAll("job", pcm, testChunkerConfig()))
	if len(chunks) != 2 {
		t.Fatalf("speech-silence-speech produced %d chunks, want 2", len(chunks))
	}
	if chunks[1].StartSec < chunks[0].EndSec-0.5 {
		t.Errorf("second chunk starts at %.2f, inside the first (%.2f-%.2f)",
			chunks[1].StartSec, chunks[0].StartSec, chunks[0].EndSec)
	}
}

func TestLiveChunkerFlushesOnSilence(t *testing.T) {
	cfg := testChunkerConfig()
	cfg.LiveFlushMs = 600
	chunker := NewChunker("live-job", ModeLive, cfg)

	var chunks []Chunk
	chunks = append(chunks, chunker.Push(pcmTone(8000, 1.0))...)
	if len(chunks) != 0 {
		t.Fatalf("partial speech flushed early: %d chunks", len(chunks))
	}
	chunks = append(chunks, chunker.Push(pcmSilence(1.0))...)
	if len(chunks) != 1 {
		t.Fatalf("silence flush produced %d chunks, want 1", len(chunks))
	}
	if chunks[0].SourceMode != ModeLive {
		t.Errorf("mode = %q, want live", chunks[0].SourceMode)
	}
}

func TestChunkerFinishFlushesTail(t *testing.T) {
	chunker := NewChunker("job", ModeBatch, testChunkerConfig())
	if got := chunker.Push(pcmTone(8000, 1.0)); len(got) != 0 {
		t.Fatalf("unexpected early chunks: %d", len(got))
	}
	chunk, ok := chunker.Finish()
	if !ok {
		t.Fatal("Finish dropped the trailing speech")
	}
	if chunk.Duration() < 0.9 {
		t.Errorf("trailing chunk duration %.2f, want ~1.0", chunk.Duration())
	}
}

func TestWAVRoundTrip(t *testing.T) {
	pcm := pcmTone(5000, 0.25)
	decoded, err := decodeWAV(EncodeWAV(pcm))
	if err != nil {
		t.Fatalf("decodeWAV: %v", err)
	}
	if len(decoded) != len(pcm) {
		t.Fatalf("decoded %d bytes, want %d", len(decoded), len(pcm))
	}
	for i := range pcm {
		if decoded[i] != pcm[i] {
			t.Fatalf("byte %d differs", i)
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, err := decodeWAV([]byte("not a wav file at all, just text")); err == nil {
		t.Error("expected error for non-WAV bytes")
	}
}
