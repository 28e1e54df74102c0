package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kathascribe/kathascribe/internal/asr"
	"github.com/kathascribe/kathascribe/internal/audio"
	"github.com/kathascribe/kathascribe/pkg/events"
	"github.com/kathascribe/kathascribe/pkg/transcript"
)

type liveRecorder struct {
	mu       sync.Mutex
	drafts   []transcript.Segment
	verified []transcript.Segment
	losses   []events.ChunkDroppedData
	order    []string // "draft:<id>" / "verified:<id>" in arrival order
}

func (r *liveRecorder) callbacks() Callbacks {
	return Callbacks{
		OnDraft: func(s transcript.Segment) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.drafts = append(r.drafts, s)
			r.order = append(r.order, "draft:"+s.ID)
		},
		OnVerified: func(s transcript.Segment) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.verified = append(r.verified, s)
			r.order = append(r.order, "verified:"+s.ID)
		},
		OnLoss: func(d events.ChunkDroppedData) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.losses = append(r.losses, d)
		},
	}
}

func TestLiveDraftThenVerified(t *testing.T) {
	cfg := testConfig()
	cfg.TargetChunkSec = 1.0
	cfg.MinChunkSec = 0.3
	engine := fixedReply(asr.RoleGeneral, "ਧੰਨ ਗੁਰੂ ਨਾਨਕ", 0.9, "pa")
	orch := newTestOrchestrator(t, cfg, engine, nil, nil)

	rec := &liveRecorder{}
	session, err := orch.StartLiveSession(context.Background(), Options{}, rec.callbacks())
	if err != nil {
		t.Fatalf("StartLiveSession: %v", err)
	}

	if err := session.Submit(pcmTone(8000, 1.5)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	session.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.drafts) == 0 || len(rec.verified) == 0 {
		t.Fatalf("drafts = %d, verified = %d, want both", len(rec.drafts), len(rec.verified))
	}
	if len(rec.drafts) != len(rec.verified) {
		t.Fatalf("drafts = %d, verified = %d, want pairs", len(rec.drafts), len(rec.verified))
	}

	for i := range rec.drafts {
		draft, ver := rec.drafts[i], rec.verified[i]
		if draft.ID != ver.ID {
			t.Errorf("pair %d: draft id %q != verified id %q", i, draft.ID, ver.ID)
		}
		if draft.Start != ver.Start || draft.End != ver.End {
			t.Errorf("pair %d: bounds differ (%v-%v vs %v-%v)", i, draft.Start, draft.End, ver.Start, ver.End)
		}
		if !draft.NeedsReview {
			t.Errorf("pair %d: draft not tentatively flagged for review", i)
		}
	}

	// Per segment, the draft must precede the verified event; across
	// segments, indexes never overtake.
	seen := make(map[string]bool)
	for _, entry := range rec.order {
		if id, ok := strings.CutPrefix(entry, "draft:"); ok {
			seen[id] = true
			continue
		}
		if id, ok := strings.CutPrefix(entry, "verified:"); ok && !seen[id] {
			t.Errorf("verified event for %s arrived before its draft", id)
		}
	}
	for i := 1; i < len(rec.verified); i++ {
		if rec.verified[i].ChunkIndex <= rec.verified[i-1].ChunkIndex {
			t.Error("verified events out of chunk order")
		}
	}
}

func TestLiveSubmitAfterCloseFails(t *testing.T) {
	cfg := testConfig()
	engine := fixedReply(asr.RoleGeneral, "ਗੁਰੂ", 0.9, "pa")
	orch := newTestOrchestrator(t, cfg, engine, nil, nil)

	rec := &liveRecorder{}
	session, err := orch.StartLiveSession(context.Background(), Options{}, rec.callbacks())
	if err != nil {
		t.Fatalf("StartLiveSession: %v", err)
	}
	session.Close()

	if err := session.Submit(pcmTone(8000, 0.5)); err == nil {
		t.Error("Submit after Close succeeded")
	}
}

func TestLiveBackpressureDropsOldestUnstarted(t *testing.T) {
	cfg := testConfig()
	cfg.TargetChunkSec = 0.5
	cfg.MinChunkSec = 0.2
	cfg.LiveQueueDepth = 1

	// A slow engine keeps the worker busy so the queue overflows.
	slow := &stubEngine{id: asr.RoleGeneral, reply: func(audio.Chunk, asr.Options) asr.Hypothesis {
		time.Sleep(100 * time.Millisecond)
		return asr.Hypothesis{EngineID: asr.RoleGeneral, Text: "ਗੁਰੂ", Confidence: 0.9, LanguageCode: "pa"}
	}}
	orch := newTestOrchestrator(t, cfg, slow, nil, nil)

	rec := &liveRecorder{}
	session, err := orch.StartLiveSession(context.Background(), Options{}, rec.callbacks())
	if err != nil {
		t.Fatalf("StartLiveSession: %v", err)
	}

	// One push yields several chunks; with depth 1 the enqueue loop must
	// shed the oldest unstarted ones.
	if err := session.Submit(pcmTone(8000, 4)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	session.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.losses) == 0 {
		t.Fatal("no loss events despite queue depth 1")
	}
	if len(rec.verified) == 0 {
		t.Error("every chunk dropped; queued chunks should still process")
	}
	for _, loss := range rec.losses {
		for _, v := range rec.verified {
			if v.ChunkIndex == loss.ChunkIndex {
				t.Errorf("chunk %d both dropped and verified", loss.ChunkIndex)
			}
		}
	}
}
