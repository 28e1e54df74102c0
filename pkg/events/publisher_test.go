package events

import (
	"context"
	"encoding/json"
	"testing"
)

func TestEmitFansOutToSubscribers(t *testing.T) {
	pub := NewPublisher(nil, "test", "")
	ch := pub.Subscribe("sub1", 4)
	defer pub.Unsubscribe("sub1")

	err := pub.Emit(context.Background(), TranscriptVerified, "job1", JobCompletedData{Segments: 3})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	env := <-ch
	if env.Type != TranscriptVerified {
		t.Errorf("type = %q, want transcript.verified", env.Type)
	}
	if env.JobID != "job1" {
		t.Errorf("job id = %q", env.JobID)
	}
	if env.ID == "" {
		t.Error("envelope id empty")
	}
	var data JobCompletedData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.Segments != 3 {
		t.Errorf("segments = %d, want 3", data.Segments)
	}
}

func TestEmitDropsWhenBufferFull(t *testing.T) {
	pub := NewPublisher(nil, "test", "")
	pub.Subscribe("slow", 1)
	defer pub.Unsubscribe("slow")

	ctx := context.Background()
	// Second emit overflows the single-slot buffer; Emit must not block.
	if err := pub.Emit(ctx, ChunkDropped, "job", nil); err != nil {
		t.Fatalf("Emit 1: %v", err)
	}
	if err := pub.Emit(ctx, ChunkDropped, "job", nil); err != nil {
		t.Fatalf("Emit 2: %v", err)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	pub := NewPublisher(nil, "test", "")
	ch := pub.Subscribe("sub", 1)
	pub.Unsubscribe("sub")
	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
}
