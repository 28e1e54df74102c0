package events

import (
	"encoding/json"
	"time"

	"github.com/kathascribe/kathascribe/pkg/transcript"
)

// EventType identifies the kind of event flowing through the system.
type EventType string

const (
	JobStarted         EventType = "job.started"
	JobCompleted       EventType = "job.completed"
	JobFailed          EventType = "job.failed"
	TranscriptDraft    EventType = "transcript.draft"
	TranscriptVerified EventType = "transcript.verified"
	ChunkDropped       EventType = "chunk.dropped"
)

// Envelope is the standard event wrapper published to the event bus.
type Envelope struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Source    string          `json:"source"`
	JobID     string          `json:"job_id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// JobStartedData is the payload for job.started events.
type JobStartedData struct {
	Mode       string `json:"mode"`
	SourcePath string `json:"source_path,omitempty"`
}

// JobCompletedData is the payload for job.completed events.
type JobCompletedData struct {
	Segments       int   `json:"segments"`
	QuotesReplaced int   `json:"quotes_replaced"`
	DurationMs     int64 `json:"duration_ms"`
}

// JobFailedData is the payload for job.failed events.
type JobFailedData struct {
	Reason string `json:"reason"`
}

// SegmentData is the payload for transcript.draft and transcript.verified
// events. A verified event is an authoritative replacement for any earlier
// draft carrying the same segment id.
type SegmentData struct {
	Segment transcript.Segment `json:"segment"`
}

// ChunkDroppedData is the payload for chunk.dropped loss events in live mode.
type ChunkDroppedData struct {
	ChunkIndex int     `json:"chunk_index"`
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	QueueDepth int     `json:"queue_depth"`
}
