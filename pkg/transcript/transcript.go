// Package transcript holds the persisted transcript model: processed
// segments, job-level results, and their JSON rendering.
package transcript

import "time"

// Kind distinguishes plain speech from replaced scripture quotes.
type Kind string

const (
	KindSpeech    Kind = "speech"
	KindScripture Kind = "scripture_quote"
)

// EngineHypothesis is one engine's raw output, retained verbatim for audit.
type EngineHypothesis struct {
	EngineID   string  `json:"engine_id"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// QuoteMatch records the canonical line a quote segment resolved to, or the
// suggestion attached to a segment held for review.
type QuoteMatch struct {
	Source          string  `json:"source"`
	LineID          string  `json:"line_id"`
	Ang             int     `json:"ang,omitempty"`
	Raag            string  `json:"raag,omitempty"`
	Author          string  `json:"author,omitempty"`
	MatchConfidence float64 `json:"match_confidence"`
}

// Segment is the terminal per-chunk record. Once appended to a transcript it
// is never rewritten; live consumers replace drafts wholesale by segment id.
type Segment struct {
	ID         string `json:"segment_id"`
	ChunkIndex int    `json:"chunk_index"`

	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Kind  Kind    `json:"kind"`

	// SpokenText always carries the original pre-replacement text.
	SpokenText string `json:"spoken_text"`
	Gurmukhi   string `json:"gurmukhi"`
	Roman      string `json:"roman"`
	Language   string `json:"language"`
	Route      string `json:"route"`
	// RouteReason identifies the routing rule that fired, kept for audit.
	RouteReason string `json:"route_reason,omitempty"`

	ASRConfidence    float64 `json:"asr_confidence"`
	ScriptConfidence float64 `json:"script_confidence"`
	NeedsReview      bool    `json:"needs_review"`

	QuoteMatch *QuoteMatch `json:"quote_match,omitempty"`
	// QuoteReasons carries the candidate detection reasons even when no
	// replacement happened, so rejected candidates stay auditable.
	QuoteReasons []string `json:"quote_reasons,omitempty"`

	Hypotheses []EngineHypothesis `json:"per_engine_hypotheses"`

	// Errors lists per-chunk faults captured into the segment instead of
	// failing the job.
	Errors []string `json:"errors,omitempty"`
}

// StageLatency aggregates wall time spent per pipeline stage.
type StageLatency struct {
	RoutingMs    int64 `json:"routing_ms"`
	ASRMs        int64 `json:"asr_ms"`
	FusionMs     int64 `json:"fusion_ms"`
	ConversionMs int64 `json:"conversion_ms"`
	QuoteMs      int64 `json:"quote_ms"`
}

// Metrics summarizes a finished job.
type Metrics struct {
	Chunks          int          `json:"chunks"`
	QuotesDetected  int          `json:"quotes_detected"`
	QuotesReplaced  int          `json:"quotes_replaced"`
	QuotesSuggested int          `json:"quotes_suggested"`
	Redecodes       int          `json:"redecodes"`
	NeedsReview     int          `json:"needs_review"`
	StageLatency    StageLatency `json:"stage_latency"`
}

// SourceMetadata describes the transcribed input.
type SourceMetadata struct {
	Path       string    `json:"path,omitempty"`
	Mode       string    `json:"mode"`
	DomainMode string    `json:"domain_mode"`
	Scheme     string    `json:"romanization_scheme"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Result is the complete output of one job, segments in chunk order.
type Result struct {
	JobID    string         `json:"job_id"`
	Segments []Segment      `json:"segments"`
	Metrics  Metrics        `json:"metrics"`
	Source   SourceMetadata `json:"source_metadata"`
}
