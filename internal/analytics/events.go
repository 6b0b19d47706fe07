// Package analytics records what the search service does: every query and
// every corpus load. Events are aggregated in process for the stats API and
// optionally published to Kafka for other consumers.
package analytics

import "time"

type EventType string

const (
	EventSearch       EventType = "search"
	EventZeroResult   EventType = "zero_result"
	EventCorpusLoaded EventType = "corpus_loaded"
)

// SearchEvent describes one answered query.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// CorpusEvent describes a corpus becoming available, built or loaded from
// its snapshot.
type CorpusEvent struct {
	Type         EventType `json:"type"`
	Root         string    `json:"root"`
	Source       string    `json:"source"`
	Documents    int       `json:"documents"`
	Terms        int       `json:"terms"`
	FilesSkipped int       `json:"files_skipped"`
	DurationMs   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}
