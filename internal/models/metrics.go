package models

import "time"

// SystemMetrics is a point-in-time summary of the instrumentation counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	EventsAdded              uint64    `json:"events_added"`
	EventsRemoved            uint64    `json:"events_removed"`
	DirtyDeletes             uint64    `json:"dirty_deletes"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
