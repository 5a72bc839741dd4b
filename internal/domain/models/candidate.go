package models

import "time"

// ScoredCandidate is a ticker that cleared the filter/risk gates and was
// scored. Immutable once created.
type ScoredCandidate struct {
	Ticker         string  `json:"ticker"`
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Market         string  `json:"market"`
	Score          float64 `json:"score"`
	Close          float64 `json:"close"`
	ReasonsJSON    string  `json:"reasons_json"`
	IndicatorsJSON string  `json:"indicators_json"`
}

// IndicatorSnapshot is the output of the indicator engine for one ticker.
// Values maps indicator name to value; Missing lists optional indicators
// that could not be computed from the available history.
type IndicatorSnapshot struct {
	Ticker  string
	Values  map[string]float64
	Missing []string
}

// Run status values reported to the run sink.
const (
	RunStatusCompleted = "COMPLETED"
	RunStatusPartial   = "PARTIAL"
	RunStatusFailed    = "FAILED"
)

// RunSummary is the run-level record persisted after every invocation.
type RunSummary struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	UniverseSize   int       `json:"universe_size"`
	SegmentsDone   int       `json:"segments_done"`
	SegmentsTotal  int       `json:"segments_total"`
	Scanned        int64     `json:"scanned"`
	Failed         int64     `json:"failed"`
	CandidateCount int64     `json:"candidate_count"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
}
