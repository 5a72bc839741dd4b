package checkpoint

import (
	"encoding/json"
	"fmt"
	"time"

	"StockScan/internal/domain/models"
)

// Version is bumped whenever the serialized shape changes incompatibly.
// A stored checkpoint with a different version is discarded, never
// migrated.
const Version = 1

// Checkpoint is the durable resume point written after every completed
// segment. It binds progress to the exact universe and plan that produced
// it; any mismatch on restore invalidates the whole thing.
type Checkpoint struct {
	Version           int       `json:"version"`
	UniverseSignature string    `json:"universe_signature"`
	SegmentCount      int       `json:"segment_count"`
	NextSegmentIndex  int       `json:"next_segment_index"`
	TopN              int       `json:"top_n"`
	UpdatedAt         time.Time `json:"updated_at"`

	Scanned        int64                              `json:"scanned"`
	Failed         int64                              `json:"failed"`
	FetchOK        int64                              `json:"fetch_ok"`
	IndicatorReady int64                              `json:"indicator_ready"`
	Failures       map[models.ScanFailureReason]int64 `json:"failures,omitempty"`
	Candidates     []models.ScoredCandidate           `json:"candidates,omitempty"`
}

// Plan is what the current run expects a stored checkpoint to match.
type Plan struct {
	UniverseSignature string
	SegmentCount      int
	TopN              int
}

// Encode serializes a checkpoint for the key/value store.
func Encode(cp *Checkpoint) (string, error) {
	raw, err := json.Marshal(cp)
	if err != nil {
		return "", fmt.Errorf("encode checkpoint: %w", err)
	}
	return string(raw), nil
}

// Decode parses a stored checkpoint and validates its structure. Any
// defect makes the blob unusable; callers treat that as no checkpoint.
func Decode(value string) (*Checkpoint, error) {
	var cp Checkpoint
	if err := json.Unmarshal([]byte(value), &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if cp.Version != Version {
		return nil, fmt.Errorf("checkpoint version %d, want %d", cp.Version, Version)
	}
	if cp.SegmentCount < 1 || cp.NextSegmentIndex < 0 || cp.NextSegmentIndex > cp.SegmentCount {
		return nil, fmt.Errorf("checkpoint indexes out of range: next=%d count=%d",
			cp.NextSegmentIndex, cp.SegmentCount)
	}
	if cp.Scanned < 0 || cp.Failed < 0 || cp.FetchOK > cp.Scanned {
		return nil, fmt.Errorf("checkpoint counters inconsistent: scanned=%d failed=%d fetch_ok=%d",
			cp.Scanned, cp.Failed, cp.FetchOK)
	}
	if len(cp.Candidates) > cp.TopN {
		return nil, fmt.Errorf("checkpoint holds %d candidates, bound is %d",
			len(cp.Candidates), cp.TopN)
	}
	return &cp, nil
}

// Matches reports whether the checkpoint was produced by the same plan.
func (cp *Checkpoint) Matches(plan Plan) bool {
	return cp.UniverseSignature == plan.UniverseSignature &&
		cp.SegmentCount == plan.SegmentCount &&
		cp.TopN == plan.TopN
}
