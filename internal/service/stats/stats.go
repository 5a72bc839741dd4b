package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"StockScan/internal/domain/models"
)

// ScanStats aggregates one run's outcomes. It is deliberately not
// synchronized: every mutation happens on the single goroutine that
// drains worker results, and merges happen between segments on the
// orchestrator goroutine.
type ScanStats struct {
	Scanned        int64
	Failed         int64
	FetchOK        int64
	IndicatorReady int64

	Failures        map[models.ScanFailureReason]int64
	RequestFailures map[models.FailureCategory]int64
	Sources         map[string]int64
	DownloadNanos   int64
	ParseNanos      int64

	Candidates *TopN
}

func NewScanStats(topN int) *ScanStats {
	return &ScanStats{
		Failures:        make(map[models.ScanFailureReason]int64),
		RequestFailures: make(map[models.FailureCategory]int64),
		Sources:         make(map[string]int64),
		Candidates:      NewTopN(topN),
	}
}

// Observe folds one ticker result into the aggregate. A ticker counts as
// scanned only once it produced usable bars; hard fetch failures count
// toward Failed alone.
func (s *ScanStats) Observe(r *models.TickerScanResult) {
	if r.Failed {
		s.Failed++
	}
	if r.FetchSuccess {
		s.Scanned++
		s.FetchOK++
	}
	if r.IndicatorReady {
		s.IndicatorReady++
	}
	if r.Failure != models.ReasonNone {
		s.Failures[r.Failure]++
	}
	if r.RequestFailed {
		s.RequestFailures[r.RequestFailureCategory]++
	}
	if r.DataSource != "" {
		s.Sources[r.DataSource]++
	}
	s.DownloadNanos += r.DownloadNanos
	s.ParseNanos += r.ParseNanos

	if r.Candidate != nil {
		s.Candidates.Add(*r.Candidate)
	}
}

// Merge folds other into s. Counters add, histograms add per key, and the
// candidate sets combine under the shared bound. Merging per-segment
// aggregates in any grouping yields the same totals as observing every
// result directly.
func (s *ScanStats) Merge(other *ScanStats) {
	if other == nil {
		return
	}
	s.Scanned += other.Scanned
	s.Failed += other.Failed
	s.FetchOK += other.FetchOK
	s.IndicatorReady += other.IndicatorReady
	for k, v := range other.Failures {
		s.Failures[k] += v
	}
	for k, v := range other.RequestFailures {
		s.RequestFailures[k] += v
	}
	for k, v := range other.Sources {
		s.Sources[k] += v
	}
	s.DownloadNanos += other.DownloadNanos
	s.ParseNanos += other.ParseNanos
	s.Candidates.Merge(other.Candidates)
}

// CandidateCount reports how many candidates survive the bound.
func (s *ScanStats) CandidateCount() int64 {
	return int64(s.Candidates.Len())
}

// ProgressLine renders the operator-facing progress summary: position,
// pace, ETA and the current failure histogram.
func (s *ScanStats) ProgressLine(done, total int, elapsed time.Duration) string {
	var eta time.Duration
	if done > 0 && done < total {
		perTicker := elapsed / time.Duration(done)
		eta = perTicker * time.Duration(total-done)
	}
	return fmt.Sprintf("%d/%d scanned, %d failed, %d candidates, elapsed %s, eta %s%s",
		done, total, s.Failed, s.Candidates.Len(),
		elapsed.Round(time.Second), eta.Round(time.Second),
		s.failureSummary())
}

func (s *ScanStats) failureSummary() string {
	if len(s.Failures) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s.Failures))
	for k := range s.Failures {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, s.Failures[models.ScanFailureReason(k)]))
	}
	return " [" + strings.Join(parts, " ") + "]"
}
