package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"StockScan/internal/domain/models"
	"StockScan/internal/service/checkpoint"
	"StockScan/internal/service/fetch"
	"StockScan/internal/service/rules"
	"StockScan/pkg/config"
	"StockScan/pkg/logger"
)

// --- fakes ---

type fakeUniverse struct {
	records []models.UniverseRecord
}

func (u *fakeUniverse) ListActive(context.Context, int) ([]models.UniverseRecord, error) {
	return u.records, nil
}

// fakeFetcher serves rising price series and fails tickers prefixed "BAD".
// It counts calls per ticker so tests can prove what was re-scanned.
type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: map[string]int{}}
}

func (f *fakeFetcher) FetchHistory(_ context.Context, ticker, _, _ string) ([]models.BarDaily, models.FetchTiming, error) {
	f.mu.Lock()
	f.calls[ticker]++
	f.mu.Unlock()

	if strings.HasPrefix(ticker, "BAD") {
		return nil, models.FetchTiming{}, models.NewFetchError(models.CategoryNoData, errors.New("404"))
	}
	return risingBars(ticker, 80), models.FetchTiming{DownloadNanos: 1000}, nil
}

func (f *fakeFetcher) callCount(ticker string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ticker]
}

// risingBars ends on the most recent weekday so the freshness gate passes.
func risingBars(ticker string, n int) []models.BarDaily {
	end := time.Now()
	for end.Weekday() == time.Saturday || end.Weekday() == time.Sunday {
		end = end.AddDate(0, 0, -1)
	}

	dates := make([]time.Time, 0, n)
	for d := end; len(dates) < n; d = d.AddDate(0, 0, -1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			dates = append(dates, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
		}
	}

	bars := make([]models.BarDaily, n)
	for i := 0; i < n; i++ {
		price := 100 + float64(i)*0.5
		bars[i] = models.BarDaily{
			Ticker: ticker,
			Date:   dates[n-1-i],
			Open:   price, High: price + 1, Low: price - 1, Close: price,
			Volume: 100000,
		}
	}
	return bars
}

type memBarStore struct {
	mu   sync.Mutex
	bars map[string][]models.BarDaily
}

func newMemBarStore() *memBarStore {
	return &memBarStore{bars: map[string][]models.BarDaily{}}
}

func (s *memBarStore) LoadRecent(_ context.Context, ticker string, maxBars int) ([]models.BarDaily, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bars := s.bars[ticker]
	if len(bars) > maxBars {
		bars = bars[len(bars)-maxBars:]
	}
	return bars, nil
}

func (s *memBarStore) UpsertIncremental(_ context.Context, ticker string, bars []models.BarDaily, _ string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bars[ticker] = bars
	return len(bars), nil
}

type memCheckpointStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemCheckpointStore() *memCheckpointStore {
	return &memCheckpointStore{values: map[string]string{}}
}

func (s *memCheckpointStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memCheckpointStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memCheckpointStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *memCheckpointStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

type captureSink struct {
	mu         sync.Mutex
	runs       []models.RunSummary
	candidates map[string][]models.ScoredCandidate
}

func newCaptureSink() *captureSink {
	return &captureSink{candidates: map[string][]models.ScoredCandidate{}}
}

func (s *captureSink) SaveRun(ctx context.Context, run models.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *captureSink) SaveCandidates(_ context.Context, runID string, cs []models.ScoredCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[runID] = cs
	return nil
}

func (s *captureSink) lastRun(t *testing.T) models.RunSummary {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.runs)
	return s.runs[len(s.runs)-1]
}

type noopMetrics struct{}

func (noopMetrics) RecordTickerScanned(string, string) {}
func (noopMetrics) RecordScanFailure(string) {}
func (noopMetrics) RecordFetchFailure(string) {}
func (noopMetrics) RecordCandidateScore(string, float64) {}
func (noopMetrics) RecordLatency(string, float64) {}

// --- harness ---

type harness struct {
	fetcher *fakeFetcher
	cpStore *memCheckpointStore
	sink    *captureSink
	cfg     config.ScanConfig
}

func newHarness() *harness {
	return &harness{
		fetcher: newFakeFetcher(),
		cpStore: newMemCheckpointStore(),
		sink:    newCaptureSink(),
		cfg: config.ScanConfig{
			PoolSize:       2,
			SegmentMode:    "fixed_chunk",
			ChunkSize:      2,
			TopN:           10,
			MinScore:       0,
			PreferCache:    false,
			MinHistoryBars: 30,
			MaxCacheBars:   400,
			BaseFreshDays:  1,
			MinPrice:       1,
			MinAvgVolume:   1,
			MaxZeroVolDays: 5,
			MaxFlatDays:    5,
			LookbackDays:   20,
			RetryMax:       1,
			RetryBackoff:   time.Millisecond,
			CheckpointKey:  "cp",
			ResumeEnabled:  true,
			Timezone:       "UTC",
		},
	}
}

func (h *harness) orchestrator(t *testing.T, tickers ...string) *Orchestrator {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	records := make([]models.UniverseRecord, 0, len(tickers))
	for _, tk := range tickers {
		records = append(records, models.UniverseRecord{Ticker: tk, Market: "PRIME"})
	}

	store := newMemBarStore()
	strategy := fetch.NewStrategy(store, h.fetcher, rate.NewLimiter(rate.Inf, 1), fetch.StrategyOptions{
		PreferCache:    h.cfg.PreferCache,
		MaxCacheBars:   h.cfg.MaxCacheBars,
		MinHistoryBars: h.cfg.MinHistoryBars,
		BaseFreshDays:  h.cfg.BaseFreshDays,
		RetryMax:       h.cfg.RetryMax,
		RetryBackoff:   h.cfg.RetryBackoff,
		Location:       time.UTC,
	}, log)
	gates := &fetch.Gates{
		BaseFreshDays:  h.cfg.BaseFreshDays,
		MinHistoryBars: h.cfg.MinHistoryBars,
		MinPrice:       h.cfg.MinPrice,
		MinAvgVolume:   h.cfg.MinAvgVolume,
		MaxZeroVolDays: h.cfg.MaxZeroVolDays,
		MaxFlatDays:    h.cfg.MaxFlatDays,
		LookbackDays:   h.cfg.LookbackDays,
		Location:       time.UTC,
	}

	pipeline := NewPipeline(strategy, gates, store,
		rules.NewEngine(), rules.NewTrendFilter(), rules.NewVolatilityRisk(0), rules.NewMomentumScorer(),
		h.cfg.MinScore, log)
	scanner := NewScanner(pipeline, h.cfg.PoolSize, 0, noopMetrics{}, log)
	cpm := checkpoint.NewManager(h.cpStore, h.cfg.CheckpointKey, log)

	return NewOrchestrator(&fakeUniverse{records: records}, scanner, cpm, h.sink, nil, h.cfg, log)
}

// --- tests ---

func TestRunCompletesAndClearsCheckpoint(t *testing.T) {
	h := newHarness()
	orch := h.orchestrator(t, "AAA.T", "BBB.T", "CCC.T")

	run, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, int64(3), run.Scanned)
	assert.Equal(t, int64(0), run.Failed)
	assert.Equal(t, 2, run.SegmentsTotal)
	assert.Equal(t, 2, run.SegmentsDone)
	assert.Equal(t, int64(3), run.CandidateCount)
	assert.Equal(t, 0, h.cpStore.len(), "checkpoint must be cleared on completion")
	assert.Len(t, h.sink.candidates[run.RunID], 3)
}

func TestRunCountsFailuresWithoutAborting(t *testing.T) {
	h := newHarness()
	orch := h.orchestrator(t, "AAA.T", "BAD1.T", "BBB.T", "BAD2.T")

	run, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, int64(2), run.Scanned, "hard-failed tickers never reach scanned")
	assert.Equal(t, int64(2), run.Failed)
	assert.Equal(t, int64(2), run.CandidateCount)
}

func TestInterruptedRunStillPersistsSummary(t *testing.T) {
	h := newHarness()
	orch := h.orchestrator(t, "AAA.T", "BBB.T", "CCC.T", "DDD.T")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := orch.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, models.RunStatusPartial, run.Status)

	// The summary write must survive the caller's dead context.
	saved := h.sink.lastRun(t)
	assert.Equal(t, run.RunID, saved.RunID)
	assert.Equal(t, models.RunStatusPartial, saved.Status)
	assert.Empty(t, h.sink.candidates[run.RunID])
}

func TestRunBudgetThenResumeCompletes(t *testing.T) {
	h := newHarness()
	h.cfg.SegmentBudget = 1
	tickers := []string{"AAA.T", "BBB.T", "CCC.T", "DDD.T"}

	first, err := h.orchestrator(t, tickers...).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPartial, first.Status)
	assert.Equal(t, 1, first.SegmentsDone)
	assert.Equal(t, int64(2), first.Scanned)
	assert.Equal(t, 1, h.cpStore.len(), "partial run must leave a checkpoint")
	assert.Empty(t, h.sink.candidates[first.RunID], "partial run must not persist candidates")

	second, err := h.orchestrator(t, tickers...).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPartial, second.Status)
	assert.Equal(t, 2, second.SegmentsDone)

	h.cfg.SegmentBudget = 0
	third, err := h.orchestrator(t, tickers...).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, third.Status)
	assert.Equal(t, int64(4), third.Scanned, "resumed totals must cover the whole universe exactly once")
	assert.Equal(t, int64(4), third.CandidateCount)
	assert.Equal(t, 0, h.cpStore.len())

	for _, tk := range tickers {
		assert.Equal(t, 1, h.fetcher.callCount(tk), "%s must be fetched exactly once across resumes", tk)
	}
}

func TestRunInvalidatesCheckpointOnUniverseChange(t *testing.T) {
	h := newHarness()
	h.cfg.SegmentBudget = 1

	_, err := h.orchestrator(t, "AAA.T", "BBB.T", "CCC.T", "DDD.T").Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, h.cpStore.len())

	// Universe changed; progress no longer means anything.
	h.cfg.SegmentBudget = 0
	run, err := h.orchestrator(t, "AAA.T", "BBB.T", "NEW.T", "DDD.T").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, int64(4), run.Scanned, "new plan must start from scratch")
	assert.Equal(t, 2, h.fetcher.callCount("AAA.T"), "first segment re-scanned after invalidation")
}

func TestRunEmptyUniverseFails(t *testing.T) {
	h := newHarness()
	orch := h.orchestrator(t)

	run, err := orch.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)

	saved := h.sink.lastRun(t)
	assert.Equal(t, models.RunStatusFailed, saved.Status)
}

func TestRunDisabledResumeIgnoresCheckpoint(t *testing.T) {
	h := newHarness()
	h.cfg.SegmentBudget = 1
	tickers := []string{"AAA.T", "BBB.T", "CCC.T", "DDD.T"}

	_, err := h.orchestrator(t, tickers...).Run(context.Background())
	require.NoError(t, err)

	h.cfg.SegmentBudget = 0
	h.cfg.ResumeEnabled = false
	run, err := h.orchestrator(t, tickers...).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), run.Scanned, "disabled resume starts from segment zero")
}

func TestRunIDsAreDistinctPerInvocation(t *testing.T) {
	h := newHarness()
	orch := h.orchestrator(t, "AAA.T")

	first, err := orch.Run(context.Background())
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	second, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID, fmt.Sprintf("%s vs %s", first.RunID, second.RunID))
}
