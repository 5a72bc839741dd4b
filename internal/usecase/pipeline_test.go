package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"StockScan/internal/domain/models"
	"StockScan/internal/domain/repository"
	"StockScan/internal/service/fetch"
	"StockScan/internal/service/rules"
	"StockScan/pkg/config"
	"StockScan/pkg/logger"
)

func testPipeline(t *testing.T, store repository.BarStore, fetcher repository.PriceFetcher, cfg config.ScanConfig) *Pipeline {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	strategy := fetch.NewStrategy(store, fetcher, rate.NewLimiter(rate.Inf, 1), fetch.StrategyOptions{
		PreferCache:    cfg.PreferCache,
		MaxCacheBars:   cfg.MaxCacheBars,
		MinHistoryBars: cfg.MinHistoryBars,
		BaseFreshDays:  cfg.BaseFreshDays,
		RetryMax:       cfg.RetryMax,
		RetryBackoff:   time.Millisecond,
		Location:       time.UTC,
	}, log)
	gates := &fetch.Gates{
		BaseFreshDays:  cfg.BaseFreshDays,
		MinHistoryBars: cfg.MinHistoryBars,
		MinPrice:       cfg.MinPrice,
		MinAvgVolume:   cfg.MinAvgVolume,
		MaxZeroVolDays: cfg.MaxZeroVolDays,
		MaxFlatDays:    cfg.MaxFlatDays,
		LookbackDays:   cfg.LookbackDays,
		Location:       time.UTC,
	}
	return NewPipeline(strategy, gates, store,
		rules.NewEngine(), rules.NewTrendFilter(), rules.NewVolatilityRisk(0), rules.NewMomentumScorer(),
		cfg.MinScore, log)
}

func pipelineConfig() config.ScanConfig {
	return config.ScanConfig{
		PreferCache:    true,
		MinHistoryBars: 30,
		MaxCacheBars:   400,
		BaseFreshDays:  1,
		MinPrice:       1,
		MinAvgVolume:   1,
		MaxZeroVolDays: 5,
		MaxFlatDays:    5,
		LookbackDays:   20,
		RetryMax:       1,
	}
}

func TestScanCandidatePath(t *testing.T) {
	p := testPipeline(t, newMemBarStore(), newFakeFetcher(), pipelineConfig())

	res := p.Scan(context.Background(), models.UniverseRecord{Ticker: "AAA.T", Market: "PRIME"})
	assert.False(t, res.Failed)
	assert.True(t, res.FetchSuccess)
	assert.True(t, res.IndicatorReady)
	assert.Equal(t, models.ReasonNone, res.Failure)
	assert.Equal(t, models.SourceYahoo, res.DataSource)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "AAA.T", res.Candidate.Ticker)
	assert.NotEmpty(t, res.Candidate.IndicatorsJSON)
}

func TestScanHardFetchFailure(t *testing.T) {
	p := testPipeline(t, newMemBarStore(), newFakeFetcher(), pipelineConfig())

	res := p.Scan(context.Background(), models.UniverseRecord{Ticker: "BAD.T", Market: "PRIME"})
	assert.True(t, res.Failed)
	assert.True(t, res.RequestFailed)
	assert.Equal(t, models.CategoryNoData, res.RequestFailureCategory)
	assert.Equal(t, models.ReasonHTTP404NoData, res.Failure)
	assert.Equal(t, models.InsufficientNoData, res.Insufficient)
	assert.Nil(t, res.Candidate)
}

func TestScanStaleCacheFallbackClassification(t *testing.T) {
	store := newMemBarStore()
	stale := risingBars("BADOLD.T", 40)
	cutoff := time.Now().AddDate(0, 0, -30)
	for i := range stale {
		// Shift the whole series back so the newest bar is a month old.
		stale[i].Date = cutoff.AddDate(0, 0, i-len(stale)+1)
	}
	_, err := store.UpsertIncremental(context.Background(), "BADOLD.T", stale, models.SourceCache)
	require.NoError(t, err)

	p := testPipeline(t, store, newFakeFetcher(), pipelineConfig())
	res := p.Scan(context.Background(), models.UniverseRecord{Ticker: "BADOLD.T", Market: "PRIME"})

	assert.False(t, res.Failed, "stale fallback is a scan outcome, not a hard failure")
	assert.Equal(t, models.SourceCache, res.DataSource)
	assert.True(t, res.RequestFailed)
	assert.Equal(t, models.CategoryNoData, res.RequestFailureCategory)
	assert.Equal(t, models.InsufficientStale, res.Insufficient)
	assert.Equal(t, models.ReasonStale, res.Failure)
}

type failingUpsertStore struct {
	*memBarStore
}

func (s *failingUpsertStore) UpsertIncremental(context.Context, string, []models.BarDaily, string) (int, error) {
	return 0, errors.New("insert refused")
}

func TestScanUpsertFailureFailsTicker(t *testing.T) {
	store := &failingUpsertStore{memBarStore: newMemBarStore()}
	p := testPipeline(t, store, newFakeFetcher(), pipelineConfig())

	res := p.Scan(context.Background(), models.UniverseRecord{Ticker: "AAA.T", Market: "PRIME"})
	assert.True(t, res.Failed)
	assert.Equal(t, models.ReasonOther, res.Failure)
	assert.True(t, res.FetchSuccess, "bars were obtained before the persist broke")
}

func TestScanExactlyOneReason(t *testing.T) {
	p := testPipeline(t, newMemBarStore(), newFakeFetcher(), pipelineConfig())

	for _, ticker := range []string{"AAA.T", "BAD.T", "BBB.T"} {
		res := p.Scan(context.Background(), models.UniverseRecord{Ticker: ticker, Market: "PRIME"})
		if res.Candidate != nil {
			assert.Equal(t, models.ReasonNone, res.Failure, "%s: candidates carry no failure reason", ticker)
		}
		if res.Failed {
			assert.NotEqual(t, models.ReasonNone, res.Failure, "%s: failed tickers carry a reason", ticker)
		}
	}
}
