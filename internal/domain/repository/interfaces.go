package repository

import (
	"context"

	"StockScan/internal/domain/models"
)

// UniverseProvider lists the active ticker universe. Called once per run.
type UniverseProvider interface {
	ListActive(ctx context.Context, limit int) ([]models.UniverseRecord, error)
}

// BarStore is the daily-bar cache. LoadRecent returns bars ascending by
// date; UpsertIncremental is idempotent on (ticker, date).
type BarStore interface {
	LoadRecent(ctx context.Context, ticker string, maxBars int) ([]models.BarDaily, error)
	UpsertIncremental(ctx context.Context, ticker string, bars []models.BarDaily, source string) (int, error)
}

// PriceFetcher fetches daily history from the live source. On failure the
// returned error wraps *models.FetchError carrying the request category.
type PriceFetcher interface {
	FetchHistory(ctx context.Context, ticker, rng, interval string) ([]models.BarDaily, models.FetchTiming, error)
}

// IndicatorEngine computes an indicator snapshot from daily bars.
// A nil snapshot signals unrecoverable computation failure, not a domain
// condition.
type IndicatorEngine interface {
	Compute(bars []models.BarDaily) *models.IndicatorSnapshot
}

// Decision is the outcome of a pure filter/risk/score evaluation.
type Decision struct {
	Passed  bool
	Reasons []string
	Metrics map[string]float64
}

// Filter rejects tickers on price/volume shape before risk and scoring.
type Filter interface {
	Evaluate(bars []models.BarDaily, snap *models.IndicatorSnapshot) Decision
}

// RiskChecker rejects tickers whose risk profile disqualifies them.
type RiskChecker interface {
	Evaluate(bars []models.BarDaily, snap *models.IndicatorSnapshot) Decision
}

// Scorer ranks a ticker that passed filter and risk. It additionally
// consumes the risk decision.
type Scorer interface {
	Score(bars []models.BarDaily, snap *models.IndicatorSnapshot, risk Decision) (float64, Decision)
}

// CheckpointStore is generic key/value persistence for the batch
// checkpoint blob. The engine owns the value format exclusively.
type CheckpointStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// RunSink persists run summaries and final candidates.
type RunSink interface {
	SaveRun(ctx context.Context, run models.RunSummary) error
	SaveCandidates(ctx context.Context, runID string, candidates []models.ScoredCandidate) error
}

// RunQuery reads back persisted runs for the ops API.
type RunQuery interface {
	LatestRun(ctx context.Context) (models.RunSummary, error)
	LatestCandidates(ctx context.Context, limit int) ([]models.ScoredCandidate, error)
}

// CandidatePublisher pushes final candidates to downstream consumers.
// Best-effort; delivery is at-most-once.
type CandidatePublisher interface {
	PublishCandidates(ctx context.Context, runID string, candidates []models.ScoredCandidate) error
	Close() error
}

// Metrics records scan telemetry.
type Metrics interface {
	RecordTickerScanned(market, source string)
	RecordScanFailure(reason string)
	RecordFetchFailure(category string)
	RecordCandidateScore(ticker string, score float64)
	RecordLatency(op string, seconds float64)
}
