package usecase

import (
	"context"
	"encoding/json"
	"time"

	"StockScan/internal/domain/models"
	"StockScan/internal/domain/repository"
	"StockScan/internal/service/fetch"
	"StockScan/pkg/logger"
)

// Pipeline takes one universe record through the whole per-ticker chain:
// resolve bars, persist incremental bars, gate data quality, compute
// indicators, then filter, risk-check and score. The result it returns is
// fully classified; exactly one failure reason applies, or none.
type Pipeline struct {
	strategy *fetch.Strategy
	gates    *fetch.Gates
	store    repository.BarStore
	engine   repository.IndicatorEngine
	filter   repository.Filter
	risk     repository.RiskChecker
	scorer   repository.Scorer
	minScore float64
	now      func() time.Time
	log      *logger.Logger
}

func NewPipeline(
	strategy *fetch.Strategy,
	gates *fetch.Gates,
	store repository.BarStore,
	engine repository.IndicatorEngine,
	filter repository.Filter,
	risk repository.RiskChecker,
	scorer repository.Scorer,
	minScore float64,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		strategy: strategy,
		gates:    gates,
		store:    store,
		engine:   engine,
		filter:   filter,
		risk:     risk,
		scorer:   scorer,
		minScore: minScore,
		now:      time.Now,
		log:      log,
	}
}

// Scan never returns an error: every failure mode is folded into the
// result so the drain loop can account for it uniformly.
func (p *Pipeline) Scan(ctx context.Context, rec models.UniverseRecord) *models.TickerScanResult {
	res := &models.TickerScanResult{
		Record:       rec,
		Insufficient: models.InsufficientNone,
		Failure:      models.ReasonNone,
	}

	outcome, err := p.strategy.Fetch(ctx, rec.Ticker)
	if err != nil {
		category := models.Categorize(err)
		res.Failed = true
		res.RequestFailed = true
		res.RequestFailureCategory = category
		res.Insufficient = models.InsufficientNoData
		res.Failure = models.ReasonForCategory(category)
		return res
	}

	res.Bars = outcome.Bars
	res.DataSource = outcome.Source
	res.DownloadNanos = outcome.Timing.DownloadNanos
	res.ParseNanos = outcome.Timing.ParseNanos
	res.FetchSuccess = true
	res.RequestFailed = outcome.RequestFailed
	res.RequestFailureCategory = outcome.FailureCategory

	if outcome.LiveFetched {
		if _, err := p.store.UpsertIncremental(ctx, rec.Ticker, outcome.Bars, outcome.Source); err != nil {
			p.log.Error("bar upsert failed", logger.String("ticker", rec.Ticker), logger.Error(err))
			res.Failed = true
			res.Failure = models.ReasonOther
			return res
		}
	}

	insufficient, reason := p.gates.Evaluate(outcome.Bars, p.now())
	if reason != models.ReasonNone {
		res.Insufficient = insufficient
		res.Failure = reason
		return res
	}

	snap := p.engine.Compute(outcome.Bars)
	if snap == nil {
		res.Failure = models.ReasonOther
		return res
	}
	res.IndicatorReady = true

	filterDecision := p.filter.Evaluate(outcome.Bars, snap)
	if !filterDecision.Passed {
		return res
	}
	riskDecision := p.risk.Evaluate(outcome.Bars, snap)
	if !riskDecision.Passed {
		return res
	}

	score, scoreDecision := p.scorer.Score(outcome.Bars, snap, riskDecision)
	if !scoreDecision.Passed || score < p.minScore {
		return res
	}

	res.Candidate = p.buildCandidate(rec, score, snap, filterDecision, riskDecision, scoreDecision)
	return res
}

func (p *Pipeline) buildCandidate(
	rec models.UniverseRecord,
	score float64,
	snap *models.IndicatorSnapshot,
	decisions ...repository.Decision,
) *models.ScoredCandidate {
	reasons := make([]string, 0, 4)
	metrics := make(map[string]float64, len(snap.Values))
	for _, d := range decisions {
		reasons = append(reasons, d.Reasons...)
		for k, v := range d.Metrics {
			metrics[k] = v
		}
	}
	for k, v := range snap.Values {
		metrics[k] = v
	}

	reasonsJSON, _ := json.Marshal(reasons)
	indicatorsJSON, _ := json.Marshal(metrics)

	return &models.ScoredCandidate{
		Ticker:         rec.Ticker,
		Code:           rec.Code,
		Name:           rec.Name,
		Market:         rec.Market,
		Score:          score,
		Close:          snap.Values["close"],
		ReasonsJSON:    string(reasonsJSON),
		IndicatorsJSON: string(indicatorsJSON),
	}
}
