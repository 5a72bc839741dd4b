package usecase

import (
	"context"
	"fmt"
	"time"

	"StockScan/internal/domain/models"
	"StockScan/internal/domain/repository"
	"StockScan/internal/service/checkpoint"
	"StockScan/internal/service/segment"
	"StockScan/internal/service/stats"
	"StockScan/pkg/config"
	"StockScan/pkg/logger"
)

// Orchestrator drives one batch invocation end to end: load the universe,
// partition it, restore any usable checkpoint, scan segments in order
// under the per-invocation budget, checkpoint after each one, and persist
// the run outcome. Segments run strictly sequentially; concurrency lives
// inside a segment.
type Orchestrator struct {
	universe  repository.UniverseProvider
	scanner   *Scanner
	cpm       *checkpoint.Manager
	sink      repository.RunSink
	publisher repository.CandidatePublisher
	cfg       config.ScanConfig
	now       func() time.Time
	log       *logger.Logger
}

func NewOrchestrator(
	universe repository.UniverseProvider,
	scanner *Scanner,
	cpm *checkpoint.Manager,
	sink repository.RunSink,
	publisher repository.CandidatePublisher,
	cfg config.ScanConfig,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		universe:  universe,
		scanner:   scanner,
		cpm:       cpm,
		sink:      sink,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
		log:       log,
	}
}

// Run executes one invocation and reports its summary. The summary is
// persisted even for failed and partial runs; the error reports what cut
// the run short, if anything.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunSummary, error) {
	start := o.now()
	run := &models.RunSummary{
		RunID:     fmt.Sprintf("scan-%s", start.UTC().Format("20060102T150405Z")),
		StartedAt: start,
		Status:    models.RunStatusFailed,
	}

	records, err := o.universe.ListActive(ctx, o.cfg.UniverseLimit)
	if err != nil {
		run.Notes = fmt.Sprintf("universe load: %v", err)
		o.finish(run)
		return run, fmt.Errorf("list universe: %w", err)
	}
	if len(records) == 0 {
		run.Notes = "universe empty"
		o.finish(run)
		return run, fmt.Errorf("universe is empty")
	}
	run.UniverseSize = len(records)

	segments := segment.Build(records, segment.Mode(o.cfg.SegmentMode), o.cfg.ChunkSize)
	signature := segment.Signature(records)
	run.SegmentsTotal = len(segments)
	plan := checkpoint.Plan{
		UniverseSignature: signature,
		SegmentCount:      len(segments),
		TopN:              o.cfg.TopN,
	}

	total := stats.NewScanStats(o.cfg.TopN)
	startIdx := 0
	if o.cfg.ResumeEnabled {
		cp, err := o.cpm.Load(ctx, plan)
		if err != nil {
			return run, err
		}
		if cp != nil {
			startIdx = cp.NextSegmentIndex
			rehydrate(total, cp)
		}
	}

	o.log.Info("run starting",
		logger.String("run_id", run.RunID),
		logger.Int("universe", len(records)),
		logger.Int("segments", len(segments)),
		logger.Int("start_segment", startIdx),
		logger.Int("budget", o.cfg.SegmentBudget))

	nextIdx, scanErr := o.scanSegments(ctx, segments, startIdx, plan, total)

	run.SegmentsDone = nextIdx
	run.Scanned = total.Scanned
	run.Failed = total.Failed
	run.CandidateCount = total.CandidateCount()

	switch {
	case scanErr != nil:
		run.Status = models.RunStatusPartial
		run.Notes = fmt.Sprintf("interrupted: %v", scanErr)
	case nextIdx >= len(segments):
		run.Status = models.RunStatusCompleted
		o.complete(ctx, run, total)
	default:
		run.Status = models.RunStatusPartial
		run.Notes = fmt.Sprintf("segment budget %d exhausted", o.cfg.SegmentBudget)
	}

	o.finish(run)
	o.log.Info("run finished",
		logger.String("run_id", run.RunID),
		logger.String("status", run.Status),
		logger.Int("segments_done", run.SegmentsDone),
		logger.Int64("scanned", run.Scanned),
		logger.Int64("failed", run.Failed),
		logger.Int64("candidates", run.CandidateCount),
		logger.Duration("elapsed", o.now().Sub(start)))
	return run, scanErr
}

// scanSegments walks segments from startIdx, checkpointing after each.
// It returns the index of the next unprocessed segment.
func (o *Orchestrator) scanSegments(
	ctx context.Context,
	segments []models.MarketSegment,
	startIdx int,
	plan checkpoint.Plan,
	total *stats.ScanStats,
) (int, error) {
	processed := 0
	for i := startIdx; i < len(segments); i++ {
		if o.cfg.SegmentBudget > 0 && processed >= o.cfg.SegmentBudget {
			o.log.Info("segment budget reached, stopping for this invocation",
				logger.Int("processed", processed),
				logger.Int("next_segment", i))
			return i, nil
		}

		segStats := stats.NewScanStats(o.cfg.TopN)
		if scanErr := o.scanner.ScanSegment(ctx, segments[i], segStats); scanErr != nil {
			// Interrupted mid-segment: the segment is not done, so its
			// partial results are discarded and the next resume re-scans
			// it from the last good checkpoint.
			return i, scanErr
		}
		total.Merge(segStats)
		processed++

		cp := dehydrate(plan, i+1, total)
		if err := o.cpm.Save(ctx, cp); err != nil {
			o.log.Error("checkpoint save failed, run continues", logger.Error(err))
		}
	}
	return len(segments), nil
}

func (o *Orchestrator) complete(ctx context.Context, run *models.RunSummary, total *stats.ScanStats) {
	if err := o.cpm.Clear(ctx); err != nil {
		o.log.Warn("checkpoint clear failed", logger.Error(err))
	}

	candidates := total.Candidates.List()
	if err := o.sink.SaveCandidates(ctx, run.RunID, candidates); err != nil {
		o.log.Error("candidate persist failed", logger.Error(err))
		run.Notes = fmt.Sprintf("candidate persist: %v", err)
	}
	if o.publisher != nil && len(candidates) > 0 {
		if err := o.publisher.PublishCandidates(ctx, run.RunID, candidates); err != nil {
			o.log.Error("candidate publish failed", logger.Error(err))
		}
	}
}

// finish persists the summary on a detached context so an interrupted
// run still leaves its PARTIAL record behind.
func (o *Orchestrator) finish(run *models.RunSummary) {
	run.FinishedAt = o.now()
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.sink.SaveRun(saveCtx, *run); err != nil {
		o.log.Error("run summary persist failed",
			logger.String("run_id", run.RunID), logger.Error(err))
	}
}

// rehydrate restores run-to-date aggregates from a checkpoint.
func rehydrate(total *stats.ScanStats, cp *checkpoint.Checkpoint) {
	total.Scanned = cp.Scanned
	total.Failed = cp.Failed
	total.FetchOK = cp.FetchOK
	total.IndicatorReady = cp.IndicatorReady
	for k, v := range cp.Failures {
		total.Failures[k] = v
	}
	for _, c := range cp.Candidates {
		total.Candidates.Add(c)
	}
}

// dehydrate captures run-to-date aggregates into a checkpoint pointing at
// the next unprocessed segment.
func dehydrate(plan checkpoint.Plan, nextIdx int, total *stats.ScanStats) *checkpoint.Checkpoint {
	failures := make(map[models.ScanFailureReason]int64, len(total.Failures))
	for k, v := range total.Failures {
		failures[k] = v
	}
	return &checkpoint.Checkpoint{
		UniverseSignature: plan.UniverseSignature,
		SegmentCount:      plan.SegmentCount,
		NextSegmentIndex:  nextIdx,
		TopN:              plan.TopN,
		Scanned:           total.Scanned,
		Failed:            total.Failed,
		FetchOK:           total.FetchOK,
		IndicatorReady:    total.IndicatorReady,
		Failures:          failures,
		Candidates:        total.Candidates.List(),
	}
}
