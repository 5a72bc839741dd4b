package usecase

import (
	"context"
	"sync"
	"time"

	"StockScan/internal/domain/models"
	"StockScan/internal/domain/repository"
	"StockScan/internal/service/stats"
	"StockScan/pkg/logger"
)

// Scanner fans a segment out over a fixed pool of workers and drains the
// results back on a single goroutine. Completion order is arbitrary; the
// aggregate is order-insensitive, so that is fine. All ScanStats
// mutation happens in the drain loop, never in a worker.
type Scanner struct {
	pipeline         *Pipeline
	poolSize         int
	progressInterval time.Duration
	metrics          repository.Metrics
	log              *logger.Logger
}

func NewScanner(pipeline *Pipeline, poolSize int, progressInterval time.Duration, metrics repository.Metrics, log *logger.Logger) *Scanner {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Scanner{
		pipeline:         pipeline,
		poolSize:         poolSize,
		progressInterval: progressInterval,
		metrics:          metrics,
		log:              log,
	}
}

// ScanSegment processes every ticker in the segment and folds the results
// into segStats. It honors cancellation: on ctx.Done the workers stop
// picking up jobs, in-flight results still drain, and the context error is
// returned so the caller stops before the next segment.
func (s *Scanner) ScanSegment(ctx context.Context, seg models.MarketSegment, segStats *stats.ScanStats) error {
	jobs := make(chan models.UniverseRecord)
	results := make(chan *models.TickerScanResult, s.poolSize)

	var wg sync.WaitGroup
	for i := 0; i < s.poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				results <- s.pipeline.Scan(ctx, rec)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rec := range seg.Records {
			select {
			case <-ctx.Done():
				return
			case jobs <- rec:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	start := time.Now()
	lastReport := start
	done := 0
	for res := range results {
		segStats.Observe(res)
		s.record(res)
		done++
		if s.progressInterval > 0 && time.Since(lastReport) >= s.progressInterval {
			lastReport = time.Now()
			s.log.Info("segment progress",
				logger.String("segment", seg.Key),
				logger.String("state", segStats.ProgressLine(done, seg.Size(), time.Since(start))))
		}
	}

	s.log.Info("segment finished",
		logger.String("segment", seg.Key),
		logger.Int("tickers", done),
		logger.Int64("failed", segStats.Failed),
		logger.Duration("elapsed", time.Since(start)))
	return ctx.Err()
}

func (s *Scanner) record(res *models.TickerScanResult) {
	if res.FetchSuccess {
		s.metrics.RecordTickerScanned(res.Record.Market, res.DataSource)
	}
	if res.Failure != models.ReasonNone {
		s.metrics.RecordScanFailure(string(res.Failure))
	}
	if res.RequestFailed {
		s.metrics.RecordFetchFailure(string(res.RequestFailureCategory))
	}
	if res.Candidate != nil {
		s.metrics.RecordCandidateScore(res.Candidate.Ticker, res.Candidate.Score)
	}
	if res.DownloadNanos > 0 {
		s.metrics.RecordLatency("fetch_download", time.Duration(res.DownloadNanos).Seconds())
	}
}
