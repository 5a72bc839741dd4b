package fetch

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"StockScan/internal/domain/models"
	"StockScan/internal/domain/repository"
	"StockScan/pkg/logger"
)

// Outcome is what the tiered strategy hands back to the ticker pipeline.
// Bars may come from the cache even when the live request failed; in that
// case RequestFailed is set and the category records what went wrong
// upstream so the run can account for degraded sources.
type Outcome struct {
	Bars        []models.BarDaily
	Source      string
	Timing      models.FetchTiming
	LiveFetched bool

	RequestFailed   bool
	FailureCategory models.FailureCategory
}

// StrategyOptions configures the tiered fetch behavior.
type StrategyOptions struct {
	PreferCache    bool
	MaxCacheBars   int
	MinHistoryBars int
	BaseFreshDays  int
	Range          string
	Interval       string
	RetryMax       int
	RetryBackoff   time.Duration
	Location       *time.Location
}

// Strategy resolves daily bars for one ticker through three tiers:
// fresh cache, live fetch with bounded retries, then stale cache as a
// degraded fallback. Live requests are paced by a shared rate limiter
// and guarded by a circuit breaker so a dying upstream fails fast
// instead of burning the retry budget on every ticker.
type Strategy struct {
	store   repository.BarStore
	fetcher repository.PriceFetcher
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	opts    StrategyOptions
	now     func() time.Time
	log     *logger.Logger
}

func NewStrategy(
	store repository.BarStore,
	fetcher repository.PriceFetcher,
	limiter *rate.Limiter,
	opts StrategyOptions,
	log *logger.Logger,
) *Strategy {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "price-source",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Strategy{
		store:   store,
		fetcher: fetcher,
		breaker: breaker,
		limiter: limiter,
		opts:    opts,
		now:     time.Now,
		log:     log,
	}
}

// WithClock overrides the strategy clock. Test hook.
func (s *Strategy) WithClock(now func() time.Time) *Strategy {
	s.now = now
	return s
}

// Fetch resolves bars for ticker. A nil error with RequestFailed set means
// the caller got stale cache after a live failure; a non-nil error means
// no usable bars exist at all and always wraps *models.FetchError.
func (s *Strategy) Fetch(ctx context.Context, ticker string) (*Outcome, error) {
	today := s.now()
	if s.opts.Location != nil {
		today = today.In(s.opts.Location)
	}

	cached, err := s.store.LoadRecent(ctx, ticker, s.opts.MaxCacheBars)
	if err != nil {
		s.log.Warn("bar cache read failed, treating as miss",
			logger.String("ticker", ticker), logger.Error(err))
		cached = nil
	}

	if s.opts.PreferCache && s.cacheServable(cached, today) {
		return &Outcome{Bars: cached, Source: models.SourceCache}, nil
	}

	bars, timing, fetchErr := s.fetchLive(ctx, ticker)
	if fetchErr == nil {
		return &Outcome{
			Bars:        bars,
			Source:      models.SourceYahoo,
			Timing:      timing,
			LiveFetched: true,
		}, nil
	}

	category := models.Categorize(fetchErr)
	if len(cached) > 0 {
		s.log.Debug("live fetch failed, serving cached bars",
			logger.String("ticker", ticker),
			logger.String("category", string(category)),
			logger.Int("cached_bars", len(cached)))
		return &Outcome{
			Bars:            cached,
			Source:          models.SourceCache,
			RequestFailed:   true,
			FailureCategory: category,
		}, nil
	}
	return nil, fetchErr
}

// cacheServable gates the cache-fresh tier: enough bars, fresh enough,
// and not a degenerate series.
func (s *Strategy) cacheServable(bars []models.BarDaily, today time.Time) bool {
	if len(bars) < s.opts.MinHistoryBars {
		return false
	}
	if !IsFresh(bars, today, s.opts.BaseFreshDays, s.opts.Location) {
		return false
	}
	return usableCachedShape(bars)
}

// fetchLive runs the live request with bounded retries. Only transient
// categories are retried; no_data and parse_error reflect the response
// itself and retrying cannot change them.
func (s *Strategy) fetchLive(ctx context.Context, ticker string) ([]models.BarDaily, models.FetchTiming, error) {
	var lastErr error
	attempts := s.opts.RetryMax
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, models.FetchTiming{}, models.NewFetchError(models.CategoryInterrupted, err)
		}

		bars, timing, err := s.fetchOnce(ctx, ticker)
		if err == nil {
			return bars, timing, nil
		}
		lastErr = err

		if !models.Categorize(err).Retryable() || attempt == attempts {
			break
		}
		if err := s.sleep(ctx, s.backoff(attempt)); err != nil {
			return nil, models.FetchTiming{}, models.NewFetchError(models.CategoryInterrupted, err)
		}
	}
	return nil, models.FetchTiming{}, lastErr
}

func (s *Strategy) fetchOnce(ctx context.Context, ticker string) ([]models.BarDaily, models.FetchTiming, error) {
	type fetched struct {
		bars   []models.BarDaily
		timing models.FetchTiming
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		bars, timing, err := s.fetcher.FetchHistory(ctx, ticker, s.opts.Range, s.opts.Interval)
		if err != nil {
			return nil, err
		}
		return fetched{bars: bars, timing: timing}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, models.FetchTiming{}, models.NewFetchError(models.CategoryOther, err)
		}
		return nil, models.FetchTiming{}, err
	}

	f := out.(fetched)
	bars := normalize(f.bars)
	if len(bars) == 0 {
		return nil, models.FetchTiming{}, models.NewFetchError(models.CategoryNoData, errors.New("no valid bars in response"))
	}
	return bars, f.timing, nil
}

func (s *Strategy) backoff(attempt int) time.Duration {
	d := s.opts.RetryBackoff
	if d <= 0 {
		d = time.Second
	}
	return d << (attempt - 1)
}

func (s *Strategy) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// normalize drops invalid bars and guarantees ascending date order, which
// every consumer downstream assumes.
func normalize(bars []models.BarDaily) []models.BarDaily {
	out := make([]models.BarDaily, 0, len(bars))
	for _, b := range bars {
		if b.Validate() == nil {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
