package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"strings"
	"time"

	"StockScan/internal/domain/models"
	"StockScan/pkg/http"
	"StockScan/pkg/logger"
)

// Client fetches daily OHLCV history from the Yahoo chart API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http = http.NewClient(http.WithTimeout(timeout))
	}
}

func NewClient(log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: "https://query1.finance.yahoo.com",
		http:    http.NewClient(http.WithTimeout(15 * time.Second)),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchHistory downloads and parses the chart response for one ticker.
// Failures are classified into transport categories via *models.FetchError
// so callers can decide what is worth retrying.
func (c *Client) FetchHistory(ctx context.Context, ticker, rng, interval string) ([]models.BarDaily, models.FetchTiming, error) {
	var timing models.FetchTiming

	opts := &http.RequestOptions{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, ticker),
		Headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "stockscan/1.0",
		},
		QueryParams: map[string][]string{
			"range":    {rng},
			"interval": {interval},
			"events":   {"history"},
		},
	}

	var body []byte
	downloadStart := time.Now()
	if err := c.http.SendAndParse(ctx, opts, &body); err != nil {
		return nil, timing, classifyTransport(err)
	}
	timing.DownloadNanos = time.Since(downloadStart).Nanoseconds()

	parseStart := time.Now()
	bars, err := parseChart(ticker, body)
	timing.ParseNanos = time.Since(parseStart).Nanoseconds()
	if err != nil {
		return nil, timing, err
	}

	c.log.Debug("chart fetched",
		logger.String("ticker", ticker),
		logger.Int("bars", len(bars)),
		logger.Int64("download_ns", timing.DownloadNanos))
	return bars, timing, nil
}

// classifyTransport maps HTTP-layer failures onto fetch categories.
// 404 means the ticker has no data upstream, 429 means we are being
// throttled; everything else network-shaped falls back to timeout or
// other.
func classifyTransport(err error) error {
	var statusErr *http.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == stdhttp.StatusNotFound:
			return models.NewFetchError(models.CategoryNoData, err)
		case statusErr.StatusCode == stdhttp.StatusTooManyRequests:
			return models.NewFetchError(models.CategoryRateLimit, err)
		default:
			return models.NewFetchError(models.CategoryOther, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewFetchError(models.CategoryTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.NewFetchError(models.CategoryTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return models.NewFetchError(models.CategoryInterrupted, err)
	}
	return models.NewFetchError(models.CategoryOther, err)
}

// chartResponse mirrors the subset of the chart payload we consume.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
	Meta struct {
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
}

func parseChart(ticker string, body []byte) ([]models.BarDaily, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, models.NewFetchError(models.CategoryParseError, fmt.Errorf("chart payload: %w", err))
	}

	if resp.Chart.Error != nil {
		err := fmt.Errorf("chart error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
		if strings.EqualFold(resp.Chart.Error.Code, "Not Found") {
			return nil, models.NewFetchError(models.CategoryNoData, err)
		}
		return nil, models.NewFetchError(models.CategoryOther, err)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, models.NewFetchError(models.CategoryNoData, errors.New("chart result empty"))
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, models.NewFetchError(models.CategoryParseError, errors.New("chart quote block missing"))
	}
	quote := result.Indicators.Quote[0]

	loc := time.UTC
	if result.Meta.ExchangeTimezoneName != "" {
		if parsed, err := time.LoadLocation(result.Meta.ExchangeTimezoneName); err == nil {
			loc = parsed
		}
	}

	bars := make([]models.BarDaily, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o := at(quote.Open, i)
		h := at(quote.High, i)
		l := at(quote.Low, i)
		cl := at(quote.Close, i)
		if o == nil || h == nil || l == nil || cl == nil {
			continue // half-filled rows appear on partially traded days
		}
		var vol int64
		if v := atInt(quote.Volume, i); v != nil {
			vol = *v
		}
		t := time.Unix(ts, 0).In(loc)
		bars = append(bars, models.BarDaily{
			Ticker: ticker,
			Date:   time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc),
			Open:   *o,
			High:   *h,
			Low:    *l,
			Close:  *cl,
			Volume: vol,
		})
	}
	if len(bars) == 0 {
		return nil, models.NewFetchError(models.CategoryNoData, errors.New("chart carried no complete bars"))
	}
	return bars, nil
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func atInt(xs []*int64, i int) *int64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}
