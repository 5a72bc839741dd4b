package models

import (
	"context"
	"errors"
	"fmt"
)

// FailureCategory classifies why a live fetch failed, at the transport level.
type FailureCategory string

const (
	CategoryTimeout     FailureCategory = "timeout"
	CategoryRateLimit   FailureCategory = "rate_limit"
	CategoryNoData      FailureCategory = "no_data"
	CategoryParseError  FailureCategory = "parse_error"
	CategoryInterrupted FailureCategory = "interrupted"
	CategoryOther       FailureCategory = "other"
)

// Retryable reports whether a category is worth another attempt.
// no_data and parse_error are terminal once classified; interruption
// must surface immediately.
func (c FailureCategory) Retryable() bool {
	switch c {
	case CategoryTimeout, CategoryRateLimit, CategoryOther:
		return true
	default:
		return false
	}
}

// DataInsufficientReason describes why obtained bars were not usable.
type DataInsufficientReason string

const (
	InsufficientNone         DataInsufficientReason = "NONE"
	InsufficientStale        DataInsufficientReason = "STALE"
	InsufficientHistoryShort DataInsufficientReason = "HISTORY_SHORT"
	InsufficientNoData       DataInsufficientReason = "NO_DATA"
)

// ScanFailureReason is the single domain-level classification of a ticker
// that did not become usable data or a candidate. Exactly one applies per
// result.
type ScanFailureReason string

const (
	ReasonNone                ScanFailureReason = "NONE"
	ReasonTimeout             ScanFailureReason = "TIMEOUT"
	ReasonHTTP404NoData       ScanFailureReason = "HTTP_404_NO_DATA"
	ReasonParseError          ScanFailureReason = "PARSE_ERROR"
	ReasonRateLimit           ScanFailureReason = "RATE_LIMIT"
	ReasonStale               ScanFailureReason = "STALE"
	ReasonHistoryShort        ScanFailureReason = "HISTORY_SHORT"
	ReasonFilteredNonTradable ScanFailureReason = "FILTERED_NON_TRADABLE"
	ReasonOther               ScanFailureReason = "OTHER"
)

// ReasonForCategory maps a live-fetch failure category to the scan-level
// reason used when that failure is terminal for the ticker.
func ReasonForCategory(c FailureCategory) ScanFailureReason {
	switch c {
	case CategoryTimeout:
		return ReasonTimeout
	case CategoryRateLimit:
		return ReasonRateLimit
	case CategoryNoData:
		return ReasonHTTP404NoData
	case CategoryParseError:
		return ReasonParseError
	default:
		return ReasonOther
	}
}

// FetchError carries the failure category of a live fetch attempt.
type FetchError struct {
	Category FailureCategory
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("fetch %s", e.Category)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err with a failure category.
func NewFetchError(category FailureCategory, err error) *FetchError {
	return &FetchError{Category: category, Err: err}
}

// Categorize extracts the failure category from an error chain. Errors
// that never passed through NewFetchError fall back on the context state
// and then to other.
func Categorize(err error) FailureCategory {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	if errors.Is(err, context.Canceled) {
		return CategoryInterrupted
	}
	return CategoryOther
}

// FetchTiming reports where time went during a live fetch.
type FetchTiming struct {
	DownloadNanos int64
	ParseNanos    int64
}

// Data-source tags carried on results and cache upserts.
const (
	SourceYahoo = "yahoo"
	SourceCache = "cache"
)

// TickerScanResult is the fully classified outcome of scanning one ticker.
type TickerScanResult struct {
	Record    UniverseRecord
	Bars      []BarDaily
	Candidate *ScoredCandidate

	DataSource     string // "yahoo" or "cache"
	DownloadNanos  int64
	ParseNanos     int64
	FetchSuccess   bool
	IndicatorReady bool

	RequestFailed          bool
	RequestFailureCategory FailureCategory

	Insufficient DataInsufficientReason
	Failure      ScanFailureReason

	// Failed marks a ticker that never produced a scan-worthy outcome
	// (no usable bars, or the cache upsert after a live fetch broke).
	Failed bool
}
