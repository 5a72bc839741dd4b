package segment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"StockScan/internal/domain/models"
)

// Mode selects how the universe is partitioned into segments.
type Mode string

const (
	ModeByMarket   Mode = "by_market"
	ModeFixedChunk Mode = "fixed_chunk"

	// Tag used for records whose market field is empty, and as the
	// group key in fixed_chunk mode.
	unknownMarket = "UNKNOWN"
	allMarkets    = "ALL"
)

// Build partitions records into ordered segments. The partition is a pure
// function of the input slice and the options, so the same universe always
// yields the same segment list. Every record lands in exactly one segment
// and the relative order of records is preserved inside each segment.
//
// In by_market mode records are grouped by market in order of first
// appearance; groups larger than chunkSize are split into sub-chunks keyed
// "<market>#<i>/<n>". In fixed_chunk mode the universe is cut into
// consecutive chunks of chunkSize regardless of market. chunkSize <= 0
// disables splitting.
func Build(records []models.UniverseRecord, mode Mode, chunkSize int) []models.MarketSegment {
	if len(records) == 0 {
		return nil
	}

	switch mode {
	case ModeFixedChunk:
		return chunk(allMarkets, records, chunkSize)
	default:
		return byMarket(records, chunkSize)
	}
}

func byMarket(records []models.UniverseRecord, chunkSize int) []models.MarketSegment {
	order := make([]string, 0, 8)
	groups := make(map[string][]models.UniverseRecord, 8)
	for _, r := range records {
		market := r.Market
		if market == "" {
			market = unknownMarket
		}
		if _, ok := groups[market]; !ok {
			order = append(order, market)
		}
		groups[market] = append(groups[market], r)
	}

	segments := make([]models.MarketSegment, 0, len(order))
	for _, market := range order {
		segments = append(segments, chunk(market, groups[market], chunkSize)...)
	}
	return segments
}

func chunk(key string, records []models.UniverseRecord, chunkSize int) []models.MarketSegment {
	if chunkSize <= 0 || len(records) <= chunkSize {
		return []models.MarketSegment{{Key: key, Records: records}}
	}

	n := (len(records) + chunkSize - 1) / chunkSize
	segments := make([]models.MarketSegment, 0, n)
	for i := 0; i < n; i++ {
		lo := i * chunkSize
		hi := lo + chunkSize
		if hi > len(records) {
			hi = len(records)
		}
		segments = append(segments, models.MarketSegment{
			Key:     fmt.Sprintf("%s#%d/%d", key, i+1, n),
			Records: records[lo:hi],
		})
	}
	return segments
}

// Signature fingerprints the ordered universe. Two universes share a
// signature only when they contain the same tickers with the same markets
// in the same order, which is what makes a checkpoint safe to resume.
func Signature(records []models.UniverseRecord) string {
	h := sha256.New()
	for _, r := range records {
		fmt.Fprintf(h, "%s|%s\n", r.Ticker, r.Market)
	}
	return hex.EncodeToString(h.Sum(nil))
}
