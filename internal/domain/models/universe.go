package models

// UniverseRecord is an immutable snapshot of one listed ticker.
type UniverseRecord struct {
	Ticker string `json:"ticker"` // exchange-qualified symbol, e.g. "7203.T"
	Code   string `json:"code"`
	Name   string `json:"name"`
	Market string `json:"market"` // free-text market tag, "UNKNOWN" when unclassified
}

// MarketSegment is a checkpoint-addressable slice of the universe.
type MarketSegment struct {
	Key     string           `json:"key"` // e.g. "TSE#2/5"
	Records []UniverseRecord `json:"records"`
}

// Size returns the number of tickers in the segment.
func (s *MarketSegment) Size() int {
	return len(s.Records)
}
