package stats

import (
	"sort"

	"StockScan/internal/domain/models"
)

// TopN keeps the best-scoring candidates, bounded at limit. Ordering is
// score descending with ticker ascending as the tie-break, so the kept
// set is a pure function of the inserted set regardless of insertion
// order.
type TopN struct {
	limit int
	items []models.ScoredCandidate
}

func NewTopN(limit int) *TopN {
	if limit < 1 {
		limit = 1
	}
	return &TopN{limit: limit, items: make([]models.ScoredCandidate, 0, limit)}
}

// Add inserts one candidate, evicting the worst when over the limit.
func (t *TopN) Add(c models.ScoredCandidate) {
	t.items = append(t.items, c)
	t.trim()
}

// Merge folds another bounded set into this one.
func (t *TopN) Merge(other *TopN) {
	if other == nil {
		return
	}
	t.items = append(t.items, other.items...)
	t.trim()
}

func (t *TopN) trim() {
	sort.Slice(t.items, func(i, j int) bool {
		if t.items[i].Score != t.items[j].Score {
			return t.items[i].Score > t.items[j].Score
		}
		return t.items[i].Ticker < t.items[j].Ticker
	})
	if len(t.items) > t.limit {
		t.items = t.items[:t.limit]
	}
}

// List returns the kept candidates, best first. The returned slice is a
// copy.
func (t *TopN) List() []models.ScoredCandidate {
	out := make([]models.ScoredCandidate, len(t.items))
	copy(out, t.items)
	return out
}

// Len reports how many candidates are currently kept.
func (t *TopN) Len() int {
	return len(t.items)
}

// Limit returns the configured bound.
func (t *TopN) Limit() int {
	return t.limit
}
