package repository

import (
	"context"
	"fmt"

	"StockScan/internal/domain/models"
	"StockScan/pkg/clickhouse"
)

// ClickHouseBarStore persists daily bars in the ReplacingMergeTree cache
// table. Inserts dedupe on (ticker, date), so re-upserting overlapping
// history after a resume is harmless.
type ClickHouseBarStore struct {
	client *clickhouse.Client
}

func NewClickHouseBarStore(client *clickhouse.Client) *ClickHouseBarStore {
	return &ClickHouseBarStore{client: client}
}

// LoadRecent returns up to maxBars of the newest bars, ascending by date.
func (s *ClickHouseBarStore) LoadRecent(ctx context.Context, ticker string, maxBars int) ([]models.BarDaily, error) {
	rows, err := s.client.DB().QueryContext(ctx, `
		SELECT ticker, date, open, high, low, close, volume
		FROM bars_daily FINAL
		WHERE ticker = ?
		ORDER BY date DESC
		LIMIT ?`, ticker, maxBars)
	if err != nil {
		return nil, fmt.Errorf("load bars for %s: %w", ticker, err)
	}
	defer rows.Close()

	var bars []models.BarDaily
	for rows.Next() {
		var b models.BarDaily
		if err := rows.Scan(&b.Ticker, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	// Query order is newest-first for the LIMIT; consumers want ascending.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// UpsertIncremental writes bars in one batch and reports how many rows
// were sent. Validation already happened upstream; rows are written as-is.
func (s *ClickHouseBarStore) UpsertIncremental(ctx context.Context, ticker string, bars []models.BarDaily, source string) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bar batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars_daily (ticker, date, open, high, low, close, volume, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare bar batch: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, source); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("append bar %s %s: %w", ticker, b.Date.Format("2006-01-02"), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bar batch: %w", err)
	}
	return len(bars), nil
}
