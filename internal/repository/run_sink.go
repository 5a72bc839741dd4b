package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"StockScan/internal/domain/models"
	"StockScan/pkg/clickhouse"
)

// ErrNoRuns reports an empty scan_runs table.
var ErrNoRuns = errors.New("no runs recorded")

// ClickHouseRunSink persists run summaries and candidates, and serves
// the read side of the ops API.
type ClickHouseRunSink struct {
	client *clickhouse.Client
}

func NewClickHouseRunSink(client *clickhouse.Client) *ClickHouseRunSink {
	return &ClickHouseRunSink{client: client}
}

func (s *ClickHouseRunSink) SaveRun(ctx context.Context, run models.RunSummary) error {
	_, err := s.client.DB().ExecContext(ctx, `
		INSERT INTO scan_runs
			(run_id, started_at, finished_at, universe_size, segments_done,
			 segments_total, scanned, failed, candidate_count, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.StartedAt, run.FinishedAt, run.UniverseSize, run.SegmentsDone,
		run.SegmentsTotal, run.Scanned, run.Failed, run.CandidateCount, run.Status, run.Notes)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.RunID, err)
	}
	return nil
}

func (s *ClickHouseRunSink) SaveCandidates(ctx context.Context, runID string, candidates []models.ScoredCandidate) error {
	if len(candidates) == 0 {
		return nil
	}

	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin candidate batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scan_candidates
			(run_id, ticker, code, name, market, score, close, reasons_json, indicators_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare candidate batch: %w", err)
	}
	defer stmt.Close()

	for _, c := range candidates {
		if _, err := stmt.ExecContext(ctx, runID, c.Ticker, c.Code, c.Name, c.Market,
			c.Score, c.Close, c.ReasonsJSON, c.IndicatorsJSON); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append candidate %s: %w", c.Ticker, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit candidate batch: %w", err)
	}
	return nil
}

// LatestRun returns the most recently started run.
func (s *ClickHouseRunSink) LatestRun(ctx context.Context) (models.RunSummary, error) {
	var run models.RunSummary
	row := s.client.DB().QueryRowContext(ctx, `
		SELECT run_id, started_at, finished_at, universe_size, segments_done,
		       segments_total, scanned, failed, candidate_count, status, notes
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT 1`)
	err := row.Scan(&run.RunID, &run.StartedAt, &run.FinishedAt, &run.UniverseSize,
		&run.SegmentsDone, &run.SegmentsTotal, &run.Scanned, &run.Failed,
		&run.CandidateCount, &run.Status, &run.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return run, ErrNoRuns
	}
	if err != nil {
		return run, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// LatestCandidates returns the best candidates of the newest completed
// run, score descending.
func (s *ClickHouseRunSink) LatestCandidates(ctx context.Context, limit int) ([]models.ScoredCandidate, error) {
	rows, err := s.client.DB().QueryContext(ctx, `
		SELECT ticker, code, name, market, score, close, reasons_json, indicators_json
		FROM scan_candidates FINAL
		WHERE run_id = (
			SELECT run_id FROM scan_runs
			WHERE status = ?
			ORDER BY started_at DESC
			LIMIT 1
		)
		ORDER BY score DESC
		LIMIT ?`, models.RunStatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("latest candidates: %w", err)
	}
	defer rows.Close()

	var out []models.ScoredCandidate
	for rows.Next() {
		var c models.ScoredCandidate
		if err := rows.Scan(&c.Ticker, &c.Code, &c.Name, &c.Market,
			&c.Score, &c.Close, &c.ReasonsJSON, &c.IndicatorsJSON); err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate rows: %w", err)
	}
	return out, nil
}
