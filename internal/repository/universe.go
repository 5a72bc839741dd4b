package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"StockScan/internal/domain/models"
	"StockScan/pkg/clickhouse"
)

// ClickHouseUniverseProvider reads the active universe from the universe
// table. Ordering is fixed (ticker ascending) so the same table contents
// always produce the same universe signature.
type ClickHouseUniverseProvider struct {
	client *clickhouse.Client
}

func NewClickHouseUniverseProvider(client *clickhouse.Client) *ClickHouseUniverseProvider {
	return &ClickHouseUniverseProvider{client: client}
}

func (p *ClickHouseUniverseProvider) ListActive(ctx context.Context, limit int) ([]models.UniverseRecord, error) {
	query := `
		SELECT ticker, code, name, market
		FROM universe FINAL
		WHERE active = 1
		ORDER BY ticker`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := p.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list universe: %w", err)
	}
	defer rows.Close()

	var records []models.UniverseRecord
	for rows.Next() {
		var r models.UniverseRecord
		if err := rows.Scan(&r.Ticker, &r.Code, &r.Name, &r.Market); err != nil {
			return nil, fmt.Errorf("scan universe row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate universe rows: %w", err)
	}
	return records, nil
}

// CSVUniverseProvider reads the universe from a local CSV file with
// columns ticker,code,name,market and an optional header row. Useful for
// ad-hoc scans and development without a warehouse.
type CSVUniverseProvider struct {
	path string
}

func NewCSVUniverseProvider(path string) *CSVUniverseProvider {
	return &CSVUniverseProvider{path: path}
}

func (p *CSVUniverseProvider) ListActive(ctx context.Context, limit int) ([]models.UniverseRecord, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open universe csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var records []models.UniverseRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read universe csv: %w", err)
		}
		if len(row) < 1 || row[0] == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(row[0]), "ticker") {
			continue
		}

		rec := models.UniverseRecord{Ticker: strings.TrimSpace(row[0])}
		if len(row) > 1 {
			rec.Code = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			rec.Name = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			rec.Market = strings.TrimSpace(row[3])
		}
		records = append(records, rec)

		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}
