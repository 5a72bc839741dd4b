package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "universe.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestCSVUniverseProvider(t *testing.T) {
	path := writeCSV(t, "ticker,code,name,market\n7203.T,7203,Toyota,PRIME\n9984.T,9984,SoftBank,PRIME\n4385.T,4385,Mercari,GROWTH\n")

	records, err := NewCSVUniverseProvider(path).ListActive(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("want 3 records, got %d", len(records))
	}
	if records[0].Ticker != "7203.T" || records[0].Market != "PRIME" {
		t.Fatalf("header not skipped or fields shifted: %+v", records[0])
	}
	if records[2].Market != "GROWTH" {
		t.Fatalf("unexpected last record %+v", records[2])
	}
}

func TestCSVUniverseProviderLimit(t *testing.T) {
	path := writeCSV(t, "7203.T,7203,Toyota,PRIME\n9984.T,9984,SoftBank,PRIME\n")

	records, err := NewCSVUniverseProvider(path).ListActive(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("limit ignored, got %d records", len(records))
	}
}

func TestCSVUniverseProviderMissingFile(t *testing.T) {
	if _, err := NewCSVUniverseProvider("/nonexistent/universe.csv").ListActive(context.Background(), 0); err == nil {
		t.Fatalf("want error for missing file")
	}
}
