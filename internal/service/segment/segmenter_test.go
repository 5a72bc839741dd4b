package segment

import (
	"fmt"
	"reflect"
	"testing"

	"StockScan/internal/domain/models"
)

func universe(n int, market string) []models.UniverseRecord {
	records := make([]models.UniverseRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, models.UniverseRecord{
			Ticker: fmt.Sprintf("%s-%04d.T", market, i),
			Market: market,
		})
	}
	return records
}

func TestBuildByMarketGroupsInFirstAppearanceOrder(t *testing.T) {
	records := []models.UniverseRecord{
		{Ticker: "A.T", Market: "PRIME"},
		{Ticker: "B.T", Market: "GROWTH"},
		{Ticker: "C.T", Market: "PRIME"},
	}

	segments := Build(records, ModeByMarket, 100)
	if len(segments) != 2 {
		t.Fatalf("want 2 segments, got %d", len(segments))
	}
	if segments[0].Key != "PRIME" || segments[1].Key != "GROWTH" {
		t.Fatalf("unexpected keys %q %q", segments[0].Key, segments[1].Key)
	}
	if segments[0].Records[0].Ticker != "A.T" || segments[0].Records[1].Ticker != "C.T" {
		t.Fatalf("order inside market not preserved: %+v", segments[0].Records)
	}
}

func TestBuildSplitsOversizedMarket(t *testing.T) {
	records := universe(5, "TSE")
	segments := Build(records, ModeByMarket, 2)

	wantKeys := []string{"TSE#1/3", "TSE#2/3", "TSE#3/3"}
	if len(segments) != len(wantKeys) {
		t.Fatalf("want %d segments, got %d", len(wantKeys), len(segments))
	}
	total := 0
	for i, seg := range segments {
		if seg.Key != wantKeys[i] {
			t.Fatalf("segment %d key %q, want %q", i, seg.Key, wantKeys[i])
		}
		total += seg.Size()
	}
	if total != len(records) {
		t.Fatalf("records lost in split: %d != %d", total, len(records))
	}
	if segments[2].Size() != 1 {
		t.Fatalf("last chunk should carry the remainder, got %d", segments[2].Size())
	}
}

func TestBuildFixedChunkIgnoresMarkets(t *testing.T) {
	records := append(universe(3, "PRIME"), universe(2, "GROWTH")...)
	segments := Build(records, ModeFixedChunk, 4)

	if len(segments) != 2 {
		t.Fatalf("want 2 segments, got %d", len(segments))
	}
	if segments[0].Key != "ALL#1/2" || segments[1].Key != "ALL#2/2" {
		t.Fatalf("unexpected keys %q %q", segments[0].Key, segments[1].Key)
	}
	if segments[0].Size() != 4 || segments[1].Size() != 1 {
		t.Fatalf("unexpected sizes %d %d", segments[0].Size(), segments[1].Size())
	}
}

func TestBuildEmptyMarketTaggedUnknown(t *testing.T) {
	segments := Build([]models.UniverseRecord{{Ticker: "X.T"}}, ModeByMarket, 10)
	if len(segments) != 1 || segments[0].Key != "UNKNOWN" {
		t.Fatalf("unexpected segments %+v", segments)
	}
}

func TestBuildDeterministic(t *testing.T) {
	records := append(universe(7, "PRIME"), universe(4, "STANDARD")...)
	first := Build(records, ModeByMarket, 3)
	second := Build(records, ModeByMarket, 3)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input produced different partitions")
	}
}

func TestSignatureSensitivity(t *testing.T) {
	records := universe(3, "PRIME")
	base := Signature(records)

	if Signature(records) != base {
		t.Fatalf("signature not stable")
	}

	reordered := []models.UniverseRecord{records[1], records[0], records[2]}
	if Signature(reordered) == base {
		t.Fatalf("reorder should change signature")
	}

	retagged := universe(3, "PRIME")
	retagged[1].Market = "STANDARD"
	if Signature(retagged) == base {
		t.Fatalf("market change should change signature")
	}
}
