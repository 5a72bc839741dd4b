package yahoo

import (
	"errors"
	"testing"

	"StockScan/internal/domain/models"
	"StockScan/pkg/http"
)

func TestParseChartHappyPath(t *testing.T) {
	body := []byte(`{"chart":{"result":[{
		"timestamp":[1724284800,1724371200],
		"indicators":{"quote":[{
			"open":[100,101],"high":[102,103],"low":[99,100],
			"close":[101,102],"volume":[5000,6000]}]},
		"meta":{"exchangeTimezoneName":"UTC"}
	}],"error":null}}`)

	bars, err := parseChart("7203.T", body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("want 2 bars, got %d", len(bars))
	}
	if bars[0].Close != 101 || bars[1].Volume != 6000 {
		t.Fatalf("unexpected bars %+v", bars)
	}
	if bars[0].Ticker != "7203.T" {
		t.Fatalf("ticker not carried onto bars")
	}
}

func TestParseChartSkipsHalfFilledRows(t *testing.T) {
	body := []byte(`{"chart":{"result":[{
		"timestamp":[1724284800,1724371200],
		"indicators":{"quote":[{
			"open":[100,null],"high":[102,null],"low":[99,null],
			"close":[101,null],"volume":[5000,null]}]},
		"meta":{}
	}],"error":null}}`)

	bars, err := parseChart("7203.T", body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("null row should be dropped, got %d bars", len(bars))
	}
}

func TestParseChartClassifications(t *testing.T) {
	cases := []struct {
		name string
		body string
		want models.FailureCategory
	}{
		{"not json", `<html>slow down</html>`, models.CategoryParseError},
		{"upstream not found", `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, models.CategoryNoData},
		{"empty result", `{"chart":{"result":[],"error":null}}`, models.CategoryNoData},
		{"upstream failure", `{"chart":{"result":null,"error":{"code":"Internal","description":"boom"}}}`, models.CategoryOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseChart("7203.T", []byte(tc.body))
			if err == nil {
				t.Fatalf("want error")
			}
			if got := models.Categorize(err); got != tc.want {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestClassifyTransportStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		want   models.FailureCategory
	}{
		{404, models.CategoryNoData},
		{429, models.CategoryRateLimit},
		{500, models.CategoryOther},
	}
	for _, tc := range cases {
		err := classifyTransport(&http.StatusError{StatusCode: tc.status})
		if got := models.Categorize(err); got != tc.want {
			t.Fatalf("status %d: want %s, got %s", tc.status, tc.want, got)
		}
	}
}

func TestClassifyTransportWrapsUnknown(t *testing.T) {
	err := classifyTransport(errors.New("connection reset"))
	if got := models.Categorize(err); got != models.CategoryOther {
		t.Fatalf("want other, got %s", got)
	}
}
