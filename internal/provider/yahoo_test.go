package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"daily-price-pipeline/internal/model"
)

const yahooChartBody = `{
  "chart": {
    "result": [{
      "meta": {"currency": "EUR", "exchangeName": "AMS", "symbol": "ASML.AS"},
      "timestamp": [1736121600, 1736208000, 1736294400],
      "indicators": {
        "quote": [{
          "open":   [100.0, null, 102.0],
          "high":   [105.0, null, 107.0],
          "low":    [95.0,  null, 97.0],
          "close":  [102.0, null, 104.0],
          "volume": [1000,  null, 1200]
        }],
        "adjclose": [{"adjclose": [101.5, null, 103.5]}]
      }
    }],
    "error": null
  }
}`

func TestYahooFetchNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(yahooChartBody))
	}))
	defer srv.Close()

	y := NewYahoo(YahooOptions{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	table, err := y.Fetch(context.Background(), "ASML.AS", "max", "1d")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	// The all-null bar must be dropped.
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}

	first := table.Rows[0]
	if first.Date != "2025-01-06" {
		t.Fatalf("expected first date 2025-01-06, got %s", first.Date)
	}
	if first.Open != 100.0 || first.AdjClose != 101.5 {
		t.Fatalf("unexpected first row values: %+v", first)
	}
	if first.Currency != "EUR" || first.Exchange != "AMS" {
		t.Fatalf("meta fields not propagated: %+v", first)
	}
	if !table.HasColumns(model.ColDatetime, model.ColAdjClose, model.ColVolume) {
		t.Fatal("canonical columns missing from normalized table")
	}

	for i := 1; i < len(table.Rows); i++ {
		if table.Rows[i].Datetime.Before(table.Rows[i-1].Datetime) {
			t.Fatal("rows not sorted ascending")
		}
	}
}

func TestYahooUnknownSymbolIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	y := NewYahoo(YahooOptions{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	table, err := y.Fetch(context.Background(), "ZZZZ.XX", "max", "1d")
	if err != nil {
		t.Fatalf("unknown symbol must be no-data, not an error: %v", err)
	}
	if !table.Empty() {
		t.Fatal("expected an empty table")
	}
}

func TestYahooServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	y := NewYahoo(YahooOptions{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	if _, err := y.Fetch(context.Background(), "ASML.AS", "max", "1d"); err == nil {
		t.Fatal("HTTP 500 should be an error")
	}
}

func TestYahooFetchBatchSkipsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v8/finance/chart/GOOD" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(yahooChartBody))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	y := NewYahoo(YahooOptions{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	results, err := y.FetchBatch(context.Background(), []string{"GOOD", "BAD"}, "max", "1d")
	if err != nil {
		t.Fatalf("FetchBatch returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected only the good symbol, got %v", results)
	}
	if _, ok := results["GOOD"]; !ok {
		t.Fatal("good symbol missing from batch result")
	}
}
