package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"daily-price-pipeline/internal/model"
)

// AlphaVantageOptions parameterise the Alpha Vantage provider.
type AlphaVantageOptions struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// AlphaVantage is the tertiary fallback provider. The daily-adjusted
// endpoint returns a map keyed by date with ordinal-prefixed field
// names ("1. open"); values are strings parsed through decimal.
type AlphaVantage struct {
	opts   AlphaVantageOptions
	logger zerolog.Logger
	client *http.Client
}

// NewAlphaVantage constructs the Alpha Vantage provider.
func NewAlphaVantage(opts AlphaVantageOptions, logger zerolog.Logger) *AlphaVantage {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.alphavantage.co/query"
	}

	return &AlphaVantage{
		opts:   opts,
		logger: logger.With().Str("component", "alphavantage_provider").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

// Fetch retrieves and normalizes one symbol's daily series. Period and
// interval are fixed server-side to full daily history.
func (a *AlphaVantage) Fetch(ctx context.Context, symbol, _, _ string) (model.Table, error) {
	if a.opts.APIKey == "" {
		return model.Table{}, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	params.Set("symbol", symbol)
	params.Set("outputsize", "full")
	params.Set("apikey", a.opts.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.opts.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return model.Table{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return model.Table{}, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Table{}, fmt.Errorf("alphavantage read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Table{}, fmt.Errorf("alphavantage: status %d", resp.StatusCode)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Table{}, fmt.Errorf("alphavantage decode: %w", err)
	}

	for _, key := range []string{"Error Message", "Note", "Information"} {
		if raw, ok := payload[key]; ok {
			var msg string
			_ = json.Unmarshal(raw, &msg)
			return model.Table{}, fmt.Errorf("alphavantage api error: %s", msg)
		}
	}

	series := findTimeSeries(payload)
	if series == nil {
		return model.Table{}, nil
	}

	rows := make([]model.PriceRecord, 0, len(series))
	for dateStr, fields := range series {
		day, err := parseDay(dateStr)
		if err != nil {
			a.logger.Warn().Str("symbol", symbol).Str("date", dateStr).Msg("skipping unparseable date")
			continue
		}
		row := model.PriceRecord{
			Datetime: day,
			Date:     day.Format(model.DateLayout),
			Symbol:   symbol,
			Open:     parseDecimal(fields["open"]),
			High:     parseDecimal(fields["high"]),
			Low:      parseDecimal(fields["low"]),
			Close:    parseDecimal(fields["close"]),
			AdjClose: parseDecimal(fields["adjusted close"]),
			Volume:   parseDecimal(fields["volume"]),
		}
		if model.IsNull(row.AdjClose) {
			row.AdjClose = row.Close
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return model.Table{}, nil
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Datetime.Before(rows[j].Datetime) })

	a.logger.Debug().Str("symbol", symbol).Int("rows", len(rows)).Msg("alphavantage fetch complete")
	return model.NewTable(rows), nil
}

// findTimeSeries locates the "Time Series (...)" object and strips the
// ordinal prefixes from its field names.
func findTimeSeries(payload map[string]json.RawMessage) map[string]map[string]string {
	for key, raw := range payload {
		if !strings.HasPrefix(strings.ToLower(key), "time series") {
			continue
		}
		var series map[string]map[string]string
		if err := json.Unmarshal(raw, &series); err != nil {
			return nil
		}
		normalized := make(map[string]map[string]string, len(series))
		for date, fields := range series {
			clean := make(map[string]string, len(fields))
			for name, value := range fields {
				clean[stripOrdinal(name)] = value
			}
			normalized[date] = clean
		}
		return normalized
	}
	return nil
}

// stripOrdinal turns "5. adjusted close" into "adjusted close".
func stripOrdinal(name string) string {
	if idx := strings.Index(name, ". "); idx >= 0 {
		return name[idx+2:]
	}
	return name
}

var _ Provider = (*AlphaVantage)(nil)
