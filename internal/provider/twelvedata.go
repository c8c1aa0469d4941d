package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"daily-price-pipeline/internal/model"
)

// TwelveDataOptions parameterise the Twelve Data provider.
type TwelveDataOptions struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	OutputSize int
}

// TwelveData is the secondary, key-requiring provider. The API delivers
// every numeric value as a JSON string; values are parsed through
// decimal to avoid intermediate float rounding before they land in the
// canonical schema.
type TwelveData struct {
	opts   TwelveDataOptions
	logger zerolog.Logger
	client *http.Client
}

// NewTwelveData constructs the Twelve Data provider.
func NewTwelveData(opts TwelveDataOptions, logger zerolog.Logger) *TwelveData {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.twelvedata.com"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.OutputSize <= 0 {
		opts.OutputSize = 5000
	}

	return &TwelveData{
		opts:   opts,
		logger: logger.With().Str("component", "twelvedata_provider").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

func (t *TwelveData) Name() string { return "twelvedata" }

type twelveDataResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
		Exchange string `json:"exchange"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Fetch retrieves and normalizes one symbol's time series. The period
// argument is ignored: Twelve Data bounds history by output size.
func (t *TwelveData) Fetch(ctx context.Context, symbol, _, interval string) (model.Table, error) {
	if t.opts.APIKey == "" {
		return model.Table{}, ErrNotConfigured
	}

	if interval == "1d" {
		interval = "1day"
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("outputsize", fmt.Sprintf("%d", t.opts.OutputSize))
	params.Set("format", "JSON")
	params.Set("apikey", t.opts.APIKey)

	endpoint := t.opts.BaseURL + "/time_series?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Table{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return model.Table{}, fmt.Errorf("twelvedata fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Table{}, fmt.Errorf("twelvedata read body: %w", err)
	}

	var payload twelveDataResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Table{}, fmt.Errorf("twelvedata decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK || payload.Status == "error" {
		return model.Table{}, fmt.Errorf("twelvedata api error (%d): %s", resp.StatusCode, payload.Message)
	}
	if len(payload.Values) == 0 {
		return model.Table{}, nil
	}

	rows := make([]model.PriceRecord, 0, len(payload.Values))
	for _, v := range payload.Values {
		day, err := parseDay(v.Datetime)
		if err != nil {
			t.logger.Warn().Str("symbol", symbol).Str("datetime", v.Datetime).Msg("skipping unparseable datetime")
			continue
		}
		closePrice := parseDecimal(v.Close)
		rows = append(rows, model.PriceRecord{
			Datetime: day,
			Date:     day.Format(model.DateLayout),
			Symbol:   symbol,
			Open:     parseDecimal(v.Open),
			High:     parseDecimal(v.High),
			Low:      parseDecimal(v.Low),
			Close:    closePrice,
			AdjClose: closePrice, // no adjusted series on this endpoint
			Volume:   parseDecimal(v.Volume),
			Currency: payload.Meta.Currency,
			Exchange: payload.Meta.Exchange,
		})
	}
	if len(rows) == 0 {
		return model.Table{}, nil
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Datetime.Before(rows[j].Datetime) })

	t.logger.Debug().Str("symbol", symbol).Int("rows", len(rows)).Msg("twelvedata fetch complete")
	return model.NewTable(rows), nil
}

// parseDecimal converts an API string value to a canonical float64,
// with NaN for empty or malformed values.
func parseDecimal(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return math.NaN()
	}
	return d.InexactFloat64()
}

func parseDay(s string) (time.Time, error) {
	for _, layout := range []string{model.DateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported datetime %q", s)
}

var _ Provider = (*TwelveData)(nil)
