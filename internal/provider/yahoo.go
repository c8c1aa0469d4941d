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

	"daily-price-pipeline/internal/model"
)

// YahooOptions parameterise the Yahoo Finance chart-API provider.
type YahooOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Yahoo fetches daily bars from the public Yahoo Finance v8 chart API.
// It is the primary, key-less provider in the fallback chain.
type Yahoo struct {
	opts   YahooOptions
	logger zerolog.Logger
	client *http.Client
}

// NewYahoo constructs the Yahoo provider.
func NewYahoo(opts YahooOptions, logger zerolog.Logger) *Yahoo {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://query1.finance.yahoo.com"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &Yahoo{
		opts:   opts,
		logger: logger.With().Str("component", "yahoo_provider").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

// yahooChart is the v8 chart API response shape. Price arrays carry
// nulls for holidays and halted sessions, hence the pointer elements.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency     string `json:"currency"`
				ExchangeName string `json:"exchangeName"`
				Symbol       string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch retrieves and normalizes one symbol's history.
func (y *Yahoo) Fetch(ctx context.Context, symbol, period, interval string) (model.Table, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		y.opts.BaseURL, url.PathEscape(symbol), url.QueryEscape(interval), url.QueryEscape(period))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Table{}, err
	}
	ua := y.opts.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0"
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return model.Table{}, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Table{}, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return model.Table{}, fmt.Errorf("yahoo: status %d", resp.StatusCode)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return model.Table{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		if strings.EqualFold(chart.Chart.Error.Code, "Not Found") {
			// Unknown or delisted symbol: no data, not a failure.
			return model.Table{}, nil
		}
		return model.Table{}, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return model.Table{}, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return model.Table{}, nil
	}
	quote := result.Indicators.Quote[0]

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	deref := func(series []*float64, i int) float64 {
		if i >= len(series) || series[i] == nil {
			return math.NaN()
		}
		return *series[i]
	}

	rows := make([]model.PriceRecord, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o := deref(quote.Open, i)
		h := deref(quote.High, i)
		l := deref(quote.Low, i)
		c := deref(quote.Close, i)
		if model.IsNull(o) && model.IsNull(h) && model.IsNull(l) && model.IsNull(c) {
			continue // all-null holiday bar
		}

		day := time.Unix(ts, 0).UTC()
		rows = append(rows, model.PriceRecord{
			Datetime: day,
			Date:     day.Format(model.DateLayout),
			Symbol:   symbol,
			Open:     o,
			High:     h,
			Low:      l,
			Close:    c,
			AdjClose: deref(adjClose, i),
			Volume:   deref(quote.Volume, i),
			Currency: result.Meta.Currency,
			Exchange: result.Meta.ExchangeName,
		})
	}
	if len(rows) == 0 {
		return model.Table{}, nil
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Datetime.Before(rows[j].Datetime) })

	y.logger.Debug().Str("symbol", symbol).Int("rows", len(rows)).Msg("yahoo fetch complete")
	return model.NewTable(rows), nil
}

// FetchBatch serves multiple symbols through the same session, the way
// a bulk download is issued against Yahoo. Symbols that fail or come
// back empty are simply absent from the result.
func (y *Yahoo) FetchBatch(ctx context.Context, symbols []string, period, interval string) (map[string]model.Table, error) {
	results := make(map[string]model.Table, len(symbols))
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		table, err := y.Fetch(ctx, symbol, period, interval)
		if err != nil {
			y.logger.Warn().Err(err).Str("symbol", symbol).Msg("batch fetch failed for symbol")
			continue
		}
		if table.Empty() {
			continue
		}
		results[symbol] = table
	}
	return results, nil
}

var _ Provider = (*Yahoo)(nil)
var _ BatchProvider = (*Yahoo)(nil)
