package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	chart "github.com/wcharczuk/go-chart/v2"

	"daily-price-pipeline/internal/model"
	"daily-price-pipeline/internal/validation"
)

// Options configures report generation.
type Options struct {
	Dir       string
	MaxPoints int
}

// Generator renders per-symbol price charts and data quality reports.
type Generator struct {
	dir       string
	maxPoints int
	logger    zerolog.Logger
	now       func() time.Time
}

// New builds a report generator writing into opts.Dir.
func New(opts Options, logger zerolog.Logger) (*Generator, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("report: dir is required")
	}
	maxPoints := opts.MaxPoints
	if maxPoints <= 0 {
		maxPoints = 500
	}
	return &Generator{
		dir:       opts.Dir,
		maxPoints: maxPoints,
		logger:    logger.With().Str("component", "report").Logger(),
		now:       time.Now,
	}, nil
}

// PriceChart renders close price and volume for one symbol as a PNG and
// returns the written path.
func (g *Generator) PriceChart(symbol string, t model.Table) (string, error) {
	if t.Empty() {
		return "", fmt.Errorf("report: no rows to chart for %s", symbol)
	}

	rows := downsampleRows(t.SortedByDatetime(), g.maxPoints)
	x := make([]time.Time, 0, len(rows))
	closes := make([]float64, 0, len(rows))
	volumes := make([]float64, 0, len(rows))
	for _, r := range rows {
		if !r.HasDatetime() || model.IsNull(r.Close) {
			continue
		}
		x = append(x, r.Datetime)
		closes = append(closes, r.Close)
		if model.IsNull(r.Volume) {
			volumes = append(volumes, 0)
		} else {
			volumes = append(volumes, r.Volume)
		}
	}
	if len(x) == 0 {
		return "", fmt.Errorf("report: no plottable rows for %s", symbol)
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  symbol,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Close",
			ValueFormatter: priceFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name: "Volume",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Close",
				XValues: x,
				YValues: closes,
			},
			chart.TimeSeries{
				Name:    "Volume",
				XValues: x,
				YValues: volumes,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	path := filepath.Join(g.dir, fmt.Sprintf("%s_prices.png", safeName(symbol)))
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if err := graph.Render(chart.PNG, file); err != nil {
		return "", fmt.Errorf("render chart for %s: %w", symbol, err)
	}
	g.logger.Debug().Str("symbol", symbol).Str("path", path).Msg("price chart written")
	return path, nil
}

// QualityEntry is one symbol's line in the quality report.
type QualityEntry struct {
	Symbol  string
	Rows    int
	Start   string
	End     string
	Summary validation.Summary
	Issues  []validation.Issue
}

func downsampleRows(rows []model.PriceRecord, max int) []model.PriceRecord {
	if max <= 0 || len(rows) <= max {
		return rows
	}
	result := make([]model.PriceRecord, 0, max)
	step := float64(len(rows)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(rows) {
			idx = len(rows) - 1
		}
		result = append(result, rows[idx])
	}
	return result
}

func safeName(symbol string) string {
	out := make([]rune, 0, len(symbol))
	for _, r := range symbol {
		if r == '.' || r == '/' {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}
