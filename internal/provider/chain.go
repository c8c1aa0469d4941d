package provider

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"daily-price-pipeline/internal/model"
)

// Chain tries providers in strict priority order and returns the first
// non-empty result. Provider failures are isolated and logged; when
// every provider fails or comes back empty, the chain returns an empty
// table with a nil error: "no data" is a valid outcome, not a fault.
type Chain struct {
	providers []Provider
	logger    zerolog.Logger
}

// NewChain builds a fallback chain over the given providers, first
// argument tried first.
func NewChain(logger zerolog.Logger, providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		logger:    logger.With().Str("component", "provider_chain").Logger(),
	}
}

// GetHistoricalData returns the first provider's non-empty canonical
// table, or an empty table when no provider can serve the symbol. The
// only error returned is context cancellation.
func (c *Chain) GetHistoricalData(ctx context.Context, symbol, period, interval string) (model.Table, error) {
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return model.Table{}, err
		}

		table, err := p.Fetch(ctx, symbol, period, interval)
		switch {
		case errors.Is(err, ErrNotConfigured):
			c.logger.Debug().Str("provider", p.Name()).Str("symbol", symbol).Msg("provider not configured, skipping")
			continue
		case err != nil:
			c.logger.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("provider failed, trying next")
			continue
		case table.Empty():
			c.logger.Debug().Str("provider", p.Name()).Str("symbol", symbol).Msg("provider returned no data, trying next")
			continue
		}

		c.logger.Info().Str("provider", p.Name()).Str("symbol", symbol).Int("rows", len(table.Rows)).Msg("provider served symbol")
		return table, nil
	}

	c.logger.Warn().Str("symbol", symbol).Msg("all providers failed or empty")
	return model.Table{}, nil
}

// DownloadMultiple attempts a bulk call on the primary provider, then
// falls back to per-symbol retrieval only for the symbols the batch
// did not cover.
func (c *Chain) DownloadMultiple(ctx context.Context, symbols []string, period, interval string) (map[string]model.Table, error) {
	results := make(map[string]model.Table, len(symbols))

	if len(c.providers) > 0 {
		if batch, ok := c.providers[0].(BatchProvider); ok {
			tables, err := batch.FetchBatch(ctx, symbols, period, interval)
			if err != nil {
				if ctx.Err() != nil {
					return results, err
				}
				c.logger.Warn().Err(err).Msg("batch fetch failed, falling back per symbol")
			}
			for symbol, table := range tables {
				results[symbol] = table
			}
		}
	}

	for _, symbol := range symbols {
		if _, ok := results[symbol]; ok {
			continue
		}
		table, err := c.GetHistoricalData(ctx, symbol, period, interval)
		if err != nil {
			return results, err
		}
		if !table.Empty() {
			results[symbol] = table
		}
	}

	return results, nil
}
