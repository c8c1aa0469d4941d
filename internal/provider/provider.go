package provider

import (
	"context"
	"errors"

	"daily-price-pipeline/internal/model"
)

// ErrNotConfigured indicates a provider is missing required credentials
// and cannot be attempted at all.
var ErrNotConfigured = errors.New("provider: api key not configured")

// Provider fetches historical daily prices from one upstream source and
// normalizes the payload into the canonical table schema.
//
// An empty table with a nil error is a valid "no data" outcome; errors
// are reserved for transport or payload failures. The fallback chain
// relies on this split instead of inspecting error contents.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol, period, interval string) (model.Table, error)
}

// BatchProvider is implemented by providers that can serve several
// symbols in one call.
type BatchProvider interface {
	FetchBatch(ctx context.Context, symbols []string, period, interval string) (map[string]model.Table, error)
}
