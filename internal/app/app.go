package app

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"daily-price-pipeline/internal/config"
	"daily-price-pipeline/internal/provider"
	"daily-price-pipeline/internal/report"
	"daily-price-pipeline/internal/storage"
	"daily-price-pipeline/internal/validation"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newChain() *provider.Chain {
	providers := make([]provider.Provider, 0, 3)
	if a.Config.Providers.Yahoo.Enabled {
		cfg := a.Config.Providers.Yahoo
		providers = append(providers, provider.NewYahoo(provider.YahooOptions{
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.RequestTimeout,
			UserAgent: cfg.UserAgent,
		}, a.Logger))
	}
	if a.Config.Providers.TwelveData.Enabled {
		cfg := a.Config.Providers.TwelveData
		providers = append(providers, provider.NewTwelveData(provider.TwelveDataOptions{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.RequestTimeout,
			OutputSize: cfg.OutputSize,
		}, a.Logger))
	}
	if a.Config.Providers.AlphaVantage.Enabled {
		cfg := a.Config.Providers.AlphaVantage
		providers = append(providers, provider.NewAlphaVantage(provider.AlphaVantageOptions{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.RequestTimeout,
		}, a.Logger))
	}
	return provider.NewChain(a.Logger, providers...)
}

func (a *App) newValidator() *validation.Validator {
	return validation.New(validation.Options{
		AutoCorrect:       a.Config.Validation.AutoCorrect,
		MaxDailyVariation: a.Config.Validation.MaxDailyVariation,
		MaxMissingDays:    a.Config.Validation.MaxMissingDays,
	}, a.Logger)
}

func (a *App) openStore() (*storage.Store, error) {
	return storage.New(storage.Options{
		BaseDir:     a.Config.Pipeline.DataDir,
		Compression: a.Config.Storage.Compression,
		MaxBackups:  a.Config.Storage.MaxBackups,
		WriteCSV:    a.Config.Storage.WriteCSV,
	}, a.Logger)
}

func (a *App) newReporter() (*report.Generator, error) {
	return report.New(report.Options{
		Dir:       filepath.Join(a.Config.Pipeline.DataDir, "reports"),
		MaxPoints: a.Config.Report.MaxPoints,
	}, a.Logger)
}

func (a *App) resolveSymbols(override []string) ([]string, error) {
	symbols := override
	if len(symbols) == 0 {
		symbols = a.Config.Pipeline.Symbols
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols configured; set pipeline.symbols or pass --symbols")
	}
	return symbols, nil
}

// CollectOptions configure a single collection run. DryRun validates
// without persisting and suppresses report generation.
type CollectOptions struct {
	Symbols    []string
	SkipReport bool
	DryRun     bool
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Symbol string
}

// ReportOptions configure standalone report generation.
type ReportOptions struct {
	Symbols []string
}
