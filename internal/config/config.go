package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"daily-price-pipeline/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Validation ValidationConfig `mapstructure:"validation"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Report     ReportConfig     `mapstructure:"report"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// PipelineConfig selects what to collect and where to put it.
type PipelineConfig struct {
	Symbols  []string `mapstructure:"symbols"`
	DataDir  string   `mapstructure:"data_dir"`
	Period   string   `mapstructure:"period"`
	Interval string   `mapstructure:"interval"`
}

// ProvidersConfig covers the fallback chain of market data sources.
type ProvidersConfig struct {
	Yahoo        YahooConfig        `mapstructure:"yahoo"`
	TwelveData   TwelveDataConfig   `mapstructure:"twelvedata"`
	AlphaVantage AlphaVantageConfig `mapstructure:"alphavantage"`
}

// YahooConfig tunes the primary provider.
type YahooConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// TwelveDataConfig tunes the second provider.
type TwelveDataConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	OutputSize     int           `mapstructure:"output_size"`
}

// AlphaVantageConfig tunes the last-resort provider.
type AlphaVantageConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ValidationConfig governs data quality checks.
type ValidationConfig struct {
	AutoCorrect       bool    `mapstructure:"auto_correct"`
	MaxDailyVariation float64 `mapstructure:"max_daily_variation"`
	MaxMissingDays    int     `mapstructure:"max_missing_days"`
}

// StorageConfig governs the partitioned price store.
type StorageConfig struct {
	Compression string `mapstructure:"compression"`
	MaxBackups  int    `mapstructure:"max_backups"`
	WriteCSV    bool   `mapstructure:"write_csv"`
}

// ReportConfig governs chart and quality report output.
type ReportConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	MaxPoints int  `mapstructure:"max_points"`
}

// SchedulerConfig governs recurring collection.
type SchedulerConfig struct {
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRICEPIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pricepipeline")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("pipeline.symbols", []string{})
	v.SetDefault("pipeline.data_dir", "data")
	v.SetDefault("pipeline.period", "max")
	v.SetDefault("pipeline.interval", "1d")

	v.SetDefault("providers.yahoo.enabled", true)
	v.SetDefault("providers.yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("providers.yahoo.request_timeout", "30s")
	v.SetDefault("providers.yahoo.user_agent", "Mozilla/5.0")

	v.SetDefault("providers.twelvedata.enabled", true)
	v.SetDefault("providers.twelvedata.api_key", "")
	v.SetDefault("providers.twelvedata.base_url", "https://api.twelvedata.com")
	v.SetDefault("providers.twelvedata.request_timeout", "30s")
	v.SetDefault("providers.twelvedata.output_size", 5000)

	v.SetDefault("providers.alphavantage.enabled", true)
	v.SetDefault("providers.alphavantage.api_key", "")
	v.SetDefault("providers.alphavantage.base_url", "https://www.alphavantage.co/query")
	v.SetDefault("providers.alphavantage.request_timeout", "30s")

	v.SetDefault("validation.auto_correct", true)
	v.SetDefault("validation.max_daily_variation", 0.20)
	v.SetDefault("validation.max_missing_days", 2)

	v.SetDefault("storage.compression", "snappy")
	v.SetDefault("storage.max_backups", 4)
	v.SetDefault("storage.write_csv", false)

	v.SetDefault("report.enabled", true)
	v.SetDefault("report.max_points", 500)

	v.SetDefault("scheduler.cron", "0 18 * * *")
	v.SetDefault("scheduler.timezone", "Local")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Pipeline.DataDir == "" {
		return fmt.Errorf("pipeline.data_dir must be set")
	}
	if c.Validation.MaxDailyVariation <= 0 {
		return fmt.Errorf("validation.max_daily_variation must be greater than zero")
	}
	if c.Validation.MaxMissingDays < 0 {
		return fmt.Errorf("validation.max_missing_days cannot be negative")
	}
	if c.Storage.MaxBackups < 0 {
		return fmt.Errorf("storage.max_backups cannot be negative")
	}
	if !c.Providers.Yahoo.Enabled && !c.Providers.TwelveData.Enabled && !c.Providers.AlphaVantage.Enabled {
		return fmt.Errorf("at least one provider must be enabled")
	}
	if c.Scheduler.Timezone != "" && c.Scheduler.Timezone != "Local" {
		if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
			return fmt.Errorf("scheduler.timezone: %w", err)
		}
	}
	return nil
}

// Location resolves the scheduler timezone.
func (c *Config) Location() *time.Location {
	if c.Scheduler.Timezone == "" || c.Scheduler.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
