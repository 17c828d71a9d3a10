// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Bus      BusConfig      `mapstructure:"bus"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	Matcher  MatcherConfig  `mapstructure:"matcher"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ScraperConfig holds the TripAdvisor scrape collaborator configuration.
type ScraperConfig struct {
	APIURL            string        `mapstructure:"api_url"`
	APIToken          string        `mapstructure:"api_token"`
	Actor             string        `mapstructure:"actor"`
	MaxItems          int           `mapstructure:"max_items"`
	Currency          string        `mapstructure:"currency"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// BackendConfig holds the backend collaborator (watchlists, users,
// preferences, agent activity) configuration.
type BackendConfig struct {
	APIURL      string        `mapstructure:"api_url"`
	AgentSecret string        `mapstructure:"agent_secret"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// DispatchConfig holds the email dispatch collaborator configuration.
type DispatchConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	AgentSecret    string        `mapstructure:"agent_secret"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// BusConfig holds the NATS event bus configuration.
type BusConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Enabled bool          `mapstructure:"enabled"`
}

// PipelineConfig holds cycle scheduling and pacing configuration.
type PipelineConfig struct {
	CycleInterval    time.Duration `mapstructure:"cycle_interval"`
	DestinationDelay time.Duration `mapstructure:"destination_delay"`
}

// AnalyzerConfig holds deal scoring configuration.
type AnalyzerConfig struct {
	WindowDays      int `mapstructure:"window_days"`
	MinDealScore    int `mapstructure:"min_deal_score"`
	ConfidenceDepth int `mapstructure:"confidence_depth"`
}

// MatcherConfig holds preference matching configuration.
type MatcherConfig struct {
	MinMatchScore int `mapstructure:"min_match_score"`
}

// StorageConfig holds price history persistence configuration.
type StorageConfig struct {
	DBPath        string `mapstructure:"db_path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// TelegramConfig holds the ops notification channel configuration.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("DEALWATCH")
	// Nested keys like scraper.api_token bind to DEALWATCH_SCRAPER_API_TOKEN.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.api_url", "https://api.apify.com")
	// Secrets default empty so env-only overrides still bind when the key
	// is omitted from the config file.
	v.SetDefault("scraper.api_token", "")
	v.SetDefault("scraper.actor", "maxcopell~tripadvisor")
	v.SetDefault("scraper.max_items", 500)
	v.SetDefault("scraper.currency", "USD")
	v.SetDefault("scraper.timeout", "5m")
	v.SetDefault("scraper.requests_per_minute", 12)

	v.SetDefault("backend.agent_secret", "")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.max_retries", 3)

	v.SetDefault("dispatch.agent_secret", "")
	v.SetDefault("dispatch.timeout", "30s")
	v.SetDefault("dispatch.max_retries", 3)
	v.SetDefault("dispatch.retry_delay_base", "1s")

	v.SetDefault("bus.url", "nats://localhost:4222")
	v.SetDefault("bus.timeout", "10s")
	v.SetDefault("bus.enabled", true)

	v.SetDefault("pipeline.cycle_interval", "2h")
	v.SetDefault("pipeline.destination_delay", "5s")

	v.SetDefault("analyzer.window_days", 30)
	v.SetDefault("analyzer.min_deal_score", 70)
	v.SetDefault("analyzer.confidence_depth", 30)

	v.SetDefault("matcher.min_match_score", 60)

	v.SetDefault("storage.db_path", "./data/dealwatch.db")
	v.SetDefault("storage.retention_days", 0) // 0 = retain indefinitely

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid. Misconfiguration
// detected here prevents the coordinator from starting at all.
func (c *Config) Validate() error {
	if c.Scraper.APIURL == "" {
		return fmt.Errorf("scraper.api_url is required")
	}
	if c.Scraper.APIToken == "" {
		return fmt.Errorf("scraper.api_token is required")
	}
	if c.Scraper.Actor == "" {
		return fmt.Errorf("scraper.actor is required")
	}
	if c.Scraper.MaxItems < 1 {
		return fmt.Errorf("scraper.max_items must be at least 1")
	}
	if c.Scraper.RequestsPerMinute < 1 {
		return fmt.Errorf("scraper.requests_per_minute must be at least 1")
	}

	if c.Backend.APIURL == "" {
		return fmt.Errorf("backend.api_url is required")
	}
	if c.Backend.AgentSecret == "" {
		return fmt.Errorf("backend.agent_secret is required")
	}

	if c.Dispatch.APIURL == "" {
		return fmt.Errorf("dispatch.api_url is required")
	}
	if c.Dispatch.MaxRetries < 1 {
		return fmt.Errorf("dispatch.max_retries must be at least 1")
	}

	if c.Bus.Enabled && c.Bus.URL == "" {
		return fmt.Errorf("bus.url is required when bus is enabled")
	}

	if c.Pipeline.CycleInterval < 1*time.Minute {
		return fmt.Errorf("pipeline.cycle_interval must be at least 1 minute")
	}
	if c.Pipeline.DestinationDelay < 0 {
		return fmt.Errorf("pipeline.destination_delay must not be negative")
	}

	if c.Analyzer.WindowDays < 1 {
		return fmt.Errorf("analyzer.window_days must be at least 1")
	}
	if c.Analyzer.MinDealScore < 0 || c.Analyzer.MinDealScore > 100 {
		return fmt.Errorf("analyzer.min_deal_score must be between 0 and 100")
	}
	if c.Analyzer.ConfidenceDepth < 1 {
		return fmt.Errorf("analyzer.confidence_depth must be at least 1")
	}

	if c.Matcher.MinMatchScore < 0 || c.Matcher.MinMatchScore > 100 {
		return fmt.Errorf("matcher.min_match_score must be between 0 and 100")
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("storage.retention_days must not be negative")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
