package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig  `toml:"logging"`
	Storage     StorageConfig  `toml:"storage"`
	Crawl       CrawlConfig    `toml:"crawl"`
	Sources     []SourceConfig `toml:"sources" validate:"dive"`
	Notify      NotifyConfig   `toml:"notify"`
	Schedule    ScheduleConfig `toml:"schedule"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

type StorageConfig struct {
	DataDir        string       `toml:"data_dir"`        // Directory for corpus, report and snapshot files
	CheckpointFile string       `toml:"checkpoint_file"` // Seen-keys snapshot (relative to data_dir unless absolute)
	LedgerFile     string       `toml:"ledger_file"`     // Delivered-keys snapshot (relative to data_dir unless absolute)
	Badger         BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// CrawlConfig contains the pagination and politeness settings shared by
// all source adapters.
type CrawlConfig struct {
	TermsFile      string   `toml:"terms_file"` // YAML file listing search terms
	MaxPages       int      `toml:"max_pages" validate:"min=1"`
	MaxAgeDays     int      `toml:"max_age_days" validate:"min=0"` // Recency cutoff; 0 disables the cutoff stop
	RequestDelay   string   `toml:"request_delay"`                 // e.g. "1200ms" - minimum delay between page fetches
	RequestTimeout string   `toml:"request_timeout"`               // e.g. "15s" - per-page fetch timeout
	RenderWait     string   `toml:"render_wait"`                   // e.g. "3s" - wait for JS rendering (chromedp sources)
	UserAgent      string   `toml:"user_agent"`
	ExcludeTitles  []string `toml:"exclude_titles"` // Title substrings to drop (e.g. "senior", "sr")
}

// SourceConfig represents one listing source, crawled in declared order.
type SourceConfig struct {
	Platform   string `toml:"platform" validate:"required"`
	Enabled    bool   `toml:"enabled"`
	BaseURL    string `toml:"base_url"`
	Location   string `toml:"location"`    // Location filter the platform supports
	RemoteOnly bool   `toml:"remote_only"` // Restrict the query to remote listings
	Render     bool   `toml:"render"`      // Fetch through the browser renderer instead of plain HTTP
}

// NotifyConfig contains Discord webhook delivery configuration.
type NotifyConfig struct {
	Enabled    bool    `toml:"enabled"`
	WebhookURL string  `toml:"webhook_url"`
	RateLimit  float64 `toml:"rate_limit"`  // Deliveries per second (default: 1)
	MaxPerRun  int     `toml:"max_per_run"` // 0 = unlimited
}

// ScheduleConfig enables repeated pipeline runs on a cron schedule.
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"` // Standard cron format, e.g. "0 * * * *"
}

// NewDefaultConfig returns the configuration defaults applied before any
// file or environment override.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			DataDir:        "./data",
			CheckpointFile: "checkpoint.json",
			LedgerFile:     "ledger.json",
			Badger: BadgerConfig{
				Path: "./data/badger",
			},
		},
		Crawl: CrawlConfig{
			TermsFile:      "terms.yaml",
			MaxPages:       5,
			MaxAgeDays:     3,
			RequestDelay:   "1200ms",
			RequestTimeout: "15s",
			RenderWait:     "3s",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
				"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		},
		Notify: NotifyConfig{
			RateLimit: 1,
		},
		Schedule: ScheduleConfig{
			Cron: "0 * * * *",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 ->
// file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("COLLIGO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("COLLIGO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("COLLIGO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if dataDir := os.Getenv("COLLIGO_DATA_DIR"); dataDir != "" {
		config.Storage.DataDir = dataDir
	}
	if badgerPath := os.Getenv("COLLIGO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if termsFile := os.Getenv("COLLIGO_TERMS_FILE"); termsFile != "" {
		config.Crawl.TermsFile = termsFile
	}
	if maxPages := os.Getenv("COLLIGO_MAX_PAGES"); maxPages != "" {
		if mp, err := strconv.Atoi(maxPages); err == nil {
			config.Crawl.MaxPages = mp
		}
	}
	if maxAge := os.Getenv("COLLIGO_MAX_AGE_DAYS"); maxAge != "" {
		if ma, err := strconv.Atoi(maxAge); err == nil {
			config.Crawl.MaxAgeDays = ma
		}
	}

	if webhook := os.Getenv("COLLIGO_WEBHOOK_URL"); webhook != "" {
		config.Notify.WebhookURL = webhook
		config.Notify.Enabled = true
	}
}

// Validate checks structural constraints and the cron schedule.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for _, field := range []struct{ name, value string }{
		{"crawl.request_delay", c.Crawl.RequestDelay},
		{"crawl.request_timeout", c.Crawl.RequestTimeout},
		{"crawl.render_wait", c.Crawl.RenderWait},
	} {
		if field.value == "" {
			continue
		}
		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", field.name, err)
		}
	}

	if c.Schedule.Enabled {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid schedule.cron %q: %w", c.Schedule.Cron, err)
		}
	}

	if c.Notify.Enabled && c.Notify.WebhookURL == "" {
		return fmt.Errorf("notify.webhook_url is required when notify.enabled is true")
	}

	return nil
}

// RequestDelayDuration returns the parsed page-fetch delay.
func (c *CrawlConfig) RequestDelayDuration() time.Duration {
	return parseDurationOr(c.RequestDelay, 1200*time.Millisecond)
}

// RequestTimeoutDuration returns the parsed per-page fetch timeout.
func (c *CrawlConfig) RequestTimeoutDuration() time.Duration {
	return parseDurationOr(c.RequestTimeout, 15*time.Second)
}

// RenderWaitDuration returns the parsed JS render wait.
func (c *CrawlConfig) RenderWaitDuration() time.Duration {
	return parseDurationOr(c.RenderWait, 3*time.Second)
}

// MaxAge converts max_age_days to a duration; ok is false when the cutoff
// stop is disabled.
func (c *CrawlConfig) MaxAge() (time.Duration, bool) {
	if c.MaxAgeDays <= 0 {
		return 0, false
	}
	return time.Duration(c.MaxAgeDays) * 24 * time.Hour, true
}

// EnabledSources returns the configured sources that are enabled, in
// declared order.
func (c *Config) EnabledSources() []SourceConfig {
	var enabled []SourceConfig
	for _, src := range c.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
