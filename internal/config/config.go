// Package config loads and holds runtime configuration for the crawl engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"mwi/internal/logging"
)

// Config holds all engine configuration.
type Config struct {
	DataLocation string `yaml:"data_location"`

	Fetcher  FetcherConfig  `yaml:"fetcher"`
	Readable ReadableConfig `yaml:"readable"`
	Gate     GateConfig     `yaml:"gate"`
	Media    MediaConfig    `yaml:"media"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// FetcherConfig controls §4.3 bounded-concurrency HTTP fetching.
type FetcherConfig struct {
	Parallelism    int    `yaml:"parallelism"` // P, default 10
	UserAgent      string `yaml:"user_agent"`
	TotalTimeout   string `yaml:"total_timeout"` // default 30s
	ConnectTimeout string `yaml:"connect_timeout"`
	ReadTimeout    string `yaml:"read_timeout"`
	ArchiveURL     string `yaml:"archive_url"` // wayback availability endpoint
}

// ReadableConfig controls §4.5 readable refiner batching/retry.
type ReadableConfig struct {
	Retries       int    `yaml:"retries"`        // R, default 3
	BatchSize     int    `yaml:"batch_size"`     // B, default 10
	Timeout       string `yaml:"timeout"`        // per-attempt, default 30s
	MergeStrategy string `yaml:"merge_strategy"` // smart_merge|mercury_priority|preserve_existing
	ExtractorPath string `yaml:"extractor_path"` // not read by any verb: the refiner always uses the built-in go-readability extractor
}

// GateConfig controls the optional §4.6 LLM relevance gate.
type GateConfig struct {
	Enabled          bool   `yaml:"enabled"`
	APIKey           string `yaml:"api_key"`
	Model            string `yaml:"model"`
	Timeout          string `yaml:"timeout"`            // default 15s
	ReadableMaxChars int    `yaml:"readable_max_chars"` // default 6000
	MaxCallsPerRun   int    `yaml:"max_calls_per_run"`  // K, default 500
}

// MediaConfig controls §4.7 media analysis thresholds.
type MediaConfig struct {
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"` // default 10 MiB
	MinWidth         int   `yaml:"min_width"`           // default 100
	MinHeight        int   `yaml:"min_height"`          // default 100
	Retries          int   `yaml:"retries"`             // default 2
	DominantColorsK  int   `yaml:"dominant_colors_k"`   // default 5
}

// CrawlConfig controls §4.4 crawl depth behavior.
type CrawlConfig struct {
	MaxDepth int `yaml:"max_depth"` // default 3, link discovery stops at/after this depth
}

// LoggingConfig controls the category logger.
type LoggingConfig struct {
	DebugMode bool `yaml:"debug_mode"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataLocation: "./mwi-data",
		Fetcher: FetcherConfig{
			Parallelism:    10,
			UserAgent:      "Mozilla/5.0 (compatible; MyWebIntelligence/1.0; +https://github.com/MyWebIntelligence)",
			TotalTimeout:   "30s",
			ConnectTimeout: "10s",
			ReadTimeout:    "20s",
			ArchiveURL:     "https://archive.org/wayback/available",
		},
		Readable: ReadableConfig{
			Retries:       3,
			BatchSize:     10,
			Timeout:       "30s",
			MergeStrategy: "smart_merge",
		},
		Gate: GateConfig{
			Enabled:          false,
			Model:            "gemini-2.0-flash",
			Timeout:          "15s",
			ReadableMaxChars: 6000,
			MaxCallsPerRun:   500,
		},
		Media: MediaConfig{
			MaxFileSizeBytes: 10 * 1024 * 1024,
			MinWidth:         100,
			MinHeight:        100,
			Retries:          2,
			DominantColorsK:  5,
		},
		Crawl: CrawlConfig{
			MaxDepth: 3,
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.BootDebug("loading config from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Boot("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save persists configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides applies MWI_* environment variables over persisted config,
// per the external-interfaces contract.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MWI_DATA_LOCATION"); v != "" {
		c.DataLocation = v
	}
	if v := os.Getenv("MWI_OPENROUTER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Gate.Enabled = b
		}
	}
	if v := os.Getenv("MWI_OPENROUTER_API_KEY"); v != "" {
		c.Gate.APIKey = v
	}
	if v := os.Getenv("MWI_OPENROUTER_MODEL"); v != "" {
		c.Gate.Model = v
	}
	if v := os.Getenv("MWI_OPENROUTER_TIMEOUT"); v != "" {
		c.Gate.Timeout = v
	}
	if v := os.Getenv("MWI_OPENROUTER_READABLE_MAX_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Gate.ReadableMaxChars = n
		}
	}
	if v := os.Getenv("MWI_OPENROUTER_MAX_CALLS_PER_RUN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Gate.MaxCallsPerRun = n
		}
	}
}

// Duration parses a config duration string, falling back to def on error.
func Duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// DataDir returns the data directory, creating it if absent.
func (c *Config) DataDir() (string, error) {
	if err := os.MkdirAll(c.DataLocation, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return c.DataLocation, nil
}

