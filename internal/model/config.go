package model

import (
	"fmt"
	"time"
)

// Config is the runtime configuration for glyphscan.
// Loaded from ~/.glyphscan/config.yaml, GLYPHSCAN_* environment variables,
// and CLI flags; see cli package for the precedence rules.
type Config struct {
	// PDFFolder is where span extractions (<pdf>.spans.jsonl) live.
	PDFFolder string `yaml:"pdf_folder"`

	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`

	// ConditionalBookIDs lists books whose corrected vocalic-r is further
	// rewritten to long-a. Explicit configuration, never read from the
	// environment inside business logic.
	ConditionalBookIDs []int `yaml:"conditional_book_ids"`

	Boundary    BoundaryConfig    `yaml:"boundary"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Cache       CacheConfig       `yaml:"cache"`
	LLM         LLMConfig         `yaml:"llm"`
	Output      OutputConfig      `yaml:"output"`
}

// BoundaryConfig carries the tunable knobs of header/footer detection.
type BoundaryConfig struct {
	MinBodyRatio       float64 `yaml:"min_body_ratio"`
	EpsMultiplier      float64 `yaml:"eps_multiplier"`
	MinClusterCoverage float64 `yaml:"min_cluster_coverage"`
}

// ConcurrencyConfig controls parallelism across independent books.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// CacheConfig controls boundary-stats caching.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// LLMConfig configures the optional cleanup pass. Disabled unless Provider
// is set; the pass never affects mining or boundary detection.
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
}

// OutputConfig controls CLI output behavior.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		PDFFolder: "./pdfs",
		DBPath:    "./glyphscan.db",
		Boundary: BoundaryConfig{
			MinBodyRatio:       0.35,
			EpsMultiplier:      3.0,
			MinClusterCoverage: 0.40,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "",
			TTL:     24 * time.Hour,
		},
		LLM: LLMConfig{
			Model:     "gpt-4",
			MaxTokens: 4000,
		},
	}
}

// Validate rejects configurations the core must never run with.
func (c *Config) Validate() error {
	for _, id := range c.ConditionalBookIDs {
		if id <= 0 {
			return fmt.Errorf("conditional_book_ids: book id must be positive, got %d", id)
		}
	}
	if c.Boundary.MinBodyRatio < 0 || c.Boundary.MinBodyRatio > 1 {
		return fmt.Errorf("boundary.min_body_ratio must be in [0,1], got %g", c.Boundary.MinBodyRatio)
	}
	if c.Boundary.MinClusterCoverage < 0 || c.Boundary.MinClusterCoverage > 1 {
		return fmt.Errorf("boundary.min_cluster_coverage must be in [0,1], got %g", c.Boundary.MinClusterCoverage)
	}
	if c.Boundary.EpsMultiplier <= 0 {
		return fmt.Errorf("boundary.eps_multiplier must be positive, got %g", c.Boundary.EpsMultiplier)
	}
	if c.Concurrency.Workers < 0 {
		return fmt.Errorf("concurrency.workers must not be negative, got %d", c.Concurrency.Workers)
	}
	return nil
}

// ConditionalSet returns the conditional book ids as a set.
func (c *Config) ConditionalSet() map[int]bool {
	set := make(map[int]bool, len(c.ConditionalBookIDs))
	for _, id := range c.ConditionalBookIDs {
		set[id] = true
	}
	return set
}
