// Package config loads pipeline settings from a YAML file, with defaults
// suitable for a local run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the scrape, preprocess, and features
// commands.
type Config struct {
	// DataDir is where the master dataset and backups live.
	DataDir string `yaml:"data_dir"`
	// MasterFile is the master dataset filename inside DataDir.
	MasterFile string `yaml:"master_file"`

	// Subreddits to scrape.
	Subreddits []string `yaml:"subreddits"`
	// Sort is the listing order: hot, new, or top.
	Sort string `yaml:"sort"`
	// Limit is the maximum posts fetched per subreddit per run.
	Limit int `yaml:"limit"`

	// UserAgent identifies the scraper to the API.
	UserAgent string `yaml:"user_agent"`
	// RateLimit is the minimum spacing between API requests, e.g. "2s".
	RateLimit Duration `yaml:"rate_limit"`
	// Burst allows short bursts above the steady rate.
	Burst int `yaml:"burst"`

	// NATS, when URL is set, receives every newly ingested record.
	NATS NATSConfig `yaml:"nats"`

	// MetricsAddr, when set, serves Prometheus metrics over HTTP.
	MetricsAddr string `yaml:"metrics_addr"`
}

// NATSConfig points at an optional broker for publishing new records.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Duration wraps time.Duration so YAML can use "2s" style strings.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:    "data",
		MasterFile: "reddit_posts_master.csv",
		Subreddits: []string{"depression", "mentalhealth"},
		Sort:       "hot",
		Limit:      1000,
		RateLimit:  Duration(2 * time.Second),
		Burst:      1,
		NATS: NATSConfig{
			Subject: "mindsift.scraper.posts",
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Limit <= 0 {
		return cfg, fmt.Errorf("config %s: limit must be positive, got %d", path, cfg.Limit)
	}
	return cfg, nil
}

// MasterPath is the full path of the master dataset file.
func (c Config) MasterPath() string {
	return filepath.Join(c.DataDir, c.MasterFile)
}
