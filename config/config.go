// Package config loads the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	HTTP struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Log      LogConfig     `yaml:"log"`
	Models   []ModelConfig `yaml:"models"`
	Accuracy struct {
		Source    string            `yaml:"source"`
		Files     map[string]string `yaml:"files"`
		Database  string            `yaml:"database"`
		CacheSize int               `yaml:"cache_size"`
		Watch     bool              `yaml:"watch"`
	} `yaml:"accuracy"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ModelConfig struct {
	Key     string `yaml:"key"`
	Type    string `yaml:"type"`
	Path    string `yaml:"path"`
	Encoder string `yaml:"encoder"`
}

const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

// Default matches the standard deployment layout: two models under
// models/ and one evaluation file per model.
func Default() *Config {
	var cfg Config
	cfg.HTTP.Port = 5000
	cfg.HTTP.Timeout = 30 * time.Second
	cfg.HTTP.AllowedOrigins = []string{"*"}
	cfg.HTTP.MaxBodyBytes = 1 << 20
	cfg.Log = LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30}
	cfg.Models = []ModelConfig{
		{Key: "random_forest", Type: "random_forest", Path: "models/random_forest.json"},
		{Key: "xgboost", Type: "xgboost", Path: "models/xgboost.json"},
	}
	cfg.Accuracy.Source = SourceFile
	cfg.Accuracy.Files = map[string]string{
		"random_forest": "forest.json",
		"xgboost":       "xgboost.json",
	}
	cfg.Accuracy.Database = "data/strokeserve.db"
	cfg.Accuracy.CacheSize = 16
	cfg.Accuracy.Watch = true
	return &cfg
}

// Load decodes path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if len(c.Models) == 0 {
		return errors.New("no models configured")
	}
	seen := make(map[string]bool, len(c.Models))
	for i, m := range c.Models {
		if m.Key == "" || m.Type == "" || m.Path == "" {
			return fmt.Errorf("models[%d]: key, type and path are required", i)
		}
		if seen[m.Key] {
			return fmt.Errorf("models[%d]: duplicate key %s", i, m.Key)
		}
		seen[m.Key] = true
	}
	switch c.Accuracy.Source {
	case SourceFile:
	case SourceSQLite:
		if c.Accuracy.Database == "" {
			return errors.New("accuracy.database is required for the sqlite source")
		}
	default:
		return fmt.Errorf("unknown accuracy.source %q", c.Accuracy.Source)
	}
	return nil
}
