package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models northtrade.yml. Durations are Go duration strings
// ("3s", "1m"); empty values fall back to the defaults below.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Auth struct {
		// JWTSecret enables bearer auth when non-empty. Empty leaves
		// the API open, which is the teaching default.
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Cache struct {
		HeavyTTL    string `yaml:"heavy_ttl"`
		ProductsTTL string `yaml:"products_ttl"`
	} `yaml:"cache"`
	Tasks struct {
		Workers       int    `yaml:"workers"`
		ReportLatency string `yaml:"report_latency"`
		ImageLatency  string `yaml:"image_latency"`
	} `yaml:"tasks"`
	Demo struct {
		HeavyLatency string `yaml:"heavy_latency"`
	} `yaml:"demo"`
}

// Path returns the config file path for the workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "northtrade.yml")
}

// Default returns the teaching defaults: 60s heavy cache, 300s
// product cache, 5s report latency, 3s image latency, 3s heavy compute.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = "127.0.0.1:8080"
	cfg.Server.BasePath = "/v1"
	cfg.Cache.HeavyTTL = "60s"
	cfg.Cache.ProductsTTL = "300s"
	cfg.Tasks.Workers = 4
	cfg.Tasks.ReportLatency = "5s"
	cfg.Tasks.ImageLatency = "3s"
	cfg.Demo.HeavyLatency = "3s"
	return &cfg
}

// Load reads config from the workspace, falling back to defaults when
// the file does not exist.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Omitted
// fields keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures every duration field parses.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"cache.heavy_ttl":      c.Cache.HeavyTTL,
		"cache.products_ttl":   c.Cache.ProductsTTL,
		"tasks.report_latency": c.Tasks.ReportLatency,
		"tasks.image_latency":  c.Tasks.ImageLatency,
		"demo.heavy_latency":   c.Demo.HeavyLatency,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("config.%s: %w", name, err)
		}
	}
	if c.Tasks.Workers < 0 {
		return fmt.Errorf("config.tasks.workers must not be negative")
	}
	return nil
}

func duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func (c *Config) HeavyTTL() time.Duration      { return duration(c.Cache.HeavyTTL, time.Minute) }
func (c *Config) ProductsTTL() time.Duration   { return duration(c.Cache.ProductsTTL, 5*time.Minute) }
func (c *Config) ReportLatency() time.Duration { return duration(c.Tasks.ReportLatency, 5*time.Second) }
func (c *Config) ImageLatency() time.Duration  { return duration(c.Tasks.ImageLatency, 3*time.Second) }
func (c *Config) HeavyLatency() time.Duration  { return duration(c.Demo.HeavyLatency, 3*time.Second) }
