package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.HeavyTTL() != time.Minute {
		t.Fatalf("heavy ttl = %s, want 1m", cfg.HeavyTTL())
	}
	if cfg.ProductsTTL() != 5*time.Minute {
		t.Fatalf("products ttl = %s, want 5m", cfg.ProductsTTL())
	}
	if cfg.ReportLatency() != 5*time.Second {
		t.Fatalf("report latency = %s, want 5s", cfg.ReportLatency())
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Fatalf("addr = %s", cfg.Server.Addr)
	}
}

func TestLoadOverrides(t *testing.T) {
	workspace := t.TempDir()
	raw := []byte("server:\n  addr: \"0.0.0.0:9999\"\ncache:\n  heavy_ttl: \"2m\"\n")
	if err := os.WriteFile(filepath.Join(workspace, "northtrade.yml"), raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(workspace)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9999" {
		t.Fatalf("addr = %s", cfg.Server.Addr)
	}
	if cfg.HeavyTTL() != 2*time.Minute {
		t.Fatalf("heavy ttl = %s, want 2m", cfg.HeavyTTL())
	}
	// Untouched keys keep their defaults.
	if cfg.ProductsTTL() != 5*time.Minute {
		t.Fatalf("products ttl = %s, want 5m", cfg.ProductsTTL())
	}
}

func TestValidateRejectsBadDuration(t *testing.T) {
	cfg := Default()
	cfg.Cache.HeavyTTL = "sixty seconds"
	if err := cfg.Validate(); err == nil {
		t.Fatal("bad duration accepted")
	}
}
