package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/polyedge/internal/core"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 9090

rules:
  sentiment_threshold: 0.25
  volume_multiplier: 4

tiers:
  low: 5000
  medium: 20000
  high: 80000

tracker:
  expiry: 240h

storage:
  driver: memory

archive:
  enabled: true
  type: localfs
  path: "/tmp/polyedge/archive"
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Rules.SentimentThreshold != 0.25 {
		t.Errorf("expected sentiment threshold 0.25, got %f", cfg.Rules.SentimentThreshold)
	}
	if cfg.Rules.SocialMultiplier != 5.0 {
		t.Errorf("expected default social multiplier to survive, got %f", cfg.Rules.SocialMultiplier)
	}
	if cfg.Tiers.Medium != 20000 {
		t.Errorf("expected medium tier 20000, got %f", cfg.Tiers.Medium)
	}
	if cfg.Tracker.Expiry != 240*time.Hour {
		t.Errorf("expected expiry 240h, got %s", cfg.Tracker.Expiry)
	}
	if cfg.Archive.Type != "localfs" {
		t.Errorf("expected localfs, got %s", cfg.Archive.Type)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("POLYEDGE_TEST_NEWS_KEY", "secret-key")
	content := []byte(`
providers:
  newsapi:
    api_key: "${POLYEDGE_TEST_NEWS_KEY}"
`)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Providers.NewsAPI.APIKey != "secret-key" {
		t.Errorf("expected expanded key, got %q", cfg.Providers.NewsAPI.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Rules.SentimentThreshold != 0.3 {
		t.Errorf("expected sentiment threshold 0.3, got %f", cfg.Rules.SentimentThreshold)
	}
	if cfg.Rules.VolumeMultiplier != 3.0 {
		t.Errorf("expected volume multiplier 3.0, got %f", cfg.Rules.VolumeMultiplier)
	}
	if cfg.Rules.SocialMultiplier != 5.0 {
		t.Errorf("expected social multiplier 5.0, got %f", cfg.Rules.SocialMultiplier)
	}
	if cfg.Tracker.Expiry != 30*24*time.Hour {
		t.Errorf("expected 30 day expiry, got %s", cfg.Tracker.Expiry)
	}
	if cfg.Tiers != core.DefaultTierBoundaries {
		t.Errorf("unexpected tier boundaries %+v", cfg.Tiers)
	}
	if cfg.Generator.Cooldown != 0 {
		t.Errorf("expected no cooldown by default, got %s", cfg.Generator.Cooldown)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr *core.Error
	}{
		{"valid defaults", func(c *Config) {}, nil},
		{"zero sentiment threshold", func(c *Config) { c.Rules.SentimentThreshold = 0 }, core.ErrConfigInvalid},
		{"volume multiplier below one", func(c *Config) { c.Rules.VolumeMultiplier = 0.5 }, core.ErrConfigInvalid},
		{"social multiplier below one", func(c *Config) { c.Rules.SocialMultiplier = 0 }, core.ErrConfigInvalid},
		{"tiers not increasing", func(c *Config) { c.Tiers.Medium = c.Tiers.High }, core.ErrConfigInvalid},
		{"zero tracker interval", func(c *Config) { c.Tracker.Interval = 0 }, core.ErrConfigInvalid},
		{"negative expiry", func(c *Config) { c.Tracker.Expiry = -time.Hour }, core.ErrConfigInvalid},
		{"inverted price bounds", func(c *Config) { c.Generator.MinPrice = 0.9; c.Generator.MaxPrice = 0.1 }, core.ErrConfigInvalid},
		{"unknown min tier", func(c *Config) { c.Generator.MinTier = "HUGE" }, core.ErrConfigInvalid},
		{"unknown provider mode", func(c *Config) { c.Providers.Mode = "replay" }, core.ErrConfigInvalid},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }, core.ErrConfigMissing},
		{"s3 without bucket", func(c *Config) { c.Archive.Enabled = true; c.Archive.Type = "s3" }, core.ErrConfigMissing},
		{"invalid port", func(c *Config) { c.Server.Port = 70000 }, core.ErrConfigInvalid},
		{"router confidence", func(c *Config) { c.Router.MinConfidence = 1.5 }, core.ErrConfigInvalid},
		{"router direction", func(c *Config) { c.Router.Directions = []string{"HOLD"} }, core.ErrConfigInvalid},
		{"claude without key", func(c *Config) { c.LLM.Provider = "claude" }, core.ErrConfigMissing},
		{"llm scorer without llm", func(c *Config) {
			c.Providers.Mode = "live"
			c.Providers.NewsAPI.Scorer = "llm"
		}, core.ErrConfigMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %s, got %v", tt.wantErr.Code, err)
			}
		})
	}
}
