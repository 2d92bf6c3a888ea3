package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Rules     RulesConfig               `mapstructure:"rules"`
	Tiers     core.TierBoundaries       `mapstructure:"tiers"`
	Generator GeneratorConfig           `mapstructure:"generator"`
	Tracker   TrackerConfig             `mapstructure:"tracker"`
	Providers ProvidersConfig           `mapstructure:"providers"`
	Server    ServerConfig              `mapstructure:"server"`
	Storage   StorageConfig             `mapstructure:"storage"`
	Archive   ArchiveConfig             `mapstructure:"archive"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Router    RouterConfig              `mapstructure:"router"`
	LLM       LLMConfig                 `mapstructure:"llm"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
	Alerts    AlertsConfig              `mapstructure:"alerts"`
	Log       LogConfig                 `mapstructure:"log"`
}

// RulesConfig holds the rule evaluator thresholds.
type RulesConfig struct {
	SentimentThreshold   float64 `mapstructure:"sentiment_threshold"`
	SentimentMinArticles int     `mapstructure:"sentiment_min_articles"`
	VolumeMultiplier     float64 `mapstructure:"volume_multiplier"`
	VolumeMinPriceChange float64 `mapstructure:"volume_min_price_change"`
	SocialMultiplier     float64 `mapstructure:"social_multiplier"`
	SocialMinMentions24h int     `mapstructure:"social_min_mentions_24h"`
	SocialMinSentiment   float64 `mapstructure:"social_min_sentiment"`
	MomentumThreshold    float64 `mapstructure:"momentum_threshold"`
	MomentumMinPoints    int     `mapstructure:"momentum_min_points"`
}

// GeneratorConfig holds signal generator settings.
type GeneratorConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	MinConfidence   float64       `mapstructure:"min_confidence"`
	Cooldown        time.Duration `mapstructure:"cooldown"`
	Concurrency     int           `mapstructure:"concurrency"`
	MinDaysToExpiry int           `mapstructure:"min_days_to_expiry"`
	MinTier         core.Tier     `mapstructure:"min_tier"`
	MinPrice        float64       `mapstructure:"min_price"`
	MaxPrice        float64       `mapstructure:"max_price"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	HistorySize     int           `mapstructure:"history_size"`
	SkipNews        bool          `mapstructure:"skip_news"`
	SkipSocial      bool          `mapstructure:"skip_social"`
	Watchlist       []string      `mapstructure:"watchlist"`
	DiscoveryLimit  int           `mapstructure:"discovery_limit"`
}

// TrackerConfig holds outcome tracker settings.
type TrackerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	Expiry          time.Duration `mapstructure:"expiry"`
	Concurrency     int           `mapstructure:"concurrency"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
}

// ProvidersConfig selects and configures the data providers.
type ProvidersConfig struct {
	Mode       string           `mapstructure:"mode"` // "simulated" or "live"
	RetryAfter time.Duration    `mapstructure:"retry_after"`
	MaxBackoff time.Duration    `mapstructure:"max_backoff"`
	Polymarket PolymarketConfig `mapstructure:"polymarket"`
	NewsAPI    NewsAPIConfig    `mapstructure:"newsapi"`
	Twitter    TwitterConfig    `mapstructure:"twitter"`
}

type PolymarketConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
	Burst          int     `mapstructure:"burst"`
}

type NewsAPIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Window         time.Duration `mapstructure:"window"`
	PageSize       int           `mapstructure:"page_size"`
	Scorer         string        `mapstructure:"scorer"` // "lexicon" or "llm"
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Burst          int           `mapstructure:"burst"`
}

type TwitterConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	BearerToken    string        `mapstructure:"bearer_token"`
	MaxResults     int           `mapstructure:"max_results"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Burst          int           `mapstructure:"burst"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

type StorageConfig struct {
	Driver          string        `mapstructure:"driver"` // "memory" or "postgres"
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogSQL          bool          `mapstructure:"log_sql"`
}

type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type NotifierConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	URL      string `mapstructure:"url"`
	// Email notifier fields
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	// Webhook notifier fields
	Headers map[string]string `mapstructure:"headers"`
}

type RouterConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
	MinConfidence float64       `mapstructure:"min_confidence"`
	Directions    []string      `mapstructure:"directions"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// AlertsConfig holds alerts configuration.
type AlertsConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Rules   []AlertRule `mapstructure:"rules"`
}

// AlertRule defines a single alert rule.
type AlertRule struct {
	Name     string        `mapstructure:"name"`
	Expr     string        `mapstructure:"expr"`
	For      time.Duration `mapstructure:"for"`
	Severity string        `mapstructure:"severity"`
	Message  string        `mapstructure:"message"`
}

// LogConfig holds log output settings.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from file on top of Defaults.
// A .env file next to the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Rules: RulesConfig{
			SentimentThreshold:   0.3,
			SentimentMinArticles: 5,
			VolumeMultiplier:     3.0,
			VolumeMinPriceChange: 0.05,
			SocialMultiplier:     5.0,
			SocialMinMentions24h: 50,
			SocialMinSentiment:   0.3,
			MomentumThreshold:    0.10,
			MomentumMinPoints:    3,
		},
		Tiers: core.DefaultTierBoundaries,
		Generator: GeneratorConfig{
			Interval:        15 * time.Minute,
			MinConfidence:   0.5,
			Concurrency:     4,
			MinDaysToExpiry: 7,
			MinTier:         core.TierLow,
			MinPrice:        0.05,
			MaxPrice:        0.95,
			ProviderTimeout: 10 * time.Second,
			HistorySize:     6,
			DiscoveryLimit:  50,
		},
		Tracker: TrackerConfig{
			Interval:        time.Hour,
			Expiry:          30 * 24 * time.Hour,
			Concurrency:     4,
			ProviderTimeout: 10 * time.Second,
		},
		Providers: ProvidersConfig{
			Mode:       "simulated",
			RetryAfter: 15 * time.Minute,
			MaxBackoff: 2 * time.Hour,
			Polymarket: PolymarketConfig{
				BaseURL:        "https://gamma-api.polymarket.com",
				RequestsPerSec: 5,
				Burst:          5,
			},
			NewsAPI: NewsAPIConfig{
				BaseURL:        "https://newsapi.org",
				Window:         24 * time.Hour,
				PageSize:       20,
				Scorer:         "lexicon",
				CacheTTL:       30 * time.Minute,
				RequestsPerSec: 1,
				Burst:          1,
			},
			Twitter: TwitterConfig{
				BaseURL:        "https://api.twitter.com",
				MaxResults:     50,
				CacheTTL:       30 * time.Minute,
				RequestsPerSec: 1,
				Burst:          1,
			},
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Driver:          "memory",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "./data/archive",
		},
		Router: RouterConfig{
			Cooldown:      4 * time.Hour,
			MinConfidence: 0.6,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Rule thresholds
	r := c.Rules
	if r.SentimentThreshold <= 0 || r.SentimentThreshold >= 1 {
		return invalid("sentiment_threshold must be in (0,1), got %f", r.SentimentThreshold)
	}
	if r.VolumeMultiplier < 1 {
		return invalid("volume_multiplier must be >= 1, got %f", r.VolumeMultiplier)
	}
	if r.SocialMultiplier < 1 {
		return invalid("social_multiplier must be >= 1, got %f", r.SocialMultiplier)
	}
	if r.MomentumThreshold <= 0 || r.MomentumThreshold >= 1 {
		return invalid("momentum_threshold must be in (0,1), got %f", r.MomentumThreshold)
	}
	if r.SentimentMinArticles < 0 || r.SocialMinMentions24h < 0 {
		return invalid("minimum sample sizes cannot be negative")
	}
	if r.MomentumMinPoints < 2 {
		return invalid("momentum_min_points must be >= 2, got %d", r.MomentumMinPoints)
	}

	if !c.Tiers.Valid() {
		return invalid("tier boundaries must be positive and strictly increasing, got %+v", c.Tiers)
	}

	// Generator
	g := c.Generator
	if g.MinConfidence < 0 || g.MinConfidence > 1 {
		return invalid("generator min_confidence must be between 0 and 1, got %f", g.MinConfidence)
	}
	if g.Cooldown < 0 {
		return invalid("generator cooldown cannot be negative, got %s", g.Cooldown)
	}
	if g.MinPrice < 0 || g.MaxPrice > 1 || g.MinPrice >= g.MaxPrice {
		return invalid("price bounds must satisfy 0 <= min < max <= 1, got [%f, %f]", g.MinPrice, g.MaxPrice)
	}
	if g.MinTier.Rank() < 0 {
		return invalid("unknown min_tier %q", g.MinTier)
	}
	if g.ProviderTimeout <= 0 || c.Tracker.ProviderTimeout <= 0 {
		return invalid("provider timeouts must be positive")
	}
	if g.Concurrency < 1 || c.Tracker.Concurrency < 1 {
		return invalid("concurrency must be at least 1")
	}

	if g.Interval <= 0 || c.Tracker.Interval <= 0 {
		return invalid("run intervals must be positive")
	}

	if c.Tracker.Expiry <= 0 {
		return invalid("tracker expiry must be positive, got %s", c.Tracker.Expiry)
	}

	switch c.Providers.Mode {
	case "simulated", "live":
	default:
		return invalid("unknown provider mode %q", c.Providers.Mode)
	}
	if c.Providers.Mode == "live" && c.Providers.NewsAPI.Scorer == "llm" && c.LLM.Provider == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("llm provider required when newsapi scorer is llm"))
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage dsn required when driver is postgres"))
		}
	default:
		return invalid("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("s3 bucket required when archive type is s3"))
			}
		default:
			return invalid("unknown archive type %q", c.Archive.Type)
		}
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("port must be between 1 and 65535, got %d", c.Server.Port)
	}

	// Router validation
	if c.Router.MinConfidence < 0 || c.Router.MinConfidence > 1 {
		return invalid("min_confidence must be between 0 and 1, got %f", c.Router.MinConfidence)
	}
	if c.Router.Cooldown < 0 {
		return invalid("router cooldown cannot be negative, got %s", c.Router.Cooldown)
	}
	for _, d := range c.Router.Directions {
		switch core.Direction(strings.ToUpper(d)) {
		case core.DirectionBuy, core.DirectionSell:
		default:
			return invalid("unknown router direction %q", d)
		}
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		}
	}

	return nil
}

func invalid(format string, args ...any) error {
	return core.WrapError(core.ErrConfigInvalid, fmt.Errorf(format, args...))
}
