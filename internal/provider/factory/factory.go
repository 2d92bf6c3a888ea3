// Package factory assembles the provider set selected by configuration.
package factory

import (
	"go.uber.org/zap"

	"github.com/newthinker/polyedge/internal/config"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/llm"
	"github.com/newthinker/polyedge/internal/provider"
	"github.com/newthinker/polyedge/internal/provider/newsapi"
	"github.com/newthinker/polyedge/internal/provider/polymarket"
	"github.com/newthinker/polyedge/internal/provider/simulated"
	"github.com/newthinker/polyedge/internal/provider/twitter"
	"github.com/newthinker/polyedge/internal/ratelimit"
	"github.com/newthinker/polyedge/internal/sentiment"
)

// New builds the provider set for cfg.Mode. The returned limiter is shared by
// every live provider and is nil in simulated mode. llmProvider may be nil
// unless the news scorer is "llm".
func New(cfg config.ProvidersConfig, tiers core.TierBoundaries, llmProvider llm.Provider, logger *zap.Logger) (*provider.Set, *ratelimit.Limiter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Mode {
	case "", "simulated":
		opts := simulated.Options{Tiers: tiers}
		return &provider.Set{
			Mode:      "simulated",
			Snapshots: simulated.NewMarketProvider(simulated.DefaultMarkets(), opts),
			Sentiment: simulated.NewSentimentProvider(simulated.DefaultSentiment()),
			Social:    simulated.NewSocialProvider(simulated.DefaultSocial()),
		}, nil, nil
	case "live":
		return newLive(cfg, tiers, llmProvider, logger)
	default:
		return nil, nil, core.Errorf(core.ErrConfigInvalid, "unknown provider mode %q", cfg.Mode)
	}
}

func newLive(cfg config.ProvidersConfig, tiers core.TierBoundaries, llmProvider llm.Provider, logger *zap.Logger) (*provider.Set, *ratelimit.Limiter, error) {
	limiter := ratelimit.New(cfg.RetryAfter, cfg.MaxBackoff)
	limiter.SetRate(polymarket.APIName, cfg.Polymarket.RequestsPerSec, cfg.Polymarket.Burst)
	limiter.SetRate(newsapi.APIName, cfg.NewsAPI.RequestsPerSec, cfg.NewsAPI.Burst)
	limiter.SetRate(twitter.APIName, cfg.Twitter.RequestsPerSec, cfg.Twitter.Burst)

	set := &provider.Set{
		Mode: "live",
		Snapshots: polymarket.New(cfg.Polymarket.BaseURL,
			polymarket.WithLimiter(limiter),
			polymarket.WithTiers(tiers),
			polymarket.WithLogger(logger.Named("polymarket"))),
	}

	var scorer sentiment.Scorer = sentiment.NewLexicon()
	if cfg.NewsAPI.Scorer == "llm" {
		if llmProvider == nil {
			return nil, nil, core.Errorf(core.ErrConfigMissing, "llm provider required for llm news scorer")
		}
		scorer = sentiment.NewLLMScorer(llmProvider, logger.Named("scorer"))
	}

	// Missing credentials disable a source rather than failing startup;
	// the generator treats an absent source like an unavailable one.
	if cfg.NewsAPI.APIKey == "" {
		logger.Warn("newsapi key not set, news sentiment disabled")
	} else {
		news, err := newsapi.New(newsapi.Config{
			BaseURL:  cfg.NewsAPI.BaseURL,
			APIKey:   cfg.NewsAPI.APIKey,
			PageSize: cfg.NewsAPI.PageSize,
		}, scorer, limiter, logger.Named("newsapi"))
		if err != nil {
			return nil, nil, err
		}
		set.Sentiment = provider.NewCachedSentimentProvider(news, cfg.NewsAPI.CacheTTL)
	}

	if cfg.Twitter.BearerToken == "" {
		logger.Warn("twitter bearer token not set, social activity disabled")
	} else {
		tw, err := twitter.New(twitter.Config{
			BaseURL:     cfg.Twitter.BaseURL,
			BearerToken: cfg.Twitter.BearerToken,
			MaxResults:  cfg.Twitter.MaxResults,
		}, sentiment.NewLexicon(), limiter, logger.Named("twitter"))
		if err != nil {
			return nil, nil, err
		}
		set.Social = provider.NewCachedSocialProvider(tw, cfg.Twitter.CacheTTL)
	}

	return set, limiter, nil
}
