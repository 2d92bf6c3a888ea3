package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/polyedge/internal/config"
	"github.com/newthinker/polyedge/internal/core"
)

func TestNew_Simulated(t *testing.T) {
	set, limiter, err := New(config.ProvidersConfig{Mode: "simulated"}, core.DefaultTierBoundaries, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.Equal(t, "simulated", set.Mode)
	require.NotNil(t, set.Snapshots)
	require.NotNil(t, set.Sentiment)
	require.NotNil(t, set.Social)

	markets, err := set.Snapshots.ListMarkets(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, markets, 3)
}

func TestNew_LiveWithoutCredentials(t *testing.T) {
	cfg := config.Defaults().Providers
	cfg.Mode = "live"

	set, limiter, err := New(cfg, core.DefaultTierBoundaries, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, limiter)
	assert.Equal(t, "polymarket", set.Snapshots.Name())
	assert.Nil(t, set.Sentiment)
	assert.Nil(t, set.Social)
}

func TestNew_LiveWithCredentials(t *testing.T) {
	cfg := config.Defaults().Providers
	cfg.Mode = "live"
	cfg.NewsAPI.APIKey = "k"
	cfg.Twitter.BearerToken = "t"

	set, _, err := New(cfg, core.DefaultTierBoundaries, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "newsapi", set.Sentiment.Name())
	assert.Equal(t, "twitter", set.Social.Name())
}

func TestNew_LLMScorerNeedsProvider(t *testing.T) {
	cfg := config.Defaults().Providers
	cfg.Mode = "live"
	cfg.NewsAPI.Scorer = "llm"

	_, _, err := New(cfg, core.DefaultTierBoundaries, nil, nil)
	assert.ErrorIs(t, err, core.ErrConfigMissing)
}

func TestNew_UnknownMode(t *testing.T) {
	_, _, err := New(config.ProvidersConfig{Mode: "bogus"}, core.DefaultTierBoundaries, nil, nil)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}
