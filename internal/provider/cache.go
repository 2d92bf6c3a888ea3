package provider

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/polyedge/internal/core"
)

type cacheEntry[T any] struct {
	value T
	at    time.Time
}

type ttlCache[T any] struct {
	mu      sync.Mutex
	entries map[string]cacheEntry[T]
	ttl     time.Duration
	now     func() time.Time
}

func newTTLCache[T any](ttl time.Duration) *ttlCache[T] {
	return &ttlCache[T]{entries: make(map[string]cacheEntry[T]), ttl: ttl, now: time.Now}
}

func (c *ttlCache[T]) get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.at) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (c *ttlCache[T]) put(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[T]{value: v, at: c.now()}
}

// CachedSentimentProvider wraps a sentiment provider with a TTL cache keyed by market.
type CachedSentimentProvider struct {
	provider SentimentProvider
	cache    *ttlCache[*core.Sentiment]
}

// NewCachedSentimentProvider creates a cached sentiment provider.
func NewCachedSentimentProvider(p SentimentProvider, ttl time.Duration) *CachedSentimentProvider {
	return &CachedSentimentProvider{provider: p, cache: newTTLCache[*core.Sentiment](ttl)}
}

func (p *CachedSentimentProvider) Name() string { return p.provider.Name() }

// GetSentiment returns a cached reading or fetches from the underlying provider.
// Failures are never cached.
func (p *CachedSentimentProvider) GetSentiment(ctx context.Context, market core.MarketRecord, window time.Duration) (*core.Sentiment, error) {
	key := market.ID + "|" + window.String()
	if cached, ok := p.cache.get(key); ok {
		return cached, nil
	}
	s, err := p.provider.GetSentiment(ctx, market, window)
	if err != nil {
		return nil, err
	}
	p.cache.put(key, s)
	return s, nil
}

// CachedSocialProvider wraps a social provider with a TTL cache keyed by market.
type CachedSocialProvider struct {
	provider SocialProvider
	cache    *ttlCache[*core.SocialActivity]
}

// NewCachedSocialProvider creates a cached social provider.
func NewCachedSocialProvider(p SocialProvider, ttl time.Duration) *CachedSocialProvider {
	return &CachedSocialProvider{provider: p, cache: newTTLCache[*core.SocialActivity](ttl)}
}

func (p *CachedSocialProvider) Name() string { return p.provider.Name() }

// GetSocialActivity returns cached activity or fetches from the underlying provider.
func (p *CachedSocialProvider) GetSocialActivity(ctx context.Context, market core.MarketRecord, window time.Duration) (*core.SocialActivity, error) {
	key := market.ID + "|" + window.String()
	if cached, ok := p.cache.get(key); ok {
		return cached, nil
	}
	a, err := p.provider.GetSocialActivity(ctx, market, window)
	if err != nil {
		return nil, err
	}
	p.cache.put(key, a)
	return a, nil
}
