// Package newsapi aggregates headline sentiment from newsapi.org.
package newsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/provider"
	"github.com/newthinker/polyedge/internal/ratelimit"
	"github.com/newthinker/polyedge/internal/sentiment"
)

const (
	DefaultBaseURL  = "https://newsapi.org"
	DefaultPageSize = 20
	APIName         = "newsapi"
)

// Config holds NewsAPI client settings.
type Config struct {
	BaseURL  string
	APIKey   string
	PageSize int
}

// Client implements provider.SentimentProvider.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *ratelimit.Limiter
	scorer  sentiment.Scorer
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a NewsAPI client. A nil scorer defaults to the lexicon.
func New(cfg Config, scorer sentiment.Scorer, limiter *ratelimit.Limiter, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, core.Errorf(core.ErrConfigMissing, "newsapi api key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if scorer == nil {
		scorer = sentiment.NewLexicon()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		http:    provider.NewHTTPClient(),
		limiter: limiter,
		scorer:  scorer,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (c *Client) Name() string { return APIName }

type everythingResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

// GetSentiment searches recent articles matching the market question and
// aggregates their scored headlines.
func (c *Client) GetSentiment(ctx context.Context, market core.MarketRecord, window time.Duration) (*core.Sentiment, error) {
	items, err := c.Search(ctx, market.SearchQuery(), window)
	if err != nil {
		return nil, err
	}
	return provider.AggregateSentiment(items, window), nil
}

// Search returns scored articles for query published within window.
func (c *Client) Search(ctx context.Context, query string, window time.Duration) ([]provider.NewsItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	if window > 0 {
		q.Set("from", c.now().Add(-window).UTC().Format(time.RFC3339))
	}
	endpoint := c.cfg.BaseURL + "/v2/everything?" + q.Encode()

	var resp everythingResponse
	err := provider.Guard(ctx, c.limiter, APIName, func(ctx context.Context) error {
		return provider.GetJSON(ctx, c.http, endpoint, map[string]string{"X-Api-Key": c.cfg.APIKey}, &resp)
	})
	if err != nil {
		return nil, err
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, core.Errorf(core.ErrProviderUnavailable, "newsapi status %q", resp.Status)
	}

	articles := make([]article, 0, len(resp.Articles))
	texts := make([]string, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		articles = append(articles, a)
		texts = append(texts, strings.TrimSpace(a.Title+". "+a.Description))
	}

	scores, err := c.scorer.Score(ctx, texts)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderUnavailable, fmt.Errorf("scoring headlines: %w", err))
	}

	items := make([]provider.NewsItem, len(articles))
	for i, a := range articles {
		items[i] = provider.NewsItem{
			Title:       a.Title,
			Summary:     a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
			Sentiment:   scores[i],
			PublishedAt: a.PublishedAt,
		}
	}
	c.logger.Debug("news search",
		zap.String("query", query),
		zap.Int("total", resp.TotalResults),
		zap.Int("scored", len(items)),
		zap.String("scorer", c.scorer.Name()))
	return items, nil
}
