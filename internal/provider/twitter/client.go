// Package twitter measures social mention activity through the X (Twitter) v2 API.
package twitter

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
	DefaultBaseURL    = "https://api.twitter.com"
	DefaultMaxResults = 50
	APIName           = "twitter"
)

// Config holds Twitter client settings.
type Config struct {
	BaseURL     string
	BearerToken string
	MaxResults  int
}

// Client implements provider.SocialProvider.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *ratelimit.Limiter
	scorer  sentiment.Scorer
	logger  *zap.Logger
}

// New creates a Twitter client. A nil scorer defaults to the lexicon.
func New(cfg Config, scorer sentiment.Scorer, limiter *ratelimit.Limiter, logger *zap.Logger) (*Client, error) {
	if cfg.BearerToken == "" {
		return nil, core.Errorf(core.ErrConfigMissing, "twitter bearer token required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	// the search endpoint accepts 10..100
	if cfg.MaxResults < 10 || cfg.MaxResults > 100 {
		cfg.MaxResults = DefaultMaxResults
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
	}, nil
}

func (c *Client) Name() string { return APIName }

type countsResponse struct {
	Data []struct {
		Start      time.Time `json:"start"`
		End        time.Time `json:"end"`
		TweetCount int       `json:"tweet_count"`
	} `json:"data"`
	Meta struct {
		TotalTweetCount int `json:"total_tweet_count"`
	} `json:"meta"`
}

type searchResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// GetSocialActivity combines hourly mention counts over the last week with
// the sentiment of a sample of recent posts.
func (c *Client) GetSocialActivity(ctx context.Context, market core.MarketRecord, window time.Duration) (*core.SocialActivity, error) {
	query := market.SearchQuery()
	if query == "" {
		return &core.SocialActivity{}, nil
	}
	query += " -is:retweet lang:en"

	counts, err := c.counts(ctx, query)
	if err != nil {
		return nil, err
	}
	activity := Summarize(counts, window)

	texts, err := c.recent(ctx, query)
	if err != nil {
		// counts alone still carry the spike signal
		c.logger.Debug("tweet sample unavailable", zap.String("market_id", market.ID), zap.Error(err))
		return activity, nil
	}
	if len(texts) > 0 {
		scores, err := c.scorer.Score(ctx, texts)
		if err != nil {
			return nil, core.WrapError(core.ErrProviderUnavailable, fmt.Errorf("scoring posts: %w", err))
		}
		var sum float64
		for _, s := range scores {
			sum += s
		}
		activity.Sentiment = sum / float64(len(scores))
	}
	return activity, nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.cfg.BearerToken}
}

// counts returns hourly tweet counts, oldest first.
func (c *Client) counts(ctx context.Context, query string) ([]int, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("granularity", "hour")

	var resp countsResponse
	err := provider.Guard(ctx, c.limiter, APIName, func(ctx context.Context) error {
		return provider.GetJSON(ctx, c.http, c.cfg.BaseURL+"/2/tweets/counts/recent?"+q.Encode(), c.headers(), &resp)
	})
	if err != nil {
		return nil, err
	}
	out := make([]int, len(resp.Data))
	for i, b := range resp.Data {
		out[i] = b.TweetCount
	}
	return out, nil
}

func (c *Client) recent(ctx context.Context, query string) ([]string, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("max_results", strconv.Itoa(c.cfg.MaxResults))

	var resp searchResponse
	err := provider.Guard(ctx, c.limiter, APIName, func(ctx context.Context) error {
		return provider.GetJSON(ctx, c.http, c.cfg.BaseURL+"/2/tweets/search/recent?"+q.Encode(), c.headers(), &resp)
	})
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		texts = append(texts, d.Text)
	}
	return texts, nil
}

// Summarize folds hourly buckets (oldest first) into a SocialActivity.
// MentionCount covers the trailing window, rounded up to whole hours.
func Summarize(hourly []int, window time.Duration) *core.SocialActivity {
	sumLast := func(n int) int {
		if n > len(hourly) {
			n = len(hourly)
		}
		total := 0
		for _, v := range hourly[len(hourly)-n:] {
			total += v
		}
		return total
	}

	hours := int((window + time.Hour - 1) / time.Hour)
	if hours < 1 {
		hours = 1
	}

	a := &core.SocialActivity{
		MentionCount: sumLast(hours),
		Mentions1h:   sumLast(1),
		Mentions24h:  sumLast(24),
		Mentions7d:   sumLast(24 * 7),
	}
	a.Velocity = float64(a.Mentions1h)
	if avg := float64(a.Mentions24h) / 24; avg > 0 {
		a.VelocityChangePct = (float64(a.Mentions1h) - avg) / avg * 100
	}
	return a
}
