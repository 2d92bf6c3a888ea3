// Package polymarket reads market state from the Polymarket Gamma API.
package polymarket

import (
	"context"
	"encoding/json"
	"errors"
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
)

const (
	DefaultBaseURL = "https://gamma-api.polymarket.com"
	APIName        = "polymarket"
)

// Client implements provider.SnapshotProvider against the Gamma API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *ratelimit.Limiter
	tiers   core.TierBoundaries
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the shared provider HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLimiter paces requests through a shared limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(cl *Client) { cl.limiter = l }
}

// WithTiers sets the tier boundaries applied to listed markets.
func WithTiers(b core.TierBoundaries) Option {
	return func(cl *Client) { cl.tiers = b }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New creates a Gamma API client.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    provider.NewHTTPClient(),
		tiers:   core.DefaultTierBoundaries,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return APIName }

// gammaMarket is the subset of the Gamma market payload we use.
type gammaMarket struct {
	ID              string  `json:"id"`
	Question        string  `json:"question"`
	Slug            string  `json:"slug"`
	Category        string  `json:"category"`
	EndDate         string  `json:"endDate"`
	Active          bool    `json:"active"`
	Closed          bool    `json:"closed"`
	Archived        bool    `json:"archived"`
	AcceptingOrders bool    `json:"acceptingOrders"`
	VolumeNum       float64 `json:"volumeNum"`
	Volume24hr      float64 `json:"volume24hr"`
	LiquidityNum    float64 `json:"liquidityNum"`
	OutcomePrices   string  `json:"outcomePrices"` // JSON array encoded as a string, e.g. "[\"0.6\",\"0.4\"]"
}

// GetMarketSnapshot fetches one market. An unknown market is MARKET_DATA_MISSING.
func (c *Client) GetMarketSnapshot(ctx context.Context, marketID string) (*core.MarketSnapshot, error) {
	var m gammaMarket
	endpoint := fmt.Sprintf("%s/markets/%s", c.baseURL, url.PathEscape(marketID))
	err := provider.Guard(ctx, c.limiter, APIName, func(ctx context.Context) error {
		return provider.GetJSON(ctx, c.http, endpoint, nil, &m)
	})
	if err != nil {
		var se *provider.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, core.Errorf(core.ErrMarketDataMissing, "market %s not found", marketID)
		}
		return nil, err
	}
	if m.ID == "" {
		m.ID = marketID
	}
	return c.toSnapshot(m)
}

// ListMarkets returns current markets ordered by 24h volume.
func (c *Client) ListMarkets(ctx context.Context, limit int) ([]core.MarketRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := url.Values{}
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("order", "volume24hr")
	q.Set("ascending", "false")
	q.Set("limit", strconv.Itoa(limit))

	var markets []gammaMarket
	err := provider.Guard(ctx, c.limiter, APIName, func(ctx context.Context) error {
		return provider.GetJSON(ctx, c.http, c.baseURL+"/markets?"+q.Encode(), nil, &markets)
	})
	if err != nil {
		return nil, err
	}

	now := c.now()
	out := make([]core.MarketRecord, 0, len(markets))
	for _, m := range markets {
		rec, err := c.toRecord(m, now)
		if err != nil {
			c.logger.Debug("skipping unparseable market", zap.String("market_id", m.ID), zap.Error(err))
			continue
		}
		// the API does not reliably filter closed or expired markets
		if !rec.IsCurrent(now) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Client) toRecord(m gammaMarket, now time.Time) (core.MarketRecord, error) {
	prices, err := parsePrices(m.OutcomePrices)
	if err != nil {
		return core.MarketRecord{}, err
	}
	rec := core.MarketRecord{
		ID:              m.ID,
		Question:        m.Question,
		Slug:            m.Slug,
		Category:        m.Category,
		EndDate:         parseEndDate(m.EndDate),
		Active:          m.Active,
		Closed:          m.Closed,
		Archived:        m.Archived,
		AcceptingOrders: m.AcceptingOrders,
		Volume24h:       m.Volume24hr,
		VolumeTotal:     m.VolumeNum,
		Liquidity:       m.LiquidityNum,
		Tier:            c.tiers.Classify(m.Volume24hr),
		UpdatedAt:       now,
	}
	if len(prices) > 0 {
		rec.Price = prices[0]
	}
	return rec, nil
}

func (c *Client) toSnapshot(m gammaMarket) (*core.MarketSnapshot, error) {
	prices, err := parsePrices(m.OutcomePrices)
	if err != nil {
		return nil, core.WrapError(core.ErrMarketDataMissing, fmt.Errorf("market %s: %w", m.ID, err))
	}
	if len(prices) == 0 {
		return nil, core.Errorf(core.ErrMarketDataMissing, "market %s has no outcome prices", m.ID)
	}
	snap := &core.MarketSnapshot{
		MarketID:    m.ID,
		Question:    m.Question,
		Slug:        m.Slug,
		EndDate:     parseEndDate(m.EndDate),
		Price:       prices[0],
		Volume24h:   m.Volume24hr,
		VolumeTotal: m.VolumeNum,
		Liquidity:   m.LiquidityNum,
		Closed:      m.Closed,
		FetchedAt:   c.now(),
	}
	// A settled market prices the YES outcome at exactly 0 or 1.
	if m.Closed && (prices[0] == 0 || prices[0] == 1) {
		p := prices[0]
		snap.ResolutionPrice = &p
	}
	return snap, nil
}

func parsePrices(s string) ([]float64, error) {
	if s == "" || s == "null" {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("parsing outcome prices: %w", err)
	}
	out := make([]float64, 0, len(raw))
	for _, r := range raw {
		var str string
		if err := json.Unmarshal(r, &str); err == nil {
			v, err := strconv.ParseFloat(str, 64)
			if err != nil {
				return nil, fmt.Errorf("parsing outcome price %q: %w", str, err)
			}
			out = append(out, v)
			continue
		}
		var v float64
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("parsing outcome price %s: %w", r, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseEndDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
