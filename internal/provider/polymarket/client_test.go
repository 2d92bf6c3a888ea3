package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/ratelimit"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(srv.URL, opts...)
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestGetMarketSnapshot(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/123", r.URL.Path)
		fmt.Fprint(w, `{"id":"123","question":"Will X happen?","slug":"x","endDate":"2026-06-01T00:00:00Z",
			"active":true,"closed":false,"volumeNum":500000,"volume24hr":42000,"liquidityNum":9000,
			"outcomePrices":"[\"0.35\", \"0.65\"]"}`)
	})

	snap, err := c.GetMarketSnapshot(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "123", snap.MarketID)
	assert.Equal(t, 0.35, snap.Price)
	assert.Equal(t, 42000.0, snap.Volume24h)
	assert.Equal(t, 500000.0, snap.VolumeTotal)
	assert.False(t, snap.Closed)
	assert.Nil(t, snap.ResolutionPrice)
	require.NotNil(t, snap.EndDate)
	assert.Equal(t, 2026, snap.EndDate.Year())
	assert.Equal(t, fixedNow, snap.FetchedAt)
}

func TestGetMarketSnapshot_Resolved(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"9","closed":true,"outcomePrices":"[\"1\", \"0\"]"}`)
	})

	snap, err := c.GetMarketSnapshot(context.Background(), "9")
	require.NoError(t, err)
	assert.True(t, snap.Closed)
	require.NotNil(t, snap.ResolutionPrice)
	assert.Equal(t, 1.0, *snap.ResolutionPrice)
}

func TestGetMarketSnapshot_ClosedUnsettled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"9","closed":true,"outcomePrices":"[\"0.51\", \"0.49\"]"}`)
	})

	snap, err := c.GetMarketSnapshot(context.Background(), "9")
	require.NoError(t, err)
	assert.True(t, snap.Closed)
	assert.Nil(t, snap.ResolutionPrice)
}

func TestGetMarketSnapshot_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.GetMarketSnapshot(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrMarketDataMissing)
}

func TestGetMarketSnapshot_ServerErrorBacksOff(t *testing.T) {
	calls := 0
	limiter := ratelimit.New(time.Minute, time.Hour)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}, WithLimiter(limiter))

	_, err := c.GetMarketSnapshot(context.Background(), "1")
	assert.ErrorIs(t, err, core.ErrProviderUnavailable)

	_, err = c.GetMarketSnapshot(context.Background(), "1")
	assert.ErrorIs(t, err, core.ErrRateLimited)
	assert.Equal(t, 1, calls)
	assert.False(t, limiter.Status()[APIName].Available)
}

func TestListMarkets_FiltersNonCurrent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "volume24hr", q.Get("order"))
		assert.Equal(t, "false", q.Get("ascending"))
		assert.Equal(t, "2", q.Get("limit"))
		fmt.Fprint(w, `[
			{"id":"a","question":"A?","active":true,"acceptingOrders":true,"volume24hr":120000,"outcomePrices":"[\"0.5\",\"0.5\"]","endDate":"2026-12-31T00:00:00Z"},
			{"id":"b","question":"B?","active":true,"acceptingOrders":true,"volume24hr":5000,"outcomePrices":"[\"0.2\",\"0.8\"]","endDate":"2025-12-31T00:00:00Z"},
			{"id":"c","question":"C?","active":true,"acceptingOrders":true,"outcomePrices":"not json"}
		]`)
	})

	markets, err := c.ListMarkets(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "a", markets[0].ID)
	assert.Equal(t, core.TierHigh, markets[0].Tier)
	assert.Equal(t, 0.5, markets[0].Price)
}

func TestParsePrices(t *testing.T) {
	p, err := parsePrices(`[0.25, "0.75"]`)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, p)

	p, err = parsePrices("")
	require.NoError(t, err)
	assert.Empty(t, p)

	_, err = parsePrices(`["abc"]`)
	assert.Error(t, err)
}
