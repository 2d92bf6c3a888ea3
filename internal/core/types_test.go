package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		volume float64
		want   Tier
	}{
		{0, TierThin},
		{9_999.99, TierThin},
		{10_000, TierLow},
		{26_999, TierLow},
		{27_000, TierMedium},
		{94_999.5, TierMedium},
		{95_000, TierHigh},
		{15_500_000, TierHigh},
	}
	for _, tt := range tests {
		if got := TierFor(tt.volume); got != tt.want {
			t.Errorf("TierFor(%v) = %s, want %s", tt.volume, got, tt.want)
		}
	}
}

func TestTierFor_Total(t *testing.T) {
	for v := 0.0; v < 200_000; v += 250 {
		if TierFor(v).Rank() < 0 {
			t.Fatalf("volume %v mapped to no tier", v)
		}
	}
}

func TestTierBoundaries_Valid(t *testing.T) {
	if !DefaultTierBoundaries.Valid() {
		t.Error("default boundaries should be valid")
	}
	if (TierBoundaries{Low: 10, Medium: 10, High: 20}).Valid() {
		t.Error("non-increasing boundaries should be invalid")
	}
}

func TestTier_AtLeast(t *testing.T) {
	if !TierHigh.AtLeast(TierLow) {
		t.Error("HIGH should be at least LOW")
	}
	if TierThin.AtLeast(TierLow) {
		t.Error("THIN should not be at least LOW")
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	if StatusActive.IsTerminal() {
		t.Error("ACTIVE is not terminal")
	}
	for _, s := range []Status{StatusResolvedWin, StatusResolvedLoss, StatusExpired} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if Status("PENDING").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestMarketRecord_IsCurrent(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(48 * time.Hour)

	open := MarketRecord{ID: "m1", Active: true, AcceptingOrders: true, EndDate: &future}
	if !open.IsCurrent(now) {
		t.Error("open market should be current")
	}

	ended := open
	ended.EndDate = &past
	if ended.IsCurrent(now) {
		t.Error("market past its end date should not be current")
	}

	closed := open
	closed.Closed = true
	if closed.IsCurrent(now) {
		t.Error("closed market should not be current")
	}

	paused := open
	paused.AcceptingOrders = false
	if paused.IsCurrent(now) {
		t.Error("market not accepting orders should not be current")
	}

	inactive := open
	inactive.Active = false
	if inactive.IsCurrent(now) {
		t.Error("inactive market should not be current even while accepting orders")
	}
}

func TestMarketRecord_SearchQuery(t *testing.T) {
	m := MarketRecord{Question: "Will the Fed cut rates in January 2025?"}
	if got := m.SearchQuery(); got != "the Fed cut rates in" {
		t.Errorf("unexpected query %q", got)
	}

	short := MarketRecord{Question: "Bitcoin above 100k?"}
	if got := short.SearchQuery(); got != "Bitcoin above 100k" {
		t.Errorf("unexpected query %q", got)
	}
}

func TestSocialActivity_HourlyRatio(t *testing.T) {
	s := SocialActivity{Mentions1h: 60, Mentions24h: 240}
	if got := s.HourlyRatio(); got != 6 {
		t.Errorf("expected ratio 6, got %v", got)
	}
	if (SocialActivity{Mentions1h: 5}).HourlyRatio() != 0 {
		t.Error("zero baseline should give zero ratio")
	}
}

func TestMarketContext_History(t *testing.T) {
	c := MarketContext{
		Price:         0.55,
		PriceHistory:  []float64{0.40, 0.45},
		VolumeHistory: []float64{10_000, 30_000},
	}
	if p, ok := c.PreviousPrice(); !ok || p != 0.45 {
		t.Errorf("unexpected previous price %v", p)
	}
	if b, ok := c.VolumeBaseline(); !ok || b != 20_000 {
		t.Errorf("unexpected baseline %v", b)
	}
	series := c.PriceSeries()
	if len(series) != 3 || series[2] != 0.55 {
		t.Errorf("unexpected series %v", series)
	}

	empty := MarketContext{}
	if _, ok := empty.VolumeBaseline(); ok {
		t.Error("empty history should have no baseline")
	}
}

func TestMarketRecord_ApplySnapshot(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := MarketRecord{ID: "m1", Question: "Old?", Active: true, AcceptingOrders: true}

	m.ApplySnapshot(MarketSnapshot{
		MarketID:  "m1",
		Question:  "New?",
		Price:     0.42,
		Volume24h: 30000,
		FetchedAt: now,
	}, DefaultTierBoundaries)

	assert.Equal(t, "New?", m.Question)
	assert.Equal(t, 0.42, m.Price)
	assert.Equal(t, TierMedium, m.Tier)
	assert.Equal(t, now, m.UpdatedAt)
	assert.True(t, m.IsCurrent(now))

	m.ApplySnapshot(MarketSnapshot{MarketID: "m1", Closed: true, FetchedAt: now}, DefaultTierBoundaries)
	assert.False(t, m.IsCurrent(now))
	assert.Equal(t, TierThin, m.Tier)
}
