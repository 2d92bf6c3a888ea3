package router

import (
	"errors"
	"testing"
	"time"

	"github.com/newthinker/polyedge/internal/config"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/notifier"
)

type mockNotifier struct {
	name        string
	received    []core.Signal
	batchCalled bool
	fail        bool
}

func (m *mockNotifier) Name() string                   { return m.name }
func (m *mockNotifier) Init(cfg notifier.Config) error { return nil }
func (m *mockNotifier) Notify(msg string) error        { return nil }
func (m *mockNotifier) Send(signal core.Signal) error {
	m.received = append(m.received, signal)
	if m.fail {
		return errors.New("send failed")
	}
	return nil
}
func (m *mockNotifier) SendBatch(signals []core.Signal) error {
	m.batchCalled = true
	m.received = append(m.received, signals...)
	return nil
}

type recordingMetrics struct {
	routed map[string]int
}

func (m *recordingMetrics) RecordSignalRouted(notifier, status string) {
	if m.routed == nil {
		m.routed = make(map[string]int)
	}
	m.routed[notifier+"/"+status]++
}

func buy(market string, typ core.SignalType, conf float64) core.Signal {
	return core.Signal{MarketID: market, Type: typ, Direction: core.DirectionBuy, Confidence: conf}
}

func TestRouter_Route_PassesFilters(t *testing.T) {
	registry := notifier.NewRegistry()
	mock := &mockNotifier{name: "mock"}
	registry.Register(mock)

	cfg := Config{
		MinConfidence: 0.5,
		Cooldown:      1 * time.Minute,
		Directions:    []core.Direction{core.DirectionBuy, core.DirectionSell},
	}

	r := New(cfg, registry, nil)

	if !r.Route(buy("m1", core.SignalVolumeSurge, 0.8)) {
		t.Fatal("signal should be routed")
	}

	if len(mock.received) != 1 {
		t.Errorf("expected 1 signal, got %d", len(mock.received))
	}
}

func TestRouter_Route_FilterByConfidence(t *testing.T) {
	registry := notifier.NewRegistry()
	mock := &mockNotifier{name: "mock"}
	registry.Register(mock)

	r := New(Config{MinConfidence: 0.7, Cooldown: time.Minute}, registry, nil)

	if r.Route(buy("m1", core.SignalVolumeSurge, 0.5)) {
		t.Error("low confidence signal should be filtered")
	}
	if len(mock.received) != 0 {
		t.Errorf("low confidence signal should be filtered, got %d signals", len(mock.received))
	}
}

func TestRouter_Route_FilterByDirection(t *testing.T) {
	registry := notifier.NewRegistry()
	mock := &mockNotifier{name: "mock"}
	registry.Register(mock)

	cfg := Config{
		MinConfidence: 0.5,
		Cooldown:      time.Minute,
		Directions:    []core.Direction{core.DirectionBuy},
	}

	r := New(cfg, registry, nil)

	sell := core.Signal{MarketID: "m1", Direction: core.DirectionSell, Confidence: 0.8}
	r.Route(sell)

	if len(mock.received) != 0 {
		t.Errorf("sell direction should be filtered, got %d signals", len(mock.received))
	}
}

func TestRouter_Route_Cooldown(t *testing.T) {
	registry := notifier.NewRegistry()
	mock := &mockNotifier{name: "mock"}
	registry.Register(mock)

	r := New(Config{MinConfidence: 0.5, Cooldown: time.Hour}, registry, nil)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	signal := buy("m1", core.SignalSentimentDivergence, 0.8)

	r.Route(signal)
	if len(mock.received) != 1 {
		t.Errorf("first signal should pass, got %d", len(mock.received))
	}

	now = now.Add(59 * time.Minute)
	r.Route(signal)
	if len(mock.received) != 1 {
		t.Errorf("second signal should be filtered by cooldown, got %d", len(mock.received))
	}

	now = now.Add(time.Minute)
	r.Route(signal)
	if len(mock.received) != 2 {
		t.Errorf("signal should pass once the cooldown has elapsed, got %d", len(mock.received))
	}
}

func TestRouter_Route_CooldownPerMarketAndType(t *testing.T) {
	registry := notifier.NewRegistry()
	mock := &mockNotifier{name: "mock"}
	registry.Register(mock)

	r := New(Config{MinConfidence: 0.5, Cooldown: time.Hour}, registry, nil)

	r.Route(buy("m1", core.SignalVolumeSurge, 0.8))
	r.Route(buy("m2", core.SignalVolumeSurge, 0.8))
	r.Route(buy("m1", core.SignalSocialSpike, 0.8))
	r.Route(buy("m1", core.SignalVolumeSurge, 0.8))

	if len(mock.received) != 3 {
		t.Errorf("cooldown should be keyed by market and type, got %d signals", len(mock.received))
	}
}

func TestRouter_ClearCooldown(t *testing.T) {
	registry := notifier.NewRegistry()
	mock := &mockNotifier{name: "mock"}
	registry.Register(mock)

	r := New(Config{MinConfidence: 0.5, Cooldown: time.Hour}, registry, nil)

	signal := buy("m1", core.SignalVolumeSurge, 0.8)

	r.Route(signal) // 1st
	r.Route(signal) // filtered by cooldown

	r.ClearCooldown("m1", core.SignalVolumeSurge)

	r.Route(signal) // should pass now

	if len(mock.received) != 2 {
		t.Errorf("expected 2 signals after cooldown clear, got %d", len(mock.received))
	}
}

func TestRouter_RouteBatch(t *testing.T) {
	registry := notifier.NewRegistry()
	mock := &mockNotifier{name: "mock"}
	registry.Register(mock)

	r := New(Config{MinConfidence: 0.5, Cooldown: time.Minute}, registry, nil)

	signals := []core.Signal{
		buy("m1", core.SignalVolumeSurge, 0.8),
		{MarketID: "m2", Direction: core.DirectionSell, Confidence: 0.7},
		buy("m3", core.SignalVolumeSurge, 0.3), // filtered by confidence
	}

	if n := r.RouteBatch(signals); n != 2 {
		t.Errorf("expected 2 routed, got %d", n)
	}

	if !mock.batchCalled {
		t.Error("SendBatch should have been called")
	}
	if len(mock.received) != 2 {
		t.Errorf("expected 2 signals in batch, got %d", len(mock.received))
	}
}

func TestRouter_RecordsDeliveryOutcomes(t *testing.T) {
	registry := notifier.NewRegistry()
	registry.Register(&mockNotifier{name: "ok"})
	registry.Register(&mockNotifier{name: "broken", fail: true})

	m := &recordingMetrics{}
	r := New(Config{MinConfidence: 0.5}, registry, nil)
	r.SetMetrics(m)

	if !r.Route(buy("m1", core.SignalVolumeSurge, 0.9)) {
		t.Fatal("a failing notifier must not stop routing")
	}

	if m.routed["ok/ok"] != 1 {
		t.Errorf("expected one ok delivery, got %v", m.routed)
	}
	if m.routed["broken/error"] != 1 {
		t.Errorf("expected one failed delivery, got %v", m.routed)
	}
}

func TestRouter_NilRegistry(t *testing.T) {
	r := New(Config{MinConfidence: 0.5, Cooldown: time.Hour}, nil, nil)

	if !r.Route(buy("m1", core.SignalVolumeSurge, 0.9)) {
		t.Error("signal should pass filters without a registry")
	}
	if r.GetStats()["cooldowns_active"].(int) != 1 {
		t.Error("cooldown should be recorded without a registry")
	}
}

func TestRouter_GetStats(t *testing.T) {
	cfg := DefaultConfig()
	r := New(cfg, notifier.NewRegistry(), nil)

	r.Route(buy("m1", core.SignalVolumeSurge, 0.8))

	stats := r.GetStats()

	if stats["cooldowns_active"].(int) != 1 {
		t.Errorf("expected 1 active cooldown, got %v", stats["cooldowns_active"])
	}
	if stats["min_confidence"].(float64) != cfg.MinConfidence {
		t.Error("stats should include min_confidence")
	}
}

func TestRouter_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MinConfidence != 0.6 {
		t.Errorf("default min_confidence should be 0.6, got %f", cfg.MinConfidence)
	}
	if cfg.Cooldown != 4*time.Hour {
		t.Errorf("default cooldown should be 4 hours, got %v", cfg.Cooldown)
	}
	if len(cfg.Directions) != 2 {
		t.Errorf("default should allow both directions, got %d", len(cfg.Directions))
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.RouterConfig{
		Cooldown:      2 * time.Hour,
		MinConfidence: 0.7,
		Directions:    []string{"buy"},
	})

	if cfg.Cooldown != 2*time.Hour || cfg.MinConfidence != 0.7 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Directions) != 1 || cfg.Directions[0] != core.DirectionBuy {
		t.Errorf("directions should be normalized, got %v", cfg.Directions)
	}
}

func TestRouter_CleanupExpiredCooldowns(t *testing.T) {
	r := New(Config{Cooldown: 100 * time.Millisecond, MinConfidence: 0.5}, nil, nil)

	r.mu.Lock()
	r.cooldowns["m1|VOLUME_SURGE"] = time.Now().Add(-300 * time.Millisecond) // expired
	r.cooldowns["m2|VOLUME_SURGE"] = time.Now().Add(-300 * time.Millisecond) // expired
	r.cooldowns["m3|VOLUME_SURGE"] = time.Now()                              // not expired
	r.mu.Unlock()

	removed := r.CleanupExpiredCooldowns()
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	r.mu.RLock()
	if len(r.cooldowns) != 1 {
		t.Errorf("expected 1 cooldown remaining, got %d", len(r.cooldowns))
	}
	r.mu.RUnlock()
}
