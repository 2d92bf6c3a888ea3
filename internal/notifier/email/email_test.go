package email

import (
	"strings"
	"testing"
	"time"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/notifier"
)

func TestEmail_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Email)(nil)
}

func TestEmail_Name(t *testing.T) {
	e := New("smtp.example.com", 587, "", "", "from@example.com", []string{"to@example.com"})
	if e.Name() != "email" {
		t.Errorf("expected 'email', got %s", e.Name())
	}
}

func TestEmail_Init_RequiredFields(t *testing.T) {
	e := &Email{}
	err := e.Init(notifier.Config{Params: map[string]any{}})
	if err == nil {
		t.Error("expected error for missing required fields")
	}
}

func TestEmail_Init_WithConfig(t *testing.T) {
	e := &Email{}
	err := e.Init(notifier.Config{
		Params: map[string]any{
			"host": "smtp.example.com",
			"port": 587,
			"from": "polyedge@example.com",
			"to":   []string{"user@example.com"},
		},
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if e.host != "smtp.example.com" {
		t.Errorf("expected host smtp.example.com, got %s", e.host)
	}
}

func TestEmail_Init_DecodedYAMLParams(t *testing.T) {
	e := &Email{}
	err := e.Init(notifier.Config{
		Params: map[string]any{
			"host": "smtp.example.com",
			"from": "polyedge@example.com",
			"to":   []any{"a@example.com", "b@example.com"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.to) != 2 || e.to[1] != "b@example.com" {
		t.Errorf("unexpected recipients %v", e.to)
	}
	if e.port != 587 {
		t.Errorf("expected default port 587, got %d", e.port)
	}
}

func TestEmail_FormatSignal(t *testing.T) {
	e := New("smtp.example.com", 587, "", "", "from@example.com", []string{"to@example.com"})

	signal := core.Signal{
		MarketID:       "sim-senate-control",
		MarketQuestion: "Will Democrats control the Senate?",
		Type:           core.SignalSentimentDivergence,
		Direction:      core.DirectionBuy,
		Confidence:     0.85,
		EntryPrice:     0.30,
		MarketTier:     core.TierHigh,
		Reasoning:      "Positive news at a low price",
		CreatedAt:      time.Now(),
	}

	formatted := e.formatSignal(signal)

	for _, want := range []string{"Democrats control the Senate", "BUY", "85.0%", "SENTIMENT_DIVERGENCE", "0.300", "HIGH"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("formatted message should contain %q", want)
		}
	}
}

func TestEmail_FormatSignalHTML_BuyColor(t *testing.T) {
	e := New("smtp.example.com", 587, "", "", "from@example.com", []string{"to@example.com"})

	signal := core.Signal{
		MarketID:   "m1",
		Direction:  core.DirectionBuy,
		Confidence: 0.85,
		CreatedAt:  time.Now(),
	}

	formatted := e.formatSignalHTML(signal)

	if !strings.Contains(formatted, "#28a745") {
		t.Error("buy signal should use green color")
	}
}

func TestEmail_FormatSignalHTML_SellColor(t *testing.T) {
	e := New("smtp.example.com", 587, "", "", "from@example.com", []string{"to@example.com"})

	signal := core.Signal{
		MarketID:   "m1",
		Direction:  core.DirectionSell,
		Confidence: 0.85,
		CreatedAt:  time.Now(),
	}

	formatted := e.formatSignalHTML(signal)

	if !strings.Contains(formatted, "#dc3545") {
		t.Error("sell signal should use red color")
	}
}

func TestEmail_FormatSignalHTML_EscapesQuestion(t *testing.T) {
	e := New("smtp.example.com", 587, "", "", "from@example.com", []string{"to@example.com"})

	formatted := e.formatSignalHTML(core.Signal{MarketQuestion: "Will <b>X</b> win?", CreatedAt: time.Now()})

	if strings.Contains(formatted, "<b>X</b>") {
		t.Error("market question should be HTML escaped")
	}
}

func TestEmail_SendBatch_Empty(t *testing.T) {
	e := New("smtp.example.com", 587, "", "", "from@example.com", []string{"to@example.com"})

	err := e.SendBatch([]core.Signal{})
	if err != nil {
		t.Errorf("empty batch should not error: %v", err)
	}
}
