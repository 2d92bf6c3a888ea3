package trackrecord

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/storage/signal"
)

// History paging limits.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
	questionWidth       = 60
)

// HistoryItem is one row of the public signal history.
type HistoryItem struct {
	ID             string          `json:"id"`
	Date           string          `json:"date"`
	MarketQuestion string          `json:"market_question"`
	SignalType     core.SignalType `json:"signal_type"`
	Direction      core.Direction  `json:"direction"`
	Confidence     float64         `json:"confidence"`
	EntryPrice     float64         `json:"entry_price"`
	ExitPrice      *float64        `json:"exit_price"`
	GainPct        *float64        `json:"gain_pct"`
	Status         core.Status     `json:"status"`
}

// History is a page of signal history.
type History struct {
	Signals []HistoryItem `json:"signals"`
	Total   int           `json:"total"`
	Offset  int           `json:"offset"`
	Limit   int           `json:"limit"`
}

// HistoryFilter selects history rows.
type HistoryFilter struct {
	Status core.Status
	Type   core.SignalType
	Limit  int
	Offset int
}

// Service computes track records from a signal store.
type Service struct {
	store signal.Store
	now   func() time.Time
}

// NewService creates a Service over store.
func NewService(store signal.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Report computes the full track record.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	signals, err := s.store.List(ctx, signal.ListFilter{})
	if err != nil {
		return nil, err
	}
	r := Calculate(signals, s.now().UTC())
	return &r, nil
}

// History returns a page of signals, newest first.
func (s *Service) History(ctx context.Context, f HistoryFilter) (*History, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultHistoryLimit
	}
	if f.Limit > MaxHistoryLimit {
		f.Limit = MaxHistoryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	filter := signal.ListFilter{Type: f.Type, Limit: f.Limit, Offset: f.Offset}
	if f.Status != "" {
		filter.Statuses = []core.Status{f.Status}
	}

	signals, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = 0, 0
	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, len(signals))
	for i, sig := range signals {
		items[i] = historyItem(sig, true)
	}
	return &History{Signals: items, Total: total, Offset: f.Offset, Limit: f.Limit}, nil
}

// Export writes every stored signal to w as CSV, newest first.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	signals, err := s.store.List(ctx, signal.ListFilter{})
	if err != nil {
		return err
	}
	items := make([]HistoryItem, len(signals))
	for i, sig := range signals {
		items[i] = historyItem(sig, false)
	}
	return WriteCSV(w, items)
}

func historyItem(sig core.Signal, truncate bool) HistoryItem {
	q := sig.MarketQuestion
	if truncate {
		if r := []rune(q); len(r) > questionWidth {
			q = string(r[:questionWidth]) + "..."
		}
	}
	return HistoryItem{
		ID:             sig.ID,
		Date:           sig.CreatedAt.UTC().Format("2006-01-02"),
		MarketQuestion: q,
		SignalType:     sig.Type,
		Direction:      sig.Direction,
		Confidence:     sig.Confidence,
		EntryPrice:     sig.EntryPrice,
		ExitPrice:      sig.PriceAtResolution,
		GainPct:        sig.GainFinalPct,
		Status:         sig.Status,
	}
}

var csvHeader = []string{
	"ID", "Date", "Market", "Signal Type", "Direction",
	"Confidence", "Entry Price", "Exit Price", "Gain %", "Status",
}

// WriteCSV writes history rows with a header line.
func WriteCSV(w io.Writer, items []HistoryItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, it := range items {
		row := []string{
			it.ID,
			it.Date,
			it.MarketQuestion,
			string(it.SignalType),
			string(it.Direction),
			strconv.FormatFloat(it.Confidence, 'f', -1, 64),
			strconv.FormatFloat(it.EntryPrice, 'f', -1, 64),
			optional(it.ExitPrice, "%g"),
			optional(it.GainPct, "%.2f"),
			string(it.Status),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func optional(v *float64, format string) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf(format, *v)
}
