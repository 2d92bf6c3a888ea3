// Package trackrecord summarizes how stored signals performed.
package trackrecord

import (
	"math"
	"sort"
	"time"

	"github.com/newthinker/polyedge/internal/core"
)

// StakeUSD is the notional bankroll behind the theoretical return figure.
const StakeUSD = 1000.0

// Summary is the aggregate performance over every stored signal.
type Summary struct {
	TotalSignals        int     `json:"total_signals"`
	ActiveSignals       int     `json:"active_signals"`
	ResolvedSignals     int     `json:"resolved_signals"`
	Wins                int     `json:"wins"`
	Losses              int     `json:"losses"`
	Expired             int     `json:"expired"`
	WinRatePct          float64 `json:"win_rate_pct"`
	AvgGain1hPct        float64 `json:"avg_gain_1h_pct"`
	AvgGain24hPct       float64 `json:"avg_gain_24h_pct"`
	AvgGain7dPct        float64 `json:"avg_gain_7d_pct"`
	AvgGainPct          float64 `json:"avg_gain_pct"`
	BestGainPct         float64 `json:"best_gain_pct"`
	WorstGainPct        float64 `json:"worst_gain_pct"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	TheoreticalReturn1k float64 `json:"theoretical_return_1k"`
}

// TypeStats is the performance of one signal type.
type TypeStats struct {
	SignalType   core.SignalType `json:"signal_type"`
	TotalSignals int             `json:"total_signals"`
	Wins         int             `json:"wins"`
	Losses       int             `json:"losses"`
	WinRatePct   float64         `json:"win_rate_pct"`
	AvgGainPct   float64         `json:"avg_gain_pct"`
	BestGainPct  float64         `json:"best_gain_pct"`
}

// Report is the full track record.
type Report struct {
	Summary      Summary     `json:"summary"`
	BySignalType []TypeStats `json:"by_signal_type"`
	LastUpdated  time.Time   `json:"last_updated"`
}

// mean averages the non-nil values it is given.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

// Calculate computes the track record from signals. Win rate and final gains
// cover RESOLVED_WIN and RESOLVED_LOSS only; expired signals never count as
// wins or losses.
func Calculate(signals []core.Signal, now time.Time) Report {
	var s Summary
	var g1h, g24h, g7d, final mean
	var resolved []core.Signal
	best, worst := math.Inf(-1), math.Inf(1)

	byType := make(map[core.SignalType]*typeAcc)

	for _, sig := range signals {
		s.TotalSignals++
		acc := byType[sig.Type]
		if acc == nil {
			acc = &typeAcc{best: math.Inf(-1)}
			byType[sig.Type] = acc
		}
		acc.total++

		g1h.add(sig.Gain1hPct)
		g24h.add(sig.Gain24hPct)
		g7d.add(sig.Gain7dPct)

		switch sig.Status {
		case core.StatusActive:
			s.ActiveSignals++
			continue
		case core.StatusExpired:
			s.Expired++
			continue
		case core.StatusResolvedWin:
			s.Wins++
			acc.wins++
		case core.StatusResolvedLoss:
			s.Losses++
			acc.losses++
		default:
			continue
		}

		resolved = append(resolved, sig)
		if sig.GainFinalPct == nil {
			continue
		}
		gain := *sig.GainFinalPct
		final.add(sig.GainFinalPct)
		acc.gain.add(sig.GainFinalPct)
		best = math.Max(best, gain)
		worst = math.Min(worst, gain)
		acc.best = math.Max(acc.best, gain)
	}

	s.ResolvedSignals = s.Wins + s.Losses
	s.WinRatePct = winRate(s.Wins, s.Losses)
	s.AvgGain1hPct = g1h.value()
	s.AvgGain24hPct = g24h.value()
	s.AvgGain7dPct = g7d.value()
	s.AvgGainPct = final.value()
	if final.n > 0 {
		s.BestGainPct = best
		s.WorstGainPct = worst
	}
	s.MaxDrawdownPct = maxDrawdown(resolved) * 100
	// StakeUSD split evenly over resolved signals earns the mean final gain.
	s.TheoreticalReturn1k = StakeUSD * s.AvgGainPct / 100

	return Report{
		Summary:      s,
		BySignalType: typeStats(byType),
		LastUpdated:  now,
	}
}

type typeAcc struct {
	total, wins, losses int
	gain                mean
	best                float64
}

func typeStats(byType map[core.SignalType]*typeAcc) []TypeStats {
	out := make([]TypeStats, 0, len(byType))
	for typ, acc := range byType {
		ts := TypeStats{
			SignalType:   typ,
			TotalSignals: acc.total,
			Wins:         acc.wins,
			Losses:       acc.losses,
			WinRatePct:   winRate(acc.wins, acc.losses),
			AvgGainPct:   acc.gain.value(),
		}
		if acc.gain.n > 0 {
			ts.BestGainPct = acc.best
		}
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool {
		return typeRank(out[i].SignalType) < typeRank(out[j].SignalType)
	})
	return out
}

func typeRank(t core.SignalType) int {
	for i, known := range core.SignalTypes {
		if known == t {
			return i
		}
	}
	return len(core.SignalTypes)
}

func winRate(wins, losses int) float64 {
	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses) * 100
}

// maxDrawdown is the largest peak-to-trough decline of a bankroll that
// compounds each resolved signal's final gain in resolution order.
func maxDrawdown(resolved []core.Signal) float64 {
	sorted := make([]core.Signal, 0, len(resolved))
	for _, s := range resolved {
		if s.GainFinalPct != nil {
			sorted = append(sorted, s)
		}
	}
	if len(sorted) == 0 {
		return 0
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return resolvedAt(sorted[i]).Before(resolvedAt(sorted[j]))
	})

	var maxDD float64
	var peak float64
	cumulative := 1.0

	for _, s := range sorted {
		cumulative *= 1 + *s.GainFinalPct/100
		if cumulative > peak {
			peak = cumulative
		}
		if peak > 0 {
			dd := (peak - cumulative) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

func resolvedAt(s core.Signal) time.Time {
	if s.ResolvedAt != nil {
		return *s.ResolvedAt
	}
	return s.CreatedAt
}
