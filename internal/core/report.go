package core

import "time"

// ItemError is a per-item failure collected during a batch run.
type ItemError struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// NewItemError builds an ItemError from err, keeping its code when it has one.
func NewItemError(id string, err error) ItemError {
	return ItemError{ID: id, Code: ErrorCode(err), Reason: err.Error()}
}

// TrackerReport summarizes one outcome tracker tick.
type TrackerReport struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Processed  int         `json:"processed"`
	Updated    int         `json:"updated"`
	Failed     int         `json:"failed"`
	Resolved   int         `json:"resolved"`
	Expired    int         `json:"expired"`
	Terminal   []string    `json:"terminal,omitempty"`
	Errors     []ItemError `json:"errors,omitempty"`
}

// GeneratorReport summarizes one signal generator run.
type GeneratorReport struct {
	RunID            string              `json:"run_id"`
	StartedAt        time.Time           `json:"started_at"`
	FinishedAt       time.Time           `json:"finished_at"`
	MarketsScanned   int                 `json:"markets_scanned"`
	MarketsSkipped   int                 `json:"markets_skipped"`
	SignalsGenerated int                 `json:"signals_generated"`
	Signals          []Signal            `json:"signals,omitempty"`
	Degraded         map[string][]string `json:"degraded,omitempty"`
	Errors           []ItemError         `json:"errors,omitempty"`
}
