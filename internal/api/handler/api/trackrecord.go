package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/polyedge/internal/api/response"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/trackrecord"
)

// TrackRecordHandler serves the public track record.
type TrackRecordHandler struct {
	svc *trackrecord.Service
}

// NewTrackRecordHandler creates a new track record handler.
func NewTrackRecordHandler(svc *trackrecord.Service) *TrackRecordHandler {
	return &TrackRecordHandler{svc: svc}
}

// Summary returns aggregate performance overall and per signal type.
func (h *TrackRecordHandler) Summary(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Report(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}

// History returns a page of signals with their outcomes.
func (h *TrackRecordHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := trackrecord.HistoryFilter{
		Status: core.Status(upper(q, "status")),
		Type:   core.SignalType(upper(q, "type")),
	}
	if f.Status != "" && !f.Status.Valid() {
		response.BadRequest(w, "unknown status %q", q.Get("status"))
		return
	}

	var ok bool
	if f.Limit, ok = intParam(q, "limit", trackrecord.DefaultHistoryLimit); !ok {
		response.BadRequest(w, "invalid limit %q", q.Get("limit"))
		return
	}
	if f.Offset, ok = intParam(q, "offset", 0); !ok {
		response.BadRequest(w, "invalid offset %q", q.Get("offset"))
		return
	}

	history, err := h.svc.History(r.Context(), f)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, history)
}

// Export streams the full signal history as a CSV attachment.
func (h *TrackRecordHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), &buf); err != nil {
		response.Fail(w, err)
		return
	}

	name := fmt.Sprintf("polyedge-signals-%s.csv", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
