package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/newthinker/polyedge/internal/api/response"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/storage/signal"
)

// SignalsHandler handles signal-related API requests.
type SignalsHandler struct {
	store signal.Store
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(store signal.Store) *SignalsHandler {
	return &SignalsHandler{store: store}
}

// List returns signals matching query parameters.
func (h *SignalsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := signal.ListFilter{
		MarketID:  q.Get("market_id"),
		Type:      core.SignalType(upper(q, "type")),
		Direction: core.Direction(upper(q, "direction")),
		Tier:      core.Tier(upper(q, "tier")),
	}

	if filter.Direction != "" && filter.Direction != core.DirectionBuy && filter.Direction != core.DirectionSell {
		response.BadRequest(w, "unknown direction %q", q.Get("direction"))
		return
	}
	if filter.Tier != "" && filter.Tier.Rank() < 0 {
		response.BadRequest(w, "unknown tier %q", q.Get("tier"))
		return
	}

	if status := q.Get("status"); status != "" {
		for _, s := range strings.Split(status, ",") {
			st := core.Status(strings.ToUpper(strings.TrimSpace(s)))
			if !st.Valid() {
				response.BadRequest(w, "unknown status %q", s)
				return
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}

	if mc := q.Get("min_confidence"); mc != "" {
		v, err := strconv.ParseFloat(mc, 64)
		if err != nil || v < 0 || v > 1 {
			response.BadRequest(w, "min_confidence must be within [0, 1]")
			return
		}
		filter.MinConfidence = v
	}

	var ok bool
	if filter.From, ok = timeParam(q, "from"); !ok {
		response.BadRequest(w, "invalid from %q", q.Get("from"))
		return
	}
	if filter.To, ok = timeParam(q, "to"); !ok {
		response.BadRequest(w, "invalid to %q", q.Get("to"))
		return
	}
	if filter.Limit, ok = intParam(q, "limit", defaultLimit); !ok {
		response.BadRequest(w, "invalid limit %q", q.Get("limit"))
		return
	}
	if filter.Offset, ok = intParam(q, "offset", 0); !ok {
		response.BadRequest(w, "invalid offset %q", q.Get("offset"))
		return
	}

	signals, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.Fail(w, err)
		return
	}

	countFilter := filter
	countFilter.Limit, countFilter.Offset = 0, 0
	count, err := h.store.Count(r.Context(), countFilter)
	if err != nil {
		response.Fail(w, err)
		return
	}

	if signals == nil {
		signals = []core.Signal{}
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"signals": signals,
		"total":   count,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// GetByID returns a single signal by ID.
func (h *SignalsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	sig, err := h.store.GetSignal(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, sig)
}
