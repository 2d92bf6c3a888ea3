package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/polyedge/internal/api/response"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/storage/signal"
)

// MarketsHandler lists the markets the engine knows about.
type MarketsHandler struct {
	store signal.MarketStore
	now   func() time.Time
}

// NewMarketsHandler creates a new markets handler.
func NewMarketsHandler(store signal.MarketStore) *MarketsHandler {
	return &MarketsHandler{store: store, now: time.Now}
}

// List returns stored markets, highest 24h volume first. Query parameters:
// min_tier, current (default true) and limit.
func (h *MarketsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := signal.MarketFilter{MinTier: core.Tier(upper(q, "min_tier"))}
	if filter.MinTier != "" && filter.MinTier.Rank() < 0 {
		response.BadRequest(w, "unknown tier %q", q.Get("min_tier"))
		return
	}

	current := true
	if v := q.Get("current"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(w, "invalid current %q", v)
			return
		}
		current = b
	}
	if current {
		filter.CurrentAt = h.now().UTC()
	}

	var ok bool
	if filter.Limit, ok = intParam(q, "limit", defaultLimit); !ok {
		response.BadRequest(w, "invalid limit %q", q.Get("limit"))
		return
	}

	markets, err := h.store.ListMarkets(r.Context(), filter)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"markets": markets,
		"count":   len(markets),
	})
}

// GetByID returns one stored market.
func (h *MarketsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	market, err := h.store.GetMarket(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, market)
}
