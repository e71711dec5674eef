package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"copurchase-dashboard/internal/errors"
	"copurchase-dashboard/internal/observability"
	"copurchase-dashboard/internal/services"
)

// sseView binds one dashboard tab to its element id, signal name and
// fragment template.
type sseView struct {
	elementID string
	signal    string
	tmpl      *template.Template
	data      func(*services.Analytics) (view any, hasData bool)
}

var (
	summaryView = sseView{"summary-content", "summaryData", summaryTemplate,
		func(a *services.Analytics) (any, bool) { v := a.Summary(); return v, v.HasData }}
	statusTrendView = sseView{"status-trend-content", "statusTrendData", statusTemplate,
		func(a *services.Analytics) (any, bool) { v := a.StatusTrend(); return v, v.HasData }}
	transactionFlowView = sseView{"transaction-flow-content", "transactionFlowData", flowTemplate,
		func(a *services.Analytics) (any, bool) { v := a.TransactionFlow(); return v, v.HasData }}
	leadersView = sseView{"leaders-content", "leadersData", leadersTemplate,
		func(a *services.Analytics) (any, bool) { v := a.LeaderActivity(); return v, v.HasData }}
	regionsView = sseView{"regions-content", "regionsData", regionsTemplate,
		func(a *services.Analytics) (any, bool) { v := a.Regions(); return v, v.HasData }}
	categoriesView = sseView{"categories-content", "categoriesData", categoriesTemplate,
		func(a *services.Analytics) (any, bool) { v := a.CategoryPopularity(); return v, v.HasData }}
	favoritesView = sseView{"favorites-content", "favoritesData", favoritesTemplate,
		func(a *services.Analytics) (any, bool) { v := a.Favorites(); return v, v.HasData }}

	allViews = []sseView{
		summaryView, statusTrendView, transactionFlowView, leadersView,
		regionsView, categoriesView, favoritesView,
	}
)

type SSEHandlers struct {
	sessions Sessions
	logger   *slog.Logger
}

func NewSSEHandlers(sessions Sessions, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		sessions: sessions,
		logger:   logger,
	}
}

// fragment renders the view's element, or the no-data placeholder in its
// place.
func (v sseView) fragment(a *services.Analytics) (html string, view any, err error) {
	view, hasData := v.data(a)
	if !hasData {
		return renderNoData(v.elementID), view, nil
	}
	html, err = render(v.tmpl, view)
	return html, view, err
}

func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, views ...sseView) {
	logger := observability.RequestLogger(r.Context(), h.logger)

	a, err := h.sessions.ForRequest(r)
	if err != nil {
		errors.WriteError(w, logger, errors.DataUnavailable(err), observability.GetRequestID(r.Context()))
		return
	}

	sse := datastar.NewSSE(w, r)

	signals := make(map[string]any, len(views))
	for _, v := range views {
		html, data, err := v.fragment(a)
		if err != nil {
			logger.Error("render fragment", "element", v.elementID, "error", err)
			html = renderNoData(v.elementID)
		}
		if err := sse.PatchElements(html); err != nil {
			logger.Warn("patch elements", "element", v.elementID, "error", err)
			return
		}
		signals[v.signal] = data
	}

	payload, err := json.Marshal(signals)
	if err != nil {
		logger.Error("marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(payload); err != nil {
		logger.Warn("patch signals", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, summaryView)
}

func (h *SSEHandlers) HandleStatusTrend(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, statusTrendView)
}

func (h *SSEHandlers) HandleTransactionFlow(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, transactionFlowView)
}

func (h *SSEHandlers) HandleLeaders(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, leadersView)
}

func (h *SSEHandlers) HandleRegions(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, regionsView)
}

func (h *SSEHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, categoriesView)
}

func (h *SSEHandlers) HandleFavorites(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, favoritesView)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, allViews...)
}
