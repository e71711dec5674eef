package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"copurchase-dashboard/internal/errors"
	"copurchase-dashboard/internal/observability"
	"copurchase-dashboard/internal/services"
)

const cacheControl = "private, max-age=300"

// Sessions resolves the per-session views a request should be served from.
type Sessions interface {
	ForRequest(r *http.Request) (*services.Analytics, error)
	Invalidate(id string) bool
	Len() int
}

type APIHandlers struct {
	sessions Sessions
	logger   *slog.Logger
	started  time.Time
}

func NewAPIHandlers(sessions Sessions, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		sessions: sessions,
		logger:   logger,
		started:  time.Now(),
	}
}

func (h *APIHandlers) analytics(w http.ResponseWriter, r *http.Request) (*services.Analytics, bool) {
	a, err := h.sessions.ForRequest(r)
	if err != nil {
		errors.WriteError(w, h.logger, errors.DataUnavailable(err), observability.GetRequestID(r.Context()))
		return nil, false
	}
	return a, true
}

func (h *APIHandlers) writeView(w http.ResponseWriter, r *http.Request, view func(*services.Analytics) any) {
	a, ok := h.analytics(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, view(a), map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.writeView(w, r, func(a *services.Analytics) any { return a.Summary() })
}

func (h *APIHandlers) HandleStatusTrend(w http.ResponseWriter, r *http.Request) {
	h.writeView(w, r, func(a *services.Analytics) any { return a.StatusTrend() })
}

func (h *APIHandlers) HandleTransactionFlow(w http.ResponseWriter, r *http.Request) {
	h.writeView(w, r, func(a *services.Analytics) any { return a.TransactionFlow() })
}

func (h *APIHandlers) HandleLeaders(w http.ResponseWriter, r *http.Request) {
	h.writeView(w, r, func(a *services.Analytics) any { return a.LeaderActivity() })
}

func (h *APIHandlers) HandleRegions(w http.ResponseWriter, r *http.Request) {
	h.writeView(w, r, func(a *services.Analytics) any { return a.Regions() })
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.writeView(w, r, func(a *services.Analytics) any { return a.CategoryPopularity() })
}

func (h *APIHandlers) HandleFavorites(w http.ResponseWriter, r *http.Request) {
	h.writeView(w, r, func(a *services.Analytics) any { return a.Favorites() })
}

// HandleRefreshSession drops the caller's cached dataset; the next view
// request reloads the files.
// HandleNotFound answers unknown API paths in the same JSON envelope as
// every other API error.
func (h *APIHandlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	err := errors.NotFound("No such endpoint: " + r.URL.Path)
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleRefreshSession(w http.ResponseWriter, r *http.Request) {
	sessionID := observability.GetSessionID(r.Context())
	if sessionID == "" {
		errors.WriteError(w, h.logger, errors.BadRequest("No session"), observability.GetRequestID(r.Context()))
		return
	}

	invalidated := h.sessions.Invalidate(sessionID)
	errors.WriteSuccess(w, map[string]any{
		"session_id":  sessionID,
		"invalidated": invalidated,
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	a, ok := h.analytics(w, r)
	if !ok {
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"analytics": a.Stats(),
		"load":      a.Report(),
		"sessions":  h.sessions.Len(),
		"process":   observability.CaptureProcess(),
	})
}
