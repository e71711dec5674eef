package server

import (
	"log/slog"
	"net/http"

	"copurchase-dashboard/internal/handlers"
)

type Server struct {
	sessions    handlers.Sessions
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(sessions handlers.Sessions, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		sessions:    sessions,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(sessions, logger),
		sseHandlers: handlers.NewSSEHandlers(sessions, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// JSON views
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/status-trend", s.apiHandlers.HandleStatusTrend)
	s.mux.HandleFunc("GET /api/transaction-flow", s.apiHandlers.HandleTransactionFlow)
	s.mux.HandleFunc("GET /api/leaders", s.apiHandlers.HandleLeaders)
	s.mux.HandleFunc("GET /api/regions", s.apiHandlers.HandleRegions)
	s.mux.HandleFunc("GET /api/categories", s.apiHandlers.HandleCategories)
	s.mux.HandleFunc("GET /api/favorites", s.apiHandlers.HandleFavorites)
	s.mux.HandleFunc("POST /api/session/refresh", s.apiHandlers.HandleRefreshSession)
	s.mux.HandleFunc("GET /api/", s.apiHandlers.HandleNotFound)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/summary", s.sseHandlers.HandleSummary)
	s.mux.HandleFunc("GET /sse/status-trend", s.sseHandlers.HandleStatusTrend)
	s.mux.HandleFunc("GET /sse/transaction-flow", s.sseHandlers.HandleTransactionFlow)
	s.mux.HandleFunc("GET /sse/leaders", s.sseHandlers.HandleLeaders)
	s.mux.HandleFunc("GET /sse/regions", s.sseHandlers.HandleRegions)
	s.mux.HandleFunc("GET /sse/categories", s.sseHandlers.HandleCategories)
	s.mux.HandleFunc("GET /sse/favorites", s.sseHandlers.HandleFavorites)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
