package api

import (
	"errors"
	"net/http"
)

var errInvalidSort = errors.New("unknown sort field")

func RegisterRoutes(mux *http.ServeMux, h *Handler) http.Handler {
	// Dataset views
	mux.HandleFunc("/players", requireMethod(http.MethodGet, h.GetPlayers))
	mux.HandleFunc("/differentials", requireMethod(http.MethodGet, h.GetDifferentials))
	mux.HandleFunc("/my-team/", requireMethod(http.MethodGet, h.GetMyTeam))

	// Cache control
	mux.HandleFunc("/cache/status", requireMethod(http.MethodGet, h.GetCacheStatus))
	mux.HandleFunc("/refresh", requireMethod(http.MethodPost, h.ForceRefresh))

	// Side-cache items
	mux.HandleFunc("/items/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			h.SetItem(w, r)
		case http.MethodGet:
			h.GetItem(w, r)
		case http.MethodDelete:
			h.DeleteItem(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Observability APIs
	mux.HandleFunc("/metrics", h.GetMetrics)
	mux.HandleFunc("/health", h.GetHealth)
	mux.HandleFunc("/logs", h.GetLogs)

	// Middlewares
	return Chain(
		mux,
		RecoveryMiddleware,
		LoggingMiddleware,
	)
}

func requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}
