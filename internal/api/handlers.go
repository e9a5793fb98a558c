package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fpl-assistant/internal/dataset"
	"fpl-assistant/internal/fetch"
	"fpl-assistant/internal/fplapi"
	"fpl-assistant/internal/health"
	"fpl-assistant/internal/logs"
	"fpl-assistant/internal/metrics"
	"fpl-assistant/internal/refresh"
	"fpl-assistant/internal/store"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	scheduler *refresh.Scheduler
	fpl       *fplapi.Client
	metrics   *metrics.Registry
	logger    *logs.Logger
	analyzer  *health.Analyzer
}

// NewHandler creates a new API handler.
func NewHandler(
	st *store.Store,
	scheduler *refresh.Scheduler,
	fpl *fplapi.Client,
	metricsRegistry *metrics.Registry,
	logger *logs.Logger,
) *Handler {
	return &Handler{
		store:     st,
		scheduler: scheduler,
		fpl:       fpl,
		metrics:   metricsRegistry,
		logger:    logger,
		analyzer:  health.NewAnalyzer(metricsRegistry, logger, st),
	}
}

/* ---------------- GET /players ---------------- */

type playersResponse struct {
	Gameweek  int              `json:"gameweek"`
	StatsGW   int              `json:"stats_gw"`
	FetchedAt time.Time        `json:"fetched_at"`
	Count     int              `json:"count"`
	Players   []dataset.Player `json:"players"`
}

func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.store.Get()
	if !ok {
		http.Error(w, "no dataset available yet", http.StatusServiceUnavailable)
		return
	}

	q, err := queryFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	players := entry.Snapshot.Select(q)
	writeJSON(w, playersResponse{
		Gameweek:  entry.Gameweek,
		StatsGW:   entry.Snapshot.StatsGW,
		FetchedAt: entry.FetchedAt,
		Count:     len(players),
		Players:   players,
	})
}

/* ---------------- GET /differentials ---------------- */

func (h *Handler) GetDifferentials(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.store.Get()
	if !ok {
		http.Error(w, "no dataset available yet", http.StatusServiceUnavailable)
		return
	}

	maxOwnership := queryFloat(r, "max_ownership", 10)
	minMinutes := queryInt(r, "min_minutes", 400)
	limit := queryInt(r, "limit", 25)

	players := entry.Snapshot.Differentials(maxOwnership, minMinutes, limit)
	writeJSON(w, playersResponse{
		Gameweek:  entry.Gameweek,
		StatsGW:   entry.Snapshot.StatsGW,
		FetchedAt: entry.FetchedAt,
		Count:     len(players),
		Players:   players,
	})
}

/* ---------------- GET /my-team/{id} ---------------- */

func (h *Handler) GetMyTeam(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/my-team/")
	teamID, err := strconv.Atoi(idStr)
	if err != nil || teamID <= 0 {
		http.Error(w, "invalid team id in URL", http.StatusBadRequest)
		return
	}

	team, err := h.fpl.GetMyTeam(r.Context(), teamID)
	if err != nil {
		if fetch.IsNotFound(err) {
			http.Error(w, "team not found", http.StatusNotFound)
			return
		}
		h.logger.Errorf("my-team %d: %v", teamID, err)
		http.Error(w, "upstream FPL API error", http.StatusBadGateway)
		return
	}
	writeJSON(w, team)
}

/* ---------------- GET /cache/status ---------------- */

type cacheStatus struct {
	Empty      bool       `json:"empty"`
	Gameweek   int        `json:"gameweek,omitempty"`
	FetchedAt  *time.Time `json:"fetched_at,omitempty"`
	AgeSeconds int64      `json:"age_seconds,omitempty"`
	Stale      bool       `json:"stale"`
	NextUpdate time.Time  `json:"next_update"`
}

func (h *Handler) GetCacheStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	status := cacheStatus{
		Empty:      true,
		Stale:      h.store.ShouldRefresh(now),
		NextUpdate: h.store.NextUpdate(now),
	}

	if entry, ok := h.store.Get(); ok {
		status.Empty = false
		status.Gameweek = entry.Gameweek
		status.FetchedAt = &entry.FetchedAt
		status.AgeSeconds = int64(entry.Age(now).Seconds())
	}
	writeJSON(w, status)
}

/* ---------------- POST /refresh ---------------- */

func (h *Handler) ForceRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.ForceRefresh(r.Context()); err != nil {
		// Previous snapshot is still being served; report the failure.
		http.Error(w, "refresh failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	entry, _ := h.store.Get()
	writeJSON(w, map[string]any{
		"refreshed": true,
		"gameweek":  entry.Gameweek,
	})
}

/* ---------------- /items/{key} ---------------- */

type itemRequest struct {
	Value any `json:"value"`
}

func (h *Handler) SetItem(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/items/")
	if key == "" {
		http.Error(w, "missing key in URL", http.StatusBadRequest)
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	h.store.SetItem(key, req.Value)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/items/")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	value, ok := h.store.GetItem(key)
	if !ok {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"value": value})
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/items/")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	h.store.DeleteItem(key)
	w.WriteHeader(http.StatusNoContent)
}

/* ---------------- GET /metrics ---------------- */

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.metrics.Snapshot())
}

/* ---------------- GET /health ---------------- */

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.analyzer.Analyze())
}

/* ---------------- GET /logs ---------------- */

func (h *Handler) GetLogs(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", 100)
	writeJSON(w, h.logger.GetLast(n))
}

/* ---------------- helpers ---------------- */

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func queryFromRequest(r *http.Request) (dataset.Query, error) {
	q := dataset.Query{
		Position:     r.URL.Query().Get("position"),
		Search:       r.URL.Query().Get("q"),
		MinMinutes:   queryInt(r, "min_minutes", 0),
		MaxOwnership: queryFloat(r, "max_ownership", 0),
		SortBy:       r.URL.Query().Get("sort"),
		Ascending:    r.URL.Query().Get("order") == "asc",
		Limit:        queryInt(r, "limit", 0),
	}
	if q.SortBy != "" && !dataset.SortableField(q.SortBy) {
		return dataset.Query{}, errInvalidSort
	}
	return q, nil
}

func queryInt(r *http.Request, name string, defaultVal int) int {
	if s := r.URL.Query().Get(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return n
		}
	}
	return defaultVal
}

func queryFloat(r *http.Request, name string, defaultVal float64) float64 {
	if s := r.URL.Query().Get(name); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
			return f
		}
	}
	return defaultVal
}
