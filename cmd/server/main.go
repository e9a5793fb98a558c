package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"fpl-assistant/internal/api"
	"fpl-assistant/internal/config"
	"fpl-assistant/internal/fetch"
	"fpl-assistant/internal/fplapi"
	"fpl-assistant/internal/gameweek"
	"fpl-assistant/internal/github"
	"fpl-assistant/internal/logs"
	"fpl-assistant/internal/metrics"
	"fpl-assistant/internal/refresh"
	"fpl-assistant/internal/store"
)

func main() {
	// Root context
	ctx := context.Background()

	cfg := config.FromEnv()

	// Logger
	logger := logs.NewLogger(1000, logs.DEBUG)

	// Metrics
	metricsRegistry := metrics.NewRegistry()

	// Store
	cacheStore := store.NewStore(cfg.UpdateHoursUTC, metricsRegistry)

	// Outbound HTTP
	retryPolicy := fetch.DefaultRetryPolicy()
	fetcher := fetch.NewClient(cfg.ClientTimeout, cfg.UserAgent, metricsRegistry)

	// GitHub dataset source (also serves as the gameweek prober)
	source := github.NewSource(
		fetcher,
		cfg.GitHubBase,
		cfg.SeasonLabel,
		cfg.MinFileBytes,
		cfg.ProbeTimeout,
		retryPolicy,
		logger,
	)

	// Gameweek locator
	locator := gameweek.NewLocator(
		source,
		cfg.SeasonStart,
		cfg.ProbeBudget,
		logger,
		metricsRegistry,
	)

	// FPL API client
	fplClient := fplapi.NewClient(fetcher, cfg.FPLAPIBase, cfg.BootstrapTTL, retryPolicy)

	// Refresh scheduler
	scheduler := refresh.NewScheduler(
		cacheStore,
		locator,
		source,
		fplClient,
		time.Minute,
		logger,
		metricsRegistry,
	)
	if cfg.RefreshOnStart {
		go scheduler.RefreshIfStale(ctx)
	}
	go scheduler.Start(ctx)

	// API
	handler := api.NewHandler(
		cacheStore,
		scheduler,
		fplClient,
		metricsRegistry,
		logger,
	)
	mux := http.NewServeMux()
	httpHandler := api.RegisterRoutes(mux, handler)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: httpHandler,
	}

	logger.Infof("server started on %s", cfg.ListenAddr)

	if err := server.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
