package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"crimewatch/dashboard-go/internal/boundary"
	"crimewatch/dashboard-go/internal/config"
	"crimewatch/dashboard-go/internal/dashboard"
	"crimewatch/dashboard-go/internal/db"
	"crimewatch/dashboard-go/internal/httpapi"
	"crimewatch/dashboard-go/internal/metrics"
	"crimewatch/dashboard-go/internal/refresher"
	"crimewatch/dashboard-go/internal/upstream"
)

func main() {
	bootLog := httpapi.NewLogger("info")
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		bootLog.Warn().Err(err).Msg("failed to read .env")
	}

	cfg, err := config.Load(envOr("DASHBOARD_CONFIG", ""), os.Getenv)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := httpapi.NewLogger(cfg.LogLevel)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var client *upstream.Client
	if cfg.UpstreamURL != "" {
		c, err := upstream.New(cfg.UpstreamURL, nil, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid upstream url")
		}
		client = c
	}

	var pool *db.Pool
	if cfg.DatabaseURL != "" {
		p, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer p.Close()
		if err := p.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to apply database schema")
		}
		pool = p
	}

	deps := sourceDeps(cfg, client, pool, logger, m)
	load := func(ctx context.Context) (*dashboard.Snapshot, error) {
		return dashboard.Bootstrap(ctx, deps)
	}

	var holder refresher.Holder
	r := refresher.New(logger, load, &holder, refresher.Options{Interval: cfg.RefreshInterval}, m)
	if err := r.RefreshOnce(ctx); err != nil {
		logger.Fatal().Err(err).Msg("initial data load failed")
	}
	go r.Run(ctx)

	h := httpapi.NewHandler(logger, &holder, httpapi.Options{
		SessionTTL:  cfg.SessionTTL,
		CORSOrigins: cfg.CORSOrigins,
		Session: dashboard.SessionConfig{
			Map:        cfg.MapConfig(),
			Styles:     cfg.StyleTable(),
			HeatRadius: cfg.HeatRadius,
			ExpandZoom: cfg.ExpandZoom,
		},
	}, m)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("dashboard-go listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}

// sourceDeps picks the record store and boundary sources. The database wins
// over the data API for records and options; analytics only come from the API.
func sourceDeps(cfg config.Config, client *upstream.Client, pool *db.Pool, log zerolog.Logger, m *metrics.Metrics) dashboard.Deps {
	deps := dashboard.Deps{
		Loader: boundary.NewLoader(log, cfg.LoaderOptions(), m),
		Log:    log,
	}

	switch {
	case pool != nil:
		deps.Options = pool
		deps.Records = pool
		deps.Analytics = dashboard.NoAnalytics{}
		if client != nil {
			deps.Analytics = client
		}
	case client != nil:
		deps.Options = client
		deps.Records = client
		deps.Analytics = client
	}

	switch {
	case cfg.BoundaryDir != "":
		deps.Boundaries = boundary.NewDirFetcher(cfg.BoundaryDir)
	case client != nil:
		deps.Boundaries = client
	}
	return deps
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
