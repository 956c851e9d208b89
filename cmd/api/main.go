// Package main is the entry point for the Tripper API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/tripperbot/tripper/internal/config"
	"github.com/tripperbot/tripper/internal/gmaps"
	"github.com/tripperbot/tripper/internal/googlecal"
	"github.com/tripperbot/tripper/internal/handler"
	"github.com/tripperbot/tripper/internal/location"
	"github.com/tripperbot/tripper/internal/middleware"
	"github.com/tripperbot/tripper/internal/prefs"
	"github.com/tripperbot/tripper/internal/reconcile"
	"github.com/tripperbot/tripper/internal/route"
	"github.com/tripperbot/tripper/migrations"
)

// maxRequestBody bounds incoming request bodies. Preference documents are
// tiny; webhook notifications have no body at all.
const maxRequestBody = 64 << 10

func main() {
	// --- Config -----------------------------------------------------------
	// .env is a local development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately — the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Apply pending migrations at startup. goose needs database/sql, so a
	// throwaway connection is borrowed from the pool's config.
	if err := migrate(pool); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready")

	// --- External services ------------------------------------------------
	maps, err := gmaps.New(cfg.GoogleMapsAPIKey, cfg.GeocodeRegion)
	if err != nil {
		slog.Error("failed to create maps client", "error", err)
		os.Exit(1)
	}

	tokens, err := googlecal.ParseStaticToken(cfg.GoogleOAuthToken)
	if err != nil {
		slog.Error("failed to parse calendar token", "error", err)
		os.Exit(1)
	}
	calendars := googlecal.NewFactory(tokens)

	resolver, err := location.LoadResolver(cfg.BuildingCodesPath)
	if err != nil {
		slog.Error("failed to load building codes", "error", err)
		os.Exit(1)
	}

	// --- Application ------------------------------------------------------
	prefsRepo := prefs.NewRepo(pool)
	prefsSvc := prefs.NewService(prefsRepo, maps)

	selector := route.NewSelector(maps, route.NewCache(), logger)
	engine := reconcile.NewEngine(calendars, selector, resolver, prefsSvc, logger).
		WithLimits(time.Duration(cfg.HorizonDays)*24*time.Hour, int64(cfg.MaxEventsPerCalendar))
	runner := reconcile.NewRunner(engine, logger)

	srv := handler.NewServer(runner, prefsSvc, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewMaxBodySizeHandler(maxRequestBody))
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Write timeout is generous because POST /reconcile runs synchronously
	// and a cold run talks to two external services per appointment.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies all pending goose migrations using a database/sql handle
// derived from the pool's connection settings.
func migrate(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	_, err = provider.Up(context.Background())
	return err
}
