// Package main is the entry point for the trip planner API server.
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

	"github.com/pkordes/tripplanner/internal/assistant"
	"github.com/pkordes/tripplanner/internal/config"
	"github.com/pkordes/tripplanner/internal/handler"
	"github.com/pkordes/tripplanner/internal/identity"
	"github.com/pkordes/tripplanner/internal/itinerary"
	"github.com/pkordes/tripplanner/internal/middleware"
	"github.com/pkordes/tripplanner/internal/repo"
	"github.com/pkordes/tripplanner/internal/session"
)

// sessionStore adapts *session.Registry to handler.Sessions.
type sessionStore struct {
	*session.Registry
}

func (s sessionStore) Itinerary(ctx context.Context, userID string) (handler.Itinerary, error) {
	return s.Get(ctx, userID)
}

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
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
	slog.Info("database connection established")

	trips := repo.NewTripRepo(pool)
	activities := repo.NewActivityRepo(pool)

	// --- Identity ---------------------------------------------------------
	authClient := identity.NewClient(cfg.Auth.URL, cfg.Auth.AnonKey)
	verifier := identity.NewVerifier(cfg.Auth.JWTSecret)

	// --- Assistant --------------------------------------------------------
	// Without an API key the assistant answers with its canned replies.
	var completer assistant.Completer
	if cfg.OpenAI.APIKey != "" {
		completer = assistant.NewOpenAICompleter(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	} else {
		slog.Warn("OPENAI_API_KEY not set, assistant will use fallback replies")
	}
	assist := assistant.NewService(completer, logger)

	// --- Sessions ---------------------------------------------------------
	// One itinerary per signed-in user, loaded from the store on first use.
	registry := session.NewRegistry(cfg.SessionTTL, func(userID string) *itinerary.Manager {
		return itinerary.NewManager(userID, trips, activities, itinerary.Options{
			Logger:      logger.With("user_id", userID),
			MaxRetries:  cfg.Sync.MaxRetries,
			Backoff:     cfg.Sync.Backoff,
			Timeout:     cfg.Sync.Timeout,
			MaxTripDays: cfg.MaxTripDays,
		})
	}, logger)
	defer registry.Close()

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → MaxBodySize.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	server := handler.NewServer(sessionStore{registry}, authClient, assist, logger)
	r.Mount("/", server.Routes(middleware.NewAuthHandler(verifier)))

	// --- HTTP Server ------------------------------------------------------
	// Assistant replies can take several seconds, hence the longer write timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, give in-flight requests up to
	// 15 seconds, then let queued trip syncs finish.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if err := registry.FlushAll(ctx); err != nil {
		slog.Error("pending trip syncs abandoned", "error", err, "sessions", registry.Len())
	}
	slog.Info("server stopped")
}
