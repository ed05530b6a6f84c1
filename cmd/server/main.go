// Command server runs the registry payment and tracking backend.
//
// It loads configuration from the environment (optionally a .env file),
// opens the SQLite database, runs schema migrations, configures tracing,
// and serves the HTTP API until SIGINT/SIGTERM, then shuts down gracefully.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/legalform/go-registry-backend/internal/config"
	"github.com/legalform/go-registry-backend/internal/fedapay"
	httpapi "github.com/legalform/go-registry-backend/internal/http"
	"github.com/legalform/go-registry-backend/internal/observability"
	"github.com/legalform/go-registry-backend/internal/repo"
	"github.com/legalform/go-registry-backend/internal/services"
	"github.com/legalform/go-registry-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting registry backend")

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	gin.SetMode(cfg.GinMode)
	r := gin.New()

	provider := fedapay.NewClient(cfg.FedaPay.APIBase, cfg.FedaPay.SecretKey)
	limiter := httpapi.RegisterRoutes(r, db, provider, cfg)

	if cfg.Tracking.SweepInterval > 0 {
		go sweepLoop(ctx, limiter, cfg.Tracking.SweepInterval)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("server failed")
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// sweepLoop periodically deletes tracking rate-limit records whose window
// and block have both lapsed, keeping the table from growing unbounded.
func sweepLoop(ctx context.Context, limiter *services.TrackingLimiter, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := limiter.Sweep(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("rate limit sweep")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("rate limit sweep")
			}
		}
	}
}
