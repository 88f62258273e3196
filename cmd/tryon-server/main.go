// Command tryon-server runs the eyewear try-on consultation API.
//
// Configuration comes from the environment (a .env file is loaded when
// present):
//
//	TRYON_ADDR          listen address (default :8080)
//	GEMINI_API_KEY      Gemini API key (falls back to SDK env lookup)
//	TRYON_DEBUG         enable debug logging
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/mhpenta/tryon"
	"github.com/mhpenta/tryon/gateway/gemini"
	"github.com/mhpenta/tryon/httpapi"
	"github.com/mhpenta/tryon/imageprep"
)

type config struct {
	Addr              string `env:"TRYON_ADDR" envDefault:":8080"`
	GeminiAPIKey      string `env:"GEMINI_API_KEY"`
	Debug             bool   `env:"TRYON_DEBUG"`
	RequestsPerMinute int    `env:"TRYON_REQUESTS_PER_MINUTE"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := gemini.New(ctx, &gemini.Config{
		APIKey:            cfg.GeminiAPIKey,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}
	defer gw.Close()

	stylist := tryon.NewStylist(gw, tryon.WithLogger(logger))
	api := httpapi.New(stylist, imageprep.New(), logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	api.RegisterHTTP(r)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
