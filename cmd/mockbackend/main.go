package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"labelhub/internal/config"
	"labelhub/internal/logger"
	"labelhub/internal/mockbackend"
)

// cmd/mockbackend serves the in-memory mock store over HTTP, so the
// front-end (or anything else) can exercise the real gateway client
// locally: set BACKEND_URL to this server and USE_MOCK=false.
func main() {
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env)
	slog.SetDefault(log)
	slog.Info("config loaded", "env", cfg.Env, "addr", cfg.MockServer.Address)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := mockbackend.NewStore()
	handler := mockbackend.NewHandler(store)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Dev tool: anything on localhost may call it.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Mount("/", handler.Routes())

	srv := &http.Server{
		Addr:    cfg.MockServer.Address,
		Handler: r,
	}

	go func() {
		slog.Info("starting mock backend server", "addr", cfg.MockServer.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down mock backend server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("mock backend shutdown error", "err", err)
	}
}
