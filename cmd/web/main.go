package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labelhub/internal/backend"
	"labelhub/internal/config"
	"labelhub/internal/gateway"
	"labelhub/internal/logger"
	"labelhub/internal/mockbackend"
	"labelhub/internal/web"
)

func main() {
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"env", cfg.Env,
		"web_addr", cfg.WebServer.Address,
		"backend_url", cfg.Backend.BaseURL,
		"use_mock", cfg.Backend.UseMock,
		"upload_mode", cfg.Backend.UploadMode,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var factory web.ServiceFactory
	if cfg.Backend.UseMock {
		store := mockbackend.NewStore()
		factory = func(string) backend.Service { return store }
	} else {
		factory = func(token string) backend.Service {
			return gateway.New(cfg.Backend.BaseURL,
				gateway.WithToken(token),
				gateway.WithTimeoutSeconds(cfg.Backend.RequestTimeoutS),
			)
		}
	}

	sessions := web.NewSessions(cfg.WebServer.SessionTTL)
	server, err := web.NewServer(factory, sessions, cfg.Backend.UploadMode)
	if err != nil {
		slog.Error("failed to build web server", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.WebServer.Address,
		Handler:      server.Routes(),
		ReadTimeout:  cfg.WebServer.Timeout,
		WriteTimeout: cfg.WebServer.Timeout,
		IdleTimeout:  cfg.WebServer.IdleTimeout,
	}

	go func() {
		slog.Info("starting web server", "addr", cfg.WebServer.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("web server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down web server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("web server shutdown error", "err", err)
	}
}
