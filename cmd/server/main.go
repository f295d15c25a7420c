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

	"project-tracker/internal/auth"
	"project-tracker/internal/config"
	"project-tracker/internal/database"
	"project-tracker/internal/handlers"
	"project-tracker/internal/logger"
	"project-tracker/internal/notify"
	"project-tracker/internal/observability/tracing"
	"project-tracker/internal/server"
	"project-tracker/internal/service"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "project-tracker", cfg.Environment)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := database.SeedAdmin(db, cfg.Admin, log); err != nil {
		return err
	}

	opts := []service.Option{service.WithLogger(log)}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	reminders := notify.NewReminder(db, notify.NewSender(cfg.SMTP, log), cfg.BaseURL, log)

	h := handlers.New(handlers.Deps{
		Projects:      service.NewProjectService(db, opts...),
		Technicians:   service.NewTechnicianService(db, opts...),
		Clients:       service.NewClientService(db, opts...),
		Reminders:     reminders,
		Authenticator: auth.NewAuthenticator(db),
		Tokens:        tokens,
		Logger:        log,
		Development:   cfg.IsDevelopment(),
	})
	router := server.NewRouter(cfg, h, tokens, log)

	scheduler := notify.NewScheduler(cfg.ReminderCron, reminders, log)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           otelhttp.NewHandler(router, "http.server"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", slog.String("addr", srv.Addr), slog.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.String("error", err.Error()))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Error("scheduler shutdown", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown", slog.String("error", err.Error()))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
	return nil
}
