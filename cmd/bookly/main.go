package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bookly/internal/app"
	"bookly/internal/config"
	"bookly/internal/email"
	"bookly/internal/lib/logger/sl"
	"bookly/internal/mailer"
	"bookly/internal/rabbitmq"
	"bookly/internal/storage/memory"
	"bookly/internal/storage/postgres"
	"bookly/internal/storage/redis"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting bookly", slog.String("env", cfg.Env), slog.String("storage", cfg.Storage))

	store, closeStore, err := setupStorage(ctx, cfg)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}
	defer closeStore()

	deps := app.Deps{
		Store:    store,
		Notifier: setupNotifier(cfg, log),
	}

	if cfg.Redis.Enabled {
		revoked, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// Revoked ids fall back to process memory.
			log.Warn("redis unavailable", sl.Err(err))
		} else {
			defer revoked.Close()
			deps.Revocation = revoked
		}
	}

	if cfg.RabbitMQ.Enabled {
		broker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
		if err != nil {
			log.Error("failed to connect rabbitmq", sl.Err(err))
			os.Exit(1)
		}
		defer broker.Close()

		deps.Publisher = broker
	}

	application := app.New(log, cfg, deps)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      application.Router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", sl.Err(err))
	} else {
		log.Info("server stopped gracefully")
	}

	application.Dispatcher.Wait()

	log.Info("bookly stopped")
}

func setupStorage(ctx context.Context, cfg *config.Config) (app.Repository, func(), error) {
	if cfg.Storage == config.StorageMemory {
		return memory.New(), func() {}, nil
	}

	store, err := postgres.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		return nil, nil, err
	}

	return store, store.Close, nil
}

func setupNotifier(cfg *config.Config, log *slog.Logger) email.Notifier {
	if !cfg.Email.Enabled {
		return &mailer.Log{Log: log}
	}

	return &mailer.SMTP{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
