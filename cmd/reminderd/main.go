// Package main is the entrypoint for the reminderd process.
//
// Startup sequence:
//  1. Load and validate configuration (environment with .env fallback).
//  2. Initialize the structured logger.
//  3. Connect the pgx pool and construct the repositories.
//  4. Build the delivery path: SendGrid provider, template renderer, notifier.
//  5. Build the scheduling core: engine, registry, executor, retry sweep.
//  6. Restore schedules for every pending reminder and register the sweep.
//  7. Serve HTTP until SIGINT/SIGTERM, then shut down gracefully.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"reminderd/internal/api"
	"reminderd/internal/config"
	"reminderd/internal/db"
	"reminderd/internal/external"
	"reminderd/internal/notifications/email"
	"reminderd/internal/reminders"
	"reminderd/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	slog.SetDefault(log)
	log.Info("starting reminderd", "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := newPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	reminderRepo := db.NewReminderRepository(pool)
	failureRepo := db.NewFailureRepository(pool)

	renderer, err := email.NewRenderer()
	if err != nil {
		return err
	}
	provider := external.NewSendGridClient(
		&http.Client{Timeout: cfg.Email.SendTimeout},
		external.SendGridClientConfig{
			APIKey:      cfg.Email.SendGridAPIKey,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
			Logger:      log,
		},
	)
	notifier := email.NewNotifier(email.NotifierConfig{
		Provider:    provider,
		Renderer:    renderer,
		SendTimeout: cfg.Email.SendTimeout,
		Logger:      log,
	})

	vars, err := scheduler.NewVariableBuilder(cfg.Scheduler.DisplayTimezone, cfg.Email.DisableURLBase)
	if err != nil {
		return err
	}

	engine := scheduler.NewEngine(scheduler.EngineConfig{Logger: log})
	registry := scheduler.NewRegistry()
	executor := scheduler.NewExecutor(scheduler.ExecutorConfig{
		Store:    reminderRepo,
		Failures: failureRepo,
		Notifier: notifier,
		Vars:     vars,
		Logger:   log,
	})
	sweep := scheduler.NewRetrySweep(scheduler.RetrySweepConfig{
		Failures:  failureRepo,
		Notifier:  notifier,
		Vars:      vars,
		BatchSize: cfg.Scheduler.RetryBatchSize,
		Logger:    log,
	})
	jobs := scheduler.NewJobService(scheduler.JobServiceConfig{
		Engine:   engine,
		Registry: registry,
		Execute: func(ctx context.Context, reminderID int64) {
			_ = executor.Execute(ctx, reminderID)
		},
		Sweep: func(ctx context.Context) {
			_ = sweep.Run(ctx)
		},
		SweepInterval: cfg.Scheduler.RetrySweepInterval,
		Logger:        log,
	})

	boot := scheduler.NewBootstrap(reminderRepo, jobs, log)
	if err := boot.RestoreSchedules(ctx); err != nil {
		return fmt.Errorf("restoring schedules: %w", err)
	}
	engine.Start()

	svc := reminders.NewService(reminders.ServiceConfig{
		Repo:     reminderRepo,
		Failures: failureRepo,
		Jobs:     jobs,
		Logger:   log,
	})
	server := api.NewServer(cfg.Server, api.NewReminderHandler(svc, log), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", "error", err.Error())
		}
		engine.Stop(shutdownCtx)
		return nil
	})

	return g.Wait()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func newPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL.Reveal())
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}
