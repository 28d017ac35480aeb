// Package main запускает HTTP-сервер cookie breaks.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/cookiebreaks/internal/auth"
	"github.com/mmeshcher/cookiebreaks/internal/config"
	"github.com/mmeshcher/cookiebreaks/internal/handler"
	"github.com/mmeshcher/cookiebreaks/internal/middleware"
	"github.com/mmeshcher/cookiebreaks/internal/repository"
	"github.com/mmeshcher/cookiebreaks/internal/service"
)

const scheduleInterval = time.Hour

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}
	if cfg.SecretKey == "" {
		sugar.Fatalw("configuration error", "error", "SECRET_KEY is required")
	}

	schedule, err := buildSchedule(cfg)
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	svc := service.NewService(repo, schedule, logger)
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		sugar.Fatalw("admin seed error", "error", err.Error())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tokens := auth.NewTokenManager(cfg.SecretKey, cfg.TokenTTL)
	authMiddleware := middleware.NewAuthMiddleware(tokens)
	h := handler.NewHandler(svc, tokens, logger, authMiddleware, registry)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Фоновое пополнение расписания перерывов
	g.Go(func() error {
		svc.RunBreakScheduler(ctx, scheduleInterval)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting cookie breaks server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func buildSchedule(cfg *config.Config) (service.Schedule, error) {
	weekday, err := cfg.Weekday()
	if err != nil {
		return service.Schedule{}, err
	}
	hour, minute, err := cfg.Clock()
	if err != nil {
		return service.Schedule{}, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return service.Schedule{}, err
	}

	return service.Schedule{
		Weekday:    weekday,
		Hour:       hour,
		Minute:     minute,
		Location:   loc,
		Place:      cfg.BreakLocation,
		WeeksAhead: cfg.BreakWeeksAhead,
	}, nil
}
