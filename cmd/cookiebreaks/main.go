// Package main запускает консольный клиент cookie breaks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mmeshcher/cookiebreaks/internal/client"
	"github.com/mmeshcher/cookiebreaks/internal/config"
	"github.com/mmeshcher/cookiebreaks/internal/session"
	"github.com/mmeshcher/cookiebreaks/internal/state"
)

func main() {
	cfg, err := config.ParseClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(2)
	}

	logger := newLogger(cfg.Debug)
	defer logger.Sync()

	endpoints, err := client.EndpointsFor(client.APIVersion(cfg.APIVersion))
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(2)
	}

	api := client.NewClient(cfg.APIURL,
		client.WithEndpoints(endpoints),
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(logger),
	)
	m := session.NewManager(api, state.NewStore(state.State{}), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli{
		manager:  m,
		username: cfg.Username,
		password: cfg.Password,
		out:      os.Stdout,
	}
	if err := app.run(ctx, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(debug bool) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		zcfg = zap.NewDevelopmentConfig()
	}

	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
