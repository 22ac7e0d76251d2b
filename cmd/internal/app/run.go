package app

import (
	"context"
	"os/signal"
	"syscall"
)

// Run is the process entrypoint: load config, enforce security policy,
// build the app, and serve until SIGINT/SIGTERM.
func Run() error {
	cfg := LoadConfig()
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	if err := ValidateSecurityConfig(cfg); err != nil {
		log.Error("startup.security.fail", "err", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := New(ctx, cfg, log)
	if err != nil {
		log.Error("startup.fail", "err", err)
		return err
	}

	return a.Run(ctx)
}
