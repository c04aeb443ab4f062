// Package daemonrun hosts the idconsoled runtime: single-instance guard,
// logging, readiness checks, and the web console's serve loop.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"idconsole/internal/config"
	"idconsole/internal/daemonctl"
	"idconsole/internal/logging"
	"idconsole/internal/preflight"
	"idconsole/internal/web"
)

// LogFileName is the daemon log inside logging.dir.
const LogFileName = "idconsoled.log"

// Options configures daemon process runtime behavior.
type Options struct {
	// Bind overrides web.bind when set.
	Bind          string
	SkipPreflight bool
	// Logger replaces the file logger built from cfg.
	Logger *slog.Logger
}

// Run serves the web console until ctx ends or the process receives SIGINT
// or SIGTERM. A clean shutdown returns nil.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if bind := strings.TrimSpace(opts.Bind); bind != "" {
		cfg.Web.Bind = bind
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, os.Interrupt, unix.SIGTERM)
	defer cancel()

	instance, err := daemonctl.Acquire(cfg)
	if err != nil {
		return err
	}
	defer instance.Release()

	logger := opts.Logger
	if logger == nil {
		logger, err = logging.NewFromConfig(cfg, LogFileName)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}
	logger = logger.With(logging.String(logging.FieldSessionID, uuid.NewString()))
	logger.Info("idconsoled starting",
		logging.String("bind", cfg.Web.Bind),
		logging.String("backend", cfg.Backend.URL),
		logging.Int("pid", os.Getpid()),
	)

	if !opts.SkipPreflight {
		logReadiness(signalCtx, logger, cfg)
	}

	srv, err := web.New(web.Options{Config: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("create web console: %w", err)
	}
	if err := srv.Run(signalCtx); err != nil {
		logger.Error("web console stopped", logging.Error(err))
		return err
	}
	logger.Info("idconsoled shutting down")
	return nil
}

func logReadiness(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(ctx, cfg)
	for _, result := range preflight.Failed(results) {
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.Alert("preflight"),
		)
	}
	logger.Info("preflight complete",
		logging.Int("checks", len(results)),
		logging.Int("failed", len(preflight.Failed(results))),
	)
}
