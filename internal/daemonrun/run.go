// Package daemonrun hosts the daemon process bootstrap shared by the
// callauditd binary and the CLI's foreground start command.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"callaudit/internal/alert"
	"callaudit/internal/analyze"
	"callaudit/internal/config"
	"callaudit/internal/daemon"
	"callaudit/internal/logging"
	"callaudit/internal/pipeline"
	"callaudit/internal/records"
	"callaudit/internal/transcribe"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the callaudit daemon runtime loop and blocks until the process
// receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("callaudit-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "callaudit.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := records.Open(cfg)
	if err != nil {
		logger.Error("open record store", logging.Error(err))
		return err
	}

	supervisor := pipeline.NewSupervisor(logger,
		pipeline.NewWorker(store, transcribe.New(store, cfg, logger), cfg, logger),
		pipeline.NewWorker(store, analyze.New(store, cfg, logger), cfg, logger),
		pipeline.NewWorker(store, alert.New(store, cfg, logger), cfg, logger),
	)

	d, err := daemon.New(cfg, store, logger, supervisor)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("callaudit daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
