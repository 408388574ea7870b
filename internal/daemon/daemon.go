package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"callaudit/internal/config"
	"callaudit/internal/logging"
	"callaudit/internal/pipeline"
	"callaudit/internal/records"
)

// Daemon coordinates the background workers and enforces single-instance
// execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *records.Store
	supervisor *pipeline.Supervisor

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running         bool
	PID             int
	DatabasePath    string
	LockFilePath    string
	PipelineRunning bool
	WorkerHealth    []pipeline.Health
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *records.Store, logger *slog.Logger, supervisor *pipeline.Supervisor) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || supervisor == nil {
		return nil, errors.New("daemon requires config, store, logger, and supervisor")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "callauditd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		supervisor: supervisor,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start launches the pipeline supervisor, binds the HTTP surface, and
// acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another callaudit daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.supervisor.Start(d.ctx); err != nil {
		d.releaseStart()
		return fmt.Errorf("start pipeline: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.supervisor.Stop()
		d.releaseStart()
		return err
	}

	d.running.Store(true)
	d.logger.Info("callaudit daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) releaseStart() {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx = nil
	d.cancel = nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.supervisor.Stop()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("callaudit daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr reports the bound address of the HTTP listener, or empty when the
// API surface is disabled or not yet started.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:         d.running.Load(),
		PID:             os.Getpid(),
		DatabasePath:    d.store.Path(),
		LockFilePath:    d.lockPath,
		PipelineRunning: d.supervisor.Running(),
		WorkerHealth:    d.supervisor.Health(ctx),
	}
}
