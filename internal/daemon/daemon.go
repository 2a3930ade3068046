package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"vidstudio/internal/config"
	"vidstudio/internal/history"
	"vidstudio/internal/logging"
	"vidstudio/internal/session"
)

// Daemon coordinates the session registry and background sweeper and
// enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *session.Registry
	journal  *history.Store

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	done    sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Sessions     int
	JournalPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, registry *session.Registry, journal *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || registry == nil || logger == nil {
		return nil, errors.New("daemon requires config, registry, and logger")
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "vidstudiod.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		registry: registry,
		journal:  journal,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, restores persisted sessions, and launches
// the idle-session sweeper.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vidstudio daemon instance is already running")
	}

	restored, err := d.registry.RestoreAll()
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("restore sessions: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done.Add(1)
	go func() {
		defer d.done.Done()
		d.registry.RunSweeper(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("vidstudio daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("restored_sessions", restored),
	)
	return nil
}

// Stop halts the sweeper and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.done.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("vidstudio daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

// Status reports runtime information for operator tooling.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		Sessions:     d.registry.Len(),
		LockFilePath: d.lockPath,
	}
	if d.journal != nil {
		status.JournalPath = d.journal.Path()
	}
	return status
}
