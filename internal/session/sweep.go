package session

import (
	"context"
	"errors"
	"time"

	"vidstudio/internal/logging"
	"vidstudio/internal/services"
)

// Sweep destroys sessions older than the configured staleness window and
// returns the number reaped. Sessions with an operation in flight are
// skipped; a later sweep picks them up once quiescent.
func (r *Registry) Sweep(ctx context.Context) int {
	maxAge := time.Duration(r.cfg.Sessions.MaxAgeHours) * time.Hour
	if maxAge <= 0 {
		return 0
	}
	now := r.now()

	reaped := 0
	for _, sess := range r.List() {
		if ctx.Err() != nil {
			return reaped
		}
		if sess.Age(now) < maxAge {
			continue
		}
		err := r.Destroy(sess.ID)
		switch {
		case err == nil:
			reaped++
		case errors.Is(err, services.ErrTransient):
			r.logger.Info("sweep skipping busy session", logging.String(logging.FieldSessionID, sess.ID))
		case errors.Is(err, services.ErrNotFound):
			// Destroyed between listing and here.
		default:
			r.logger.Warn("sweep destroy failed", logging.String(logging.FieldSessionID, sess.ID), logging.Error(err))
		}
	}
	if reaped > 0 {
		r.logger.Info("idle sessions reaped", logging.Int("count", reaped))
	}
	return reaped
}

// RunSweeper reaps idle sessions on the configured interval until the
// context is cancelled.
func (r *Registry) RunSweeper(ctx context.Context) {
	interval := time.Duration(r.cfg.Sessions.SweepIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}
