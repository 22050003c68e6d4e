package worker

import (
	"context"
	"log/slog"
	"time"
)

const defaultSweepInterval = 5 * time.Minute

// ExpiredPurger is a session store that needs expired entries removed
// explicitly. Redis-backed sessions expire on their own and do not need one.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// SessionSweeper periodically purges expired sessions until its context ends.
type SessionSweeper struct {
	store    ExpiredPurger
	interval time.Duration
	logger   *slog.Logger
}

func NewSessionSweeper(store ExpiredPurger, interval time.Duration, logger *slog.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &SessionSweeper{store: store, interval: interval, logger: logger}
}

func (w *SessionSweeper) Start(ctx context.Context) {
	w.logger.Info("session sweeper started", "interval", w.interval.String())
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session sweeper stopping")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SessionSweeper) sweep(ctx context.Context) {
	purged, err := w.store.PurgeExpired(ctx)
	if err != nil {
		w.logger.Error("failed to purge expired sessions", "error", err)
		return
	}
	if purged > 0 {
		w.logger.Debug("purged expired sessions", "count", purged)
	}
}
