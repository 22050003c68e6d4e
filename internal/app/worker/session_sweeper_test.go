package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/UzukeeIA/ROBUXFREE/internal/logging"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int, error) {
	p.calls.Add(1)
	return 1, p.err
}

func TestSessionSweeper_PurgesUntilCancelled(t *testing.T) {
	purger := &countingPurger{}
	w := NewSessionSweeper(purger, 5*time.Millisecond, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return purger.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSessionSweeper_KeepsRunningAfterError(t *testing.T) {
	purger := &countingPurger{err: errors.New("boom")}
	w := NewSessionSweeper(purger, 5*time.Millisecond, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	assert.Eventually(t, func() bool { return purger.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestNewSessionSweeper_DefaultInterval(t *testing.T) {
	w := NewSessionSweeper(&countingPurger{}, 0, logging.Discard())
	assert.Equal(t, defaultSweepInterval, w.interval)
}
