package session

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/bartab-console/pkg/idx"
	"github.com/aussiebroadwan/bartab-console/pkg/slogx"
)

// Keeper periodically renews the session's access token ahead of expiry so
// requests rarely hit the reactive 401 path.
type Keeper struct {
	Manager  *Manager
	Logger   *slog.Logger
	Interval time.Duration

	started atomic.Bool
	stopped atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewKeeper creates a keeper checking every interval. If interval is 0 or
// negative, defaults to 1 minute.
func NewKeeper(m *Manager, logger *slog.Logger, interval time.Duration) *Keeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slogx.Discard()
	}

	return &Keeper{
		Manager:  m,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the keeper in the background. Call Stop to shut it down. A
// keeper runs at most once; Start after Stop does nothing.
func (k *Keeper) Start() {
	if k.stopped.Load() || !k.started.CompareAndSwap(false, true) {
		return
	}
	go k.run()
	k.Logger.Info("session keeper started", "interval", k.Interval)
}

// Stop shuts the keeper down and waits for an in-progress check to finish.
// Stopping a keeper that was never started, or twice, does nothing.
func (k *Keeper) Stop() {
	if !k.started.Load() || !k.stopped.CompareAndSwap(false, true) {
		return
	}
	close(k.stopCh)
	<-k.doneCh
	k.Logger.Info("session keeper stopped")
}

func (k *Keeper) run() {
	defer close(k.doneCh)

	ticker := time.NewTicker(k.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			k.check()
		case <-k.stopCh:
			return
		}
	}
}

func (k *Keeper) check() {
	if !k.Manager.IsAuthenticated() {
		return
	}

	// Each check gets its own id so its log lines can be told apart.
	ctx := slogx.WithContext(context.Background(), k.Logger)
	ctx = slogx.WithRequestID(ctx, idx.New().String())
	err := k.Manager.RefreshIfExpiringSoon(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoRefreshToken):
		k.Logger.Debug("session ended before keeper check")
	default:
		k.Logger.Warn("proactive refresh failed", "error", err)
	}
}
