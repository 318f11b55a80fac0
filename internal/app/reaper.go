package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/valuenable/veena/internal/conversation"
	"github.com/valuenable/veena/internal/observe"
)

// defaultSweepInterval is how often the reaper scans for idle conversations.
const defaultSweepInterval = time.Minute

// Reaper ends active conversations that have gone quiet. Callers who abandon
// a call rarely reach the end endpoint, so without the reaper those
// conversations would stay active forever.
//
// All exported methods are safe for concurrent use.
type Reaper struct {
	store    conversation.Store
	maxIdle  time.Duration
	interval time.Duration
	metrics  *observe.Metrics

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewReaper creates a Reaper that ends conversations idle for longer than
// maxIdle. A nil metrics falls back to [observe.DefaultMetrics].
func NewReaper(store conversation.Store, maxIdle time.Duration, metrics *observe.Metrics) *Reaper {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Reaper{
		store:    store,
		maxIdle:  maxIdle,
		interval: defaultSweepInterval,
		metrics:  metrics,
	}
}

// Start launches the background sweep loop. Call [Reaper.Stop] to halt it.
func (r *Reaper) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop(ctx)
}

func (r *Reaper) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
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

// Sweep ends every active conversation whose last activity is older than
// maxIdle and returns how many it ended. The loop calls this periodically;
// it is exported so operators and tests can force a pass.
func (r *Reaper) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-r.maxIdle)
	stale, err := r.store.StaleActive(ctx, cutoff)
	if err != nil {
		slog.Warn("reaper: list stale conversations", "err", err)
		return 0
	}

	ended := 0
	for _, c := range stale {
		if _, err := r.store.End(ctx, c.ID); err != nil {
			slog.Warn("reaper: end conversation", "id", c.ID, "session_id", c.SessionID, "err", err)
			continue
		}
		r.metrics.ActiveConversations.Add(ctx, -1)
		ended++
	}
	if ended > 0 {
		slog.Info("reaper: ended idle conversations", "count", ended, "max_idle", r.maxIdle)
	}
	return ended
}

// Stop halts the sweep loop and waits for it to exit.
// Safe to call multiple times and before Start.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		if r.cancel == nil {
			return
		}
		r.cancel()
		<-r.done
	})
}
