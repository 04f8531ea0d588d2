package store

import (
	"context"
	"time"

	"github.com/zmachine-ai/zmachine-web/internal/event"
	"github.com/zmachine-ai/zmachine-web/internal/logging"
)

// Sweeper runs the expiry sweep on a fixed interval as a background
// maintenance task, independent of request handling.
type Sweeper struct {
	store    *Store
	interval time.Duration
	maxAge   time.Duration
}

// NewSweeper creates a sweeper. The defaults are an hourly sweep with a
// 24 hour expiry, generous relative to expected session durations.
func NewSweeper(store *Store, interval, maxAge time.Duration) *Sweeper {
	return &Sweeper{store: store, interval: interval, maxAge: maxAge}
}

// Run sweeps until ctx is canceled. Sweep failures are logged, never fatal.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", w.interval).Dur("max_age", w.maxAge).
		Msg("session sweeper started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("session sweeper stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *Sweeper) sweep() {
	removed, err := w.store.PurgeExpired(w.maxAge)
	if err != nil {
		logging.Error().Err(err).Msg("session sweep failed")
		return
	}
	if removed > 0 {
		logging.Info().Int("removed", removed).Msg("swept expired sessions")
	}
	event.Publish(event.SessionSwept, event.SessionSweptData{Removed: removed})
}
