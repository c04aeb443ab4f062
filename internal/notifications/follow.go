package notifications

import (
	"context"
	"log/slog"
	"time"

	"idconsole/internal/api"
	"idconsole/internal/jobs"
	"idconsole/internal/logging"
)

// sendTimeout bounds one notification. Sends outlive the follower's context
// so a transition seen just before shutdown is still delivered.
const sendTimeout = 5 * time.Second

// Follower reports every job that is live in a store and later turns
// terminal. Jobs already terminal when first seen are never reported.
type Follower struct {
	store       *jobs.Store
	svc         Service
	logger      *slog.Logger
	live        map[string]bool
	changes     <-chan struct{}
	unsubscribe func()
}

// NewFollower records the jobs live in store right now and subscribes to its
// changes, so transitions made before Run starts are not missed.
func NewFollower(store *jobs.Store, svc Service, logger *slog.Logger) *Follower {
	if logger == nil {
		logger = logging.NewNop()
	}
	f := &Follower{store: store, svc: svc, logger: logger, live: make(map[string]bool)}
	for _, job := range store.Snapshot() {
		if !job.IsTerminal() {
			f.live[job.ID] = true
		}
	}
	f.changes, f.unsubscribe = store.Subscribe()
	return f
}

// Run delivers notifications until ctx ends, then makes one final pass so
// transitions visible at that point are reported too.
func (f *Follower) Run(ctx context.Context) {
	defer f.unsubscribe()
	f.check(ctx)
	for {
		select {
		case <-ctx.Done():
			f.check(ctx)
			return
		case <-f.changes:
			f.check(ctx)
		}
	}
}

func (f *Follower) check(ctx context.Context) {
	for _, job := range f.store.Snapshot() {
		if !job.IsTerminal() {
			f.live[job.ID] = true
			continue
		}
		if !f.live[job.ID] {
			continue
		}
		delete(f.live, job.ID)
		f.notify(ctx, job)
	}
}

func (f *Follower) notify(parent context.Context, job api.Job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), sendTimeout)
	defer cancel()
	if err := f.svc.NotifyJobFinished(ctx, job); err != nil {
		f.logger.Warn("job notification failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
			logging.Alert("notification"),
		)
		return
	}
	f.logger.Debug("job notification sent", logging.String(logging.FieldJobID, job.ID))
}
