package live

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"idconsole/internal/api"
	"idconsole/internal/config"
	"idconsole/internal/jobs"
	"idconsole/internal/logging"
	"idconsole/internal/services"
)

// DefaultPollInterval is the fallback refetch cadence.
const DefaultPollInterval = 4 * time.Second

// Options configures a Pipeline.
type Options struct {
	Source       Source
	Store        *jobs.Store
	PollInterval time.Duration
	// Push opens a channel per tracked job. Polling runs regardless.
	Push bool
	// StaleGuard drops updates older than the stored record. Off means
	// last-write-wins by arrival.
	StaleGuard bool
	// OnUnauthorized runs once when the backend rejects the session. It
	// should sign the session out so Run reconciles with no active session.
	OnUnauthorized func()
	Logger         *slog.Logger
}

// OptionsFromConfig fills the live settings from cfg.
func OptionsFromConfig(cfg *config.Config, source Source, store *jobs.Store, logger *slog.Logger) Options {
	return Options{
		Source:       source,
		Store:        store,
		PollInterval: cfg.PollInterval(),
		Push:         cfg.Live.PushEnabled,
		StaleGuard:   cfg.Live.StaleGuard,
		Logger:       logger,
	}
}

type update struct {
	tracker *tracker
	job     api.Job
	origin  string
}

// Pipeline fans per-job producers into the job store.
type Pipeline struct {
	source     Source
	store      *jobs.Store
	interval   time.Duration
	push       bool
	staleGuard bool
	onAuth     func()
	logger     *slog.Logger

	mu       sync.Mutex
	trackers map[string]*tracker
	stopped  bool
	// authLost holds every tracker closed until a reconcile sees the
	// session inactive.
	authLost bool

	updates  chan update
	done     chan struct{}
	consumer sync.WaitGroup
	workers  sync.WaitGroup
	stopOnce sync.Once
}

// New starts a pipeline. Call Stop to release it.
func New(opts Options) *Pipeline {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	store := opts.Store
	if store == nil {
		store = jobs.NewStore()
	}
	p := &Pipeline{
		source:     opts.Source,
		store:      store,
		interval:   interval,
		push:       opts.Push,
		staleGuard: opts.StaleGuard,
		onAuth:     opts.OnUnauthorized,
		logger:     logging.NewComponentLogger(opts.Logger, "live"),
		trackers:   make(map[string]*tracker),
		updates:    make(chan update),
		done:       make(chan struct{}),
	}
	p.consumer.Add(1)
	go p.consume()
	return p
}

// Store returns the store the pipeline feeds.
func (p *Pipeline) Store() *jobs.Store {
	return p.store
}

// Reconcile aligns trackers with jobs. Every non-terminal job gets a tracker;
// trackers for terminal or missing jobs are closed. Without an active
// session, or after the backend rejected it, every tracker is closed.
func (p *Pipeline) Reconcile(records []api.Job, sessionActive bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if !sessionActive {
		p.authLost = false
	}
	if !sessionActive || p.authLost || p.source == nil {
		for id := range p.trackers {
			p.closeLocked(id, "session inactive")
		}
		return
	}

	wanted := make(map[string]struct{}, len(records))
	for _, job := range records {
		if job.ID == "" || job.IsTerminal() {
			continue
		}
		wanted[job.ID] = struct{}{}
	}
	for id := range p.trackers {
		if _, ok := wanted[id]; !ok {
			p.closeLocked(id, "no longer live")
		}
	}
	for _, job := range records {
		if _, ok := wanted[job.ID]; !ok {
			continue
		}
		if _, tracked := p.trackers[job.ID]; tracked {
			continue
		}
		p.startLocked(job.ID)
	}
}

// Tracked returns the ids with an open tracker, sorted.
func (p *Pipeline) Tracked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.trackers))
	for id := range p.trackers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Run reconciles against the store whenever it or the session changes, until
// ctx ends. Run stops the pipeline before returning. A nil session counts as
// always active.
func (p *Pipeline) Run(ctx context.Context, session SessionState) error {
	defer p.Stop()

	storeCh, unsubscribeStore := p.store.Subscribe()
	defer unsubscribeStore()

	var sessionCh <-chan struct{}
	if session != nil {
		ch, unsubscribe := session.Subscribe()
		defer unsubscribe()
		sessionCh = ch
	}
	active := func() bool {
		return session == nil || session.Active()
	}

	p.Reconcile(p.store.Snapshot(), active())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.done:
			return nil
		case <-storeCh:
		case <-sessionCh:
		}
		p.Reconcile(p.store.Snapshot(), active())
	}
}

// sessionRejected closes every tracker after a 401 and reports the loss
// once through OnUnauthorized.
func (p *Pipeline) sessionRejected(err error) {
	p.mu.Lock()
	first := !p.authLost && !p.stopped
	p.authLost = true
	for id := range p.trackers {
		p.closeLocked(id, "session rejected")
	}
	hook := p.onAuth
	p.mu.Unlock()

	if !first {
		return
	}
	p.logger.Warn("backend rejected the session; stopped tracking jobs",
		logging.Error(err),
		logging.Alert("session_lost"),
	)
	if hook != nil {
		hook()
	}
}

// Stop closes every tracker and the consumer. After Stop returns no update
// is applied to the store. Stop is idempotent.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		for id := range p.trackers {
			p.closeLocked(id, "pipeline stopped")
		}
		close(p.done)
		p.mu.Unlock()

		p.workers.Wait()
		p.consumer.Wait()
	})
}

func (p *Pipeline) consume() {
	defer p.consumer.Done()
	for {
		select {
		case <-p.done:
			return
		case u := <-p.updates:
			p.apply(u)
		}
	}
}

// apply is the single writer into the store.
func (p *Pipeline) apply(u update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.trackers[u.job.ID] != u.tracker || u.tracker.closed() {
		return
	}

	applied := false
	if p.staleGuard {
		incoming := u.job
		applied = p.store.ApplyIf(incoming, func(current *api.Job) bool {
			return current == nil || !incoming.UpdatedAt.Before(current.UpdatedAt)
		})
		if !applied {
			u.tracker.logger.Debug("stale update dropped", logging.String("origin", u.origin))
		}
	} else {
		applied = p.store.Apply(u.job)
	}

	if applied && u.job.IsTerminal() {
		p.closeLocked(u.job.ID, "terminal status "+string(u.job.Status))
	}
}

func (p *Pipeline) startLocked(id string) {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = services.WithJobID(ctx, id)
	t := &tracker{
		id:      id,
		ctx:     ctx,
		cancel:  cancel,
		refetch: make(chan struct{}, 1),
		logger:  logging.WithContext(ctx, p.logger),
	}
	p.trackers[id] = t

	p.workers.Add(1)
	go p.poll(t)
	if p.push {
		p.workers.Add(1)
		go p.subscribe(t)
	}
	t.logger.Debug("tracking job", logging.Bool("push", p.push), logging.Duration("poll_interval", p.interval))
}

func (p *Pipeline) closeLocked(id, reason string) {
	t, ok := p.trackers[id]
	if !ok {
		return
	}
	delete(p.trackers, id)
	t.cancel()
	t.logger.Debug("stopped tracking job", logging.String("reason", reason))
}

// send hands an update to the consumer unless the tracker closes first.
func (p *Pipeline) send(t *tracker, job api.Job, origin string) {
	if job.ID == "" {
		job.ID = t.id
	}
	if job.ID != t.id {
		t.logger.Warn("update for another job ignored",
			logging.String("origin", origin),
			logging.String("other_job_id", job.ID),
			logging.Alert("job_mismatch"),
		)
		return
	}
	select {
	case p.updates <- update{tracker: t, job: job, origin: origin}:
	case <-t.ctx.Done():
	}
}
