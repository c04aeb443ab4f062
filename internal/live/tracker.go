package live

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"idconsole/internal/api"
	"idconsole/internal/logging"
	"idconsole/internal/services"
)

// tracker owns the producers for one job.
type tracker struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	refetch chan struct{}
	logger  *slog.Logger
}

func (t *tracker) closed() bool {
	return t.ctx.Err() != nil
}

// requestFetch asks the poll producer for an immediate refetch.
func (t *tracker) requestFetch() {
	select {
	case t.refetch <- struct{}{}:
	default:
	}
}

// poll refetches the job on every tick and on demand. Fetches for one job
// are sequential; separate jobs fetch in parallel.
func (p *Pipeline) poll(t *tracker) {
	defer p.workers.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
		case <-t.refetch:
		}
		if t.closed() {
			return
		}
		p.fetch(t, "poll")
	}
}

func (p *Pipeline) fetch(t *tracker, origin string) {
	job, err := p.source.GetJob(t.ctx, t.id)
	if err != nil {
		if t.closed() || services.IsCanceled(err) {
			return
		}
		if errors.Is(err, services.ErrUnauthorized) {
			p.sessionRejected(err)
			return
		}
		t.logger.Warn("job refresh failed; keeping last known state",
			logging.String("origin", origin),
			logging.Error(err),
			logging.Bool("transient", services.IsTransient(err)),
		)
		return
	}
	p.send(t, job, origin)
}

// subscribe reads the push channel. Embedded records are forwarded as-is;
// bare messages trigger a refetch. On channel failure it requests one
// refetch and exits, leaving polling in place.
func (p *Pipeline) subscribe(t *tracker) {
	defer p.workers.Done()

	ch, err := p.source.OpenChannel(t.ctx, t.id)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) && !t.closed() {
			p.sessionRejected(err)
			return
		}
		if !t.closed() {
			t.logger.Warn("job channel unavailable; falling back to polling",
				logging.Error(err),
				logging.Alert("channel_fallback"),
			)
			t.requestFetch()
		}
		return
	}
	stop := context.AfterFunc(t.ctx, func() { _ = ch.Close() })
	defer func() {
		stop()
		_ = ch.Close()
	}()

	for {
		msg, err := ch.Next(t.ctx)
		if err != nil {
			if t.closed() {
				return
			}
			t.logger.Warn("job channel failed; falling back to polling",
				logging.Error(err),
				logging.Alert("channel_fallback"),
			)
			t.requestFetch()
			return
		}
		switch {
		case msg.Job != nil:
			p.send(t, *msg.Job, "push")
		case msg.Type == api.ChannelMessagePing || msg.Type == api.ChannelMessagePong:
		default:
			t.requestFetch()
		}
		if t.closed() {
			return
		}
	}
}
