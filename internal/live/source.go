package live

import (
	"context"

	"idconsole/internal/api"
	"idconsole/internal/backend"
)

// Channel is an open per-job push channel.
type Channel interface {
	Next(ctx context.Context) (api.ChannelMessage, error)
	Close() error
}

// Source fetches job detail and opens push channels.
type Source interface {
	GetJob(ctx context.Context, id string) (api.Job, error)
	OpenChannel(ctx context.Context, id string) (Channel, error)
}

// SessionState reports whether requests may be made and signals changes.
type SessionState interface {
	Active() bool
	Subscribe() (<-chan struct{}, func())
}

// BackendSource adapts a backend client to Source.
type BackendSource struct {
	Client *backend.Client
}

// GetJob implements Source.
func (s BackendSource) GetJob(ctx context.Context, id string) (api.Job, error) {
	job, err := s.Client.GetJob(ctx, id)
	if err != nil {
		return api.Job{}, err
	}
	return *job, nil
}

// OpenChannel implements Source.
func (s BackendSource) OpenChannel(ctx context.Context, id string) (Channel, error) {
	ch, err := s.Client.SubscribeJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return ch, nil
}
