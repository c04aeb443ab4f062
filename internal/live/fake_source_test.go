package live_test

import (
	"context"
	"errors"
	"sync"

	"idconsole/internal/api"
	"idconsole/internal/live"
	"idconsole/internal/services"
)

type fakeChannel struct {
	msgs   chan api.ChannelMessage
	errs   chan error
	closed chan struct{}
	once   sync.Once
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		msgs:   make(chan api.ChannelMessage, 8),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeChannel) Next(ctx context.Context) (api.ChannelMessage, error) {
	select {
	case msg := <-c.msgs:
		return msg, nil
	case err := <-c.errs:
		return api.ChannelMessage{}, err
	case <-ctx.Done():
		return api.ChannelMessage{}, ctx.Err()
	case <-c.closed:
		return api.ChannelMessage{}, services.ErrChannel
	}
}

func (c *fakeChannel) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeChannel) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeSource struct {
	mu       sync.Mutex
	jobs     map[string]api.Job
	fetches  map[string]int
	fetchErr map[string]error
	gates    map[string]chan struct{}
	channels map[string]*fakeChannel
	openErr  error
	onFetch  func(id string, n int) (api.Job, bool)
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		jobs:     map[string]api.Job{},
		fetches:  map[string]int{},
		fetchErr: map[string]error{},
		gates:    map[string]chan struct{}{},
		channels: map[string]*fakeChannel{},
	}
}

func (s *fakeSource) put(job api.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *fakeSource) GetJob(ctx context.Context, id string) (api.Job, error) {
	s.mu.Lock()
	s.fetches[id]++
	n := s.fetches[id]
	gate := s.gates[id]
	err := s.fetchErr[id]
	job, ok := s.jobs[id]
	hook := s.onFetch
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return api.Job{}, ctx.Err()
		}
	}
	if err != nil {
		return api.Job{}, err
	}
	if hook != nil {
		if hooked, use := hook(id, n); use {
			return hooked, nil
		}
	}
	if !ok {
		return api.Job{}, errors.New("not found")
	}
	return job, nil
}

func (s *fakeSource) OpenChannel(ctx context.Context, id string) (live.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	ch := newFakeChannel()
	s.channels[id] = ch
	return ch, nil
}

func (s *fakeSource) channel(id string) *fakeChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[id]
}

func (s *fakeSource) fetchCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[id]
}
