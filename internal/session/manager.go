package session

import (
	"context"
	"errors"
	"log/slog"

	"idconsole/internal/api"
	"idconsole/internal/logging"
	"idconsole/internal/services"
)

// Backend is the subset of the backend client the manager needs.
type Backend interface {
	Whoami(ctx context.Context) (*api.Profile, error)
	Login(ctx context.Context, req api.LoginRequest) error
	Logout(ctx context.Context) error
}

// Manager drives the session lifecycle against the backend.
type Manager struct {
	backend Backend
	store   *Store
	logger  *slog.Logger
}

// NewManager binds a backend to store.
func NewManager(backend Backend, store *Store, logger *slog.Logger) *Manager {
	if store == nil {
		store = NewStore()
	}
	return &Manager{
		backend: backend,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "session"),
	}
}

// Store returns the managed store.
func (m *Manager) Store() *Store {
	return m.store
}

// Init loads the profile from whoami. A 401 means signed out and is not an
// error; other failures leave the store untouched.
func (m *Manager) Init(ctx context.Context) error {
	profile, err := m.backend.Whoami(ctx)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			m.store.Clear()
			return nil
		}
		m.logger.Warn("whoami failed; keeping last known session",
			logging.Error(err),
			logging.String(logging.FieldAlert, "session_refresh"),
		)
		return err
	}
	m.store.Set(profile)
	return nil
}

// Refresh re-reads the profile from the backend.
func (m *Manager) Refresh(ctx context.Context) error {
	return m.Init(ctx)
}

// Login signs in and loads the resulting profile.
func (m *Manager) Login(ctx context.Context, req api.LoginRequest) (*api.Profile, error) {
	if err := m.backend.Login(ctx, req); err != nil {
		return nil, err
	}
	profile, err := m.backend.Whoami(ctx)
	if err != nil {
		m.store.Clear()
		return nil, err
	}
	m.store.Set(profile)
	m.logger.Info("signed in", logging.String("user_id", profile.UserID))
	return m.store.Profile(), nil
}

// Logout ends the backend session. Local state is cleared regardless of the
// backend outcome; an already-expired session is not an error.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.backend.Logout(ctx)
	m.store.Clear()
	if err != nil && !errors.Is(err, services.ErrUnauthorized) {
		m.logger.Warn("backend logout failed; local session cleared", logging.Error(err))
		return err
	}
	return nil
}
