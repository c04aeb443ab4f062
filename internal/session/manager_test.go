package session_test

import (
	"context"
	"errors"
	"testing"

	"idconsole/internal/api"
	"idconsole/internal/backend"
	"idconsole/internal/services"
	"idconsole/internal/session"
	"idconsole/internal/testsupport"
)

type stubBackend struct {
	profile   *api.Profile
	whoamiErr error
	loginErr  error
	logoutErr error
	logouts   int
}

func (s *stubBackend) Whoami(context.Context) (*api.Profile, error) {
	return s.profile, s.whoamiErr
}

func (s *stubBackend) Login(context.Context, api.LoginRequest) error {
	return s.loginErr
}

func (s *stubBackend) Logout(context.Context) error {
	s.logouts++
	return s.logoutErr
}

func TestInitUnauthorizedMeansSignedOut(t *testing.T) {
	stub := &stubBackend{whoamiErr: &backend.HTTPError{Status: 401}}
	mgr := session.NewManager(stub, nil, nil)
	mgr.Store().Set(&api.Profile{UserID: "stale"})

	if err := mgr.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if mgr.Store().Active() {
		t.Fatal("expected signed out after 401")
	}
}

func TestInitTransientKeepsLastKnown(t *testing.T) {
	stub := &stubBackend{whoamiErr: services.Wrap(services.ErrNetwork, "backend", "whoami", "request failed", nil)}
	store := session.NewStore()
	store.Set(&api.Profile{UserID: "kept"})
	mgr := session.NewManager(stub, store, nil)

	if err := mgr.Init(context.Background()); !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if store.Profile() == nil || store.Profile().UserID != "kept" {
		t.Fatal("expected last known profile retained")
	}
}

func TestLogoutClearsEvenOnFailure(t *testing.T) {
	stub := &stubBackend{logoutErr: errors.New("boom")}
	mgr := session.NewManager(stub, nil, nil)
	mgr.Store().Set(&api.Profile{UserID: "u"})

	if err := mgr.Logout(context.Background()); err == nil {
		t.Fatal("expected backend error surfaced")
	}
	if mgr.Store().Active() {
		t.Fatal("expected store cleared")
	}

	stub.logoutErr = &backend.HTTPError{Status: 401}
	mgr.Store().Set(&api.Profile{UserID: "u"})
	if err := mgr.Logout(context.Background()); err != nil {
		t.Fatalf("expired session logout should succeed, got %v", err)
	}
}

func TestLoginAgainstFakeBackend(t *testing.T) {
	fake := testsupport.NewBackend(t)
	fake.AddAccount("ada", "pw", api.Profile{Roles: []string{"user"}})
	client, err := backend.New(backend.Options{BaseURL: fake.URL()})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	mgr := session.NewManager(client, nil, nil)

	if _, err := mgr.Login(context.Background(), api.LoginRequest{Username: "ada", Password: "nope"}); err == nil {
		t.Fatal("expected bad credentials rejected")
	}
	if mgr.Store().Active() {
		t.Fatal("failed login must not sign in")
	}

	profile, err := mgr.Login(context.Background(), api.LoginRequest{Username: "ada", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if profile.UserID != "ada" || !mgr.Store().Active() {
		t.Fatalf("unexpected profile %+v", profile)
	}

	if err := mgr.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := mgr.Init(context.Background()); err != nil {
		t.Fatalf("Init after logout: %v", err)
	}
	if mgr.Store().Active() {
		t.Fatal("expected signed out after logout")
	}
}
