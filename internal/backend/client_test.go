package backend_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"idconsole/internal/api"
	"idconsole/internal/backend"
	"idconsole/internal/services"
	"idconsole/internal/testsupport"
)

func newClient(t *testing.T, baseURL string) *backend.Client {
	t.Helper()
	client, err := backend.New(backend.Options{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	return client
}

func signedIn(t *testing.T, fake *testsupport.Backend, profile api.Profile) *backend.Client {
	t.Helper()
	fake.AddAccount("ada", "correct horse", profile)
	client := newClient(t, fake.URL())
	if err := client.Login(context.Background(), api.LoginRequest{Username: "ada", Password: "correct horse"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return client
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	if _, err := backend.New(backend.Options{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := backend.New(backend.Options{BaseURL: "ftp://example"}); err == nil {
		t.Fatal("expected unsupported scheme error")
	}
}

func TestTimeoutIsBounded(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, backend.DefaultTimeout},
		{time.Second, backend.MinTimeout},
		{time.Minute, backend.MaxTimeout},
		{20 * time.Second, 20 * time.Second},
	}
	for _, tt := range tests {
		client, err := backend.New(backend.Options{BaseURL: "http://127.0.0.1:1", Timeout: tt.in})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if got := client.Timeout(); got != tt.want {
			t.Fatalf("Timeout(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWhoamiSignedOutIsUnauthorized(t *testing.T) {
	fake := testsupport.NewBackend(t)
	client := newClient(t, fake.URL())

	_, err := client.Whoami(context.Background())
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if backend.StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("status = %d", backend.StatusCode(err))
	}
	if got := backend.Message(err); got != "Not authenticated" {
		t.Fatalf("Message = %q", got)
	}
}

func TestLoginStoresSessionAndWhoami(t *testing.T) {
	fake := testsupport.NewBackend(t)
	name := "Ada"
	client := signedIn(t, fake, api.Profile{DisplayName: &name, Roles: []string{"Admin", "admin"}})

	profile, err := client.Whoami(context.Background())
	if err != nil {
		t.Fatalf("Whoami: %v", err)
	}
	if profile.Name() != "Ada" || !profile.IsAdmin() || len(profile.Roles) != 1 {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestLoginFailureSurfacesDetail(t *testing.T) {
	fake := testsupport.NewBackend(t)
	fake.AddAccount("ada", "secret", api.Profile{})
	client := newClient(t, fake.URL())

	err := client.Login(context.Background(), api.LoginRequest{Username: "ada", Password: "wrong"})
	if !errors.Is(err, services.ErrUnauthorized) || backend.Message(err) != "Invalid credentials" {
		t.Fatalf("unexpected error %v (%q)", err, backend.Message(err))
	}
}

func TestWritesEchoCSRFToken(t *testing.T) {
	fake := testsupport.NewBackend(t)
	client := signedIn(t, fake, api.Profile{})

	if _, err := client.Upload(context.Background(), backend.UploadFile{Name: "a.mp3", Content: strings.NewReader("abc")}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	req, ok := fake.LastRequest(http.MethodPost, "/identify/upload")
	if !ok {
		t.Fatal("upload request not recorded")
	}
	if req.Header.Get(backend.CSRFHeader) == "" {
		t.Fatal("expected CSRF header on write")
	}
	if req.Header.Get(backend.RequestIDHeader) == "" {
		t.Fatal("expected request id header")
	}

	if _, err := client.ListJobs(context.Background()); err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	get, _ := fake.LastRequest(http.MethodGet, "/jobs")
	if get.Header.Get(backend.CSRFHeader) != "" {
		t.Fatal("reads must not carry the CSRF header")
	}
}

func TestRequestIDFromContext(t *testing.T) {
	fake := testsupport.NewBackend(t)
	client := newClient(t, fake.URL())

	ctx := services.WithRequestID(context.Background(), "req-42")
	_, _ = client.Whoami(ctx)
	req, _ := fake.LastRequest(http.MethodGet, "/whoami")
	if got := req.Header.Get(backend.RequestIDHeader); got != "req-42" {
		t.Fatalf("request id = %q", got)
	}
}

func TestBearerTokenAuthorizes(t *testing.T) {
	fake := testsupport.NewBackend(t)
	fake.AddAccount("svc", "pw", api.Profile{Roles: []string{"user"}})
	fake.AcceptToken("tok-1", "svc")

	client, err := backend.New(backend.Options{BaseURL: fake.URL(), APIToken: "tok-1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	profile, err := client.Whoami(context.Background())
	if err != nil || profile.UserID != "svc" {
		t.Fatalf("Whoami = %+v, %v", profile, err)
	}
}

func TestUploadSendsOptions(t *testing.T) {
	fake := testsupport.NewBackend(t)
	client := signedIn(t, fake, api.Profile{})

	resp, err := client.Upload(context.Background(), backend.UploadFile{
		Name:    "/tmp/clip.flac",
		Content: bytes.NewReader([]byte("audio")),
		Options: api.UploadOptions{SecondaryProvider: true, MetadataOnly: true},
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resp.JobID == "" {
		t.Fatal("expected job id")
	}
	uploads := fake.Uploads()
	if len(uploads) != 1 {
		t.Fatalf("uploads = %d", len(uploads))
	}
	got := uploads[0]
	if got.Filename != "clip.flac" || got.Size != 5 {
		t.Fatalf("unexpected upload %+v", got)
	}
	for key, want := range map[string]string{"secondary_provider": "true", "store_fingerprint": "false", "metadata_only": "true"} {
		if got.Fields[key] != want {
			t.Fatalf("field %s = %q, want %q", key, got.Fields[key], want)
		}
	}
}

func TestGetJobNotFound(t *testing.T) {
	fake := testsupport.NewBackend(t)
	client := signedIn(t, fake, api.Profile{})

	_, err := client.GetJob(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) || !errors.Is(err, services.ErrHTTP) {
		t.Fatalf("expected not found, got %v", err)
	}
	if services.IsTransient(err) {
		t.Fatal("HTTP errors are not transient")
	}
}

func TestErrorDetailList(t *testing.T) {
	fake := testsupport.NewBackend(t)
	fake.AddAccount("taken", "pw", api.Profile{})
	client := newClient(t, fake.URL())

	_, err := client.Register(context.Background(), api.RegisterRequest{Username: "taken", Password: "longenough"})
	if backend.StatusCode(err) != http.StatusConflict {
		t.Fatalf("status = %d (%v)", backend.StatusCode(err), err)
	}
	if got := backend.Message(err); got != "Username already taken" {
		t.Fatalf("Message = %q", got)
	}
}

func TestNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := newClient(t, url)
	_, err := client.ListJobs(context.Background())
	if !errors.Is(err, services.ErrNetwork) || !services.IsTransient(err) {
		t.Fatalf("expected transient network error, got %v", err)
	}
	if backend.Message(err) != "network error" {
		t.Fatalf("Message = %q", backend.Message(err))
	}
}

func TestTimeoutIsReported(t *testing.T) {
	fake := testsupport.NewBackend(t)
	client := signedIn(t, fake, api.Profile{})
	fake.PutJob(api.Job{ID: "slow", Status: api.JobStatusRunning})
	fake.DelayJob("slow", time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.GetJob(ctx, "slow")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestAdminRoundTrip(t *testing.T) {
	fake := testsupport.NewBackend(t)
	client := signedIn(t, fake, api.Profile{Roles: []string{api.RoleAdmin}})
	ctx := context.Background()

	token, err := client.CreateToken(ctx, api.TokenCreateRequest{Name: "ci", TTLSeconds: 3600})
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if token.Token == "" || token.ExpiresAt == nil {
		t.Fatalf("unexpected token %+v", token)
	}
	if err := client.RevokeToken(ctx, token.ID); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	tokens, err := client.ListTokens(ctx)
	if err != nil || len(tokens) != 1 || !tokens[0].Revoked || tokens[0].Token != "" {
		t.Fatalf("ListTokens = %+v, %v", tokens, err)
	}

	user, err := client.CreateUser(ctx, api.UserCreateRequest{Username: "bob", Password: "password1"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	disabled := true
	updated, err := client.UpdateUser(ctx, user.ID, api.UserUpdateRequest{Disabled: &disabled})
	if err != nil || !updated.Disabled {
		t.Fatalf("UpdateUser = %+v, %v", updated, err)
	}
	if err := client.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	users, err := client.ListUsers(ctx)
	if err != nil || len(users) != 0 {
		t.Fatalf("ListUsers = %+v, %v", users, err)
	}
}

func TestAdminForbiddenForUsers(t *testing.T) {
	fake := testsupport.NewBackend(t)
	client := signedIn(t, fake, api.Profile{Roles: []string{"user"}})

	_, err := client.ListUsers(context.Background())
	if backend.StatusCode(err) != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestSubscribeJobReceivesMessages(t *testing.T) {
	fake := testsupport.NewBackend(t)
	client := signedIn(t, fake, api.Profile{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch, err := client.SubscribeJob(ctx, "job-7")
	if err != nil {
		t.Fatalf("SubscribeJob: %v", err)
	}
	defer ch.Close()
	if !fake.WaitSubscribers("job-7", 1, time.Second) {
		t.Fatal("channel not registered")
	}
	req, _ := fake.LastRequest(http.MethodGet, "/ws/jobs/job-7")
	if req.Header.Get(backend.CSRFHeader) == "" {
		t.Fatal("expected CSRF token on channel handshake")
	}

	fake.Push("job-7", api.ChannelMessage{Type: api.ChannelMessagePing})
	fake.Push("job-7", api.ChannelMessage{Type: api.ChannelMessageJob, Job: &api.Job{ID: "job-7", Status: api.JobStatusCompleted}})
	msg, err := ch.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if msg.Job == nil || msg.Job.Status != api.JobStatusCompleted || msg.JobID != "job-7" {
		t.Fatalf("unexpected message %+v", msg)
	}

	fake.Push("job-7", api.ChannelMessage{Type: api.ChannelMessageChanged})
	msg, err = ch.Next(ctx)
	if err != nil || msg.Job != nil || msg.JobID != "job-7" {
		t.Fatalf("bare message = %+v, %v", msg, err)
	}

	fake.PushRaw("job-7", []byte("changed"))
	msg, err = ch.Next(ctx)
	if err != nil || msg.Type != api.ChannelMessageChanged || msg.Job != nil || msg.JobID != "job-7" {
		t.Fatalf("plain-text frame = %+v, %v", msg, err)
	}

	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fake.WaitSubscribers("job-7", 0, time.Second) {
		t.Fatal("expected channel closed on server")
	}
}

func TestChannelErrorsAreClassified(t *testing.T) {
	fake := testsupport.NewBackend(t)
	client := signedIn(t, fake, api.Profile{})
	ctx := context.Background()

	fake.RejectChannels(true)
	if _, err := client.SubscribeJob(ctx, "job-1"); !errors.Is(err, services.ErrChannel) {
		t.Fatalf("expected channel error on rejected handshake, got %v", err)
	}

	fake.RejectChannels(false)
	ch, err := client.SubscribeJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("SubscribeJob: %v", err)
	}
	defer ch.Close()
	fake.WaitSubscribers("job-1", 1, time.Second)
	fake.DropChannels("job-1")
	if _, err := ch.Next(ctx); !errors.Is(err, services.ErrChannel) {
		t.Fatalf("expected channel error after server close, got %v", err)
	}
}

func TestChannelNextHonoursContext(t *testing.T) {
	fake := testsupport.NewBackend(t)
	client := signedIn(t, fake, api.Profile{})

	ch, err := client.SubscribeJob(context.Background(), "job-2")
	if err != nil {
		t.Fatalf("SubscribeJob: %v", err)
	}
	defer ch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := ch.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestJobIDsAreEscapedOnce(t *testing.T) {
	var mu sync.Mutex
	type seen struct{ escaped, decoded string }
	var got []seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, seen{r.URL.EscapedPath(), r.URL.Path})
		mu.Unlock()
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"x","status":"running"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := newClient(t, srv.URL+"/api/")
	ctx := context.Background()
	if _, err := client.GetJob(ctx, "job 1"); err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if _, err := client.GetJob(ctx, "a/b%c"); err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if err := client.RevokeToken(ctx, "tok 9"); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	want := []seen{
		{"/api/jobs/job%201", "/api/jobs/job 1"},
		{"/api/jobs/a%2Fb%25c", "/api/jobs/a/b%c"},
		{"/api/admin/tokens/tok%209", "/api/admin/tokens/tok 9"},
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("requests = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("request %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestJobIDWithSpacesRoutesToJob(t *testing.T) {
	fake := testsupport.NewBackend(t)
	client := signedIn(t, fake, api.Profile{})
	fake.PutJob(api.Job{ID: "job 1", Status: api.JobStatusRunning})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := client.GetJob(ctx, "job 1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.ID != "job 1" || fake.Fetches("job 1") != 1 {
		t.Fatalf("job = %+v, fetches = %d", job, fake.Fetches("job 1"))
	}

	ch, err := client.SubscribeJob(ctx, "job 1")
	if err != nil {
		t.Fatalf("SubscribeJob: %v", err)
	}
	defer ch.Close()
	if !fake.WaitSubscribers("job 1", 1, time.Second) {
		t.Fatal("channel not registered under the raw job id")
	}
}
