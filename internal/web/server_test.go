package web_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"idconsole/internal/api"
	"idconsole/internal/testsupport"
	"idconsole/internal/web"
)

type harness struct {
	t       *testing.T
	backend *testsupport.Backend
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	backend := testsupport.NewBackend(t)
	backend.AddAccount("alice", "password1", api.Profile{UserID: "alice", Roles: []string{"user"}})
	backend.AddAccount("root", "password1", api.Profile{UserID: "root", Roles: []string{api.RoleAdmin}})
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithBackend(backend.URL())}, opts...)...)
	srv, err := web.New(web.Options{Config: cfg})
	if err != nil {
		t.Fatalf("web.New: %v", err)
	}
	return &harness{t: t, backend: backend, handler: srv.Handler(), cookies: map[string]*http.Cookie{}}
}

func (h *harness) send(req *http.Request) *httptest.ResponseRecorder {
	h.t.Helper()
	for _, c := range h.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(h.cookies, c.Name)
			continue
		}
		h.cookies[c.Name] = c
	}
	return rec
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	return h.send(httptest.NewRequest(http.MethodGet, path, nil))
}

func (h *harness) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.send(req)
}

func (h *harness) login(username string) {
	h.t.Helper()
	rec := h.postForm("/en/login", url.Values{"username": {username}, "password": {"password1"}})
	if rec.Code != http.StatusSeeOther {
		h.t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func uploadRequest(t *testing.T, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rec := h.get("/healthz")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestRootRedirectsToNegotiatedLocale(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr-CA,fr;q=0.9,en;q=0.5")
	rec := h.send(req)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/fr/jobs" {
		t.Fatalf("location = %q", loc)
	}
}

func TestUnsupportedLocaleRedirectsToCookieLocale(t *testing.T) {
	h := newHarness(t)
	h.cookies["locale"] = &http.Cookie{Name: "locale", Value: "fr"}

	rec := h.get("/de/jobs?page=2")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/fr/jobs?page=2" {
		t.Fatalf("location = %q", loc)
	}
}

func TestMissingLocaleKeepsPagePath(t *testing.T) {
	h := newHarness(t)
	rec := h.get("/upload")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/en/upload" {
		t.Fatalf("location = %q", loc)
	}
}

func TestLocalePrefixRendersAndRemembersLocale(t *testing.T) {
	h := newHarness(t)
	rec := h.get("/fr/login")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Se connecter") {
		t.Fatalf("expected french page, got %s", rec.Body.String())
	}
	if c, ok := h.cookies["locale"]; !ok || c.Value != "fr" {
		t.Fatalf("locale cookie = %+v", h.cookies["locale"])
	}
}

func TestJobsRequireSession(t *testing.T) {
	h := newHarness(t)
	rec := h.get("/en/jobs")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/en/login" {
		t.Fatalf("location = %q", loc)
	}
}

func TestLoginRelaysBackendCookies(t *testing.T) {
	h := newHarness(t)
	rec := h.postForm("/en/login", url.Values{"username": {"alice"}, "password": {"password1"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/en/jobs" {
		t.Fatalf("location = %q", loc)
	}
	session, ok := h.cookies[testsupport.SessionCookie]
	if !ok {
		t.Fatalf("session cookie not relayed: %+v", h.cookies)
	}
	if !session.HttpOnly {
		t.Fatalf("session cookie should stay HttpOnly")
	}
	if _, ok := h.cookies[testsupport.CSRFCookie]; !ok {
		t.Fatalf("csrf cookie not relayed")
	}

	rec = h.get("/en/jobs")
	if rec.Code != http.StatusOK {
		t.Fatalf("jobs status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Signed in as alice") {
		t.Fatalf("expected greeting in %s", rec.Body.String())
	}
}

func TestLoginShowsBackendRejection(t *testing.T) {
	h := newHarness(t)
	rec := h.postForm("/en/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Invalid credentials") {
		t.Fatalf("expected backend detail in %s", body)
	}
	if !strings.Contains(body, `value="alice"`) {
		t.Fatalf("username should be preserved")
	}
}

func TestLoginValidatesBeforeCallingBackend(t *testing.T) {
	h := newHarness(t)
	rec := h.postForm("/en/login", url.Values{"username": {""}, "password": {""}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := h.backend.LastRequest(http.MethodPost, "/auth/login"); ok {
		t.Fatalf("backend should not be called for an invalid form")
	}
}

func TestJobsPageRendersSummariesAndRefreshesWhileLive(t *testing.T) {
	h := newHarness(t)
	now := time.Now().UTC()
	h.backend.PutJob(api.Job{
		ID:        "job-done",
		Status:    api.JobStatusCompleted,
		Filename:  "song.mp3",
		UpdatedAt: now.Add(-time.Minute),
		Result: &api.Result{Matches: []api.Match{{
			Score:  0.872,
			Title:  "Song",
			Artist: "Band",
		}}},
	})
	h.backend.PutJob(api.Job{ID: "job-live", Status: api.JobStatusRunning, Filename: "clip.wav", UpdatedAt: now, Progress: []string{"fingerprinting"}})
	h.login("alice")

	rec := h.get("/en/jobs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Band — Song", "Score: 87%", "fingerprinting", `http-equiv="refresh" content="4"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in %s", want, body)
		}
	}
	if strings.Index(body, "job-live") > strings.Index(body, "job-done") {
		t.Fatalf("newest job should be listed first")
	}
}

func TestJobsPageStopsRefreshingWhenAllTerminal(t *testing.T) {
	h := newHarness(t)
	h.backend.PutJob(api.Job{ID: "job-1", Status: api.JobStatusFailed, Error: "decoder crashed", UpdatedAt: time.Now()})
	h.login("alice")

	body := h.get("/en/jobs").Body.String()
	if strings.Contains(body, `http-equiv="refresh"`) {
		t.Fatalf("terminal-only list should not refresh")
	}
	if !strings.Contains(body, "decoder crashed") {
		t.Fatalf("expected error summary in %s", body)
	}
}

func TestJobDetailNotFound(t *testing.T) {
	h := newHarness(t)
	h.login("alice")
	rec := h.get("/en/jobs/missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUploadRejectsEmptyFileWithoutBackendCall(t *testing.T) {
	h := newHarness(t)
	h.login("alice")

	req := uploadRequest(t, "/en/upload", "empty.mp3", nil, map[string]string{"store_fingerprint": "1"})
	rec := h.send(req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Choose a non-empty audio file to upload") {
		t.Fatalf("expected missing file message in %s", body)
	}
	if !strings.Contains(body, `name="store_fingerprint" value="1" checked`) {
		t.Fatalf("chosen options should be preserved")
	}
	if _, ok := h.backend.LastRequest(http.MethodPost, "/identify/upload"); ok {
		t.Fatalf("backend upload should not be called")
	}
}

func TestUploadSubmitsAndRedirectsToJob(t *testing.T) {
	h := newHarness(t)
	h.login("alice")

	req := uploadRequest(t, "/en/upload", "song.mp3", bytes.Repeat([]byte{1}, 1024), map[string]string{"secondary_provider": "1"})
	rec := h.send(req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	uploads := h.backend.Uploads()
	if len(uploads) != 1 {
		t.Fatalf("uploads = %d", len(uploads))
	}
	if uploads[0].Filename != "song.mp3" || uploads[0].Size != 1024 {
		t.Fatalf("unexpected upload %+v", uploads[0])
	}
	if uploads[0].Fields["secondary_provider"] != "true" || uploads[0].Fields["metadata_only"] != "false" {
		t.Fatalf("unexpected fields %+v", uploads[0].Fields)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/en/jobs/job-") {
		t.Fatalf("location = %q", loc)
	}
}

func TestAdminHiddenFromRegularUsers(t *testing.T) {
	h := newHarness(t)
	h.login("alice")

	body := h.get("/en/jobs").Body.String()
	if strings.Contains(body, "/en/admin/tokens") {
		t.Fatalf("admin links should be hidden")
	}
	rec := h.get("/en/admin/tokens")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "only available to administrators") {
		t.Fatalf("expected admin-only notice")
	}
	if _, ok := h.backend.LastRequest(http.MethodGet, "/admin/tokens"); ok {
		t.Fatalf("backend admin route should not be called")
	}
}

func TestAdminCreatesTokenAndShowsItOnce(t *testing.T) {
	h := newHarness(t)
	h.login("root")

	if body := h.get("/en/jobs").Body.String(); !strings.Contains(body, "/en/admin/tokens") {
		t.Fatalf("admin links should be visible")
	}
	rec := h.postForm("/en/admin/tokens", url.Values{"name": {"ci"}, "ttl_days": {"30"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	tokens := h.backend.Tokens()
	if len(tokens) != 1 || tokens[0].ExpiresAt == nil {
		t.Fatalf("unexpected tokens %+v", tokens)
	}
	secret := tokens[0].Prefix + "_secret"
	if !strings.Contains(rec.Body.String(), secret) {
		t.Fatalf("plaintext token should be shown after create")
	}
	if strings.Contains(h.get("/en/admin/tokens").Body.String(), secret) {
		t.Fatalf("plaintext token should not be shown again")
	}

	rec = h.postForm("/en/admin/tokens/"+tokens[0].ID+"/revoke", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("revoke status = %d", rec.Code)
	}
	if !h.backend.Tokens()[0].Revoked {
		t.Fatalf("token should be revoked")
	}
}

func TestAdminTokenFormRejectsBadTTL(t *testing.T) {
	h := newHarness(t)
	h.login("root")
	rec := h.postForm("/en/admin/tokens", url.Values{"name": {"ci"}, "ttl_days": {"soon"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(h.backend.Tokens()) != 0 {
		t.Fatalf("no token should be created")
	}
}

func TestAdminManagesUsers(t *testing.T) {
	h := newHarness(t)
	h.backend.SeedUsers(api.User{ID: "user-1", Username: "bob", Roles: []string{"user"}})
	h.login("root")

	rec := h.postForm("/en/admin/users", url.Values{
		"username": {"carol"},
		"password": {"longenough"},
		"roles":    {"user, reviewer"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "User carol created") {
		t.Fatalf("expected flash")
	}

	rec = h.postForm("/en/admin/users/user-1", url.Values{"display_name": {"Bobby"}, "roles": {"user"}, "disabled": {"1"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	var bob api.User
	for _, u := range h.backend.Users() {
		if u.ID == "user-1" {
			bob = u
		}
	}
	if bob.DisplayName != "Bobby" || !bob.Disabled {
		t.Fatalf("unexpected user after update %+v", bob)
	}

	rec = h.postForm("/en/admin/users/user-1/delete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(h.backend.Users()) != 1 {
		t.Fatalf("expected one remaining user, got %+v", h.backend.Users())
	}
}

func TestLogoutClearsSession(t *testing.T) {
	h := newHarness(t)
	h.login("alice")

	rec := h.postForm("/en/logout", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := h.cookies[testsupport.SessionCookie]; ok {
		t.Fatalf("session cookie should be cleared")
	}
	if rec := h.get("/en/jobs"); rec.Code != http.StatusSeeOther {
		t.Fatalf("jobs after logout = %d", rec.Code)
	}
}
