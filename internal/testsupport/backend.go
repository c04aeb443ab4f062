package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fasthttp/websocket"

	"idconsole/internal/api"
)

const (
	// SessionCookie is the HTTP-only session cookie issued by the fake backend.
	SessionCookie = "sessionid"
	// CSRFCookie is the CSRF cookie issued alongside the session.
	CSRFCookie = "csrftoken"
)

// RecordedRequest captures the parts of an inbound request tests assert on.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
}

// RecordedUpload captures one multipart upload.
type RecordedUpload struct {
	Filename string
	Size     int64
	Fields   map[string]string
}

type fakeAccount struct {
	password string
	profile  api.Profile
}

type subscriber struct {
	send chan []byte
	quit chan struct{}
	once sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.quit) })
}

// Backend is an in-process fake of the identify/job backend covering the
// HTTP routes and the per-job WebSocket channel.
type Backend struct {
	t      testing.TB
	Server *httptest.Server

	mu            sync.Mutex
	accounts      map[string]fakeAccount
	sessions      map[string]string
	bearer        map[string]string
	jobs          map[string]api.Job
	jobOrder      []string
	fetches       map[string]int
	jobStatus     map[string]int
	jobDelay      map[string]time.Duration
	requests      []RecordedRequest
	uploads       []RecordedUpload
	tokens        []api.APIToken
	users         []api.User
	subs          map[string][]*subscriber
	opened        map[string]int
	rejectChannel bool
	seq           int
}

// NewBackend starts a fake backend and registers cleanup.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		t:         t,
		accounts:  map[string]fakeAccount{},
		sessions:  map[string]string{},
		bearer:    map[string]string{},
		jobs:      map[string]api.Job{},
		fetches:   map[string]int{},
		jobStatus: map[string]int{},
		jobDelay:  map[string]time.Duration{},
		subs:      map[string][]*subscriber{},
		opened:    map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /whoami", b.handleWhoami)
	mux.HandleFunc("POST /auth/login", b.handleLogin)
	mux.HandleFunc("POST /auth/logout", b.handleLogout)
	mux.HandleFunc("POST /auth/register", b.handleRegister)
	mux.HandleFunc("GET /jobs", b.handleListJobs)
	mux.HandleFunc("GET /jobs/{id}", b.handleGetJob)
	mux.HandleFunc("POST /identify/upload", b.handleUpload)
	mux.HandleFunc("GET /ws/jobs/{id}", b.handleChannel)
	mux.HandleFunc("GET /admin/tokens", b.admin(b.handleListTokens))
	mux.HandleFunc("POST /admin/tokens", b.admin(b.handleCreateToken))
	mux.HandleFunc("DELETE /admin/tokens/{id}", b.admin(b.handleRevokeToken))
	mux.HandleFunc("GET /admin/users", b.admin(b.handleListUsers))
	mux.HandleFunc("POST /admin/users", b.admin(b.handleCreateUser))
	mux.HandleFunc("PATCH /admin/users/{id}", b.admin(b.handleUpdateUser))
	mux.HandleFunc("DELETE /admin/users/{id}", b.admin(b.handleDeleteUser))

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()})
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

// URL returns the backend base URL.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Close disconnects channel subscribers and stops the server.
func (b *Backend) Close() {
	b.mu.Lock()
	for _, list := range b.subs {
		for _, sub := range list {
			sub.stop()
		}
	}
	b.subs = map[string][]*subscriber{}
	b.mu.Unlock()
	b.Server.Close()
}

// AddAccount registers credentials and the profile whoami returns for them.
func (b *Backend) AddAccount(username, password string, profile api.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if profile.UserID == "" {
		profile.UserID = username
	}
	b.accounts[username] = fakeAccount{password: password, profile: profile}
}

// AcceptToken authorizes bearer token on behalf of username.
func (b *Backend) AcceptToken(token, username string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bearer[token] = username
}

// PutJob inserts or replaces a job.
func (b *Backend) PutJob(job api.Job) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.jobs[job.ID]; !ok {
		b.jobOrder = append(b.jobOrder, job.ID)
	}
	b.jobs[job.ID] = job.Clone()
}

// FailJob makes GET /jobs/{id} answer with status until cleared with 0.
func (b *Backend) FailJob(id string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobStatus[id] = status
}

// DelayJob holds GET /jobs/{id} responses for d.
func (b *Backend) DelayJob(id string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobDelay[id] = d
}

// RejectChannels makes channel handshakes fail with 503.
func (b *Backend) RejectChannels(reject bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectChannel = reject
}

// Fetches returns how many times GET /jobs/{id} was served.
func (b *Backend) Fetches(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches[id]
}

// Subscribers returns the number of open channels for id.
func (b *Backend) Subscribers(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[id])
}

// ChannelsOpened returns how many channels were ever opened for id.
func (b *Backend) ChannelsOpened(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened[id]
}

// WaitSubscribers polls until id has want open channels or timeout expires.
func (b *Backend) WaitSubscribers(id string, want int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if b.Subscribers(id) == want {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return b.Subscribers(id) == want
}

// Push sends msg to every open channel for id and returns how many received
// it.
func (b *Backend) Push(id string, msg api.ChannelMessage) int {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.t.Fatalf("marshal channel message: %v", err)
	}
	return b.PushRaw(id, payload)
}

// PushRaw sends payload unchanged to every open channel for id.
func (b *Backend) PushRaw(id string, payload []byte) int {
	b.mu.Lock()
	list := append([]*subscriber(nil), b.subs[id]...)
	b.mu.Unlock()
	for _, sub := range list {
		select {
		case sub.send <- payload:
		case <-sub.quit:
		}
	}
	return len(list)
}

// DropChannels closes every open channel for id from the server side.
func (b *Backend) DropChannels(id string) {
	b.mu.Lock()
	list := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()
	for _, sub := range list {
		sub.stop()
	}
}

// Requests returns a copy of all recorded requests.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// LastRequest returns the most recent request matching method and path.
func (b *Backend) LastRequest(method, path string) (RecordedRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		if b.requests[i].Method == method && b.requests[i].Path == path {
			return b.requests[i], true
		}
	}
	return RecordedRequest{}, false
}

// Uploads returns the recorded uploads.
func (b *Backend) Uploads() []RecordedUpload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedUpload(nil), b.uploads...)
}

// Tokens returns the stored API tokens.
func (b *Backend) Tokens() []api.APIToken {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.APIToken(nil), b.tokens...)
}

// Users returns the stored admin-managed users.
func (b *Backend) Users() []api.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.User(nil), b.users...)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// principal resolves the caller from the session cookie or bearer token. The
// second result reports whether the session cookie was used.
func (b *Backend) principal(r *http.Request) (fakeAccount, bool, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if username, ok := b.bearer[strings.TrimPrefix(auth, "Bearer ")]; ok {
			acct, found := b.accounts[username]
			return acct, false, found
		}
	}
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return fakeAccount{}, false, false
	}
	username, ok := b.sessions[cookie.Value]
	if !ok {
		return fakeAccount{}, false, false
	}
	acct, found := b.accounts[username]
	return acct, true, found
}

// authorize enforces a session plus CSRF echo on writes made with cookies.
func (b *Backend) authorize(w http.ResponseWriter, r *http.Request) (fakeAccount, bool) {
	acct, viaCookie, ok := b.principal(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return fakeAccount{}, false
	}
	if viaCookie && r.Method != http.MethodGet {
		csrf, err := r.Cookie(CSRFCookie)
		if err != nil || r.Header.Get("X-CSRF-Token") != csrf.Value {
			writeDetail(w, http.StatusForbidden, "CSRF token missing or incorrect")
			return fakeAccount{}, false
		}
	}
	return acct, true
}

func (b *Backend) admin(next func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := b.authorize(w, r)
		if !ok {
			return
		}
		if !acct.profile.IsAdmin() {
			writeDetail(w, http.StatusForbidden, "Admin role required")
			return
		}
		next(w, r)
	}
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%d", prefix, b.seq)
}

func (b *Backend) handleWhoami(w http.ResponseWriter, r *http.Request) {
	acct, ok := b.authorize(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, acct.profile)
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	acct, ok := b.accounts[req.Username]
	if !ok || acct.password != req.Password {
		b.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	session := b.nextID("session")
	csrf := b.nextID("csrf")
	b.sessions[session] = req.Username
	b.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: session, Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: csrf, Path: "/"})
	writeJSON(w, http.StatusOK, acct.profile)
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authorize(w, r); !ok {
		return
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		b.mu.Lock()
		delete(b.sessions, cookie.Value)
		b.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	if _, exists := b.accounts[req.Username]; exists {
		b.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]any{
			"detail": []map[string]string{{"msg": "Username already taken"}},
		})
		return
	}
	b.accounts[req.Username] = fakeAccount{password: req.Password, profile: api.Profile{UserID: req.Username, Roles: []string{"user"}}}
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, api.User{ID: req.Username, Username: req.Username, Email: req.Email, Roles: []string{"user"}})
}

func (b *Backend) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authorize(w, r); !ok {
		return
	}
	b.mu.Lock()
	out := make([]api.Job, 0, len(b.jobOrder))
	for _, id := range b.jobOrder {
		out = append(out, b.jobs[id].Clone())
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: out})
}

func (b *Backend) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authorize(w, r); !ok {
		return
	}
	id := r.PathValue("id")
	b.mu.Lock()
	b.fetches[id]++
	status := b.jobStatus[id]
	delay := b.jobDelay[id]
	job, found := b.jobs[id]
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status != 0 {
		writeDetail(w, status, http.StatusText(status))
		return
	}
	if !found {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (b *Backend) handleUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authorize(w, r); !ok {
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	size, _ := io.Copy(io.Discard, file)
	if size == 0 {
		writeDetail(w, http.StatusBadRequest, "empty file")
		return
	}
	fields := map[string]string{}
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	now := time.Now().UTC()
	b.mu.Lock()
	id := b.nextID("job")
	b.jobs[id] = api.Job{ID: id, Status: api.JobStatusQueued, Filename: header.Filename, CreatedAt: now, UpdatedAt: now}
	b.jobOrder = append(b.jobOrder, id)
	b.uploads = append(b.uploads, RecordedUpload{Filename: header.Filename, Size: size, Fields: fields})
	b.mu.Unlock()

	writeJSON(w, http.StatusAccepted, api.UploadResponse{JobID: id})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func (b *Backend) handleChannel(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authorize(w, r); !ok {
		return
	}
	b.mu.Lock()
	reject := b.rejectChannel
	b.mu.Unlock()
	if reject {
		writeDetail(w, http.StatusServiceUnavailable, "channels disabled")
		return
	}

	id := r.PathValue("id")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := &subscriber{send: make(chan []byte, 16), quit: make(chan struct{})}
	b.mu.Lock()
	b.subs[id] = append(b.subs[id], sub)
	b.opened[id]++
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		list := b.subs[id]
		for i, s := range list {
			if s == sub {
				b.subs[id] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(b.subs[id]) == 0 {
			delete(b.subs, id)
		}
		b.mu.Unlock()
		_ = conn.Close()
	}()

	go func() {
		defer sub.stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case payload := <-sub.send:
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-sub.quit:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"),
				time.Now().Add(time.Second))
			return
		}
	}
}

func (b *Backend) handleListTokens(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.TokenListResponse{Tokens: b.Tokens()})
}

func (b *Backend) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req api.TokenCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	now := time.Now().UTC()
	b.mu.Lock()
	id := b.nextID("tok")
	token := api.APIToken{ID: id, Name: req.Name, Owner: req.Owner, Prefix: "idc_" + strconv.Itoa(b.seq), CreatedAt: now}
	if req.TTLSeconds > 0 {
		expires := now.Add(time.Duration(req.TTLSeconds) * time.Second)
		token.ExpiresAt = &expires
	}
	b.tokens = append(b.tokens, token)
	b.mu.Unlock()

	token.Token = token.Prefix + "_secret"
	writeJSON(w, http.StatusCreated, token)
}

func (b *Backend) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.tokens {
		if b.tokens[i].ID == id {
			b.tokens[i].Revoked = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Token not found")
}

func (b *Backend) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	users := b.Users()
	sort.SliceStable(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	writeJSON(w, http.StatusOK, api.UserListResponse{Users: users})
}

func (b *Backend) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req api.UserCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	id := b.nextID("user")
	user := api.User{ID: id, Username: req.Username, DisplayName: req.DisplayName, Email: req.Email, Roles: req.Roles, Features: req.Features}
	b.users = append(b.users, user)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, user)
}

func (b *Backend) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req api.UserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid body")
		return
	}
	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.users {
		if b.users[i].ID != id {
			continue
		}
		if req.DisplayName != nil {
			b.users[i].DisplayName = *req.DisplayName
		}
		if req.Roles != nil {
			b.users[i].Roles = req.Roles
		}
		if req.Features != nil {
			b.users[i].Features = req.Features
		}
		if req.Disabled != nil {
			b.users[i].Disabled = *req.Disabled
		}
		writeJSON(w, http.StatusOK, b.users[i])
		return
	}
	writeDetail(w, http.StatusNotFound, "User not found")
}

func (b *Backend) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.users {
		if b.users[i].ID == id {
			b.users = append(b.users[:i], b.users[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "User not found")
}

// SeedUsers replaces the admin-managed user list.
func (b *Backend) SeedUsers(users ...api.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append([]api.User(nil), users...)
}
