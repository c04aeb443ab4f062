package console_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"idconsole/internal/api"
	"idconsole/internal/console"
	"idconsole/internal/i18n"
	"idconsole/internal/jobs"
	"idconsole/internal/summary"
)

func en() i18n.Translator { return i18n.New().For("en") }

func TestJobRowsErrorAndRunningScenario(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := jobs.NewStore()
	store.ReplaceAll([]api.Job{
		{ID: "job-999", Status: api.JobStatusRunning, UpdatedAt: now},
		{ID: "job-500", Status: api.JobStatusFailed, Error: "Network error", UpdatedAt: now.Add(-time.Minute)},
	})

	rows := console.JobRows(store.Sorted(), en())
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	var errorRows, runningRows int
	for _, row := range rows {
		texts := summary.Texts(row.Lines)
		if len(texts) == 1 && texts[0] == "Error: Network error" {
			errorRows++
		}
		if row.Badge == "Running" {
			runningRows++
		}
	}
	if errorRows != 1 || runningRows != 1 {
		t.Fatalf("error rows = %d, running rows = %d", errorRows, runningRows)
	}
	if rows[0].ID != "job-999" || !rows[0].Live || rows[1].Live {
		t.Fatalf("unexpected row order/liveness: %+v", rows)
	}
	if !console.AnyLive(rows) {
		t.Fatal("expected live rows")
	}

	table := console.RenderJobTable(rows, en(), false)
	if strings.Count(table, "Error: Network error") != 1 || !strings.Contains(table, "Running") {
		t.Fatalf("unexpected table:\n%s", table)
	}
	if strings.Contains(table, "\x1b[") {
		t.Fatal("uncolored table must not contain ANSI codes")
	}
}

func TestRenderEmptyTables(t *testing.T) {
	tr := en()
	if got := console.RenderJobTable(nil, tr, false); got != "No jobs yet" {
		t.Fatalf("empty jobs = %q", got)
	}
	if got := console.RenderTokens(nil, tr, false); got != "No API tokens" {
		t.Fatalf("empty tokens = %q", got)
	}
	if got := console.RenderUsers(nil, tr, false); got != "No users" {
		t.Fatalf("empty users = %q", got)
	}
}

func TestTokenAndUserRows(t *testing.T) {
	tr := en()
	tokens := console.TokenRows([]api.APIToken{{ID: "t1", Name: "ci", Revoked: true}, {ID: "t2", Name: "dev"}}, tr)
	if tokens[0].State != "revoked" || tokens[1].State != "active" || tokens[1].Expires != "never" {
		t.Fatalf("unexpected token rows %+v", tokens)
	}
	users := console.UserRows([]api.User{{ID: "u1", Username: "bob", Roles: []string{"admin", "user"}, Disabled: true}}, tr)
	if users[0].Roles != "admin, user" || users[0].State != "disabled" {
		t.Fatalf("unexpected user rows %+v", users)
	}
	if out := console.RenderUsers(users, tr, true); !strings.Contains(out, "\x1b[31mdisabled") {
		t.Fatalf("expected colored state, got %q", out)
	}
}

func TestRenderJobDetail(t *testing.T) {
	job := api.Job{
		ID:       "job-1",
		Status:   api.JobStatusCompleted,
		Filename: "clip.mp3",
		Progress: []string{"queued", "matched"},
		Result:   &api.Result{Matches: []api.Match{{Score: 0.5, Title: "T", Artist: "A"}}, FingerprintID: "fp-1", DurationSeconds: 12.34},
	}
	row := console.NewJobRow(job, en())
	out := console.RenderJobDetail(row, job.Result.FingerprintID, job.Result.DurationSeconds, en(), false)
	for _, want := range []string{"clip.mp3", "matched", "A — T", "Score: 50%", "fp-1", "12.3s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("detail missing %q:\n%s", want, out)
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchUntilDone(t *testing.T) {
	store := jobs.NewStore()
	store.ReplaceAll([]api.Job{{ID: "job-1", Status: api.JobStatusRunning}})

	var out syncBuffer
	errCh := make(chan error, 1)
	go func() {
		errCh <- console.Watch(context.Background(), store, &out, console.WatchOptions{Translator: en(), UntilDone: true})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "Running") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	store.Apply(api.Job{ID: "job-1", Status: api.JobStatusCompleted})

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return once jobs were terminal")
	}
	if !strings.Contains(out.String(), "No result") {
		t.Fatalf("expected final frame, got:\n%s", out.String())
	}
}

func TestWatchStopsOnContext(t *testing.T) {
	store := jobs.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	if err := console.Watch(ctx, store, &out, console.WatchOptions{Translator: en()}); err != context.Canceled {
		t.Fatalf("Watch = %v, want context.Canceled", err)
	}
}
