package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"idconsole/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idconsole.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestLastReturnsNewestLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	lines, offset, err := logs.Last(path, 2, logs.Filter{})
	if err != nil {
		t.Fatalf("last returned error: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("expected offset 6, got %d", offset)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "absent.log"), 10, logs.Filter{})
	if err != nil || len(lines) != 0 || offset != 0 {
		t.Fatalf("expected empty result, got %#v %d %v", lines, offset, err)
	}
}

func TestLastLeavesPartialLine(t *testing.T) {
	path := writeLog(t, "done\npartial")
	lines, offset, err := logs.Last(path, 5, logs.Filter{})
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if len(lines) != 1 || lines[0] != "done" || offset != 5 {
		t.Fatalf("unexpected result %#v offset %d", lines, offset)
	}
}

func TestFilterMatchesBothFormats(t *testing.T) {
	content := `{"time":"2026-01-01T00:00:00Z","level":"INFO","msg":"upload accepted","job_id":"j1"}
{"time":"2026-01-01T00:00:01Z","level":"DEBUG","msg":"poll","job_id":"j1"}
2026-01-01T00:00:02Z WARN live: [j1] channel dropped reason=eof
2026-01-01T00:00:03Z INFO web: request served job_id=j2
`
	path := writeLog(t, content)

	lines, _, err := logs.Last(path, 10, logs.Filter{JobID: "j1"})
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines for j1, got %#v", lines)
	}

	lines, _, err = logs.Last(path, 10, logs.Filter{JobID: "j1", MinLevel: "info"})
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected debug line dropped, got %#v", lines)
	}

	lines, _, err = logs.Last(path, 10, logs.Filter{JobID: "j2"})
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected key=value job id match, got %#v", lines)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	_, offset, err := logs.Last(path, 1, logs.Filter{})
	if err != nil {
		t.Fatalf("last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 20*time.Millisecond, logs.Filter{}, func(line string) error {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
			return nil
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("follow: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "later" {
		t.Fatalf("unexpected followed lines: %#v", got)
	}
}
