package live_test

import (
	"context"
	"testing"
	"time"

	"idconsole/internal/api"
	"idconsole/internal/backend"
	"idconsole/internal/jobs"
	"idconsole/internal/live"
	"idconsole/internal/testsupport"
)

func TestPushCompletionOverWebSocketStopsPolling(t *testing.T) {
	fake := testsupport.NewBackend(t)
	fake.AddAccount("ada", "pw", api.Profile{})
	client, err := backend.New(backend.Options{BaseURL: fake.URL()})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	if err := client.Login(context.Background(), api.LoginRequest{Username: "ada", Password: "pw"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	fake.PutJob(running("job-42", 0))
	store := jobs.NewStore()
	listed, err := client.ListJobs(context.Background())
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	store.ReplaceAll(listed)

	p := live.New(live.Options{
		Source:       live.BackendSource{Client: client},
		Store:        store,
		Push:         true,
		PollInterval: 30 * time.Millisecond,
	})
	defer p.Stop()
	p.Reconcile(store.Snapshot(), true)

	if !fake.WaitSubscribers("job-42", 1, 2*time.Second) {
		t.Fatal("channel never opened")
	}
	done := completedJob("job-42", 1)
	fake.PutJob(done)
	fake.Push("job-42", api.ChannelMessage{Type: api.ChannelMessageJob, Job: &done})

	eventually(t, "row updated from push", func() bool {
		got, _ := store.Get("job-42")
		return got.Status == api.JobStatusCompleted
	})
	if !fake.WaitSubscribers("job-42", 0, 2*time.Second) {
		t.Fatal("channel not closed after completion")
	}

	after := fake.Fetches("job-42")
	time.Sleep(150 * time.Millisecond)
	if n := fake.Fetches("job-42"); n != after {
		t.Fatalf("polling continued after completion: %d -> %d", after, n)
	}
}
