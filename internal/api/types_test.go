package api_test

import (
	"encoding/json"
	"testing"

	"idconsole/internal/api"
)

func TestJobStatusTerminal(t *testing.T) {
	cases := map[api.JobStatus]bool{
		api.JobStatusQueued:    false,
		api.JobStatusRunning:   false,
		api.JobStatusCompleted: true,
		api.JobStatusFailed:    true,
		"paused":               false,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Fatalf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
	if api.ParseJobStatus(" Completed ") != api.JobStatusCompleted {
		t.Fatal("expected ParseJobStatus to normalize case and whitespace")
	}
}

func TestMetadataPreservesKeyOrder(t *testing.T) {
	var md api.Metadata
	if err := json.Unmarshal([]byte(`{"zeta":"1","alpha":"2","year":1999,"flag":true,"none":null}`), &md); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"zeta", "alpha", "year", "flag", "none"}
	got := md.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
	if v, _ := md.Get("year"); v != "1999" {
		t.Fatalf("year = %q", v)
	}
	out, err := json.Marshal(md)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"zeta":"1","alpha":"2","year":"1999","flag":"true","none":""}` {
		t.Fatalf("unexpected encoding %s", out)
	}
}

func TestMetadataRejectsNestedValues(t *testing.T) {
	var md api.Metadata
	if err := json.Unmarshal([]byte(`{"a":{"b":"c"}}`), &md); err == nil {
		t.Fatal("expected nested metadata to be rejected")
	}
}

func TestResultNullableFields(t *testing.T) {
	var job api.Job
	raw := `{"id":"job-1","status":"completed","result":{"matches":[],"match_source":null,"metadata":null}}`
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if job.Result == nil {
		t.Fatal("expected result")
	}
	if job.Result.MatchSource != nil || job.Result.Metadata != nil {
		t.Fatalf("expected null fields to stay nil: %+v", job.Result)
	}
	if job.HasMatch() {
		t.Fatal("empty matches should not count as a match")
	}
}

func TestJobCloneIsDeep(t *testing.T) {
	job := api.Job{
		ID:       "job-1",
		Progress: []string{"queued"},
		Result: &api.Result{
			Matches:  []api.Match{{Title: "T", Releases: []api.Release{{Title: "R"}}}},
			Metadata: api.NewMetadata("title", "T"),
		},
	}
	clone := job.Clone()
	clone.Progress[0] = "changed"
	clone.Result.Matches[0].Releases[0].Title = "changed"
	clone.Result.Metadata.Set("title", "changed")
	if job.Progress[0] != "queued" || job.Result.Matches[0].Releases[0].Title != "R" {
		t.Fatal("clone shares slices with original")
	}
	if v, _ := job.Result.Metadata.Get("title"); v != "T" {
		t.Fatal("clone shares metadata with original")
	}
}

func TestProfileCapabilities(t *testing.T) {
	name := "  "
	p := &api.Profile{UserID: "u1", DisplayName: &name, Roles: []string{"Admin", "admin", ""}, Features: []string{"upload"}}
	p.Normalize()
	if len(p.Roles) != 1 || p.Roles[0] != "admin" {
		t.Fatalf("roles not normalized: %v", p.Roles)
	}
	if !p.IsAdmin() || !p.Allows("UPLOAD") || p.Allows("tokens") {
		t.Fatalf("unexpected capabilities: %+v", p)
	}
	if p.Name() != "u1" {
		t.Fatalf("expected blank display name to fall back to id, got %q", p.Name())
	}
	var nilProfile *api.Profile
	if nilProfile.IsAdmin() {
		t.Fatal("nil profile must not be admin")
	}
}

func TestErrorResponseMessage(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"detail":"Invalid credentials"}`, "Invalid credentials"},
		{`{"detail":[{"msg":"field required"},{"msg":"too short"}]}`, "field required; too short"},
		{`{"error":"unauthorized"}`, "unauthorized"},
		{`{}`, ""},
	}
	for _, tc := range cases {
		var resp api.ErrorResponse
		if err := json.Unmarshal([]byte(tc.body), &resp); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.body, err)
		}
		if got := resp.Message(); got != tc.want {
			t.Fatalf("Message(%s) = %q, want %q", tc.body, got, tc.want)
		}
	}
}
