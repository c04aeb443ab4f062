package api

import (
	"strings"
	"time"
)

// JobStatus represents the lifecycle of an identify job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

var allJobStatuses = []JobStatus{
	JobStatusQueued,
	JobStatusRunning,
	JobStatusCompleted,
	JobStatusFailed,
}

// AllJobStatuses returns the known statuses in lifecycle order.
func AllJobStatuses() []JobStatus {
	out := make([]JobStatus, len(allJobStatuses))
	copy(out, allJobStatuses)
	return out
}

// ParseJobStatus normalizes a raw status string. Unknown values are returned
// as-is so newer backend statuses still round-trip.
func ParseJobStatus(raw string) JobStatus {
	return JobStatus(strings.ToLower(strings.TrimSpace(raw)))
}

// IsTerminal reports whether no further updates are expected for the status.
// Unknown statuses are treated as live.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Known reports whether the status is one of the fixed enumeration values.
func (s JobStatus) Known() bool {
	for _, status := range allJobStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Job describes an identify job in the backend's transport format.
type Job struct {
	ID         string     `json:"id"`
	Status     JobStatus  `json:"status"`
	Filename   string     `json:"filename,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Progress   []string   `json:"progress,omitempty"`
	Error      string     `json:"error,omitempty"`
	Result     *Result    `json:"result,omitempty"`
}

// IsTerminal reports whether the job reached completed or failed.
func (j Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// LastProgress returns the most recent progress message, if any.
func (j Job) LastProgress() string {
	for i := len(j.Progress) - 1; i >= 0; i-- {
		if msg := strings.TrimSpace(j.Progress[i]); msg != "" {
			return msg
		}
	}
	return ""
}

// HasMatch reports whether the job carries at least one candidate match.
// Failed jobs may carry a result with no matches; that counts as no match.
func (j Job) HasMatch() bool {
	return j.Result != nil && len(j.Result.Matches) > 0
}

// Clone returns a deep copy so stores can hand out values without sharing
// slices with callers.
func (j Job) Clone() Job {
	out := j
	if j.FinishedAt != nil {
		finished := *j.FinishedAt
		out.FinishedAt = &finished
	}
	if j.Progress != nil {
		out.Progress = append([]string(nil), j.Progress...)
	}
	if j.Result != nil {
		result := j.Result.Clone()
		out.Result = &result
	}
	return out
}
