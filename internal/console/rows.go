package console

import (
	"strings"
	"time"

	"idconsole/internal/api"
	"idconsole/internal/i18n"
	"idconsole/internal/summary"
)

// TimeLayout formats timestamps in tables and pages.
const TimeLayout = "2006-01-02 15:04:05"

// Tone classifies a status badge for coloring.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneActive  Tone = "active"
	ToneSuccess Tone = "success"
	ToneDanger  Tone = "danger"
)

// JobRow is one rendered job.
type JobRow struct {
	ID       string
	Status   api.JobStatus
	Badge    string
	Tone     Tone
	Filename string
	Updated  string
	Progress string
	Lines    []summary.Line
	Live     bool
}

// SummaryText joins the summary lines for single-cell output.
func (r JobRow) SummaryText() string {
	return strings.Join(summary.Texts(r.Lines), "\n")
}

// JobRows builds rows for jobs in the given order. Callers pass the store's
// sorted read model.
func JobRows(jobs []api.Job, tr i18n.Translator) []JobRow {
	rows := make([]JobRow, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, NewJobRow(job, tr))
	}
	return rows
}

// NewJobRow builds a single row.
func NewJobRow(job api.Job, tr i18n.Translator) JobRow {
	return JobRow{
		ID:       job.ID,
		Status:   job.Status,
		Badge:    summary.StatusLabel(job.Status, tr),
		Tone:     StatusTone(job.Status),
		Filename: job.Filename,
		Updated:  FormatTime(job.UpdatedAt, tr),
		Progress: job.LastProgress(),
		Lines:    summary.Derive(job, tr),
		Live:     !job.IsTerminal(),
	}
}

// AnyLive reports whether any row is still non-terminal.
func AnyLive(rows []JobRow) bool {
	for _, row := range rows {
		if row.Live {
			return true
		}
	}
	return false
}

// StatusTone maps a status to a badge tone.
func StatusTone(status api.JobStatus) Tone {
	switch status {
	case api.JobStatusCompleted:
		return ToneSuccess
	case api.JobStatusFailed:
		return ToneDanger
	case api.JobStatusRunning, api.JobStatusQueued:
		return ToneActive
	default:
		return ToneNeutral
	}
}

// FormatTime renders t in local time, or the localized "never" for zero.
func FormatTime(t time.Time, tr i18n.Translator) string {
	if t.IsZero() {
		return tr.T(i18n.ValueNever)
	}
	return t.Local().Format(TimeLayout)
}

// TokenRow is one rendered API token.
type TokenRow struct {
	ID      string
	Name    string
	Prefix  string
	Owner   string
	Created string
	Expires string
	State   string
	Revoked bool
}

// TokenRows builds token rows.
func TokenRows(tokens []api.APIToken, tr i18n.Translator) []TokenRow {
	rows := make([]TokenRow, 0, len(tokens))
	for _, token := range tokens {
		expires := tr.T(i18n.ValueNever)
		if token.ExpiresAt != nil {
			expires = FormatTime(*token.ExpiresAt, tr)
		}
		state := tr.T(i18n.ValueActive)
		if token.Revoked {
			state = tr.T(i18n.ValueRevoked)
		}
		rows = append(rows, TokenRow{
			ID:      token.ID,
			Name:    token.Name,
			Prefix:  token.Prefix,
			Owner:   token.Owner,
			Created: FormatTime(token.CreatedAt, tr),
			Expires: expires,
			State:   state,
			Revoked: token.Revoked,
		})
	}
	return rows
}

// UserRow is one rendered account.
type UserRow struct {
	ID          string
	Username    string
	DisplayName string
	Email       string
	Roles       string
	Features    string
	State       string
	Disabled    bool
}

// UserRows builds user rows.
func UserRows(users []api.User, tr i18n.Translator) []UserRow {
	rows := make([]UserRow, 0, len(users))
	for _, user := range users {
		state := tr.T(i18n.ValueActive)
		if user.Disabled {
			state = tr.T(i18n.ValueDisabled)
		}
		rows = append(rows, UserRow{
			ID:          user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
			Email:       user.Email,
			Roles:       strings.Join(user.Roles, ", "),
			Features:    strings.Join(user.Features, ", "),
			State:       state,
			Disabled:    user.Disabled,
		})
	}
	return rows
}
