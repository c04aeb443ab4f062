package logs

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// Filter selects log lines. The zero value matches everything.
type Filter struct {
	JobID    string
	MinLevel string
}

func (f Filter) empty() bool {
	return strings.TrimSpace(f.JobID) == "" && strings.TrimSpace(f.MinLevel) == ""
}

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	level, jobID, ok := parseJSONLine(line)
	if !ok {
		level, jobID = parseConsoleLine(line)
	}
	if want := strings.TrimSpace(f.JobID); want != "" && jobID != want {
		return false
	}
	if name := strings.TrimSpace(f.MinLevel); name != "" {
		var threshold slog.Level
		if err := threshold.UnmarshalText([]byte(name)); err == nil && level < threshold {
			return false
		}
	}
	return true
}

func parseJSONLine(line string) (slog.Level, string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return 0, "", false
	}
	var record struct {
		Level string `json:"level"`
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal([]byte(trimmed), &record); err != nil {
		return 0, "", false
	}
	var level slog.Level
	_ = level.UnmarshalText([]byte(record.Level))
	return level, record.JobID, true
}

// parseConsoleLine reads "<time> <LEVEL> [component: ][[job]] message k=v".
func parseConsoleLine(line string) (slog.Level, string) {
	fields := strings.Fields(line)
	var level slog.Level
	if len(fields) > 1 {
		_ = level.UnmarshalText([]byte(fields[1]))
	}
	var jobID string
	for i := 2; i < len(fields) && i < 5; i++ {
		field := fields[i]
		if strings.HasPrefix(field, "[") && strings.HasSuffix(field, "]") && len(field) > 2 {
			jobID = field[1 : len(field)-1]
			break
		}
	}
	if jobID == "" {
		for _, field := range fields {
			if value, ok := strings.CutPrefix(field, "job_id="); ok {
				jobID = strings.Trim(value, `"`)
				break
			}
		}
	}
	return level, jobID
}
