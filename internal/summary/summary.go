package summary

import (
	"math"
	"strings"

	"idconsole/internal/api"
	"idconsole/internal/i18n"
)

// Kind classifies a summary line for styling.
type Kind string

const (
	KindError       Kind = "error"
	KindStatus      Kind = "status"
	KindHeadline    Kind = "headline"
	KindSecondary   Kind = "secondary"
	KindScore       Kind = "score"
	KindSource      Kind = "source"
	KindMetadata    Kind = "metadata"
	KindNote        Kind = "note"
	KindPlaceholder Kind = "placeholder"
)

// Line is one rendered summary line.
type Line struct {
	Kind Kind
	Text string
}

// MetadataSeparator joins condensed metadata values.
const MetadataSeparator = " · "

// maxMetadataValues caps the condensed metadata line.
const maxMetadataValues = 3

var preferredMetadataKeys = []string{"title", "artist", "album", "track", "composer"}

// Derive builds the summary lines for job in the translator's locale.
func Derive(job api.Job, tr i18n.Translator) []Line {
	if msg := strings.TrimSpace(job.Error); msg != "" {
		return []Line{{Kind: KindError, Text: tr.T(i18n.SummaryError, msg)}}
	}
	if job.Status != api.JobStatusCompleted {
		return []Line{{Kind: KindStatus, Text: StatusLabel(job.Status, tr)}}
	}
	result := job.Result
	if result == nil {
		return []Line{{Kind: KindPlaceholder, Text: tr.T(i18n.SummaryNoResult)}}
	}

	var lines []Line
	if top, ok := result.TopMatch(); ok {
		lines = append(lines, Line{Kind: KindHeadline, Text: headline(top, tr)})
		if secondary := secondaryTitle(top); secondary != "" {
			lines = append(lines, Line{Kind: KindSecondary, Text: secondary})
		}
		lines = append(lines, Line{Kind: KindScore, Text: tr.T(i18n.SummaryScore, NormalizeScore(top.Score))})
	} else {
		lines = append(lines, Line{Kind: KindPlaceholder, Text: tr.T(i18n.SummaryNoMatches)})
	}
	if source := trimmed(result.MatchSource); source != "" {
		lines = append(lines, Line{Kind: KindSource, Text: tr.T(i18n.SummarySource, source)})
	}
	if md := MetadataLine(result.Metadata); md != "" {
		lines = append(lines, Line{Kind: KindMetadata, Text: md})
	}
	if note := trimmed(result.SecondaryNote); note != "" {
		lines = append(lines, Line{Kind: KindNote, Text: tr.T(i18n.SummaryNote, note)})
	}
	if secErr := trimmed(result.SecondaryError); secErr != "" {
		lines = append(lines, Line{Kind: KindError, Text: tr.T(i18n.SummarySecondaryError, secErr)})
	}
	return lines
}

// Texts flattens lines to their text.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line.Text
	}
	return out
}

// StatusLabel returns the localized badge for a status.
func StatusLabel(status api.JobStatus, tr i18n.Translator) string {
	switch status {
	case api.JobStatusQueued:
		return tr.T(i18n.StatusQueued)
	case api.JobStatusRunning:
		return tr.T(i18n.StatusRunning)
	case api.JobStatusCompleted:
		return tr.T(i18n.StatusCompleted)
	case api.JobStatusFailed:
		return tr.T(i18n.StatusFailed)
	default:
		return tr.T(i18n.StatusUnknown)
	}
}

// NormalizeScore maps a raw score to a 0-100 integer. Scores at or below 1
// are fractions; larger values are already percentages.
func NormalizeScore(raw float64) int {
	if math.IsNaN(raw) {
		return 0
	}
	value := raw
	if value <= 1 {
		value *= 100
	}
	value = math.Max(0, math.Min(100, value))
	return int(math.Round(value))
}

// MetadataLine condenses metadata into at most three distinct non-empty
// values, preferred keys first, then the rest in their original order.
func MetadataLine(md *api.Metadata) string {
	if md == nil || md.Len() == 0 {
		return ""
	}
	values := make([]string, 0, maxMetadataValues)
	seen := make(map[string]struct{}, maxMetadataValues)
	add := func(value string) bool {
		value = strings.TrimSpace(value)
		if value == "" {
			return false
		}
		if _, dup := seen[value]; dup {
			return false
		}
		seen[value] = struct{}{}
		values = append(values, value)
		return len(values) == maxMetadataValues
	}

	preferred := make(map[string]struct{}, len(preferredMetadataKeys))
	for _, key := range preferredMetadataKeys {
		preferred[key] = struct{}{}
		if value, ok := md.Get(key); ok && add(value) {
			return strings.Join(values, MetadataSeparator)
		}
	}
	for _, key := range md.Keys() {
		if _, ok := preferred[key]; ok {
			continue
		}
		value, _ := md.Get(key)
		if add(value) {
			break
		}
	}
	return strings.Join(values, MetadataSeparator)
}

func headline(match api.Match, tr i18n.Translator) string {
	title := strings.TrimSpace(match.Title)
	if title == "" {
		title = tr.T(i18n.SummaryUnknownTitle)
	}
	artist := strings.TrimSpace(match.Artist)
	if artist == "" {
		if strings.TrimSpace(match.Title) == "" {
			return tr.T(i18n.SummaryUnknownArtist) + " — " + title
		}
		return title
	}
	return artist + " — " + title
}

func secondaryTitle(match api.Match) string {
	if title := strings.TrimSpace(match.ReleaseGroupTitle); title != "" {
		return title
	}
	for _, release := range match.Releases {
		if title := strings.TrimSpace(release.Title); title != "" {
			return title
		}
	}
	return ""
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
