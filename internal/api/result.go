package api

// Result is the identification payload attached to a completed job.
type Result struct {
	Matches         []Match   `json:"matches"`
	MatchSource     *string   `json:"match_source,omitempty"`
	Metadata        *Metadata `json:"metadata,omitempty"`
	SecondaryNote   *string   `json:"secondary_note,omitempty"`
	SecondaryError  *string   `json:"secondary_error,omitempty"`
	FingerprintID   string    `json:"fingerprint_id,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
}

// Match is one ranked candidate identification.
type Match struct {
	Score             float64   `json:"score"`
	Title             string    `json:"title,omitempty"`
	Artist            string    `json:"artist,omitempty"`
	ReleaseGroupTitle string    `json:"release_group_title,omitempty"`
	Releases          []Release `json:"releases,omitempty"`
	RecordingID       string    `json:"recording_id,omitempty"`
}

// Release is a release associated with a match.
type Release struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
}

// TopMatch returns the first ranked match.
func (r *Result) TopMatch() (Match, bool) {
	if r == nil || len(r.Matches) == 0 {
		return Match{}, false
	}
	return r.Matches[0], true
}

// Clone returns a deep copy of the result.
func (r Result) Clone() Result {
	out := r
	if r.Matches != nil {
		out.Matches = make([]Match, len(r.Matches))
		for i, m := range r.Matches {
			out.Matches[i] = m
			if m.Releases != nil {
				out.Matches[i].Releases = append([]Release(nil), m.Releases...)
			}
		}
	}
	out.MatchSource = cloneString(r.MatchSource)
	out.SecondaryNote = cloneString(r.SecondaryNote)
	out.SecondaryError = cloneString(r.SecondaryError)
	if r.Metadata != nil {
		md := r.Metadata.Clone()
		out.Metadata = &md
	}
	return out
}

// StringPtr is a convenience for building nullable string fields.
func StringPtr(value string) *string {
	return &value
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
