package api

import (
	"encoding/json"
	"strings"
	"time"
)

// RoleAdmin is the role tag that unlocks admin panels in the console.
const RoleAdmin = "admin"

// Profile is the authenticated user's identity and capability set.
type Profile struct {
	UserID      string   `json:"user_id"`
	DisplayName *string  `json:"display_name,omitempty"`
	Roles       []string `json:"roles"`
	Features    []string `json:"features"`
}

// Name returns the display name, falling back to the user id.
func (p *Profile) Name() string {
	if p == nil {
		return ""
	}
	if p.DisplayName != nil {
		if name := strings.TrimSpace(*p.DisplayName); name != "" {
			return name
		}
	}
	return p.UserID
}

// HasRole reports whether the profile carries the role tag.
func (p *Profile) HasRole(role string) bool {
	if p == nil {
		return false
	}
	return containsFold(p.Roles, role)
}

// Allows reports whether the feature tag is enabled for the profile.
func (p *Profile) Allows(feature string) bool {
	if p == nil {
		return false
	}
	return containsFold(p.Features, feature)
}

// IsAdmin reports whether admin controls should be shown. The backend
// enforces authorization; this only decides visibility.
func (p *Profile) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// Normalize trims and de-duplicates role and feature tags in place.
func (p *Profile) Normalize() {
	if p == nil {
		return
	}
	p.Roles = uniqueTags(p.Roles)
	p.Features = uniqueTags(p.Features)
}

func containsFold(values []string, want string) bool {
	want = strings.TrimSpace(want)
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), want) {
			return true
		}
	}
	return false
}

func uniqueTags(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// APIToken describes an admin-managed API token. Token carries the plaintext
// value and is only populated in the create response.
type APIToken struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Prefix    string     `json:"prefix,omitempty"`
	Owner     string     `json:"owner,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Revoked   bool       `json:"revoked"`
	Token     string     `json:"token,omitempty"`
}

// User describes an account managed from the admin panel.
type User struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles"`
	Features    []string `json:"features"`
	Disabled    bool     `json:"disabled"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Password    string `json:"password" validate:"required,min=8"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=128"`
}

// UploadOptions are the option flags sent with an identify upload.
type UploadOptions struct {
	SecondaryProvider bool `json:"secondary_provider"`
	StoreFingerprint  bool `json:"store_fingerprint"`
	MetadataOnly      bool `json:"metadata_only"`
}

// TokenCreateRequest is the body of POST /admin/tokens.
type TokenCreateRequest struct {
	Name       string `json:"name" validate:"required,max=128"`
	Owner      string `json:"owner,omitempty"`
	TTLSeconds int64  `json:"ttl_seconds,omitempty" validate:"gte=0"`
}

// UserCreateRequest is the body of POST /admin/users.
type UserCreateRequest struct {
	Username    string   `json:"username" validate:"required,min=3,max=64"`
	Password    string   `json:"password" validate:"required,min=8"`
	DisplayName string   `json:"display_name,omitempty" validate:"omitempty,max=128"`
	Email       string   `json:"email,omitempty" validate:"omitempty,email"`
	Roles       []string `json:"roles,omitempty" validate:"dive,required"`
	Features    []string `json:"features,omitempty" validate:"dive,required"`
}

// UserUpdateRequest is the body of PATCH /admin/users/{id}. Nil fields are
// left unchanged by the backend.
type UserUpdateRequest struct {
	DisplayName *string  `json:"display_name,omitempty" validate:"omitempty,max=128"`
	Password    *string  `json:"password,omitempty" validate:"omitempty,min=8"`
	Roles       []string `json:"roles,omitempty" validate:"dive,required"`
	Features    []string `json:"features,omitempty" validate:"dive,required"`
	Disabled    *bool    `json:"disabled,omitempty"`
}

// JobListResponse wraps GET /jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// UploadResponse wraps POST /identify/upload.
type UploadResponse struct {
	JobID string `json:"job_id"`
}

// TokenListResponse wraps GET /admin/tokens.
type TokenListResponse struct {
	Tokens []APIToken `json:"tokens"`
}

// UserListResponse wraps GET /admin/users.
type UserListResponse struct {
	Users []User `json:"users"`
}

// Channel message types observed on /ws/jobs/{id}.
const (
	ChannelMessageJob     = "job"
	ChannelMessageChanged = "changed"
	ChannelMessagePing    = "ping"
	ChannelMessagePong    = "pong"
)

// ChannelMessage is a push message from the per-job channel. Job is present
// when the backend embeds the full record.
type ChannelMessage struct {
	Type  string `json:"type,omitempty"`
	JobID string `json:"job_id,omitempty"`
	Job   *Job   `json:"job,omitempty"`
}

// ErrorResponse is the structured error body returned with 4xx/5xx statuses.
// Detail is either a string or a list of {msg} objects.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Message flattens the error body into one user-facing string.
func (e ErrorResponse) Message() string {
	if len(e.Detail) > 0 {
		var text string
		if err := json.Unmarshal(e.Detail, &text); err == nil {
			return strings.TrimSpace(text)
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(e.Detail, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				if msg := strings.TrimSpace(item.Msg); msg != "" {
					parts = append(parts, msg)
				}
			}
			return strings.Join(parts, "; ")
		}
	}
	return strings.TrimSpace(e.Error)
}
