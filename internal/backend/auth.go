package backend

import (
	"context"
	"net/http"

	"idconsole/internal/api"
)

// Whoami returns the profile behind the current session. A signed-out
// session yields an error matching services.ErrUnauthorized.
func (c *Client) Whoami(ctx context.Context) (*api.Profile, error) {
	var profile api.Profile
	if err := c.doJSON(ctx, "whoami", http.MethodGet, "/whoami", nil, &profile); err != nil {
		return nil, err
	}
	profile.Normalize()
	return &profile, nil
}

// Login posts credentials; the backend answers with a session cookie that
// lands in the client's jar.
func (c *Client) Login(ctx context.Context, req api.LoginRequest) error {
	return c.doJSON(ctx, "login", http.MethodPost, "/auth/login", req, nil)
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.User, error) {
	var user api.User
	if err := c.doJSON(ctx, "register", http.MethodPost, "/auth/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
