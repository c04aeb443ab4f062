package backend

import (
	"context"
	"net/http"
	"net/url"

	"idconsole/internal/api"
)

// ListTokens returns API tokens visible to an admin.
func (c *Client) ListTokens(ctx context.Context) ([]api.APIToken, error) {
	var payload api.TokenListResponse
	if err := c.doJSON(ctx, "list tokens", http.MethodGet, "/admin/tokens", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Tokens, nil
}

// CreateToken creates a token. The plaintext value is only returned here.
func (c *Client) CreateToken(ctx context.Context, req api.TokenCreateRequest) (*api.APIToken, error) {
	var token api.APIToken
	if err := c.doJSON(ctx, "create token", http.MethodPost, "/admin/tokens", req, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// RevokeToken revokes a token by id.
func (c *Client) RevokeToken(ctx context.Context, id string) error {
	return c.doJSON(ctx, "revoke token", http.MethodDelete, "/admin/tokens/"+url.PathEscape(id), nil, nil)
}

// ListUsers returns all accounts.
func (c *Client) ListUsers(ctx context.Context) ([]api.User, error) {
	var payload api.UserListResponse
	if err := c.doJSON(ctx, "list users", http.MethodGet, "/admin/users", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Users, nil
}

// CreateUser creates an account.
func (c *Client) CreateUser(ctx context.Context, req api.UserCreateRequest) (*api.User, error) {
	var user api.User
	if err := c.doJSON(ctx, "create user", http.MethodPost, "/admin/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser patches an account.
func (c *Client) UpdateUser(ctx context.Context, id string, req api.UserUpdateRequest) (*api.User, error) {
	var user api.User
	if err := c.doJSON(ctx, "update user", http.MethodPatch, "/admin/users/"+url.PathEscape(id), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete user", http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, nil)
}
