package api

import (
	"context"
	"fmt"
	nethttp "net/http"
	"strings"

	"github.com/docassist/docassist/internal/models"
)

// Login exchanges credentials for a session token. On success the token
// is installed on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", username, password)
}

// Register creates an account and returns its first session token.
func (c *Client) Register(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (*models.AuthResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	var out models.AuthResponse
	err := c.doJSON(ctx, request{
		method:   nethttp.MethodPost,
		path:     path,
		jsonBody: models.Credentials{Username: username, Password: password},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%s: backend returned no token", path)
	}
	if out.Username == "" {
		out.Username = username
	}

	c.SetToken(out.Token)
	return &out, nil
}

// Logout invalidates the session on the backend. The client's token is
// cleared whether or not the call succeeds.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	if c.Token() == "" {
		return nil
	}
	return c.doJSON(ctx, request{method: nethttp.MethodPost, path: "/auth/logout"}, nil)
}

// CurrentUser returns the user owning the session token.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	if c.Token() == "" {
		return nil, ErrNotAuthenticated
	}
	var user models.User
	if err := c.doJSON(ctx, request{method: nethttp.MethodGet, path: "/auth/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
