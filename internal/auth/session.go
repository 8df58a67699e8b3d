// Package auth keeps the CLI's session: the token file written by login
// and the checks protected commands run before touching the backend.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/docassist/docassist/internal/api"
	"github.com/docassist/docassist/internal/config"
	"github.com/docassist/docassist/internal/events"
	"github.com/docassist/docassist/internal/logging"
	"github.com/docassist/docassist/internal/models"
)

// ErrLoginRequired is returned by Require when there is no valid session.
var ErrLoginRequired = errors.New("please log in first (docassist login)")

// Client is the part of api.Client a Session drives.
type Client interface {
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, username, password string) (*models.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	Token() string
	SetToken(token string)
}

// Session ties the client token to the token file on disk.
type Session struct {
	client    Client
	tokenPath string
	eventBus  *events.EventBus
	logger    *logging.Logger

	mu   sync.Mutex
	user *models.User
}

// NewSession creates a session. An empty tokenPath keeps the token in
// memory only.
func NewSession(client Client, tokenPath string, eventBus *events.EventBus, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &Session{
		client:    client,
		tokenPath: tokenPath,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// HasToken reports whether a token is loaded, without asking the backend.
func (s *Session) HasToken() bool {
	return s.client.Token() != ""
}

// IsAuthenticated reports whether a token is loaded and the backend
// accepts it.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	_, err := s.CurrentUser(ctx)
	return err == nil
}

// CurrentUser asks the backend who owns the token. The answer is cached
// for the life of the session.
func (s *Session) CurrentUser(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	cached := s.user
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	if !s.HasToken() {
		return nil, api.ErrNotAuthenticated
	}

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}

// Require returns ErrLoginRequired unless the session is valid. Errors
// other than a rejected token are returned as is so a down backend is
// not reported as a missing login.
func (s *Session) Require(ctx context.Context) (*models.User, error) {
	user, err := s.CurrentUser(ctx)
	if err == nil {
		return user, nil
	}
	if api.IsUnauthorized(err) {
		return nil, ErrLoginRequired
	}
	return nil, fmt.Errorf("failed to verify session: %w", err)
}

// Login authenticates and saves the token file.
func (s *Session) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	resp, err := s.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return resp, s.establish(resp)
}

// Register creates the account, which also logs it in.
func (s *Session) Register(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	resp, err := s.client.Register(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return resp, s.establish(resp)
}

func (s *Session) establish(resp *models.AuthResponse) error {
	s.mu.Lock()
	s.user = &models.User{Username: resp.Username}
	s.mu.Unlock()

	if s.tokenPath != "" {
		if err := config.WriteTokenFile(s.tokenPath, resp.Token); err != nil {
			return err
		}
	}
	s.logger.Info().Str("user", resp.Username).Msg("Logged in")
	s.publish(resp.Username, true)
	return nil
}

// Logout ends the session on the backend and always forgets the local
// token. A backend failure is logged, not returned.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	var username string
	if s.user != nil {
		username = s.user.Username
	}
	s.user = nil
	s.mu.Unlock()

	if err := s.client.Logout(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Backend logout failed; local session cleared anyway")
	}
	s.client.SetToken("")

	err := config.RemoveTokenFile(s.tokenPath)
	s.publish(username, false)
	return err
}

func (s *Session) publish(username string, authenticated bool) {
	s.eventBus.Publish(&events.SessionEvent{
		BaseEvent:     events.NewBase(events.EventSessionChanged),
		Username:      username,
		Authenticated: authenticated,
	})
}
