package devserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/docassist/docassist/internal/models"
	"github.com/docassist/docassist/internal/util/sanitize"
)

func bindCredentials(c echo.Context) (models.Credentials, error) {
	var req models.Credentials
	if err := c.Bind(&req); err != nil {
		return req, newBadRequestError("invalid JSON body", err)
	}
	req.Username = sanitize.Field(req.Username)
	if req.Username == "" || req.Password == "" {
		return req, newBadRequestError("username and password are required", nil)
	}
	return req, nil
}

// handleRegister creates an account and opens its first session.
func (s *Server) handleRegister(c echo.Context) error {
	req, err := bindCredentials(c)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return newBadRequestError("password cannot be used", err)
	}

	s.mu.Lock()
	if _, exists := s.users[req.Username]; exists {
		s.mu.Unlock()
		return newConflictError("username already taken: " + req.Username)
	}
	s.users[req.Username] = &user{username: req.Username, passwordHash: hash}
	s.mu.Unlock()

	s.logger.Info().Str("username", req.Username).Msg("dev backend: user registered")
	return c.JSON(http.StatusCreated, models.AuthResponse{
		Token:    s.newSession(req.Username),
		Username: req.Username,
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	req, err := bindCredentials(c)
	if err != nil {
		return err
	}

	s.mu.RLock()
	u, exists := s.users[req.Username]
	s.mu.RUnlock()
	if !exists || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(req.Password)) != nil {
		return newUnauthorizedError("invalid username or password")
	}

	return c.JSON(http.StatusOK, models.AuthResponse{
		Token:    s.newSession(req.Username),
		Username: req.Username,
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	token, _ := c.Get("token").(string)
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, models.User{Username: currentUser(c)})
}
