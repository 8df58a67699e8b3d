// Package devserver is an in-memory implementation of the document
// backend's HTTP API. It backs 'docassist dev-backend' and the client
// tests. Answers are deterministic echoes; nothing is parsed or indexed.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/docassist/docassist/internal/cloud/storage"
	"github.com/docassist/docassist/internal/constants"
	"github.com/docassist/docassist/internal/logging"
)

// Options configures a Server.
type Options struct {
	// Store holds uploaded bytes. Defaults to a MemoryStore.
	Store storage.BlobStore

	// BodyLimit caps request bodies, in echo's size syntax ("64M").
	BodyLimit string

	// BcryptCost is the password hashing cost. Tests use bcrypt.MinCost.
	BcryptCost int

	Logger *logging.Logger
}

type user struct {
	username     string
	passwordHash []byte
}

// document is one stored upload. IDs are numeric like the production backend.
type document struct {
	ID          int64     `json:"id"`
	FileName    string    `json:"fileName"`
	UploadDate  time.Time `json:"uploadDate"`
	owner       string
	blobKey     string
	size        int64
	contentType string
}

// Server holds users, sessions and document metadata in memory.
type Server struct {
	echo   *echo.Echo
	store  storage.BlobStore
	logger *logging.Logger
	cost   int

	mu        sync.RWMutex
	users     map[string]*user
	sessions  map[string]string // token -> username
	documents map[int64]*document
	nextID    int64
}

// New builds the echo app with all routes registered under /api.
func New(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	if opts.BodyLimit == "" {
		opts.BodyLimit = constants.DevBackendBodyLimit
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDefaultCLILogger()
	}

	s := &Server{
		store:     opts.Store,
		logger:    opts.Logger,
		cost:      opts.BcryptCost,
		users:     make(map[string]*user),
		sessions:  make(map[string]string),
		documents: make(map[int64]*document),
		nextID:    1,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug().
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("dev-backend request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(opts.BodyLimit))

	s.registerRoutes(e)
	s.echo = e
	return s
}

// Handler exposes the server as an http.Handler for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Str("blob_store", s.store.Name()).Msg("dev backend listening")
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the listener, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) registerRoutes(e *echo.Echo) {
	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", s.handleRegister)
	auth.POST("/login", s.handleLogin)
	auth.POST("/logout", s.handleLogout, s.requireSession)
	auth.GET("/me", s.handleMe, s.requireSession)

	api.POST("/upload", s.handleUpload, s.requireSession)
	api.GET("/documents", s.handleListDocuments, s.requireSession)
	api.DELETE("/deletedocument/:id", s.handleDeleteDocument, s.requireSession)
	api.GET("/textindb", s.handleTextInDB, s.requireSession)
	api.GET("/ask", s.handleAsk, s.requireSession)
}

const userContextKey = "username"

// requireSession resolves the bearer token to a username.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || token == "" {
			return newUnauthorizedError("missing bearer token")
		}

		s.mu.RLock()
		username, found := s.sessions[token]
		s.mu.RUnlock()
		if !found {
			return newUnauthorizedError("session expired or invalid")
		}

		c.Set(userContextKey, username)
		c.Set("token", token)
		return next(c)
	}
}

func currentUser(c echo.Context) string {
	username, _ := c.Get(userContextKey).(string)
	return username
}

func (s *Server) newSession(username string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = username
	s.mu.Unlock()
	return token
}

// documentsFor returns the user's documents ordered by id.
func (s *Server) documentsFor(username string) []*document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*document
	for _, doc := range s.documents {
		if doc.owner == username {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DocumentCount returns the number of stored documents across all users.
func (s *Server) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}
