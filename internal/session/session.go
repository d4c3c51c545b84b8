package session

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/services"
	"github.com/desertthunder/gestaopro/internal/shared"
)

var errNoUser = errors.New("backend accepted login without a user payload")

// Session is the authentication state shared by the CLI, the TUI and the dashboard gateway.
type Session struct {
	mu      sync.RWMutex
	user    *models.User
	backend services.Backend
	logger  *log.Logger
}

// New creates an anonymous session backed by backend.
func New(backend services.Backend, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Session{backend: backend, logger: shared.WithLogger(logger, "component", "session")}
}

// Login verifies the credentials with the backend and reports whether the session is now
// authenticated as username.
//
// A failed attempt leaves the previous state untouched. The cause is logged, not returned.
func (s *Session) Login(ctx context.Context, username, password string) bool {
	resp, err := s.backend.Login(ctx, username, password)
	if err == nil && (resp == nil || resp.User == nil) {
		err = errNoUser
	}
	if err != nil {
		s.logger.Warn("login failed", "username", username, "error", err)
		return false
	}

	user := resp.User.ToUser()

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	s.logger.Info("logged in", "username", user.Username, "role", user.Role)
	return true
}

// Logout drops the current user. It is a no-op for an anonymous session.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.logger.Info("logged out", "username", s.user.Username)
	}
	s.user = nil
}

// User returns a copy of the current user.
func (s *Session) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	u := *s.user
	u.Permissions = models.NewPermissionSet(s.user.Permissions.Slice()...)
	return u, true
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// HasPermission reports whether the current user may open the section gated by p.
func (s *Session) HasPermission(p models.Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return false
	}
	return s.user.Can(p)
}

// Permissions lists the effective permissions of the current user, or nil when anonymous.
func (s *Session) Permissions() []models.Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	return s.user.Effective()
}

// ChangePassword is not supported; accounts are managed on the backend.
func (s *Session) ChangePassword(username, newPassword string) error {
	return shared.ErrNotImplemented
}
