package auth

import (
	"sync"

	"github.com/yewfence/blogctl/internal/domain"
)

// Session is the process-scoped authenticated flag. It is never persisted;
// a new process starts logged out.
type Session struct {
	mu            sync.Mutex
	authenticated bool
	credentials   *Credentials
}

// NewSession creates a logged-out session over the given credentials.
func NewSession(credentials *Credentials) *Session {
	return &Session{credentials: credentials}
}

// IsAuthenticated reads the session flag.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// SetAuthenticated sets or clears the flag.
func (s *Session) SetAuthenticated(flag bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = flag
}

// Login verifies the password and marks the session authenticated.
// The returned error carries one deliberately vague message whether the
// credential is missing or the password is wrong.
func (s *Session) Login(password string) error {
	if !s.credentials.Verify(password) {
		return &domain.AuthError{}
	}
	s.SetAuthenticated(true)
	return nil
}

// Logout clears the flag.
func (s *Session) Logout() {
	s.SetAuthenticated(false)
}

// ChangePassword replaces the credential and forces a re-login: on
// success the session is cleared so the next view uses the new password.
func (s *Session) ChangePassword(oldPassword, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}
	if !s.credentials.Replace(oldPassword, newPassword) {
		return &domain.AuthError{}
	}
	s.Logout()
	return nil
}
