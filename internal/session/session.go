// Package session holds the bearer credential shared by every authenticated call.
// A Session is created once and injected into the API client; login starts it,
// logout or any rejected credential clears it.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MuhamedUsman/letstore/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type Session struct {
	mu    sync.RWMutex
	token string
	user  *domain.User
	// store may be nil, then the session lives in memory only
	store Store
}

func New(store Store) *Session {
	return &Session{store: store}
}

// Start replaces any previous credential with token and persists it.
func (s *Session) Start(token string) error {
	if token == "" {
		return errors.New("starting session: empty token")
	}
	s.mu.Lock()
	s.token = token
	s.user = nil
	s.mu.Unlock()
	return s.persist(Credential{Token: token, SavedAt: time.Now()})
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Active() bool {
	return s.Token() != ""
}

// SetUser records who the credential belongs to, it is a no-op on a cleared session.
func (s *Session) SetUser(u domain.User) {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.user = &u
	c := Credential{Token: s.token, Username: u.Username, SavedAt: time.Now()}
	s.mu.Unlock()
	if err := s.persist(c); err != nil {
		slog.Error("persisting session", "err", err)
	}
}

func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Clear drops the credential from memory and from the store.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Remove()
}

// Restore loads a previously persisted credential. Credentials whose JWT exp
// claim already passed are discarded. It reports whether a credential was restored.
func (s *Session) Restore() (bool, error) {
	if s.store == nil {
		return false, nil
	}
	c, err := s.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return false, nil
		}
		return false, fmt.Errorf("restoring session: %w", err)
	}
	if Expired(c.Token, time.Now()) {
		return false, s.store.Remove()
	}
	s.mu.Lock()
	s.token = c.Token
	s.mu.Unlock()
	return true, nil
}

func (s *Session) persist(c Credential) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(c); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}

// Expired peeks at the exp claim without verifying the signature, the backend
// stays the authority. Opaque (non JWT) tokens never expire locally.
func Expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}
