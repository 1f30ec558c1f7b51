// Package session is the credential store: the only holder of the cached
// API token and user profile. The pairing invariant lives here — a token is
// never persisted without its profile and the two are always cleared
// together.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mini-wallet/mini_wallet/internal/identity"
)

const (
	tokenFile = "token"
	userFile  = "user.json"
)

// Session pairs the API token with the profile it was issued for.
type Session struct {
	Token string
	User  identity.Profile
}

// Authenticated reports whether the session carries a usable token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Store persists the session under a state directory and caches it for the
// process. Save and Clear are idempotent.
type Store struct {
	mu      sync.Mutex
	dir     string
	current Session
}

// NewStore builds a store rooted at dir. Call Load before first use.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Load reads the persisted session. A missing or half-written session (one
// entry without the other) is treated as logged out and cleaned up so the
// pairing invariant holds.
func (s *Store) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, tokenErr := os.ReadFile(filepath.Join(s.dir, tokenFile))
	userRaw, userErr := os.ReadFile(filepath.Join(s.dir, userFile))

	if tokenErr != nil || userErr != nil {
		if !errors.Is(tokenErr, os.ErrNotExist) && tokenErr != nil {
			return Session{}, fmt.Errorf("read token: %w", tokenErr)
		}
		if !errors.Is(userErr, os.ErrNotExist) && userErr != nil {
			return Session{}, fmt.Errorf("read user: %w", userErr)
		}
		// One present without the other: drop both.
		if tokenErr == nil || userErr == nil {
			if err := s.clearLocked(); err != nil {
				return Session{}, err
			}
		}
		s.current = Session{}
		return s.current, nil
	}

	var user identity.Profile
	if err := json.Unmarshal(userRaw, &user); err != nil {
		if err := s.clearLocked(); err != nil {
			return Session{}, err
		}
		s.current = Session{}
		return s.current, nil
	}

	s.current = Session{Token: strings.TrimSpace(string(token)), User: user}
	return s.current, nil
}

// Save persists the session. The token and profile are written as a pair;
// saving over an existing session overwrites it.
func (s *Store) Save(sess Session) error {
	if sess.Token == "" || sess.User.ID == "" {
		return errors.New("session requires both token and user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	userRaw, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, userFile), userRaw, 0o600); err != nil {
		return fmt.Errorf("write user: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, tokenFile), []byte(sess.Token), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}

	s.current = sess
	return nil
}

// Clear removes the persisted session. Clearing twice is safe.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *Store) clearLocked() error {
	s.current = Session{}
	for _, name := range []string{tokenFile, userFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

// Current returns the cached session.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Token implements the token source used by the API client.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Token
}
