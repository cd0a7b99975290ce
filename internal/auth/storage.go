// Package auth keeps the session obtained from the login view.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the keyring service the session is stored under.
	KeyringService = "honhon-cli"

	// KeyringUser is the keyring account name of the session entry.
	KeyringUser = "session"
)

// ErrNotLoggedIn is returned when no session is stored.
var ErrNotLoggedIn = errors.New("not logged in")

// Session is an authenticated login.
type Session struct {
	Token     string     `json:"token"`
	UserID    string     `json:"user_id,omitempty"`
	Username  string     `json:"username,omitempty"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsExpired reports whether the session token has expired. Sessions
// without an expiry never expire on the client.
func (s *Session) IsExpired() bool {
	if s.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*s.ExpiresAt)
}

// SessionStore provides storage for the current session.
type SessionStore interface {
	// Load retrieves the stored session
	Load() (*Session, error)
	// Save stores the session
	Save(s *Session) error
	// Delete removes the stored session
	Delete() error
	// Exists checks if a session is stored
	Exists() bool
}

// KeyringStore implements SessionStore using the OS keyring.
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based session store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// Load retrieves the stored session from the keyring.
func (k *KeyringStore) Load() (*Session, error) {
	data, err := keyring.Get(KeyringService, KeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &s, nil
}

// Save stores the session in the keyring.
func (k *KeyringStore) Save(s *Session) error {
	if s == nil {
		return fmt.Errorf("cannot save nil session")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := keyring.Set(KeyringService, KeyringUser, string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the stored session from the keyring.
func (k *KeyringStore) Delete() error {
	err := keyring.Delete(KeyringService, KeyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Exists checks if a session is stored.
func (k *KeyringStore) Exists() bool {
	_, err := keyring.Get(KeyringService, KeyringUser)
	return err == nil
}

// MockStore implements SessionStore in memory for testing.
type MockStore struct {
	session *Session
	err     error
}

// NewMockStore creates a mock session store.
func NewMockStore(s *Session, err error) *MockStore {
	return &MockStore{session: s, err: err}
}

// Load returns the mock session.
func (m *MockStore) Load() (*Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.session == nil {
		return nil, ErrNotLoggedIn
	}
	return m.session, nil
}

// Save stores the mock session.
func (m *MockStore) Save(s *Session) error {
	if m.err != nil {
		return m.err
	}
	m.session = s
	return nil
}

// Delete clears the mock session.
func (m *MockStore) Delete() error {
	if m.err != nil {
		return m.err
	}
	m.session = nil
	return nil
}

// Exists checks if a mock session exists.
func (m *MockStore) Exists() bool {
	return m.session != nil
}
