// Package spotify is the music companion: an explicitly owned credential
// session and a Web API client for playlists and playback control.
package spotify

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/b4ndithelps/wave/internal/entities"
)

var (
	ErrNotAuthenticated = errors.New("spotify is not authenticated")
	ErrAPI              = errors.New("spotify api error")
)

// CredentialStore persists credentials between runs.
type CredentialStore interface {
	GetLatest(provider entities.OAuthProvider) (*entities.Credentials, error)
	SaveCredentials(creds *entities.Credentials) error
	DeleteCredentials(provider entities.OAuthProvider, accountID string) error
}

// Session holds the Spotify credentials for this process. There is one per
// server, passed to whatever needs it.
type Session struct {
	store CredentialStore
	now   func() time.Time

	mu    sync.RWMutex
	creds *entities.Credentials
}

func NewSession(store CredentialStore) *Session {
	return &Session{store: store, now: time.Now}
}

// Load reads the stored credentials. Having none is not an error.
func (s *Session) Load() error {
	creds, err := s.store.GetLatest(entities.OAuthProviderSpotify)
	if err != nil {
		return fmt.Errorf("load spotify credentials: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

// Set stores new credentials and makes them current.
func (s *Session) Set(creds entities.Credentials) error {
	if creds.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", ErrNotAuthenticated)
	}
	creds.Provider = entities.OAuthProviderSpotify
	if err := s.store.SaveCredentials(&creds); err != nil {
		return fmt.Errorf("save spotify credentials: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = &creds
	return nil
}

// Clear forgets the credentials here and in the store.
func (s *Session) Clear() error {
	s.mu.Lock()
	creds := s.creds
	s.creds = nil
	s.mu.Unlock()

	if creds == nil {
		return nil
	}
	return s.store.DeleteCredentials(entities.OAuthProviderSpotify, creds.AccountID)
}

// Valid reports whether there is an unexpired access token.
func (s *Session) Valid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.creds.Expired(s.now())
}

// Expired reports whether credentials exist but can no longer be used.
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds != nil && s.creds.Expired(s.now())
}

// ExpiresAt returns the token expiry, if known.
func (s *Session) ExpiresAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil || s.creds.ExpiresAt == nil {
		return nil
	}
	t := *s.creds.ExpiresAt
	return &t
}

// AccessToken returns the bearer token for API calls.
func (s *Session) AccessToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.creds == nil {
		return "", ErrNotAuthenticated
	}
	if s.creds.Expired(s.now()) {
		return "", fmt.Errorf("%w: access token expired", ErrNotAuthenticated)
	}
	return s.creds.AccessToken, nil
}
