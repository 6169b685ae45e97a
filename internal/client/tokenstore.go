package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ErrNoSession is returned when no valid token is stored.
var ErrNoSession = errors.New("no valid session (login required)")

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenStore persists the session token between CLI invocations.
type TokenStore struct {
	dir string
}

// NewTokenStore returns a store rooted at dir; an empty dir means the default
// config directory.
func NewTokenStore(dir string) *TokenStore {
	if dir == "" {
		dir = ConfigDir()
	}
	return &TokenStore{dir: dir}
}

func (s *TokenStore) path() string { return filepath.Join(s.dir, "token.json") }

// Save writes the token with owner-only permissions.
func (s *TokenStore) Save(tok, userID string, exp time.Time) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(tokenFile{AccessToken: tok, UserID: userID, ExpiresAt: exp}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), b, 0o600)
}

// Load returns the stored token, or ErrNoSession if missing or expired.
func (s *TokenStore) Load() (token, userID string, err error) {
	b, err := os.ReadFile(s.path())
	if err != nil {
		return "", "", ErrNoSession
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", "", ErrNoSession
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", "", ErrNoSession
	}
	return tf.AccessToken, tf.UserID, nil
}

// Clear removes the stored session.
func (s *TokenStore) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
