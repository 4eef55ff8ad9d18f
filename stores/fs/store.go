// Package fs provides a file-backed token store so a session survives
// process restarts. The token is stored as-is in a small JSON file under a
// fixed key; it is never inspected.
package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/courselane/go-session"
)

// tokenFile is the JSON structure stored on disk
type tokenFile struct {
	Token string `json:"session_token"`
}

// Store is a durable single-slot token store backed by a JSON file.
type Store struct {
	mu    sync.RWMutex
	path  string
	token string
}

var _ session.TokenStore = (*Store)(nil)

// New creates a file-backed token store. If path is empty, it defaults to
// ~/.config/<appName>/session.json
func New(path string, appName string) (*Store, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("could not determine config directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
		if appName == "" {
			appName = "courselane"
		}
		path = filepath.Join(configDir, appName, "session.json")
	}

	store := &Store{path: path}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return store, nil
}

// Path returns the path to the session file
func (s *Store) Path() string {
	return s.path
}

// Get returns the stored token, or "" when the slot is empty.
func (s *Store) Get() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Set replaces the stored token and persists it to disk.
func (s *Store) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	return s.save()
}

// Clear empties the slot and removes the session file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// load reads the token from disk
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var file tokenFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}

	s.token = file.Token
	return nil
}

// save persists the token to disk with owner-only permissions
func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(tokenFile{Token: s.token}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session file: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}
