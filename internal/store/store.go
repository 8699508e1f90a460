// Package store persists the client-side view of a session between process
// runs: the profile and the session timestamps. The access token and the
// refresh credential are deliberately never written here — the token lives
// in memory only, the refresh credential in the HTTP cookie jar.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/horizonetudes/authclient/internal/models"
)

// ErrNoSession is returned when no session state is persisted.
var ErrNoSession = errors.New("no persisted session")

// PersistedSession is the single on-disk record. Keeping everything in one
// file makes clears all-or-nothing: a partial clear cannot happen.
type PersistedSession struct {
	Version          int          `json:"version"`
	User             *models.User `json:"user"`
	SessionStartedAt time.Time    `json:"session_started_at"`
	LastRefreshAt    time.Time    `json:"last_refresh_at,omitempty"`
}

// Store manages session persistence on the local filesystem.
type Store struct {
	path string
}

// NewStore creates a session store under baseDir.
// If baseDir is empty, uses ~/.horizonauth/
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".horizonauth")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("session store initialized")

	return &Store{path: filepath.Join(baseDir, "session.json")}, nil
}

// Load reads the persisted session. Returns ErrNoSession when nothing is
// stored.
func (s *Store) Load() (*PersistedSession, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var ps PersistedSession
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if ps.User == nil || ps.SessionStartedAt.IsZero() {
		return nil, ErrNoSession
	}

	return &ps, nil
}

// Save writes the session atomically via a temp file and rename.
func (s *Store) Save(ps *PersistedSession) error {
	if ps.Version == 0 {
		ps.Version = 1
	}

	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Clear removes the persisted session. Removing the single file is atomic;
// a missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	log.Debug().Msg("persisted session cleared")
	return nil
}
