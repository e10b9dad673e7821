package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Store persists the single Session record and the application user record.
// Load returns nil with no error when no record exists; a persisted record
// whose expiry has already passed is treated as absent and removed, so a
// caller can never resume governance for a dead grant found at startup.
type Store interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error

	LoadUser() (*User, error)
	SaveUser(u *User) error
	ClearUser() error
}

const (
	sessionFile = "session.json"
	userFile    = "user.json"
)

// FileStore keeps both records as JSON files in a single state directory.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// DefaultStateDir returns the per-user state directory for the agent.
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "warden"), nil
}

func (fs *FileStore) Load() (*Session, error) {
	path := filepath.Join(fs.dir, sessionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session record: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		// A corrupt record is unrecoverable; remove it rather than wedge
		// every subsequent startup.
		_ = os.Remove(path)
		return nil, nil
	}

	if !s.Live(fs.now()) {
		_ = os.Remove(path)
		return nil, nil
	}
	return &s, nil
}

func (fs *FileStore) Save(s *Session) error {
	return fs.writeJSON(sessionFile, s)
}

func (fs *FileStore) Clear() error {
	return removeIfExists(filepath.Join(fs.dir, sessionFile))
}

func (fs *FileStore) LoadUser() (*User, error) {
	data, err := os.ReadFile(filepath.Join(fs.dir, userFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading user record: %w", err)
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decoding user record: %w", err)
	}
	return &u, nil
}

func (fs *FileStore) SaveUser(u *User) error {
	return fs.writeJSON(userFile, u)
}

func (fs *FileStore) ClearUser() error {
	return removeIfExists(filepath.Join(fs.dir, userFile))
}

func (fs *FileStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	path := filepath.Join(fs.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
