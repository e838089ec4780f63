package identity

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// ErrNotFound indicates no identity has been persisted yet.
var ErrNotFound = errors.New("identity: not found")

// FileStorage persists the session pair as a small JSON file under a config
// directory, mirroring how client credentials are kept on disk.
type FileStorage struct {
	dir string
}

// NewFileStorage creates a FileStorage rooted at dir. If dir is empty it
// defaults to ~/.byts.
func NewFileStorage(dir string) *FileStorage {
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".byts")
	}
	return &FileStorage{dir: dir}
}

type sessionFile struct {
	SessionID string `json:"session_id"`
	Icon      string `json:"icon"`
}

func (s *FileStorage) path() string {
	return filepath.Join(s.dir, "session.json")
}

// Load reads the persisted session pair.
func (s *FileStorage) Load() (string, string, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", ErrNotFound
		}
		return "", "", err
	}

	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", "", err
	}
	if f.SessionID == "" {
		return "", "", ErrNotFound
	}
	return f.SessionID, f.Icon, nil
}

// Save writes the session pair, creating the config directory if needed.
func (s *FileStorage) Save(sessionID, icon string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sessionFile{SessionID: sessionID, Icon: icon}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, 0600)
}
