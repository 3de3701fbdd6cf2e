package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/MuhamedUsman/letstore/internal/config"
)

const sessionFile = "session.toml"

var ErrNoCredential = errors.New("no stored credential")

// Credential is what survives a restart.
type Credential struct {
	Token    string    `toml:"token"`
	Username string    `toml:"username,omitempty"`
	SavedAt  time.Time `toml:"saved_at"`
}

type Store interface {
	Load() (Credential, error)
	Save(Credential) error
	Remove() error
}

// FileStore keeps the credential in a toml file readable only by the user.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultStore places the credential next to the user's config file.
func DefaultStore() (*FileStore, error) {
	dir, err := config.GetDir()
	if err != nil {
		return nil, err
	}
	return NewFileStore(filepath.Join(dir, sessionFile)), nil
}

func (fs *FileStore) Load() (Credential, error) {
	var c Credential
	if _, err := toml.DecodeFile(fs.path, &c); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credential{}, ErrNoCredential
		}
		return Credential{}, fmt.Errorf("decoding session file: %w", err)
	}
	if c.Token == "" {
		return Credential{}, ErrNoCredential
	}
	return c, nil
}

func (fs *FileStore) Save(c Credential) error {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	f, err := os.OpenFile(fs.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating session file: %w", err)
	}
	defer f.Close()
	if err = toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encoding session file: %w", err)
	}
	return nil
}

func (fs *FileStore) Remove() error {
	if err := os.Remove(fs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}
