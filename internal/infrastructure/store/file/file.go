// Package file implements the credential store on a single JSON document in
// the user's config directory, the device-scoped storage that survives
// process restarts, standing in for the browser's durable storage.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
)

const (
	defaultDirName  = "carryit-console"
	defaultFileName = "credentials.json"
	fileMode        = 0o600
	dirMode         = 0o700
)

// document is the on-disk layout. Key names are part of the storage
// contract: token, refresh_token, user.
type document struct {
	Token        string          `json:"token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}

// Store persists the credential as one JSON file. Writes go through a temp
// file and an atomic rename so a crash mid-write never leaves a document
// holding only some of the keys.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a Store at path. An empty path resolves to
// $XDG_CONFIG_HOME/carryit-console/credentials.json (or the platform
// equivalent); the parent directory is created when missing.
func NewStore(path string) (*Store, error) {
	if path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(base, defaultDirName, defaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, fmt.Errorf("create credential dir: %w", err)
	}
	return &Store{path: path}, nil
}

// Write persists all credential fields together.
func (s *Store) Write(_ context.Context, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := document{Token: cred.AccessToken, RefreshToken: cred.RefreshToken}
	if cred.User != nil {
		raw, err := json.Marshal(cred.User)
		if err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		doc.User = raw
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit credential: %w", err)
	}
	return nil
}

// Read returns whatever subset of the credential is present. A missing file
// means logged out, not an error. A profile that no longer decodes is
// reported as ErrMalformedCredential with the token fields intact.
func (s *Store) Read(_ context.Context) (domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Credential{}, nil
	}
	if err != nil {
		return domain.Credential{}, fmt.Errorf("read credential: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Credential{}, fmt.Errorf("%w: %v", domain.ErrMalformedCredential, err)
	}

	cred := domain.Credential{AccessToken: doc.Token, RefreshToken: doc.RefreshToken}
	if len(doc.User) > 0 {
		var user domain.User
		if err := json.Unmarshal(doc.User, &user); err != nil {
			return cred, fmt.Errorf("%w: %v", domain.ErrMalformedCredential, err)
		}
		cred.User = &user
	}
	return cred, nil
}

// Clear removes the credential file. Idempotent.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
