// Package file keeps credentials in a single JSON document on disk,
// optionally sealed with a passphrase.
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

	"github.com/aussiebroadwan/postboard/internal/postboard/store"
	"github.com/aussiebroadwan/postboard/pkg/cryptox"
	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
)

const fileMode = 0o600

// document is the plaintext layout. Keys match the browser client's local
// storage names.
type document struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// sealedDocument wraps an encrypted document. Salt is regenerated on every
// write.
type sealedDocument struct {
	Version    int    `json:"version"`
	Salt       []byte `json:"salt"`
	Ciphertext []byte `json:"ciphertext"`
}

type Store struct {
	path       string
	passphrase string

	mu sync.Mutex
}

var _ store.Store = (*Store)(nil)

// NewStore returns a store backed by path. An empty passphrase stores
// plaintext JSON.
func NewStore(path, passphrase string) (*Store, error) {
	if path == "" {
		return nil, errors.New("file store needs a path")
	}
	return &Store{path: path, passphrase: passphrase}, nil
}

// ApplyMigrations creates the parent directory.
func (s *Store) ApplyMigrations() error {
	return os.MkdirAll(filepath.Dir(s.path), 0o700)
}

func (s *Store) Close() error { return nil }

// Ping checks the parent directory is usable.
func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (feedsdk.Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return feedsdk.Tokens{}, feedsdk.ErrNoTokens
	}
	if err != nil {
		return feedsdk.Tokens{}, fmt.Errorf("failed to read credentials: %w", err)
	}

	doc, err := s.decode(raw)
	if err != nil {
		return feedsdk.Tokens{}, fmt.Errorf("%w: %w", store.ErrCorrupt, err)
	}
	if doc.Token == "" && doc.RefreshToken == "" {
		return feedsdk.Tokens{}, feedsdk.ErrNoTokens
	}

	return feedsdk.Tokens{AccessToken: doc.Token, RefreshToken: doc.RefreshToken}, nil
}

// Save replaces the document atomically: write a temp file, then rename.
func (s *Store) Save(ctx context.Context, t feedsdk.Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.encode(document{Token: t.AccessToken, RefreshToken: t.RefreshToken})
	if err != nil {
		return err
	}
	return writeAtomic(s.path, raw)
}

// Clear deletes the document. A missing file is already clear.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

func (s *Store) encode(doc document) ([]byte, error) {
	plain, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if s.passphrase == "" {
		return plain, nil
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, err
	}
	sealer, err := cryptox.NewSealer(cryptox.DeriveKey(s.passphrase, salt))
	if err != nil {
		return nil, err
	}
	ciphertext, err := sealer.Seal(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to seal credentials: %w", err)
	}

	return json.Marshal(sealedDocument{Version: 1, Salt: salt, Ciphertext: ciphertext})
}

func (s *Store) decode(raw []byte) (document, error) {
	var doc document
	if s.passphrase == "" {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return document{}, err
		}
		return doc, nil
	}

	var sealed sealedDocument
	if err := json.Unmarshal(raw, &sealed); err != nil {
		return document{}, err
	}
	if sealed.Version != 1 || len(sealed.Salt) != cryptox.SaltLength {
		return document{}, errors.New("not a sealed credentials document")
	}

	sealer, err := cryptox.NewSealer(cryptox.DeriveKey(s.passphrase, sealed.Salt))
	if err != nil {
		return document{}, err
	}
	plain, err := sealer.Open(sealed.Ciphertext)
	if err != nil {
		return document{}, err
	}
	if err := json.Unmarshal(plain, &doc); err != nil {
		return document{}, err
	}
	return doc, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace credentials: %w", err)
	}
	return nil
}
