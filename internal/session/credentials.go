package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/stayhub/backend/internal/models"
)

// Storage expirations for the persisted credential pair. These bound how long
// the tokens are retained locally; the server enforces its own lifetimes.
const (
	AccessRetention  = 7 * 24 * time.Hour
	RefreshRetention = 30 * 24 * time.Hour
)

// ErrNoSession indicates no usable credential pair is persisted.
var ErrNoSession = errors.New("no persisted session")

// CredentialStore persists the token pair so a session survives restarts.
// Implementations must honor the pair invariant: both tokens stored together
// or neither.
type CredentialStore interface {
	Load() (models.SessionTokens, error)
	Save(tokens models.SessionTokens) error
	Clear() error
}

// FileCredentialStore keeps the credential pair in a single JSON document,
// rewritten atomically on every save.
type FileCredentialStore struct {
	path string
	now  func() time.Time
}

// NewFileCredentialStore constructs a store persisting to the given path.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path, now: time.Now}
}

// Load reads the persisted pair. A missing file, unreadable content, an
// expired token, or a half-present pair all degrade to ErrNoSession; a parse
// failure additionally wipes the slot so the corruption does not persist.
func (s *FileCredentialStore) Load() (models.SessionTokens, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.SessionTokens{}, ErrNoSession
		}
		return models.SessionTokens{}, fmt.Errorf("read credentials: %w", err)
	}

	var tokens models.SessionTokens
	if err := json.Unmarshal(raw, &tokens); err != nil {
		slog.Default().Warn("discarding corrupt credential slot", "path", s.path, "error", err)
		_ = s.Clear()
		return models.SessionTokens{}, ErrNoSession
	}

	if !usable(tokens, s.now()) {
		_ = s.Clear()
		return models.SessionTokens{}, ErrNoSession
	}
	return tokens, nil
}

// Save persists the pair atomically via a temp file and rename.
func (s *FileCredentialStore) Save(tokens models.SessionTokens) error {
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return errors.New("credential store: refusing to persist a partial token pair")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}

	encoded, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}

// Clear removes the persisted pair.
func (s *FileCredentialStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// usable reports whether the pair satisfies the both-or-none invariant and
// neither token has outlived its retention.
func usable(tokens models.SessionTokens, now time.Time) bool {
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return false
	}
	if !tokens.AccessExpiresAt.IsZero() && now.After(tokens.AccessExpiresAt) {
		return false
	}
	if !tokens.RefreshExpiresAt.IsZero() && now.After(tokens.RefreshExpiresAt) {
		return false
	}
	return true
}

// MemoryCredentialStore implements CredentialStore for tests.
type MemoryCredentialStore struct {
	mu     sync.Mutex
	tokens models.SessionTokens
	held   bool
}

// NewMemoryCredentialStore returns an empty in-memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

// Load returns the held pair or ErrNoSession.
func (s *MemoryCredentialStore) Load() (models.SessionTokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.held {
		return models.SessionTokens{}, ErrNoSession
	}
	return s.tokens, nil
}

// Save stores the pair.
func (s *MemoryCredentialStore) Save(tokens models.SessionTokens) error {
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return errors.New("credential store: refusing to persist a partial token pair")
	}
	s.mu.Lock()
	s.tokens = tokens
	s.held = true
	s.mu.Unlock()
	return nil
}

// Clear drops the pair.
func (s *MemoryCredentialStore) Clear() error {
	s.mu.Lock()
	s.tokens = models.SessionTokens{}
	s.held = false
	s.mu.Unlock()
	return nil
}
