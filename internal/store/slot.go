package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Slot is a single named unit of durable storage. Each optimistic collection
// owns exactly one slot and rewrites it in full on every mutation.
type Slot interface {
	// Read returns the slot contents; ok is false when the slot has never
	// been written.
	Read() (data []byte, ok bool, err error)
	Write(data []byte) error
}

// FileSlot persists a slot as a file under a data directory, replaced
// atomically via a temp file and rename.
type FileSlot struct {
	path string
}

// NewFileSlot binds a slot to <dir>/<key>.json.
func NewFileSlot(dir, key string) *FileSlot {
	return &FileSlot{path: filepath.Join(dir, key+".json")}
}

// Read returns the file contents, reporting ok=false when absent.
func (s *FileSlot) Read() ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read slot %s: %w", s.path, err)
	}
	return data, true, nil
}

// Write replaces the file contents atomically.
func (s *FileSlot) Write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create slot dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write slot %s: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace slot %s: %w", s.path, err)
	}
	return nil
}

// MemorySlot implements Slot for tests.
type MemorySlot struct {
	mu      sync.Mutex
	data    []byte
	written bool
}

// NewMemorySlot returns an empty in-memory slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

// Seed pre-populates the slot, e.g. with corrupt content.
func (s *MemorySlot) Seed(data []byte) {
	s.mu.Lock()
	s.data = data
	s.written = true
	s.mu.Unlock()
}

// Read returns the held bytes.
func (s *MemorySlot) Read() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.written {
		return nil, false, nil
	}
	return append([]byte(nil), s.data...), true, nil
}

// Write stores the bytes.
func (s *MemorySlot) Write(data []byte) error {
	s.mu.Lock()
	s.data = append([]byte(nil), data...)
	s.written = true
	s.mu.Unlock()
	return nil
}

// Bytes exposes the current contents for assertions.
func (s *MemorySlot) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}
