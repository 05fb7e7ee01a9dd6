package preferences

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// MemoryStore keeps preferences in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	prefs Preferences
}

// NewMemoryStore returns a MemoryStore holding the defaults.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: Default()}
}

func (s *MemoryStore) Load(context.Context) (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs, nil
}

func (s *MemoryStore) Save(_ context.Context, prefs Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, fn func(Preferences) Preferences) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.prefs)
	if err := next.Validate(); err != nil {
		return Preferences{}, err
	}
	s.prefs = next
	return next, nil
}

// FileStore persists preferences as YAML. A missing file yields defaults.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(context.Context) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Save(_ context.Context, prefs Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(prefs)
}

// Update loads, applies fn and saves while holding the store lock.
func (s *FileStore) Update(_ context.Context, fn func(Preferences) Preferences) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.load()
	if err != nil {
		return Preferences{}, err
	}
	next := fn(prefs)
	if err := s.save(next); err != nil {
		return Preferences{}, err
	}
	return next, nil
}

func (s *FileStore) load() (Preferences, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("read preferences: %w", err)
	}

	prefs := Default()
	if err := yaml.Unmarshal(raw, &prefs); err != nil {
		return Preferences{}, fmt.Errorf("decode preferences %s: %w", s.path, err)
	}
	if prefs.Theme == "" {
		prefs.Theme = ThemeLight
	}
	if err := prefs.Validate(); err != nil {
		return Preferences{}, err
	}
	return prefs, nil
}

func (s *FileStore) save(prefs Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}

	raw, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".preferences-*.yaml")
	if err != nil {
		return fmt.Errorf("create preferences file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}
