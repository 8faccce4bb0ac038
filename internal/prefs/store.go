// Package prefs provides the durable local preference store: the persisted
// workspace scope and the favorite-project list. Values are JSON files under
// a base directory, written atomically and guarded by flock so a second
// client process cannot corrupt them.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

// ErrNotFound is returned when a preference key has never been written.
var ErrNotFound = errors.New("not found")

// Store is a file-backed preference store.
type Store struct {
	baseDir string

	mu    sync.Mutex
	locks map[string]*fileLock
}

// New creates a store rooted at baseDir. The directory is created lazily on
// first write.
func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		locks:   make(map[string]*fileLock),
	}
}

// Dir returns the store's base directory.
func (s *Store) Dir() string {
	return s.baseDir
}

func (s *Store) keyPath(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}

// Get reads the value stored under key into v.
func (s *Store) Get(ctx context.Context, key string, v any) error {
	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal preference %s: %w", key, err)
	}
	return nil
}

// Put stores v under key. The write is atomic: data lands in a temp file
// that is renamed over the target.
func (s *Store) Put(ctx context.Context, key string, v any) error {
	path := s.keyPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create preference directory: %w", err)
	}

	lock := s.lockFor(path)
	if err := lock.lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preference %s: %w", key, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename preference file: %w", err)
	}
	return nil
}

// Delete removes a preference. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	path := s.keyPath(key)

	lock := s.lockFor(path)
	if err := lock.lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete preference %s: %w", key, err)
	}
	return nil
}

func (s *Store) lockFor(path string) *fileLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[path]
	if !ok {
		l = &fileLock{path: path}
		s.locks[path] = l
	}
	return l
}

// fileLock serializes writers across processes with flock.
type fileLock struct {
	path string
	mu   sync.Mutex
	file *os.File
}

func (l *fileLock) lock() error {
	l.mu.Lock()

	f, err := os.OpenFile(l.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		l.mu.Unlock()
		return err
	}
	l.file = f
	return nil
}

func (l *fileLock) unlock() {
	if l.file != nil {
		syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
		l.file.Close()
		os.Remove(l.path + ".lock")
		l.file = nil
	}
	l.mu.Unlock()
}
