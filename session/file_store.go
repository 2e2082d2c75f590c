package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists markers as one JSON object keyed by marker key.
// The file is replaced atomically on every write.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store at path. The file is created on first save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session file path is required")
	}
	return &FileStore{path: filepath.Clean(path)}, nil
}

// Save replaces the marker under key and rewrites the file
func (s *FileStore) Save(ctx context.Context, key string, marker []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(marker) {
		return errors.New("session marker is not valid JSON")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	markers, err := s.readAll()
	if err != nil {
		return err
	}
	markers[key] = json.RawMessage(marker)
	return s.writeAll(markers)
}

// Load returns the marker under key
func (s *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	markers, err := s.readAll()
	if err != nil {
		return nil, err
	}
	marker, ok := markers[key]
	if !ok {
		return nil, ErrMarkerNotFound
	}
	return []byte(marker), nil
}

// Clear removes the marker under key
func (s *FileStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	markers, err := s.readAll()
	if err != nil {
		return err
	}
	if _, ok := markers[key]; !ok {
		return nil
	}
	delete(markers, key)
	return s.writeAll(markers)
}

// readAll loads every marker; a missing file is an empty store (caller must hold lock)
func (s *FileStore) readAll() (map[string]json.RawMessage, error) {
	markers := make(map[string]json.RawMessage)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return markers, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return markers, nil
	}
	if err := json.Unmarshal(data, &markers); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return markers, nil
}

// writeAll writes markers to a temporary file and renames it over the session file (caller must hold lock)
func (s *FileStore) writeAll(markers map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(markers, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("chmod session file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
