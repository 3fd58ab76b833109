package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/phylotangle/phylotangle/pkg/errors"
)

// FileStore is a file-based tree store for CLI usage.
// Each tree is stored as one JSON file in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based tree store.
// If baseDir is empty, defaults to ~/.config/phylotangle/trees/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "phylotangle", "trees")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create tree dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) treePath(name string) string {
	return filepath.Join(s.baseDir, name+".json")
}

// Save stores entry as a JSON file named after the tree.
func (s *FileStore) Save(ctx context.Context, entry Entry, overwrite bool) error {
	if err := errors.ValidateTreeName(entry.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.treePath(entry.Name)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicate, entry.Name)
		}
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tree: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write tree file: %w", err)
	}
	return nil
}

// Get loads the entry stored under name.
func (s *FileStore) Get(ctx context.Context, name string) (*Entry, error) {
	if err := errors.ValidateTreeName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.treePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read tree file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parse tree file: %w", err)
	}
	return &entry, nil
}

// List returns all stored entries sorted by name.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read tree dir: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, f.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Delete removes the entry stored under name.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := errors.ValidateTreeName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.treePath(name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}

// Close does nothing for the file store.
func (s *FileStore) Close(ctx context.Context) error { return nil }

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
