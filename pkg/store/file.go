package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/layout"
)

// FileStore keeps each layout as <id>.json in a directory.
type FileStore struct {
	mu  sync.RWMutex
	dir string
	now func() time.Time
}

// NewFileStore opens (and creates) a store in dir. An empty dir uses
// ~/.local/share/warren/layouts.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".local", "share", "warren", "layouts")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save implements [Store].
func (s *FileStore) Save(ctx context.Context, l *layout.Layout) (string, error) {
	if l == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "save: layout is nil")
	}
	if l.ID != "" {
		if err := errors.ValidateLayoutID(l.ID); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := newRecord(l, s.now())
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode layout: %w", err)
	}
	if err := os.WriteFile(s.path(l.ID), data, 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "write layout %s", l.ID)
	}
	return l.ID, nil
}

// Load implements [Store].
func (s *FileStore) Load(ctx context.Context, id string) (*layout.Layout, error) {
	if err := errors.ValidateLayoutID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.read(s.path(id))
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "layout %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &rec.Layout, nil
}

// List implements [Store]. Unreadable files are skipped.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read store dir")
	}

	out := []Summary{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		if errors.ValidateLayoutID(strings.TrimSuffix(name, ".json")) != nil {
			continue
		}
		rec, err := s.read(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		out = append(out, rec.summary())
	}
	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Delete implements [Store].
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateLayoutID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete layout %s", id)
	}
	return nil
}

// Close implements [Store].
func (s *FileStore) Close() error { return nil }

func (s *FileStore) read(path string) (record, error) {
	var rec record
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, errors.Wrap(errors.ErrCodeStorage, err, "decode %s", filepath.Base(path))
	}
	return rec, nil
}

var _ Store = (*FileStore)(nil)
