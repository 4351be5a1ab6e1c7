package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/geom"
	"github.com/matzehuels/warren/pkg/layout"
)

func sample(seed string) *layout.Layout {
	return &layout.Layout{
		Seed:     seed,
		Complete: true,
		Width:    7,
		Height:   7,
		Margin:   1,
		Rooms: []layout.Room{{
			Template: "vault",
			Name:     "vault",
			Kind:     "vault",
			Rect:     geom.NewRect(1, 1, 5, 5),
			Floor:    geom.NewRect(2, 2, 3, 3),
			Doors:    []geom.Point{{X: 3, Y: 5}},
			Item:     "key",
		}},
		Arms: []layout.Arm{{ID: 0, Parent: -1, ParentIndex: -1, End: "item", Placed: 1, Filled: true}},
	}
}

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFileStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	l := sample("crypt")
	id, err := s.Save(ctx, l)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil || l.ID != id {
		t.Fatalf("Save() id = %q (layout id %q)", id, l.ID)
	}

	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(l, got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}

	// Saving again with the same id replaces the stored copy.
	l.Seed = "tomb"
	if id2, err := s.Save(ctx, l); err != nil || id2 != id {
		t.Fatalf("re-Save() = %q, %v", id2, err)
	}
	if got, _ := s.Load(ctx, id); got.Seed != "tomb" {
		t.Errorf("Seed after re-save = %q, want tomb", got.Seed)
	}
}

func TestFileStoreErrors(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	tests := []struct {
		name string
		run  func() error
		code errors.Code
	}{
		{"load missing", func() error { _, err := s.Load(ctx, NewID()); return err }, errors.ErrCodeLayoutNotFound},
		{"load traversal", func() error { _, err := s.Load(ctx, "../etc/passwd"); return err }, errors.ErrCodeInvalidID},
		{"delete bad id", func() error { return s.Delete(ctx, "nope") }, errors.ErrCodeInvalidID},
		{"save nil", func() error { _, err := s.Save(ctx, nil); return err }, errors.ErrCodeInvalidInput},
		{"save bad id", func() error {
			l := sample("x")
			l.ID = "Not-A-UUID"
			_, err := s.Save(ctx, l)
			return err
		}, errors.ErrCodeInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	if err := s.Delete(ctx, NewID()); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestFileStoreList(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i, seed := range []string{"a", "b", "c"} {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		id, err := s.Save(ctx, sample(seed))
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		ids = append(ids, id)
	}
	// Foreign files are ignored.
	if err := os.WriteFile(filepath.Join(s.Dir(), "notes.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var seeds []string
	for _, sum := range list {
		seeds = append(seeds, sum.Seed)
		if sum.Rooms != 1 || !sum.Complete {
			t.Errorf("summary %+v", sum)
		}
	}
	if diff := cmp.Diff([]string{"c", "b", "a"}, seeds); diff != "" {
		t.Errorf("List order (-want +got):\n%s", diff)
	}

	if err := s.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if list, _ := s.List(ctx); len(list) != 2 {
		t.Errorf("List after Delete = %d entries, want 2", len(list))
	}
}

func TestNewMongoStoreUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewMongoStore(ctx, MongoConfig{URI: "mongodb://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if !errors.Is(err, errors.ErrCodeStorage) {
		t.Errorf("NewMongoStore() error = %v, want STORAGE_ERROR", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "layouts.db")
	s, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var saved []*layout.Layout
	for i, seed := range []string{"a", "b"} {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		l := sample(seed)
		if _, err := s.Save(ctx, l); err != nil {
			t.Fatalf("Save: %v", err)
		}
		saved = append(saved, l)
	}

	got, err := s.Load(ctx, saved[0].ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(saved[0], got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}

	// Re-saving upserts.
	saved[0].Complete = false
	if _, err := s.Save(ctx, saved[0]); err != nil {
		t.Fatalf("re-Save: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []Summary{
		{ID: saved[0].ID, Seed: "a", Rooms: 1, CreatedAt: base.Add(time.Minute)},
		{ID: saved[1].ID, Seed: "b", Complete: true, Rooms: 1, CreatedAt: base.Add(time.Minute)},
	}
	if saved[1].ID < saved[0].ID {
		want[0], want[1] = want[1], want[0]
	}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Errorf("List (-want +got):\n%s", diff)
	}

	if err := s.Delete(ctx, saved[1].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, saved[1].ID); !errors.Is(err, errors.ErrCodeLayoutNotFound) {
		t.Errorf("Load after Delete = %v, want LAYOUT_NOT_FOUND", err)
	}
	if _, err := s.Load(ctx, "../layouts.db"); !errors.Is(err, errors.ErrCodeInvalidID) {
		t.Errorf("Load(traversal) = %v, want INVALID_ID", err)
	}
}
