package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/ifacetool/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *IdentityDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error when database does not exist")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ctx := context.Background()

		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if err := db.Put(ctx, model.SnapRef{SnapName: "core", SnapID: "id-core", PublisherID: "canonical"}); err != nil {
			t.Fatalf("failed to put: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		entry, err := db.Get(ctx, "core")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if entry.SnapID != "id-core" {
			t.Errorf("unexpected snap id %q", entry.SnapID)
		}
	})
}

// TestIdentityDB_PutGet tests storing and retrieving identities.
func TestIdentityDB_PutGet(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		ref := model.SnapRef{SnapName: "network-manager", SnapID: "RmBXKl6HO6YOC2DE4G2q1JzWImC04EUy", PublisherID: "canonical"}
		if err := db.Put(ctx, ref); err != nil {
			t.Fatalf("failed to put: %v", err)
		}

		entry, err := db.Get(ctx, "network-manager")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if entry.SnapRef != ref {
			t.Errorf("got %+v, want %+v", entry.SnapRef, ref)
		}
		if entry.FetchedAt.IsZero() {
			t.Error("expected fetched_at to be set")
		}
	})

	t.Run("missing name returns ErrNotFound", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		_, err := db.Get(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("put replaces existing identity", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.Put(ctx, model.SnapRef{SnapName: "foo", SnapID: "old", PublisherID: "p1"}); err != nil {
			t.Fatalf("failed to put: %v", err)
		}
		if err := db.Put(ctx, model.SnapRef{SnapName: "foo", SnapID: "new", PublisherID: "p2"}); err != nil {
			t.Fatalf("failed to put: %v", err)
		}

		entry, err := db.Get(ctx, "foo")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if entry.SnapID != "new" || entry.PublisherID != "p2" {
			t.Errorf("expected replaced identity, got %+v", entry.SnapRef)
		}

		entries, err := db.List(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected 1 entry, got %d", len(entries))
		}
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		err := db.Put(context.Background(), model.SnapRef{SnapID: "x"})
		if !errors.Is(err, model.ErrEmptySnapName) {
			t.Errorf("expected ErrEmptySnapName, got %v", err)
		}
	})
}

// TestIdentityDB_List tests listing identities in name order.
func TestIdentityDB_List(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"pc", "core", "network-manager"} {
		if err := db.Put(ctx, model.SnapRef{SnapName: name, SnapID: "id-" + name, PublisherID: "canonical"}); err != nil {
			t.Fatalf("failed to put %s: %v", name, err)
		}
	}

	entries, err := db.List(ctx)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}

	want := []string{"core", "network-manager", "pc"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, name := range want {
		if entries[i].SnapName != name {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].SnapName, name)
		}
	}
}

// TestIdentityDB_Delete tests removing identities.
func TestIdentityDB_Delete(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Put(ctx, model.SnapRef{SnapName: "foo", SnapID: "a", PublisherID: "b"}); err != nil {
		t.Fatalf("failed to put: %v", err)
	}
	if err := db.Delete(ctx, "foo"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := db.Get(ctx, "foo"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := db.Delete(ctx, "foo"); err != nil {
		t.Errorf("expected deleting a missing name to succeed, got %v", err)
	}
}

// TestParseTimestamp tests the timestamp parsing helper.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		wantZero bool
	}{
		{"2026-01-02 15:04:05", false},
		{"2026-01-02T15:04:05Z", false},
		{"2026-01-02T15:04:05.123456789Z", false},
		{"not a time", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.in); got.IsZero() != tt.wantZero {
				t.Errorf("parseTimestamp(%q) = %v", tt.in, got)
			}
		})
	}
}
