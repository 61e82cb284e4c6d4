package job

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chunkenc/internal/services"
)

func TestIDIsStableAndPathSpecific(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "Movie (2020).mkv")
	b := filepath.Join(dir, "other", "Movie (2020).mkv")

	idA, err := ID(a)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := ID(a)
	idB, _ := ID(b)

	if idA != again {
		t.Fatalf("expected stable id, got %q and %q", idA, again)
	}
	if idA == idB {
		t.Fatalf("expected different ids for different paths, both %q", idA)
	}
	if !strings.HasPrefix(idA, "Movie__2020_.mkv-") {
		t.Fatalf("unexpected id prefix %q", idA)
	}
	hash := idA[strings.LastIndex(idA, "-")+1:]
	if len(hash) != 16 {
		t.Fatalf("expected 16 hex digits, got %q", hash)
	}
}

func TestSanitizeFallsBackForEmptyNames(t *testing.T) {
	if got := sanitize("..."); got != "input" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if got := sanitize(strings.Repeat("a", 200)); len(got) != maxNameLength {
		t.Fatalf("expected truncation, got %d chars", len(got))
	}
}

func TestLayoutEnsureCreatesDirectories(t *testing.T) {
	layout := NewLayout(t.TempDir(), "movie-0011223344556677")
	if err := layout.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	for _, dir := range []string{layout.Chunks, layout.Encoded, layout.EncodeTmp} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if filepath.Dir(layout.Manifest) != layout.Encoded {
		t.Fatalf("manifest should live with encoded segments: %s", layout.Manifest)
	}
	if layout.EncodedPath("output000.mkv") != filepath.Join(layout.Encoded, "output000.mkv") {
		t.Fatalf("unexpected encoded path")
	}
}

func TestLayoutEnsureReportsFilesystemError(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := NewLayout(blocker, "job").Ensure()
	if !errors.Is(err, services.ErrFilesystem) {
		t.Fatalf("expected ErrFilesystem, got %v", err)
	}
}

func TestLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	first, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}

	if _, err := AcquireLock(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if locked, err := IsLocked(path); err != nil || !locked {
		t.Fatalf("expected lock to be held, locked=%v err=%v", locked, err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("expected lock after release: %v", err)
	}
	_ = second.Release()
}
