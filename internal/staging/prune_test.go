package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chunkenc/internal/job"
	"chunkenc/internal/jobstate"
	"chunkenc/internal/logging"
)

func makeWorkdir(t *testing.T, root, name string, stage jobstate.Stage) job.Layout {
	t.Helper()
	layout := job.NewLayout(root, name)
	if err := layout.Ensure(); err != nil {
		t.Fatalf("ensure %s: %v", name, err)
	}
	if stage != jobstate.StageNone {
		rec := jobstate.Record{JobID: name, LastStage: stage}
		if err := jobstate.NewFileStore(layout.Root).Save(rec); err != nil {
			t.Fatalf("save record: %v", err)
		}
	}
	return layout
}

func age(t *testing.T, path string, d time.Duration) {
	t.Helper()
	old := time.Now().Add(-d)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestPruneInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := Prune(context.Background(), dir, PruneOptions{}, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestPruneRemovesCompletedWorkdirsOnly(t *testing.T) {
	root := t.TempDir()
	done := makeWorkdir(t, root, "done", jobstate.StageValidate)
	partial := makeWorkdir(t, root, "partial", jobstate.StageEncode)

	result := Prune(context.Background(), root, PruneOptions{}, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0].Path != done.Root {
		t.Fatalf("unexpected removals: %+v", result.Removed)
	}
	if result.Removed[0].Reason != ReasonComplete {
		t.Fatalf("expected reason %q, got %q", ReasonComplete, result.Removed[0].Reason)
	}
	if _, err := os.Stat(done.Root); !os.IsNotExist(err) {
		t.Fatal("completed workdir should have been removed")
	}
	if _, err := os.Stat(partial.Root); err != nil {
		t.Fatal("partial workdir should still exist")
	}
}

func TestPruneOlderThanRemovesStaleWorkdirs(t *testing.T) {
	root := t.TempDir()
	stale := makeWorkdir(t, root, "stale", jobstate.StageNone)
	age(t, stale.Root, 72*time.Hour)
	recent := makeWorkdir(t, root, "recent", jobstate.StageNone)

	result := Prune(context.Background(), root, PruneOptions{OlderThan: 24 * time.Hour}, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0].Path != stale.Root || result.Removed[0].Reason != ReasonStale {
		t.Fatalf("unexpected removals: %+v", result.Removed)
	}
	if _, err := os.Stat(recent.Root); err != nil {
		t.Fatal("recent workdir should still exist")
	}
}

func TestPruneSkipsLockedWorkdirs(t *testing.T) {
	root := t.TempDir()
	busy := makeWorkdir(t, root, "busy", jobstate.StageValidate)
	lock, err := job.AcquireLock(busy.LockFile)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer lock.Release()

	result := Prune(context.Background(), root, PruneOptions{}, logging.NewNop())

	if len(result.Removed) != 0 {
		t.Fatalf("locked workdir must not be removed: %+v", result.Removed)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != busy.Root {
		t.Fatalf("expected busy workdir skipped, got %v", result.Skipped)
	}
}

func TestPruneDryRunKeepsFiles(t *testing.T) {
	root := t.TempDir()
	done := makeWorkdir(t, root, "done", jobstate.StageValidate)

	result := Prune(context.Background(), root, PruneOptions{DryRun: true}, logging.NewNop())

	if len(result.Removed) != 1 {
		t.Fatalf("expected one planned removal, got %+v", result.Removed)
	}
	if _, err := os.Stat(done.Root); err != nil {
		t.Fatal("dry run must not remove anything")
	}
}

func TestListDirectoriesReportsStageAndSize(t *testing.T) {
	root := t.TempDir()
	layout := makeWorkdir(t, root, "movie", jobstate.StageRemux)
	if err := os.WriteFile(filepath.Join(layout.Chunks, "output000.mkv"), make([]byte, 1024), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	dirs, err := ListDirectories(root)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("expected 1 workdir, got %d", len(dirs))
	}
	if dirs[0].Stage != jobstate.StageRemux || dirs[0].Locked {
		t.Fatalf("unexpected dir info %+v", dirs[0])
	}
	if dirs[0].Size < 1024 {
		t.Fatalf("expected size to include chunk, got %d", dirs[0].Size)
	}
}
