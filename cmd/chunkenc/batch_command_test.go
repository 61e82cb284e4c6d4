package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"chunkenc/internal/media/ffmpeg"
	"chunkenc/internal/queue"
	"chunkenc/internal/testsupport"
)

func TestBatchDryRunListsCandidates(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addSource(t, "a.mkv", 60)
	env.addSource(t, "a.avi", 60)
	env.addSource(t, filepath.Join("show", "e1.mp4"), 60)
	outDir := filepath.Join(env.baseDir, "out")

	out, _, err := runCLI(t, env, "batch", "--dry-run", filepath.Join(env.baseDir, "media"), outDir)
	if err != nil {
		t.Fatalf("batch dry-run: %v", err)
	}
	requireContains(t, out, "found 2 video files")
	requireContains(t, out, "files that need encoding: 2")
	requireContains(t, out, filepath.Join(outDir, "show", "e1.mkv"))
	if len(env.tool.Calls()) != 0 {
		t.Fatalf("dry run must not invoke tools, got %d calls", len(env.tool.Calls()))
	}
}

func TestBatchEncodesAndRecordsLedger(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addSource(t, "a.mkv", 130)
	env.addSource(t, filepath.Join("show", "e1.mp4"), 60)
	outDir := filepath.Join(env.baseDir, "out")

	out, _, err := runCLI(t, env, "batch", "--skip-preflight", filepath.Join(env.baseDir, "media"), outDir)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	requireContains(t, out, "batch finished: 2 completed, 0 failed")

	for _, rel := range []string{"a.mkv", filepath.Join("show", "e1.mkv")} {
		if _, err := testsupport.ReadMediaFrames(filepath.Join(outDir, rel)); err != nil {
			t.Fatalf("expected output %s: %v", rel, err)
		}
	}

	items := ledgerItems(t, env)
	if len(items) != 2 {
		t.Fatalf("expected 2 ledger items, got %d", len(items))
	}
	for _, item := range items {
		if item.Status != queue.StatusCompleted || item.Frames == 0 || item.JobID == "" {
			t.Fatalf("unexpected ledger item %+v", item)
		}
	}

	jobs, _, err := runCLI(t, env, "jobs", "--status", "completed")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, jobs, "a.mkv")
	requireContains(t, jobs, "e1.mp4")

	// Everything is published, so a second run has nothing to do.
	again, _, err := runCLI(t, env, "batch", "--skip-preflight", filepath.Join(env.baseDir, "media"), outDir)
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	requireContains(t, again, "files that need encoding: 0")
}

func TestBatchStopsAtFirstFailureAndRecordsIt(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addSource(t, "a.mkv", 60)
	env.addSource(t, "b.mkv", 60)
	env.tool.Fail = func(c ffmpeg.Command) error {
		if testsupport.FlagValue(c.Args, "-f") == "concat" {
			return errors.New("Invalid data found when processing input")
		}
		return nil
	}

	_, _, err := runCLI(t, env, "batch", "--skip-preflight", filepath.Join(env.baseDir, "media"), filepath.Join(env.baseDir, "out"))
	if err == nil {
		t.Fatal("expected batch to fail")
	}

	failed := ledgerItems(t, env, queue.StatusFailed)
	if len(failed) != 1 {
		t.Fatalf("expected exactly one failed item before stopping, got %d", len(failed))
	}
	if failed[0].Stage != "remux" || failed[0].ErrorKind != "remux_error" {
		t.Fatalf("unexpected failure record %+v", failed[0])
	}
	if n := len(ledgerItems(t, env)); n != 1 {
		t.Fatalf("second file must not be started, ledger has %d items", n)
	}
}

func TestBatchKeepGoingContinuesAfterFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addSource(t, "a.mkv", 60)
	env.addSource(t, "b.mkv", 60)
	env.tool.Fail = func(c ffmpeg.Command) error {
		if testsupport.FlagValue(c.Args, "-f") == "concat" {
			return errors.New("Invalid data found when processing input")
		}
		return nil
	}

	out, _, err := runCLI(t, env, "batch", "--skip-preflight", "--keep-going", filepath.Join(env.baseDir, "media"), filepath.Join(env.baseDir, "out"))
	if err == nil {
		t.Fatal("expected non-nil error when files failed")
	}
	requireContains(t, out, "batch finished: 0 completed, 2 failed")
	if n := len(ledgerItems(t, env, queue.StatusFailed)); n != 2 {
		t.Fatalf("expected 2 failed items, got %d", n)
	}

	retry, _, err := runCLI(t, env, "jobs", "retry")
	if err != nil {
		t.Fatalf("jobs retry: %v", err)
	}
	requireContains(t, retry, "Reset 2 failed items")
}

func ledgerItems(t *testing.T, env *cliTestEnv, statuses ...queue.Status) []*queue.Item {
	t.Helper()
	store, err := queue.Open(env.cfg.Paths.LedgerPath)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer store.Close()
	items, err := store.List(context.Background(), statuses...)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	return items
}
