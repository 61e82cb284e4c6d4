package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chunkenc/internal/jobstate"
	"chunkenc/internal/stage"
)

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "segment_duration = 120")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestPruneRemovesFinishedWorkdir(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.addSource(t, "Movie.mkv", 60)
	if _, _, err := runCLI(t, env, "encode", "--skip-preflight", input, filepath.Join(env.baseDir, "out", "Movie.mkv")); err != nil {
		t.Fatalf("encode: %v", err)
	}
	entries, err := os.ReadDir(env.cfg.Paths.ScratchRoot)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one workdir, got %d (%v)", len(entries), err)
	}

	out, _, err := runCLI(t, env, "prune", "--dry-run")
	if err != nil {
		t.Fatalf("prune dry-run: %v", err)
	}
	requireContains(t, out, "complete")

	if _, _, err := runCLI(t, env, "prune"); err != nil {
		t.Fatalf("prune: %v", err)
	}
	entries, _ = os.ReadDir(env.cfg.Paths.ScratchRoot)
	if len(entries) != 0 {
		t.Fatalf("expected workdir removed, found %d entries", len(entries))
	}

	out, _, err = runCLI(t, env, "prune")
	if err != nil {
		t.Fatalf("prune again: %v", err)
	}
	requireContains(t, out, "Nothing to prune")
}

func TestStageLabels(t *testing.T) {
	if got := stageLabel(jobstate.StageEncode); got != "Encode" {
		t.Fatalf("stageLabel(encode) = %q", got)
	}
	if got := stageLabel(jobstate.StageNone); got != "Not started" {
		t.Fatalf("stageLabel(none) = %q", got)
	}
	if healthKind(stage.Unhealthy(jobstate.StageEncode, "no ffmpeg")) != statusError {
		t.Fatal("unhealthy stage should render as error")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"1"}}, []columnAlignment{alignRight})
	if !strings.Contains(out, "A") || !strings.Contains(out, "1") {
		t.Fatalf("unexpected table %q", out)
	}
}
