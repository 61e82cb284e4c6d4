package discovery

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkenc/internal/config"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func setAccess(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, at, at))
}

func collect(t *testing.T, root string, skip []string) []string {
	t.Helper()
	var out []string
	for path, err := range Walk(root, skip) {
		require.NoError(t, err)
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		out = append(out, rel)
	}
	return out
}

func TestWalkYieldsFilesAndPrunesSkipDirs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mkv"))
	touch(t, filepath.Join(root, "Show", "S01", "e1.mkv"))
	touch(t, filepath.Join(root, "Show", "Plex Versions", "e1.mp4"))
	touch(t, filepath.Join(root, "b", "c.txt"))

	got := collect(t, root, []string{"Plex Versions"})

	assert.ElementsMatch(t, []string{
		"a.mkv",
		filepath.Join("Show", "S01", "e1.mkv"),
		filepath.Join("b", "c.txt"),
	}, got)
}

func TestWalkIsRestartableAndStopsEarly(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"1.mkv", "2.mkv", "3.mkv"} {
		touch(t, filepath.Join(root, name))
	}
	seq := Walk(root, nil)

	first := 0
	for range seq {
		first++
		break
	}
	assert.Equal(t, 1, first)

	second := 0
	for _, err := range seq {
		require.NoError(t, err)
		second++
	}
	assert.Equal(t, 3, second)
}

func TestWalkReportsUnreadableRoot(t *testing.T) {
	var errs int
	for _, err := range Walk(filepath.Join(t.TempDir(), "missing"), nil) {
		if err != nil {
			errs++
		}
	}
	assert.Equal(t, 1, errs)
}

func TestSelectPrefersEarlierExtension(t *testing.T) {
	exts := []string{".mkv", ".mp4", ".flv", ".avi", ".m4v"}
	got := Select([]string{
		"movie.avi",
		"movie.mp4",
		"show/e1.m4v",
		"show/e1.MKV",
		"notes.txt",
		"other.flv",
	}, exts)

	assert.Equal(t, []string{"movie.mp4", "other.flv", "show/e1.MKV"}, got)
}

func TestBuildSkipsExistingOutputsAndOrdersByAccess(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	batch := config.Default().Batch

	old := filepath.Join(in, "old.mkv")
	recent := filepath.Join(in, "dir", "recent.mp4")
	done := filepath.Join(in, "done.avi")
	touch(t, old)
	touch(t, recent)
	touch(t, done)
	touch(t, filepath.Join(out, "done.mkv"))
	touch(t, filepath.Join(in, "Plex Versions", "hidden.mkv"))

	now := time.Now()
	setAccess(t, old, now.Add(-48*time.Hour))
	setAccess(t, recent, now.Add(-time.Hour))

	plan, err := Build(in, out, batch)
	require.NoError(t, err)

	assert.Equal(t, 3, plan.Found)
	assert.Equal(t, 1, plan.Existing)
	require.Len(t, plan.Candidates, 2)
	assert.Equal(t, recent, plan.Candidates[0].Source)
	assert.Equal(t, filepath.Join(out, "dir", "recent.mkv"), plan.Candidates[0].Output)
	assert.Equal(t, old, plan.Candidates[1].Source)
}

func TestBuildRejectsMissingInput(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "nope"), t.TempDir(), config.Default().Batch)
	assert.Error(t, err)
}
