package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chunkenc/internal/job"
	"chunkenc/internal/jobstate"
	"chunkenc/internal/logging"
)

// Reasons a workdir is removed.
const (
	ReasonComplete = "complete"
	ReasonStale    = "stale"
)

// DirInfo describes one workdir under the scratch root.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
	// Stage is the persisted stage, or StageNone when no record exists.
	Stage  jobstate.Stage
	Locked bool
}

// Removed pairs a removed workdir with why it was removed.
type Removed struct {
	Path   string
	Reason string
}

// CleanupError pairs a workdir path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// PruneOptions controls which workdirs Prune removes.
type PruneOptions struct {
	// OlderThan also removes unfinished workdirs not modified within this
	// window. Zero keeps every unfinished workdir.
	OlderThan time.Duration
	DryRun    bool
	Now       func() time.Time
}

// PruneResult contains the outcome of a prune.
type PruneResult struct {
	Removed []Removed
	Skipped []string // locked workdirs
	Errors  []CleanupError
}

// Prune removes finished and, optionally, stale workdirs under scratchRoot.
func Prune(ctx context.Context, scratchRoot string, opts PruneOptions, logger *slog.Logger) PruneResult {
	logger = logging.NewComponentLogger(logger, "staging")
	result := PruneResult{}

	dirs, err := ListDirectories(scratchRoot)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: scratchRoot, Error: err})
		return result
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	cutoff := now().Add(-opts.OlderThan)

	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		if dir.Locked {
			result.Skipped = append(result.Skipped, dir.Path)
			logger.Debug("workdir in use; skipping",
				logging.String("path", dir.Path),
				logging.String(logging.FieldEventType, "workdir_locked"),
			)
			continue
		}

		reason := ""
		switch {
		case dir.Stage >= jobstate.StageValidate:
			reason = ReasonComplete
		case opts.OlderThan > 0 && dir.ModTime.Before(cutoff):
			reason = ReasonStale
		default:
			continue
		}

		if !opts.DryRun {
			if err := os.RemoveAll(dir.Path); err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: dir.Path, Error: err})
				logging.WarnWithContext(logger, "failed to remove workdir", "workdir_prune_failed",
					logging.String("path", dir.Path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check scratch_root permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
				continue
			}
		}
		result.Removed = append(result.Removed, Removed{Path: dir.Path, Reason: reason})
		logger.Info("removed workdir",
			logging.String("path", dir.Path),
			logging.String("reason", reason),
			logging.String("recorded_stage", dir.Stage.String()),
			logging.Duration("age", now().Sub(dir.ModTime)),
			logging.Bool("dry_run", opts.DryRun),
			logging.String(logging.FieldEventType, "workdir_prune"),
		)
	}
	return result
}

// ListDirectories returns every workdir under scratchRoot with its persisted
// stage and lock state. A missing scratch root yields no entries.
func ListDirectories(scratchRoot string) ([]DirInfo, error) {
	scratchRoot = strings.TrimSpace(scratchRoot)
	if scratchRoot == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(scratchRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirPath := filepath.Join(scratchRoot, entry.Name())
		size, _ := dirSize(dirPath)
		dir := DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
		}
		if rec, ok, err := jobstate.NewFileStore(dirPath).Load(); err == nil && ok {
			dir.Stage = rec.LastStage
			if !rec.UpdatedAt.IsZero() && rec.UpdatedAt.After(dir.ModTime) {
				dir.ModTime = rec.UpdatedAt
			}
		}
		lockPath := job.NewLayout(scratchRoot, entry.Name()).LockFile
		if _, err := os.Stat(lockPath); err == nil {
			locked, lockErr := job.IsLocked(lockPath)
			dir.Locked = locked || lockErr != nil
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if info, infoErr := d.Info(); infoErr == nil {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
