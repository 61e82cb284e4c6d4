package preflight

import (
	"context"
	"fmt"
	"strings"

	"chunkenc/internal/config"
	"chunkenc/internal/media/ffmpeg"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for cfg.
func RunAll(ctx context.Context, cfg *config.Config, runner ffmpeg.Runner) []Result {
	if cfg == nil {
		return nil
	}
	results := CheckTools(ctx, cfg, runner)
	results = append(results,
		CheckDirectoryAccess("Scratch root", cfg.Paths.ScratchRoot),
		CheckFreeSpace("Scratch space", cfg.Paths.ScratchRoot, MinFreeBytes),
	)
	if cfg.Logging.ToFile {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// Failed joins every failed result into one error, or returns nil.
func Failed(results []Result) error {
	var failures []string
	for _, r := range results {
		if !r.Passed {
			failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("preflight checks failed: %s", strings.Join(failures, "; "))
}
