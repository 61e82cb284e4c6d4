package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"chunkenc/internal/config"
	"chunkenc/internal/media/ffmpeg"
)

// MinFreeBytes is the free space below which the scratch root check fails.
const MinFreeBytes = 5 << 30

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// FreeBytes returns the space available to unprivileged users at path.
func FreeBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// CheckFreeSpace fails when fewer than minBytes are available at path.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s (%s free)", path, humanBytes(free))
	if free < minBytes {
		return Result{Name: name, Detail: detail + fmt.Sprintf(", need at least %s", humanBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckTools resolves ffmpeg and ffprobe and, when runner is non-nil, reads
// their version banners.
func CheckTools(ctx context.Context, cfg *config.Config, runner ffmpeg.Runner) []Result {
	statuses := CheckBinaries([]Requirement{
		{Name: "FFmpeg", Command: cfg.Tools.FFmpeg, Description: "Required for split, encode, remux, and frame counting"},
		{Name: "FFprobe", Command: cfg.Tools.FFprobe, Description: "Required for media inspection"},
	})
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		if !status.Available {
			results = append(results, Result{Name: status.Name, Detail: status.Detail})
			continue
		}
		detail := status.Path
		if runner != nil {
			version, err := ToolVersion(ctx, runner, status.Path)
			if err != nil {
				results = append(results, Result{Name: status.Name, Detail: fmt.Sprintf("%s (error: %v)", status.Path, err)})
				continue
			}
			detail = version
		}
		results = append(results, Result{Name: status.Name, Passed: true, Detail: detail})
	}
	return results
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
