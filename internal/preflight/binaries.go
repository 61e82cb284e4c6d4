package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"chunkenc/internal/media/ffmpeg"
)

// Requirement defines an external binary chunkenc relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// BinaryStatus reports the availability of a binary.
type BinaryStatus struct {
	Name        string
	Command     string
	Description string
	Path        string
	Available   bool
	Detail      string
}

// CheckBinaries resolves each requirement on PATH.
func CheckBinaries(requirements []Requirement) []BinaryStatus {
	results := make([]BinaryStatus, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := BinaryStatus{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Path = path
		status.Available = true
		results = append(results, status)
	}
	return results
}

// ToolVersion runs "<binary> -version" and returns the first output line,
// e.g. "ffmpeg version 7.1 Copyright ...".
func ToolVersion(ctx context.Context, runner ffmpeg.Runner, binary string) (string, error) {
	res, err := runner.Run(ctx, ffmpeg.Command{Binary: binary, Args: []string{"-version"}})
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(res.Stdout)), "\n")
	if first == "" {
		return "", fmt.Errorf("%s -version printed nothing", binary)
	}
	return strings.TrimSpace(first), nil
}
