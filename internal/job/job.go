package job

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"chunkenc/internal/jobstate"
	"chunkenc/internal/media/mediainfo"
)

const (
	hashLength    = 16
	maxNameLength = 80
)

// Job is one input being encoded to one output. It is owned by a single
// pipeline run and never shared between jobs.
type Job struct {
	ID     string
	Input  string
	Output string
	Layout Layout

	// Info is the probe snapshot, set before any stage runs.
	Info *mediainfo.Info
	// SegmentDuration is the split length in seconds.
	SegmentDuration int
	// ExpectedSegments is ceil(duration / SegmentDuration).
	ExpectedSegments int

	Tracker *jobstate.Tracker
}

// ID returns the stable identifier for input: its sanitized base name plus
// the first 16 hex digits of the SHA-256 of its absolute path.
func ID(input string) (string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("resolve input path: %w", err)
	}
	sum := sha256.Sum256([]byte(abs))
	return sanitize(filepath.Base(abs)) + "-" + hex.EncodeToString(sum[:])[:hashLength], nil
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "input"
	}
	if len(out) > maxNameLength {
		out = out[:maxNameLength]
	}
	return out
}
