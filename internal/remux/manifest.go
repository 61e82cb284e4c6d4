package remux

import (
	"fmt"
	"path/filepath"
	"strings"

	"chunkenc/internal/fileutil"
	"chunkenc/internal/segment"
)

// ManifestLine formats one concat demuxer entry for path.
func ManifestLine(path string) string {
	return "file '" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

// WriteManifest writes the concat list for segments to path. Segments must
// already be in index order.
func WriteManifest(path string, segments []segment.Segment) error {
	var b strings.Builder
	for _, seg := range segments {
		abs, err := filepath.Abs(seg.EncodedPath)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", seg.EncodedPath, err)
		}
		b.WriteString(ManifestLine(abs))
		b.WriteByte('\n')
	}
	return fileutil.WriteFileAtomic(path, []byte(b.String()), 0o644)
}
