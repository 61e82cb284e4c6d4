package segment

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"chunkenc/internal/services"
)

// Status tracks a segment through the encode stage.
type Status int

const (
	StatusPending Status = iota
	StatusEncoding
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusEncoding:
		return "encoding"
	case StatusDone:
		return "done"
	default:
		return "pending"
	}
}

// Segment is one time-bounded slice of the source video.
type Segment struct {
	Index       int
	ID          string
	SourcePath  string
	EncodedPath string
	Status      Status
}

var namePattern = regexp.MustCompile(`^output(\d+)\.mkv$`)

// ExpectedCount returns ceil(durationSeconds / segmentSeconds).
func ExpectedCount(durationSeconds float64, segmentSeconds int) int {
	if durationSeconds <= 0 || segmentSeconds <= 0 {
		return 0
	}
	return int(math.Ceil(durationSeconds / float64(segmentSeconds)))
}

// List returns the split segments in chunkDir ordered by index. Encoded
// paths are placed under encodedDir with the same file name.
func List(chunkDir, encodedDir string) ([]Segment, error) {
	entries, err := os.ReadDir(chunkDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrFilesystem, "split", "list segments", chunkDir, err)
	}
	var segments []Segment
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		m := namePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		segments = append(segments, Segment{
			Index:       index,
			ID:          entry.Name(),
			SourcePath:  filepath.Join(chunkDir, entry.Name()),
			EncodedPath: filepath.Join(encodedDir, entry.Name()),
		})
	}
	slices.SortFunc(segments, func(a, b Segment) int { return a.Index - b.Index })
	return segments, nil
}

// VerifyCount fails with ErrSegmentCount unless there are exactly expected
// segments with contiguous indices starting at 0.
func VerifyCount(segments []Segment, expected int) error {
	if len(segments) != expected {
		return services.Wrap(services.ErrSegmentCount, "split", "verify",
			fmt.Sprintf("found %d segments, expected %d", len(segments), expected), nil)
	}
	for i, seg := range segments {
		if seg.Index != i {
			return services.Wrap(services.ErrSegmentCount, "split", "verify",
				fmt.Sprintf("segment %s out of sequence at position %d", seg.ID, i), nil)
		}
	}
	return nil
}

// IDs returns the ids of segments in order.
func IDs(segments []Segment) []string {
	ids := make([]string, len(segments))
	for i, seg := range segments {
		ids[i] = seg.ID
	}
	return ids
}
