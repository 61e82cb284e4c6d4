package testsupport

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"chunkenc/internal/job"
	"chunkenc/internal/jobstate"
	"chunkenc/internal/media/mediainfo"
)

// NewJob registers a fake source under a temp dir, probes it through tool,
// and returns a job with an ensured layout and a tracker backed by its
// info.json.
func NewJob(t testing.TB, tool *FakeTool, m FakeMedia, segmentSeconds int) *job.Job {
	t.Helper()
	base := t.TempDir()
	input := filepath.Join(base, "source.mkv")
	tool.AddSource(t, input, m)

	id, err := job.ID(input)
	if err != nil {
		t.Fatalf("job id: %v", err)
	}
	layout := job.NewLayout(filepath.Join(base, "scratch"), id)
	if err := layout.Ensure(); err != nil {
		t.Fatalf("ensure layout: %v", err)
	}

	prober := &mediainfo.Prober{Runner: tool, Binary: "ffprobe"}
	info, err := prober.Probe(context.Background(), input)
	if err != nil {
		t.Fatalf("probe fake source: %v", err)
	}

	tracker, _, err := jobstate.Open(jobstate.NewFileStore(layout.Root), id, input)
	if err != nil {
		t.Fatalf("open tracker: %v", err)
	}

	return &job.Job{
		ID:               id,
		Input:            input,
		Output:           filepath.Join(base, "out", "source.mkv"),
		Layout:           layout,
		Info:             info,
		SegmentDuration:  segmentSeconds,
		ExpectedSegments: int(math.Ceil(info.DurationSeconds / float64(segmentSeconds))),
		Tracker:          tracker,
	}
}
