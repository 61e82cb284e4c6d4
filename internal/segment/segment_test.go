package segment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"chunkenc/internal/job"
	"chunkenc/internal/services"
	"chunkenc/internal/testsupport"
)

func TestExpectedCount(t *testing.T) {
	tests := []struct {
		duration float64
		seconds  int
		want     int
	}{
		{300, 120, 3},
		{240, 120, 2},
		{240.04, 120, 3},
		{119.9, 120, 1},
		{1, 120, 1},
		{7200, 120, 60},
		{0, 120, 0},
		{300, 0, 0},
	}
	for _, tt := range tests {
		if got := ExpectedCount(tt.duration, tt.seconds); got != tt.want {
			t.Fatalf("ExpectedCount(%v, %d) = %d, want %d", tt.duration, tt.seconds, got, tt.want)
		}
	}
}

func TestListOrdersByIndexAndIgnoresStrays(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"output010.mkv", "output002.mkv", "output1000.mkv", "concat.txt", ".output003.mkv.tmp"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	segments, err := List(dir, "/encoded")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	ids := IDs(segments)
	want := []string{"output002.mkv", "output010.mkv", "output1000.mkv"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
	if segments[0].EncodedPath != "/encoded/output002.mkv" || segments[0].Status != StatusPending {
		t.Fatalf("unexpected segment %+v", segments[0])
	}
}

func TestVerifyCount(t *testing.T) {
	segs := []Segment{{Index: 0, ID: "output000.mkv"}, {Index: 1, ID: "output001.mkv"}}
	if err := VerifyCount(segs, 2); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := VerifyCount(segs, 3); !errors.Is(err, services.ErrSegmentCount) {
		t.Fatalf("expected ErrSegmentCount, got %v", err)
	}
	gap := []Segment{{Index: 0, ID: "output000.mkv"}, {Index: 2, ID: "output002.mkv"}}
	if err := VerifyCount(gap, 2); !errors.Is(err, services.ErrSegmentCount) {
		t.Fatalf("expected ErrSegmentCount for gap, got %v", err)
	}
}

func newJob(t *testing.T, tool *testsupport.FakeTool, duration float64, seconds int) *job.Job {
	t.Helper()
	base := t.TempDir()
	input := filepath.Join(base, "in.mkv")
	tool.AddSource(t, input, testsupport.FakeMedia{Duration: duration})
	layout := job.NewLayout(filepath.Join(base, "scratch"), "in.mkv-0000")
	if err := layout.Ensure(); err != nil {
		t.Fatal(err)
	}
	return &job.Job{
		ID:               "in.mkv-0000",
		Input:            input,
		Layout:           layout,
		SegmentDuration:  seconds,
		ExpectedSegments: ExpectedCount(duration, seconds),
	}
}

func TestSplitProducesExpectedSegments(t *testing.T) {
	tool := testsupport.NewFakeTool()
	j := newJob(t, tool, 300, 120)
	if err := os.WriteFile(filepath.Join(j.Layout.Chunks, "output007.mkv"), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	splitter := &Splitter{Runner: tool, FFmpeg: "ffmpeg"}
	segments, err := splitter.Split(context.Background(), j)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	for i, seg := range segments {
		if seg.Index != i {
			t.Fatalf("unexpected index %d at %d", seg.Index, i)
		}
	}
	if calls := tool.Calls(); len(calls) != 1 || testsupport.FlagValue(calls[0].Args, "-segment_time") != "120" {
		t.Fatalf("expected a single split call, got %v", calls)
	}
}

func TestLoadDetectsTamperedWorkdir(t *testing.T) {
	tool := testsupport.NewFakeTool()
	j := newJob(t, tool, 300, 120)
	splitter := &Splitter{Runner: tool, FFmpeg: "ffmpeg"}
	if _, err := splitter.Split(context.Background(), j); err != nil {
		t.Fatalf("Split: %v", err)
	}
	if err := os.Remove(filepath.Join(j.Layout.Chunks, "output001.mkv")); err != nil {
		t.Fatal(err)
	}
	if _, err := splitter.Load(j); !errors.Is(err, services.ErrSegmentCount) {
		t.Fatalf("expected ErrSegmentCount, got %v", err)
	}
}

func TestSplitCountMismatchIsFatal(t *testing.T) {
	tool := testsupport.NewFakeTool()
	j := newJob(t, tool, 300, 120)
	j.ExpectedSegments = 4

	splitter := &Splitter{Runner: tool, FFmpeg: "ffmpeg"}
	if _, err := splitter.Split(context.Background(), j); !errors.Is(err, services.ErrSegmentCount) {
		t.Fatalf("expected ErrSegmentCount, got %v", err)
	}
}
