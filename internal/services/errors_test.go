package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"chunkenc/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrRemux, "remux", "concat", "ffmpeg exited 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrRemux) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"remux", "concat", "ffmpeg exited 1", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindClassifiesMarkers(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrProbe, "probe", "", "bad json", nil), "probe_error"},
		{services.Wrap(services.ErrMissingStream, "probe", "", "", nil), "missing_stream"},
		{services.Wrap(services.ErrSegmentCount, "split", "", "", nil), "segment_count_mismatch"},
		{services.Wrap(services.ErrValidationMismatch, "validate", "", "", nil), "validation_mismatch"},
		{services.Wrap(services.ErrFilesystem, "publish", "", "", nil), "filesystem_error"},
		{fmt.Errorf("outer: %w", context.Canceled), "cancelled"},
		{errors.New("mystery"), "unknown"},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.want {
			t.Fatalf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestSegmentFailuresMatchesMarkerAndCauses(t *testing.T) {
	cause := errors.New("exit status 1")
	failures := &services.SegmentFailures{
		Total: 3,
		Failures: []services.SegmentFailure{
			{SegmentID: "output001.mkv", Err: cause},
			{SegmentID: "output002.mkv", Err: errors.New("killed")},
		},
	}
	wrapped := fmt.Errorf("encode: %w", failures)

	if !errors.Is(wrapped, services.ErrSegmentEncode) {
		t.Fatal("expected segment encode marker")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected underlying cause to be reachable")
	}
	var target *services.SegmentFailures
	if !errors.As(wrapped, &target) {
		t.Fatal("expected errors.As to find SegmentFailures")
	}
	if got := strings.Join(target.FailedIDs(), ","); got != "output001.mkv,output002.mkv" {
		t.Fatalf("unexpected failed ids %q", got)
	}
	if !strings.Contains(wrapped.Error(), "2 of 3 segments failed") {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}

	details := services.Details(wrapped)
	if details.Kind != "segment_encode_failure" {
		t.Fatalf("unexpected kind %q", details.Kind)
	}
	if len(details.FailedSegments) != 2 {
		t.Fatalf("expected failed segments in details, got %v", details.FailedSegments)
	}
}
