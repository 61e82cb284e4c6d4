package validation

import (
	"context"
	"errors"
	"os"
	"slices"
	"testing"

	"chunkenc/internal/job"
	"chunkenc/internal/media/ffmpeg"
	"chunkenc/internal/services"
	"chunkenc/internal/testsupport"
)

func joinedJob(t *testing.T, tool *testsupport.FakeTool, joinedFrames int64) *job.Job {
	t.Helper()
	j := testsupport.NewJob(t, tool, testsupport.FakeMedia{Duration: 300}, 120)
	if err := testsupport.WriteMediaFile(j.Layout.Joined, joinedFrames); err != nil {
		t.Fatal(err)
	}
	return j
}

func TestCounterParsesLastFrameValue(t *testing.T) {
	tool := testsupport.NewFakeTool()
	j := joinedJob(t, tool, 7200)
	counter := &Counter{Runner: tool, FFmpeg: "ffmpeg"}

	frames, err := counter.Count(context.Background(), j.Layout.Joined)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if frames != 7200 {
		t.Fatalf("frames = %d, want 7200", frames)
	}
	calls := tool.Calls()
	if slices.Contains(calls[len(calls)-1].Args, "copy") {
		t.Fatalf("decode mode should not stream copy: %v", calls[len(calls)-1].Args)
	}

	counter.StreamCopy = true
	if _, err := counter.Count(context.Background(), j.Layout.Joined); err != nil {
		t.Fatalf("Count: %v", err)
	}
	calls = tool.Calls()
	if testsupport.FlagValue(calls[len(calls)-1].Args, "-c") != "copy" {
		t.Fatalf("stream copy mode should pass -c copy: %v", calls[len(calls)-1].Args)
	}
}

func TestValidateAcceptsIdenticalCounts(t *testing.T) {
	tool := testsupport.NewFakeTool()
	j := joinedJob(t, tool, 7200)
	v := NewValidator(testsupport.NewConfig(t), tool, nil)

	out, err := v.Run(context.Background(), j)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.SourceFrames != 7200 || out.JoinedFrames != 7200 || out.Published != j.Output {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if _, err := os.Stat(j.Layout.Joined); !os.IsNotExist(err) {
		t.Fatalf("joined file should have moved, stat err %v", err)
	}
	if frames, err := testsupport.ReadMediaFrames(j.Output); err != nil || frames != 7200 {
		t.Fatalf("published output frames=%d err=%v", frames, err)
	}
	if err := Verify(j); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestValidateRejectsOffByOne(t *testing.T) {
	for _, joined := range []int64{7199, 7201} {
		tool := testsupport.NewFakeTool()
		j := joinedJob(t, tool, joined)
		v := NewValidator(testsupport.NewConfig(t), tool, nil)

		out, err := v.Run(context.Background(), j)
		if !errors.Is(err, services.ErrValidationMismatch) {
			t.Fatalf("joined=%d: expected ErrValidationMismatch, got %v", joined, err)
		}
		if out.JoinedFrames != joined || out.Published != "" {
			t.Fatalf("unexpected outcome %+v", out)
		}
		if _, err := os.Stat(j.Output); !os.IsNotExist(err) {
			t.Fatalf("mismatch must not publish, stat err %v", err)
		}
		if _, err := os.Stat(j.Layout.Joined); err != nil {
			t.Fatalf("joined file should stay in the workdir: %v", err)
		}
	}
}

func TestValidateCountFailure(t *testing.T) {
	tool := testsupport.NewFakeTool()
	j := joinedJob(t, tool, 7200)
	tool.Fail = func(c ffmpeg.Command) error {
		if testsupport.FlagValue(c.Args, "-i") == j.Layout.Joined {
			return errors.New("moov atom not found")
		}
		return nil
	}
	v := NewValidator(testsupport.NewConfig(t), tool, nil)

	if _, err := v.Validate(context.Background(), j); !errors.Is(err, services.ErrValidationMismatch) {
		t.Fatalf("expected ErrValidationMismatch, got %v", err)
	}
}

func TestVerifyWithoutPublishedOutput(t *testing.T) {
	tool := testsupport.NewFakeTool()
	j := joinedJob(t, tool, 7200)
	if err := Verify(j); !errors.Is(err, services.ErrFilesystem) {
		t.Fatalf("expected ErrFilesystem, got %v", err)
	}
}

func TestRunCountsPublishedOutputWhenJoinedIsGone(t *testing.T) {
	tool := testsupport.NewFakeTool()
	j := joinedJob(t, tool, 7200)
	if err := Publish(j); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !AlreadyPublished(j) {
		t.Fatal("expected the job to count as published")
	}
	v := NewValidator(testsupport.NewConfig(t), tool, nil)

	out, err := v.Run(context.Background(), j)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.JoinedFrames != 7200 || out.Published != j.Output {
		t.Fatalf("unexpected outcome %+v", out)
	}
	calls := tool.Calls()
	if got := testsupport.FlagValue(calls[len(calls)-1].Args, "-i"); got != j.Output {
		t.Fatalf("counted %q, want the published output", got)
	}
}

func TestAlreadyPublishedNeedsOutputAndNoJoined(t *testing.T) {
	tool := testsupport.NewFakeTool()
	j := joinedJob(t, tool, 7200)
	if AlreadyPublished(j) {
		t.Fatal("joined file still in the workdir")
	}
	if err := os.Remove(j.Layout.Joined); err != nil {
		t.Fatal(err)
	}
	if AlreadyPublished(j) {
		t.Fatal("nothing was published")
	}
}
