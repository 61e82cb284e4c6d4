package stageexec

import (
	"context"
	"errors"
	"testing"

	"chunkenc/internal/job"
	"chunkenc/internal/jobstate"
	"chunkenc/internal/services"
	"chunkenc/internal/stage"
)

type fakeHandler struct {
	stage     jobstate.Stage
	execErr   error
	verifyErr error
	executed  int
	verified  int
}

func (h *fakeHandler) Stage() jobstate.Stage { return h.stage }

func (h *fakeHandler) Execute(ctx context.Context, _ *job.Job) error {
	h.executed++
	if got, _ := services.StageFromContext(ctx); got != h.stage.String() {
		return errors.New("stage missing from context")
	}
	return h.execErr
}

func (h *fakeHandler) Verify(context.Context, *job.Job) error {
	h.verified++
	return h.verifyErr
}

func (h *fakeHandler) HealthCheck(context.Context) stage.Health { return stage.Healthy(h.stage) }

func newJob(t *testing.T) *job.Job {
	t.Helper()
	layout := job.NewLayout(t.TempDir(), "job")
	if err := layout.Ensure(); err != nil {
		t.Fatal(err)
	}
	tracker, _, err := jobstate.Open(jobstate.NewFileStore(layout.Root), "job", "/in.mkv")
	if err != nil {
		t.Fatal(err)
	}
	return &job.Job{ID: "job", Input: "/in.mkv", Layout: layout, Tracker: tracker}
}

func TestRunAdvancesStage(t *testing.T) {
	j := newJob(t)
	h := &fakeHandler{stage: jobstate.StageSplit}
	if err := Run(context.Background(), Options{Handler: h, Job: j}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if j.Tracker.Stage() != jobstate.StageSplit {
		t.Fatalf("stage = %s, want split", j.Tracker.Stage())
	}
	rec, ok, err := jobstate.NewFileStore(j.Layout.Root).Load()
	if err != nil || !ok {
		t.Fatalf("load record: ok=%v err=%v", ok, err)
	}
	if rec.LastStage != jobstate.StageSplit {
		t.Fatalf("persisted stage = %s, want split", rec.LastStage)
	}
}

func TestRunFailureKeepsRecordedStage(t *testing.T) {
	j := newJob(t)
	if err := j.Tracker.Advance(jobstate.StageSplit); err != nil {
		t.Fatal(err)
	}
	cause := services.Wrap(services.ErrRemux, "remux", "ffmpeg", "boom", nil)
	h := &fakeHandler{stage: jobstate.StageEncode, execErr: cause}

	err := Run(context.Background(), Options{Handler: h, Job: j})
	if !errors.Is(err, services.ErrRemux) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if StageOf(err) != "encode" {
		t.Fatalf("StageOf = %q", StageOf(err))
	}
	if j.Tracker.Stage() != jobstate.StageSplit {
		t.Fatalf("stage advanced on failure: %s", j.Tracker.Stage())
	}
}

func TestSkipRunsVerifyOnly(t *testing.T) {
	j := newJob(t)
	h := &fakeHandler{stage: jobstate.StageSplit}
	if err := Skip(context.Background(), Options{Handler: h, Job: j}); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if h.executed != 0 || h.verified != 1 {
		t.Fatalf("executed=%d verified=%d", h.executed, h.verified)
	}

	h.verifyErr = services.Wrap(services.ErrSegmentCount, "split", "verify", "missing", nil)
	err := Skip(context.Background(), Options{Handler: h, Job: j})
	if !errors.Is(err, services.ErrSegmentCount) || StageOf(err) != "split" {
		t.Fatalf("unexpected error %v", err)
	}
}
