package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"chunkenc/internal/job"
	"chunkenc/internal/jobstate"
	"chunkenc/internal/logging"
	"chunkenc/internal/segment"
	"chunkenc/internal/services"
	"chunkenc/internal/stage"
	"chunkenc/internal/stageexec"
)

// Request names one input and where its encoded output goes.
type Request struct {
	Input  string
	Output string
}

// Report summarizes a finished or failed run.
type Report struct {
	JobID             string
	Workdir           string
	Input             string
	Output            string
	Stage             jobstate.Stage
	Resumed           bool
	ExpectedSegments  int
	CompletedSegments int
	Encoded           int
	Skipped           int
	SourceFrames      int64
	JoinedFrames      int64
	Published         string
	WorkdirRemoved    bool
	Elapsed           time.Duration
}

// JobFor returns the job id and workdir layout Run would use for input.
func (m *Manager) JobFor(input string) (string, job.Layout, error) {
	abs, err := filepath.Abs(strings.TrimSpace(input))
	if err != nil {
		return "", job.Layout{}, services.Wrap(services.ErrConfiguration, "setup", "resolve input", input, err)
	}
	id, err := job.ID(abs)
	if err != nil {
		return "", job.Layout{}, services.Wrap(services.ErrConfiguration, "setup", "job id", abs, err)
	}
	return id, job.NewLayout(m.cfg.Paths.ScratchRoot, id), nil
}

// Run takes req.Input through every stage not yet recorded in its
// progress record. On failure the record keeps the last completed stage and
// the returned Report says where the job stopped.
func (m *Manager) Run(ctx context.Context, req Request) (Report, error) {
	start := time.Now()
	report := Report{}

	if strings.TrimSpace(req.Input) == "" || strings.TrimSpace(req.Output) == "" {
		return report, services.Wrap(services.ErrConfiguration, "setup", "request", "input and output paths are required", nil)
	}
	input, err := filepath.Abs(req.Input)
	if err != nil {
		return report, services.Wrap(services.ErrConfiguration, "setup", "resolve input", req.Input, err)
	}
	output, err := filepath.Abs(req.Output)
	if err != nil {
		return report, services.Wrap(services.ErrConfiguration, "setup", "resolve output", req.Output, err)
	}
	if input == output {
		return report, services.Wrap(services.ErrConfiguration, "setup", "request", "output must differ from input", nil)
	}
	if info, err := os.Stat(input); err != nil {
		return report, services.Wrap(services.ErrFilesystem, "setup", "stat input", input, err)
	} else if !info.Mode().IsRegular() {
		return report, services.Wrap(services.ErrConfiguration, "setup", "request", input+" is not a regular file", nil)
	}

	id, layout, err := m.JobFor(input)
	if err != nil {
		return report, err
	}
	report.JobID, report.Workdir, report.Input, report.Output = id, layout.Root, input, output

	ctx = services.WithJobID(ctx, id)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, logging.NewComponentLogger(m.logger, "workflow"))

	if err := layout.Ensure(); err != nil {
		return report, err
	}
	lock, err := job.AcquireLock(layout.LockFile)
	if err != nil {
		return report, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release workdir lock failed", logging.Error(err))
		}
	}()

	info, err := m.prober.Probe(ctx, input)
	if err != nil {
		return report, err
	}
	tracker, resumed, err := jobstate.Open(jobstate.NewFileStore(layout.Root), id, input)
	if err != nil {
		return report, err
	}

	j := &job.Job{
		ID:               id,
		Input:            input,
		Output:           output,
		Layout:           layout,
		Info:             info,
		SegmentDuration:  m.cfg.Encoding.SegmentDuration,
		ExpectedSegments: segment.ExpectedCount(info.DurationSeconds, m.cfg.Encoding.SegmentDuration),
		Tracker:          tracker,
	}
	report.Resumed = resumed
	report.ExpectedSegments = j.ExpectedSegments

	startAttrs := []logging.Attr{
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("input", input),
		logging.String("output", output),
		logging.String("workdir", layout.Root),
		logging.String("recorded_stage", tracker.Stage().String()),
		logging.Int("expected_segments", j.ExpectedSegments),
		logging.Float64("duration_seconds", info.DurationSeconds),
	}
	if resumed {
		startAttrs = append(startAttrs, logging.Int("completed_segments", len(tracker.Completed())))
		logger.Info("resuming job", logging.Args(startAttrs...)...)
	} else {
		logger.Info("job started", logging.Args(startAttrs...)...)
	}

	p := &pipeline{m: m}
	runErr := m.runStages(ctx, p, j)

	report.Stage = tracker.Stage()
	report.CompletedSegments = len(tracker.Completed())
	report.Encoded = p.encode.Encoded
	report.Skipped = p.encode.Skipped
	report.SourceFrames = p.outcome.SourceFrames
	report.JoinedFrames = p.outcome.JoinedFrames
	report.Published = p.outcome.Published

	if runErr != nil {
		report.Elapsed = time.Since(start)
		return report, runErr
	}

	if m.cfg.Cleanup.RemoveWorkdirOnSuccess {
		if err := lock.Release(); err != nil {
			logger.Warn("release workdir lock failed", logging.Error(err))
		}
		if err := os.RemoveAll(layout.Root); err != nil {
			logging.WarnWithContext(logger, "workdir cleanup failed", "cleanup_failed",
				logging.String("workdir", layout.Root),
				logging.String(logging.FieldImpact, "scratch space is not reclaimed"),
				logging.String(logging.FieldErrorHint, "run chunkenc prune or remove the directory manually"),
				logging.Error(err),
			)
		} else {
			report.WorkdirRemoved = true
		}
	}

	report.Elapsed = time.Since(start)
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("output", report.Published),
		logging.Int64("frames", report.JoinedFrames),
		logging.Int("encoded_segments", report.Encoded),
		logging.Int("skipped_segments", report.Skipped),
		logging.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (m *Manager) runStages(ctx context.Context, p *pipeline, j *job.Job) error {
	for _, h := range p.handlers() {
		if err := ctx.Err(); err != nil {
			return &stageexec.StageError{Stage: stage.Name(h), Err: err}
		}
		opts := stageexec.Options{Logger: m.logger, Handler: h, Job: j}
		var err error
		if j.Tracker.Stage() >= h.Stage() {
			err = stageexec.Skip(ctx, opts)
		} else {
			err = stageexec.Run(ctx, opts)
		}
		if err != nil {
			return err
		}
	}
	if got := j.Tracker.Stage(); got != jobstate.StageValidate {
		return fmt.Errorf("pipeline ended at stage %s", got)
	}
	return nil
}

// HealthChecks reports the readiness of every stage.
func (m *Manager) HealthChecks(ctx context.Context) []stage.Health {
	p := &pipeline{m: m}
	handlers := p.handlers()
	out := make([]stage.Health, 0, len(handlers))
	for _, h := range handlers {
		out = append(out, h.HealthCheck(ctx))
	}
	return out
}
