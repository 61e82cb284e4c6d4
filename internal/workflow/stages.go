package workflow

import (
	"context"
	"fmt"
	"os"

	"chunkenc/internal/encoding"
	"chunkenc/internal/job"
	"chunkenc/internal/jobstate"
	"chunkenc/internal/preflight"
	"chunkenc/internal/remux"
	"chunkenc/internal/segment"
	"chunkenc/internal/services"
	"chunkenc/internal/stage"
	"chunkenc/internal/validation"
)

// pipeline carries what one run's stages hand to each other.
type pipeline struct {
	m        *Manager
	segments []segment.Segment
	encode   encoding.Result
	outcome  validation.Outcome
}

func (p *pipeline) handlers() []stage.Handler {
	return []stage.Handler{
		splitStage{p},
		encodeStage{p},
		remuxStage{p},
		validateStage{p},
	}
}

func ffmpegHealth(s jobstate.Stage, binary string) stage.Health {
	status := preflight.CheckBinaries([]preflight.Requirement{{Name: "FFmpeg", Command: binary}})[0]
	if !status.Available {
		return stage.Unhealthy(s, status.Detail)
	}
	return stage.Healthy(s)
}

type splitStage struct{ p *pipeline }

func (s splitStage) Stage() jobstate.Stage { return jobstate.StageSplit }

// Execute redoes the split from scratch. Encoded output from an earlier
// split cannot be trusted to line up with the new segments, so it is
// discarded along with the completed set.
func (s splitStage) Execute(ctx context.Context, j *job.Job) error {
	if err := os.RemoveAll(j.Layout.Encoded); err != nil {
		return services.Wrap(services.ErrFilesystem, "split", "clear encoded segments", j.Layout.Encoded, err)
	}
	if err := os.MkdirAll(j.Layout.Encoded, 0o755); err != nil {
		return services.Wrap(services.ErrFilesystem, "split", "create encoded dir", j.Layout.Encoded, err)
	}
	j.Tracker.ResetSegments()
	j.Tracker.SetExpectedSegments(j.ExpectedSegments)

	segments, err := s.p.m.splitter.Split(ctx, j)
	if err != nil {
		return err
	}
	s.p.segments = segments
	return nil
}

func (s splitStage) Verify(_ context.Context, j *job.Job) error {
	segments, err := s.p.m.splitter.Load(j)
	if err != nil {
		return err
	}
	s.p.segments = segments
	return nil
}

func (s splitStage) HealthCheck(context.Context) stage.Health {
	return ffmpegHealth(s.Stage(), s.p.m.cfg.Tools.FFmpeg)
}

type encodeStage struct{ p *pipeline }

func (s encodeStage) Stage() jobstate.Stage { return jobstate.StageEncode }

func (s encodeStage) Execute(ctx context.Context, j *job.Job) error {
	res, err := s.p.m.pool.Run(ctx, j, s.p.segments)
	s.p.encode = res
	if err != nil {
		return err
	}
	return encoding.Verify(j, s.p.segments)
}

func (s encodeStage) Verify(_ context.Context, j *job.Job) error {
	if err := encoding.Verify(j, s.p.segments); err != nil {
		return err
	}
	s.p.encode = encoding.Result{Total: len(s.p.segments), Skipped: len(s.p.segments), Segments: s.p.segments}
	return nil
}

func (s encodeStage) HealthCheck(context.Context) stage.Health {
	health := ffmpegHealth(s.Stage(), s.p.m.cfg.Tools.FFmpeg)
	if health.Ready && s.p.m.cfg.Encoding.Concurrency < 1 {
		return stage.Unhealthy(s.Stage(), fmt.Sprintf("concurrency %d is below 1", s.p.m.cfg.Encoding.Concurrency))
	}
	return health
}

type remuxStage struct{ p *pipeline }

func (s remuxStage) Stage() jobstate.Stage { return jobstate.StageRemux }

func (s remuxStage) Execute(ctx context.Context, j *job.Job) error {
	return s.p.m.remuxer.Remux(ctx, j, s.p.segments)
}

// Verify accepts a missing joined file once validation has published it,
// including a publish whose stage advance was never recorded.
func (s remuxStage) Verify(_ context.Context, j *job.Job) error {
	if j.Tracker.Stage() >= jobstate.StageValidate || validation.AlreadyPublished(j) {
		return nil
	}
	return remux.Verify(j)
}

func (s remuxStage) HealthCheck(context.Context) stage.Health {
	return ffmpegHealth(s.Stage(), s.p.m.cfg.Tools.FFmpeg)
}

type validateStage struct{ p *pipeline }

func (s validateStage) Stage() jobstate.Stage { return jobstate.StageValidate }

func (s validateStage) Execute(ctx context.Context, j *job.Job) error {
	out, err := s.p.m.validator.Run(ctx, j)
	s.p.outcome = out
	return err
}

func (s validateStage) Verify(_ context.Context, j *job.Job) error {
	if err := validation.Verify(j); err != nil {
		return err
	}
	s.p.outcome.Published = j.Output
	return nil
}

func (s validateStage) HealthCheck(context.Context) stage.Health {
	return ffmpegHealth(s.Stage(), s.p.m.cfg.Tools.FFmpeg)
}
