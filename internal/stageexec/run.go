package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chunkenc/internal/job"
	"chunkenc/internal/logging"
	"chunkenc/internal/services"
	"chunkenc/internal/stage"
)

// StageError tags a failure with the stage it happened in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the failing stage name recorded in err, if any.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Options controls one stage execution.
type Options struct {
	Logger  *slog.Logger
	Handler stage.Handler
	Job     *job.Job
}

// Run executes a stage and advances the job's persisted stage on success.
// On failure the persisted stage is left untouched.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return errors.New("stage handler unavailable")
	}
	if opts.Job == nil || opts.Job.Tracker == nil {
		return errors.New("job with progress tracker is required")
	}
	name := stage.Name(opts.Handler)
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, opts.Logger)

	logger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("recorded_stage", opts.Job.Tracker.Stage().String()),
		logging.String("source_file", strings.TrimSpace(opts.Job.Input)),
	)
	start := time.Now()

	if err := opts.Handler.Execute(stageCtx, opts.Job); err != nil {
		return handleFailure(logger, name, err)
	}
	if err := opts.Job.Tracker.Advance(opts.Handler.Stage()); err != nil {
		return handleFailure(logger, name, services.Wrap(services.ErrFilesystem, name, "persist stage", "progress record", err))
	}

	logger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(start)),
	)
	return nil
}

// Skip re-checks the postcondition of a stage whose completion is already
// recorded. A failed check aborts the run.
func Skip(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return errors.New("stage handler unavailable")
	}
	name := stage.Name(opts.Handler)
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, opts.Logger)

	if err := opts.Handler.Verify(stageCtx, opts.Job); err != nil {
		return handleFailure(logger, name, err)
	}
	logger.Info(
		"stage already complete",
		logging.String(logging.FieldEventType, "stage_skipped"),
	)
	return nil
}

func handleFailure(logger *slog.Logger, name string, stageErr error) error {
	if errors.Is(stageErr, context.Canceled) {
		logger.Info("stage interrupted", logging.String(logging.FieldEventType, "stage_interrupted"))
		return &StageError{Stage: name, Err: stageErr}
	}
	details := services.Details(stageErr)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = fmt.Sprintf("%s failed", name)
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.Alert("stage_failure"),
		logging.String(logging.FieldErrorKind, details.Kind),
		logging.String("error_message", message),
		logging.Error(stageErr),
	}
	if len(details.FailedSegments) > 0 {
		attrs = append(attrs, logging.Any("failed_segments", details.FailedSegments))
	}
	logger.Error("stage failed", logging.Args(attrs...)...)
	return &StageError{Stage: name, Err: stageErr}
}
