package validation

import (
	"context"
	"fmt"
	"log/slog"

	"chunkenc/internal/config"
	"chunkenc/internal/fileutil"
	"chunkenc/internal/job"
	"chunkenc/internal/logging"
	"chunkenc/internal/media/ffmpeg"
	"chunkenc/internal/services"
)

const stageName = "validate"

// Outcome holds both frame counts of a successful validation.
type Outcome struct {
	SourceFrames int64
	JoinedFrames int64
	Published    string
}

// Validator compares frame counts and publishes the joined file.
type Validator struct {
	Counter *Counter
	Logger  *slog.Logger
}

// NewValidator builds a Validator from the tools and validation sections of
// cfg.
func NewValidator(cfg *config.Config, runner ffmpeg.Runner, logger *slog.Logger) *Validator {
	return &Validator{
		Counter: &Counter{
			Runner:     runner,
			FFmpeg:     cfg.Tools.FFmpeg,
			StreamCopy: cfg.Validation.StreamCopy,
			Logger:     logger,
		},
		Logger: logger,
	}
}

// Validate counts frames in the source and in the joined file. Any
// difference is ErrValidationMismatch.
func (v *Validator) Validate(ctx context.Context, j *job.Job) (Outcome, error) {
	return v.compare(ctx, j, j.Layout.Joined)
}

func (v *Validator) compare(ctx context.Context, j *job.Job, target string) (Outcome, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(v.Logger, "validator"))

	source, err := v.Counter.Count(ctx, j.Input)
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrValidationMismatch, stageName, "count source frames", j.Input, err)
	}
	joined, err := v.Counter.Count(ctx, target)
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrValidationMismatch, stageName, "count joined frames", target, err)
	}
	out := Outcome{SourceFrames: source, JoinedFrames: joined}
	if source != joined {
		logging.ErrorWithContext(logger, "frame count mismatch", "validation_mismatch",
			logging.Int64("source_frames", source),
			logging.Int64("joined_frames", joined),
			logging.String(logging.FieldErrorHint, "joined output kept in workdir for inspection"),
		)
		return out, services.Wrap(services.ErrValidationMismatch, stageName, "compare",
			fmt.Sprintf("source has %d frames, joined output has %d", source, joined), nil)
	}
	logger.Info("frame counts match", logging.Int64("frames", source))
	return out, nil
}

// Run validates and, on success, publishes the joined file to j.Output.
// When the joined file is gone but j.Output exists, an earlier run was
// stopped after publishing: the published file is counted instead and
// nothing is moved.
func (v *Validator) Run(ctx context.Context, j *job.Job) (Outcome, error) {
	if AlreadyPublished(j) {
		out, err := v.compare(ctx, j, j.Output)
		if err != nil {
			return out, err
		}
		out.Published = j.Output
		logging.WithContext(ctx, logging.NewComponentLogger(v.Logger, "validator")).Info("output already published",
			logging.String("output", j.Output),
		)
		return out, nil
	}
	out, err := v.Validate(ctx, j)
	if err != nil {
		return out, err
	}
	if err := Publish(j); err != nil {
		return out, err
	}
	out.Published = j.Output
	logging.WithContext(ctx, logging.NewComponentLogger(v.Logger, "validator")).Info("output published",
		logging.String("output", j.Output),
	)
	return out, nil
}

// Publish moves the joined file to j.Output, creating parent directories.
// A rename within one filesystem is atomic; across filesystems the file is
// copied beside the target first, so j.Output is never partially written.
func Publish(j *job.Job) error {
	if err := fileutil.MoveFile(j.Layout.Joined, j.Output); err != nil {
		return services.Wrap(services.ErrFilesystem, stageName, "publish", j.Output, err)
	}
	return nil
}

// AlreadyPublished reports whether the joined file has been moved to
// j.Output.
func AlreadyPublished(j *job.Job) bool {
	return fileutil.NonEmptyFile(j.Layout.Joined) != nil && fileutil.NonEmptyFile(j.Output) == nil
}

// Verify checks that a previously validated job left its published output.
func Verify(j *job.Job) error {
	if err := fileutil.NonEmptyFile(j.Output); err != nil {
		return services.Wrap(services.ErrFilesystem, stageName, "verify", "published output missing", err)
	}
	return nil
}
