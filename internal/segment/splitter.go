package segment

import (
	"context"
	"log/slog"
	"os"

	"chunkenc/internal/job"
	"chunkenc/internal/logging"
	"chunkenc/internal/media/ffmpeg"
	"chunkenc/internal/services"
)

// Splitter runs the stream-copy split.
type Splitter struct {
	Runner ffmpeg.Runner
	FFmpeg string
	Logger *slog.Logger
}

// Split clears any previous split output, cuts j.Input into
// j.SegmentDuration-second pieces, and verifies the count.
func (s *Splitter) Split(ctx context.Context, j *job.Job) ([]Segment, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "segmenter"))

	if err := os.RemoveAll(j.Layout.Chunks); err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "split", "clear chunks", j.Layout.Chunks, err)
	}
	if err := os.MkdirAll(j.Layout.Chunks, 0o755); err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "split", "create chunks", j.Layout.Chunks, err)
	}

	args := ffmpeg.SplitArgs(j.Input, j.Layout.Chunks, j.SegmentDuration)
	logger.Debug("splitting source", logging.String("command", ffmpeg.Command{Binary: s.FFmpeg, Args: args}.String()))
	if _, err := s.Runner.Run(ctx, ffmpeg.Command{Binary: s.FFmpeg, Args: args}); err != nil {
		return nil, services.Wrap(services.ErrSegmentCount, "split", "ffmpeg", "split did not complete", err)
	}

	segments, err := s.Load(j)
	if err != nil {
		return nil, err
	}
	logger.Info("source split",
		logging.Int("segments", len(segments)),
		logging.Int("segment_seconds", j.SegmentDuration),
	)
	return segments, nil
}

// Load lists the job's existing split output and verifies its count.
func (s *Splitter) Load(j *job.Job) ([]Segment, error) {
	segments, err := List(j.Layout.Chunks, j.Layout.Encoded)
	if err != nil {
		return nil, err
	}
	if err := VerifyCount(segments, j.ExpectedSegments); err != nil {
		return nil, err
	}
	return segments, nil
}
