package validation

import (
	"context"
	"fmt"
	"log/slog"

	"chunkenc/internal/logging"
	"chunkenc/internal/media/ffmpeg"
)

// Counter counts video frames by running ffmpeg to a null muxer.
type Counter struct {
	Runner ffmpeg.Runner
	FFmpeg string
	// StreamCopy counts packets instead of decoding.
	StreamCopy bool
	Logger     *slog.Logger
}

// Count returns the number of frames in the first video stream of path.
func (c *Counter) Count(ctx context.Context, path string) (int64, error) {
	cmd := ffmpeg.Command{Binary: c.FFmpeg, Args: ffmpeg.FrameCountArgs(path, c.StreamCopy)}
	logging.NewComponentLogger(c.Logger, "frame-counter").Debug("counting frames", logging.String("command", cmd.String()))
	res, err := c.Runner.Run(ctx, cmd)
	if err != nil {
		return 0, fmt.Errorf("count frames of %s: %w", path, err)
	}
	frames, err := ffmpeg.ParseFrameCount(res.Stderr)
	if err != nil {
		return 0, fmt.Errorf("count frames of %s: %w", path, err)
	}
	return frames, nil
}
