package encoding

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"chunkenc/internal/fileutil"
	"chunkenc/internal/logging"
	"chunkenc/internal/media/ffmpeg"
	"chunkenc/internal/segment"
)

const passLogName = "passlog"

// Encoder runs the two-pass encode of a single segment.
type Encoder struct {
	Runner   ffmpeg.Runner
	FFmpeg   string
	Settings Settings
	Logger   *slog.Logger
}

// EncodeSegment encodes seg with the given final pass speed. The work happens
// in a fresh directory under scratchRoot which is removed on return; the
// result only appears at seg.EncodedPath once pass 2 has succeeded.
func (e *Encoder) EncodeSegment(ctx context.Context, seg segment.Segment, scratchRoot string, speed int) error {
	dir := filepath.Join(scratchRoot, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil && e.Logger != nil {
			e.Logger.Warn("scratch cleanup failed",
				logging.String(logging.FieldSegmentID, seg.ID),
				logging.String("dir", dir),
				logging.Error(rmErr),
			)
		}
	}()

	passLog := filepath.Join(dir, passLogName)
	scratchOut := filepath.Join(dir, seg.ID)

	first := ffmpeg.PassSpec{
		Pass:        1,
		Input:       seg.SourcePath,
		PassLogFile: passLog,
		Speed:       e.Settings.AnalysisSpeed,
		Video:       e.Settings.Video,
	}
	if err := e.run(ctx, dir, ffmpeg.PassArgs(first)); err != nil {
		return fmt.Errorf("pass 1: %w", err)
	}

	second := first
	second.Pass = 2
	second.Output = scratchOut
	second.Speed = speed
	if err := e.run(ctx, dir, ffmpeg.PassArgs(second)); err != nil {
		return fmt.Errorf("pass 2: %w", err)
	}

	if err := fileutil.NonEmptyFile(scratchOut); err != nil {
		return fmt.Errorf("pass 2 output: %w", err)
	}
	if err := fileutil.MoveFile(scratchOut, seg.EncodedPath); err != nil {
		return fmt.Errorf("move encoded segment: %w", err)
	}
	return nil
}

func (e *Encoder) run(ctx context.Context, dir string, args []string) error {
	cmd := ffmpeg.Command{Binary: e.FFmpeg, Args: args, Dir: dir}
	if e.Logger != nil {
		e.Logger.Debug("running encoder", logging.String("command", cmd.String()))
	}
	_, err := e.Runner.Run(ctx, cmd)
	return err
}
