package remux

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"chunkenc/internal/config"
	"chunkenc/internal/fileutil"
	"chunkenc/internal/job"
	"chunkenc/internal/logging"
	"chunkenc/internal/media/ffmpeg"
	"chunkenc/internal/segment"
	"chunkenc/internal/services"
)

const stageName = "remux"

// Remuxer joins encoded segments with the source's other streams.
type Remuxer struct {
	Runner ffmpeg.Runner
	FFmpeg string
	Audio  ffmpeg.AudioParams
	// SubtitleCodec maps a source subtitle codec to its output codec.
	SubtitleCodec func(string) string
	Logger        *slog.Logger
}

// NewRemuxer builds a Remuxer from the audio and subtitle sections of cfg.
func NewRemuxer(cfg *config.Config, runner ffmpeg.Runner, logger *slog.Logger) *Remuxer {
	return &Remuxer{
		Runner: runner,
		FFmpeg: cfg.Tools.FFmpeg,
		Audio: ffmpeg.AudioParams{
			Codec:    cfg.Audio.Codec,
			Bitrate:  cfg.Audio.Bitrate,
			Channels: cfg.Audio.Channels,
			VBR:      cfg.Audio.VBR,
		},
		SubtitleCodec: cfg.SubtitleCodecFor,
		Logger:        logger,
	}
}

// Remux writes the concat manifest and produces j.Layout.Joined.
func (r *Remuxer) Remux(ctx context.Context, j *job.Job, segments []segment.Segment) error {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.Logger, "remuxer"))

	if err := os.Remove(j.Layout.Joined); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrFilesystem, stageName, "clear joined output", j.Layout.Joined, err)
	}
	if err := WriteManifest(j.Layout.Manifest, segments); err != nil {
		return services.Wrap(services.ErrFilesystem, stageName, "write manifest", j.Layout.Manifest, err)
	}

	subtitles := PlanSubtitles(j.Info.Subtitles, r.SubtitleCodec)
	for i, sub := range subtitles {
		attrs := append(logging.DecisionAttrs("subtitle_codec", sub.Codec, "source codec "+j.Info.Subtitles[i].CodecName),
			logging.Int("position", sub.Position),
		)
		logger.Debug("subtitle stream planned", logging.Args(attrs...)...)
	}

	spec := ffmpeg.ConcatSpec{
		FrameRate: j.Info.Video.FrameRate.String(),
		Manifest:  j.Layout.Manifest,
		Source:    j.Input,
		Output:    j.Layout.Joined,
		Audio:     r.Audio,
		Subtitles: subtitles,
	}
	cmd := ffmpeg.Command{Binary: r.FFmpeg, Args: ffmpeg.ConcatArgs(spec)}
	logger.Debug("running remux", logging.String("command", cmd.String()))
	if _, err := r.Runner.Run(ctx, cmd); err != nil {
		return services.Wrap(services.ErrRemux, stageName, "ffmpeg concat", j.Layout.Joined, err)
	}
	if err := fileutil.NonEmptyFile(j.Layout.Joined); err != nil {
		return services.Wrap(services.ErrRemux, stageName, "joined output", j.Layout.Joined, err)
	}

	logger.Info("segments joined",
		logging.Int("segments", len(segments)),
		logging.Int("audio_streams", len(j.Info.Audio)),
		logging.Int("subtitle_streams", len(subtitles)),
		logging.String("output", j.Layout.Joined),
	)
	return nil
}

// Verify checks that a previous remux left a readable joined file.
func Verify(j *job.Job) error {
	if err := fileutil.NonEmptyFile(j.Layout.Joined); err != nil {
		return services.Wrap(services.ErrRemux, stageName, "verify", "joined output missing", err)
	}
	return nil
}
