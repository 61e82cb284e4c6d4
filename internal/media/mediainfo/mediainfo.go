package mediainfo

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"chunkenc/internal/logging"
	"chunkenc/internal/media/ffmpeg"
	"chunkenc/internal/media/ffprobe"
	"chunkenc/internal/services"
)

// Stream is a non-video stream carried into the joined output.
type Stream struct {
	Index     int
	CodecType string
	CodecName string
	Language  string
}

// Video describes the primary video stream.
type Video struct {
	Index     int
	CodecName string
	Width     int
	Height    int
	FrameRate ffprobe.Rational
	// Frames is the container-reported frame count, 0 when unknown.
	Frames int64
}

// Pixels returns width*height.
func (v Video) Pixels() int {
	return v.Width * v.Height
}

// Info is the probe snapshot of a source file.
type Info struct {
	Path            string
	DurationSeconds float64
	Video           Video
	Audio           []Stream
	Subtitles       []Stream
	Tags            map[string]string
}

// Prober inspects media files with ffprobe.
type Prober struct {
	Runner ffmpeg.Runner
	Binary string
	Logger *slog.Logger
}

// Probe runs ffprobe once and summarizes the result. Tool failures and
// malformed output are reported as ErrProbe; a file without a video stream
// is ErrMissingStream.
func (p *Prober) Probe(ctx context.Context, path string) (*Info, error) {
	result, err := ffprobe.Inspect(ctx, p.Runner, p.Binary, path)
	if err != nil {
		return nil, services.Wrap(services.ErrProbe, "probe", "ffprobe", path, err)
	}
	info, err := FromResult(path, result)
	if err != nil {
		return nil, err
	}
	logging.NewComponentLogger(p.Logger, "prober").Debug("probed source",
		logging.String("path", path),
		logging.Float64("duration_seconds", info.DurationSeconds),
		logging.Int("width", info.Video.Width),
		logging.Int("height", info.Video.Height),
		logging.String("frame_rate", info.Video.FrameRate.String()),
		logging.Int("audio_streams", len(info.Audio)),
		logging.Int("subtitle_streams", len(info.Subtitles)),
	)
	return info, nil
}

// FromResult converts a parsed ffprobe result into Info.
func FromResult(path string, result ffprobe.Result) (*Info, error) {
	info := &Info{Path: path, Tags: result.Format.Tags}

	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return nil, services.Wrap(services.ErrProbe, "probe", "duration", "missing or invalid format duration "+strconv.Quote(result.Format.Duration), nil)
	}
	info.DurationSeconds = duration

	videoFound := false
	for _, s := range result.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if videoFound {
				continue
			}
			videoFound = true
			rate, err := frameRate(s)
			if err != nil {
				return nil, err
			}
			info.Video = Video{
				Index:     s.Index,
				CodecName: s.CodecName,
				Width:     s.Width,
				Height:    s.Height,
				FrameRate: rate,
				Frames:    s.FrameCount(),
			}
		case "audio", "subtitle":
			stream := Stream{
				Index:     s.Index,
				CodecType: strings.ToLower(s.CodecType),
				CodecName: s.CodecName,
				Language:  s.Language(),
			}
			if stream.CodecType == "audio" {
				info.Audio = append(info.Audio, stream)
			} else {
				info.Subtitles = append(info.Subtitles, stream)
			}
		}
	}
	if !videoFound {
		return nil, services.Wrap(services.ErrMissingStream, "probe", "streams", "no stream with codec_type video in "+path, nil)
	}
	return info, nil
}

// frameRate parses avg_frame_rate, falling back to r_frame_rate only when
// ffprobe reports the average as 0/0.
func frameRate(s ffprobe.Stream) (ffprobe.Rational, error) {
	raw := strings.TrimSpace(s.AvgFrameRate)
	if (raw == "0/0" || raw == "") && strings.TrimSpace(s.RFrameRate) != "" {
		raw = strings.TrimSpace(s.RFrameRate)
	}
	rate, err := ffprobe.ParseRational(raw)
	if err != nil {
		return ffprobe.Rational{}, services.Wrap(services.ErrProbe, "probe", "frame rate", "", err)
	}
	if rate.Num <= 0 {
		return ffprobe.Rational{}, services.Wrap(services.ErrProbe, "probe", "frame rate", "non-positive frame rate "+strconv.Quote(raw), nil)
	}
	return rate, nil
}
