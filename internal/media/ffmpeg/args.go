package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// SegmentPattern is the file name template used for split segments.
const SegmentPattern = "output%03d.mkv"

// NullOutput is where analysis passes write their discarded output.
const NullOutput = "/dev/null"

// VideoParams carries the encoder settings shared by both passes.
type VideoParams struct {
	Codec              string
	CRF                int
	PixelFormat        string
	ColorRange         int
	Profile            int
	KeyframeInterval   int
	CPUUsed            int
	Threads            int
	TileColumns        int
	FrameParallel      bool
	AutoAltRef         bool
	LagInFrames        int
	MaxMuxingQueueSize int
}

// PassSpec describes one pass of a two-pass encode.
type PassSpec struct {
	Pass        int // 1 or 2
	Input       string
	Output      string // ignored for pass 1
	PassLogFile string
	Speed       int
	Video       VideoParams
}

// AudioParams carries the remux audio transcode settings.
type AudioParams struct {
	Codec    string
	Bitrate  string
	Channels int
	VBR      bool
}

// SubtitleMap selects one subtitle stream of the source (by its position
// among subtitle streams) and the codec it is written with.
type SubtitleMap struct {
	Position int
	Codec    string
}

// ConcatSpec describes the remux of encoded segments with the source's audio,
// subtitles, and metadata.
type ConcatSpec struct {
	FrameRate string // exact num/den
	Manifest  string
	Source    string
	Output    string
	Audio     AudioParams
	Subtitles []SubtitleMap
}

func preamble() []string {
	return []string{"-hide_banner", "-nostdin", "-y"}
}

// SplitArgs stream-copies the first video stream of input into fixed-length
// segments named SegmentPattern under dir.
func SplitArgs(input, dir string, segmentSeconds int) []string {
	args := preamble()
	args = append(args,
		"-i", input,
		"-map", "0:v:0",
		"-c", "copy",
		"-f", "segment",
		"-segment_time", strconv.Itoa(segmentSeconds),
		"-reset_timestamps", "0",
		filepath.Join(dir, SegmentPattern),
	)
	return args
}

// PassArgs builds one encode pass. Pass 1 writes to NullOutput; pass 2 writes
// the real output. Both share the pass log file.
func PassArgs(spec PassSpec) []string {
	v := spec.Video
	args := preamble()
	args = append(args,
		"-i", spec.Input,
		"-map", "0:v:0",
		"-c:v", v.Codec,
		"-pass", strconv.Itoa(spec.Pass),
		"-passlogfile", spec.PassLogFile,
		"-b:v", "0",
		"-crf", strconv.Itoa(v.CRF),
		"-pix_fmt", v.PixelFormat,
		"-color_range", strconv.Itoa(v.ColorRange),
		"-profile:v", strconv.Itoa(v.Profile),
		"-g", strconv.Itoa(v.KeyframeInterval),
		"-cpu-used", strconv.Itoa(v.CPUUsed),
		"-threads", strconv.Itoa(v.Threads),
		"-speed", strconv.Itoa(spec.Speed),
		"-max_muxing_queue_size", strconv.Itoa(v.MaxMuxingQueueSize),
		"-tile-columns", strconv.Itoa(v.TileColumns),
		"-frame-parallel", boolFlag(v.FrameParallel),
		"-auto-alt-ref", boolFlag(v.AutoAltRef),
		"-lag-in-frames", strconv.Itoa(v.LagInFrames),
		"-f", "matroska",
	)
	if spec.Pass == 1 {
		return append(args, NullOutput)
	}
	return append(args, spec.Output)
}

// ConcatArgs joins the encoded segments listed in the manifest, takes audio,
// subtitles, and metadata from the source, and writes a Matroska file.
// Sources without audio are accepted.
func ConcatArgs(spec ConcatSpec) []string {
	args := preamble()
	args = append(args,
		"-r", spec.FrameRate,
		"-f", "concat",
		"-safe", "0",
		"-i", spec.Manifest,
		"-i", spec.Source,
		"-map_metadata", "1",
		"-map", "0:v",
		"-c:v", "copy",
		"-map", "1:a?",
		"-c:a", spec.Audio.Codec,
		"-b:a", spec.Audio.Bitrate,
		"-vbr", onOff(spec.Audio.VBR),
		"-ac", strconv.Itoa(spec.Audio.Channels),
	)
	for i, sub := range spec.Subtitles {
		args = append(args,
			"-map", fmt.Sprintf("1:s:%d", sub.Position),
			fmt.Sprintf("-c:s:%d", i), sub.Codec,
		)
	}
	args = append(args, "-f", "matroska", spec.Output)
	return args
}

// FrameCountArgs counts the frames of the first video stream. Decoding is
// the default; streamCopy counts packets without decoding.
func FrameCountArgs(path string, streamCopy bool) []string {
	args := []string{"-hide_banner", "-nostdin", "-i", path, "-map", "0:v:0"}
	if streamCopy {
		args = append(args, "-c", "copy")
	}
	return append(args, "-f", "null", "-")
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
