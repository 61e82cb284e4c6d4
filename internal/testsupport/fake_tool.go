package testsupport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"chunkenc/internal/media/ffmpeg"
	"chunkenc/internal/media/ffprobe"
)

// FakeMedia describes a source file the fake tools understand.
type FakeMedia struct {
	Duration  float64
	Width     int
	Height    int
	FrameRate string // num/den, default 24/1
	// Frames defaults to round(Duration * FrameRate).
	Frames    int64
	Audio     []string
	Subtitles []string
}

// FakeTool is an in-memory ffmpeg/ffprobe implementing ffmpeg.Runner. Media
// files it produces are small text files recording a frame count, so every
// step of the pipeline can be exercised without real binaries.
type FakeTool struct {
	mu    sync.Mutex
	media map[string]FakeMedia
	calls []ffmpeg.Command

	// Fail is consulted before every invocation; a non-nil error makes the
	// call exit with status 1.
	Fail func(cmd ffmpeg.Command) error
	// JoinFrameDelta is added to the frame total written by concat.
	JoinFrameDelta int64
}

// NewFakeTool returns an empty fake.
func NewFakeTool() *FakeTool {
	return &FakeTool{media: make(map[string]FakeMedia)}
}

// AddSource writes a placeholder source at path and registers its
// properties for ffprobe.
func (f *FakeTool) AddSource(t testing.TB, path string, m FakeMedia) {
	t.Helper()
	if m.FrameRate == "" {
		m.FrameRate = "24/1"
	}
	if m.Width == 0 {
		m.Width, m.Height = 1920, 1080
	}
	if m.Frames == 0 {
		m.Frames = int64(math.Round(m.Duration * rateOf(m.FrameRate)))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := WriteMediaFile(path, m.Frames); err != nil {
		t.Fatalf("write source %s: %v", path, err)
	}
	f.mu.Lock()
	f.media[path] = m
	f.mu.Unlock()
}

// Calls returns a copy of every recorded invocation.
func (f *FakeTool) Calls() []ffmpeg.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CountCalls counts recorded invocations matching pred.
func (f *FakeTool) CountCalls(pred func(ffmpeg.Command) bool) int {
	n := 0
	for _, c := range f.Calls() {
		if pred(c) {
			n++
		}
	}
	return n
}

// EncodeCalls counts encode passes whose input is the segment named id.
func (f *FakeTool) EncodeCalls(id string) int {
	return f.CountCalls(func(c ffmpeg.Command) bool {
		return FlagValue(c.Args, "-pass") != "" && filepath.Base(FlagValue(c.Args, "-i")) == id
	})
}

// PassCalls counts every encode pass invocation.
func (f *FakeTool) PassCalls() int {
	return f.CountCalls(func(c ffmpeg.Command) bool { return FlagValue(c.Args, "-pass") != "" })
}

// IsPass reports whether cmd is an encode pass (1 or 2).
func IsPass(cmd ffmpeg.Command, pass int) bool {
	return FlagValue(cmd.Args, "-pass") == strconv.Itoa(pass)
}

// Run implements ffmpeg.Runner.
func (f *FakeTool) Run(ctx context.Context, cmd ffmpeg.Command) (ffmpeg.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ffmpeg.Command{Binary: cmd.Binary, Args: slices.Clone(cmd.Args), Dir: cmd.Dir})
	fail := f.Fail
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ffmpeg.Result{ExitCode: -1}, err
	}
	if fail != nil {
		if err := fail(cmd); err != nil {
			return exitWith(cmd, err.Error())
		}
	}

	args := cmd.Args
	var (
		res ffmpeg.Result
		err error
	)
	switch {
	case strings.Contains(filepath.Base(cmd.Binary), "ffprobe"):
		res, err = f.probe(args)
	case FlagValue(args, "-f") == "segment":
		err = f.split(args)
	case FlagValue(args, "-pass") == "1":
		err = pass1(args)
	case FlagValue(args, "-pass") == "2":
		err = pass2(args)
	case FlagValue(args, "-f") == "concat":
		err = f.concat(args)
	case len(args) > 0 && args[len(args)-1] == "-" && slices.Contains(args, "null"):
		res, err = count(args)
	default:
		err = fmt.Errorf("unsupported invocation: %s", cmd.String())
	}
	if err != nil {
		return exitWith(cmd, err.Error())
	}
	return res, nil
}

func exitWith(cmd ffmpeg.Command, msg string) (ffmpeg.Result, error) {
	res := ffmpeg.Result{ExitCode: 1, Stderr: []byte(msg + "\n")}
	return res, &ffmpeg.ExitError{Binary: cmd.Binary, Code: 1, Stderr: msg}
}

func (f *FakeTool) lookup(path string) (FakeMedia, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.media[path]
	return m, ok
}

func (f *FakeTool) probe(args []string) (ffmpeg.Result, error) {
	path := args[len(args)-1]
	m, ok := f.lookup(path)
	if !ok {
		return ffmpeg.Result{}, fmt.Errorf("%s: No such file or directory", path)
	}
	out := ffprobe.Result{Format: ffprobe.Format{
		Filename: path,
		Duration: strconv.FormatFloat(m.Duration, 'f', 3, 64),
		Tags:     map[string]string{"title": filepath.Base(path)},
	}}
	out.Streams = append(out.Streams, ffprobe.Stream{
		Index:        0,
		CodecType:    "video",
		CodecName:    "h264",
		Width:        m.Width,
		Height:       m.Height,
		AvgFrameRate: m.FrameRate,
		NBFrames:     strconv.FormatInt(m.Frames, 10),
	})
	for _, codec := range m.Audio {
		out.Streams = append(out.Streams, ffprobe.Stream{Index: len(out.Streams), CodecType: "audio", CodecName: codec})
	}
	for _, codec := range m.Subtitles {
		out.Streams = append(out.Streams, ffprobe.Stream{Index: len(out.Streams), CodecType: "subtitle", CodecName: codec})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return ffmpeg.Result{}, err
	}
	return ffmpeg.Result{Stdout: data}, nil
}

func (f *FakeTool) split(args []string) error {
	input := FlagValue(args, "-i")
	m, ok := f.lookup(input)
	if !ok {
		return fmt.Errorf("%s: No such file or directory", input)
	}
	seconds, err := strconv.Atoi(FlagValue(args, "-segment_time"))
	if err != nil || seconds <= 0 {
		return fmt.Errorf("invalid -segment_time")
	}
	pattern := args[len(args)-1]
	n := int(math.Ceil(m.Duration / float64(seconds)))
	per := int64(math.Round(float64(seconds) * rateOf(m.FrameRate)))
	remaining := m.Frames
	for i := range n {
		frames := per
		if i == n-1 || frames > remaining {
			frames = remaining
		}
		remaining -= frames
		if err := WriteMediaFile(fmt.Sprintf(pattern, i), frames); err != nil {
			return err
		}
	}
	return nil
}

func pass1(args []string) error {
	if _, err := ReadMediaFrames(FlagValue(args, "-i")); err != nil {
		return err
	}
	if args[len(args)-1] != ffmpeg.NullOutput {
		return fmt.Errorf("pass 1 must write to %s", ffmpeg.NullOutput)
	}
	return os.WriteFile(FlagValue(args, "-passlogfile")+"-0.log", []byte("stats\n"), 0o644)
}

func pass2(args []string) error {
	frames, err := ReadMediaFrames(FlagValue(args, "-i"))
	if err != nil {
		return err
	}
	if _, err := os.Stat(FlagValue(args, "-passlogfile") + "-0.log"); err != nil {
		return fmt.Errorf("missing first pass stats: %w", err)
	}
	return WriteMediaFile(args[len(args)-1], frames)
}

func (f *FakeTool) concat(args []string) error {
	inputs := flagValues(args, "-i")
	if len(inputs) != 2 {
		return fmt.Errorf("concat expects two inputs, got %d", len(inputs))
	}
	manifest, err := os.Open(inputs[0])
	if err != nil {
		return err
	}
	defer manifest.Close()
	if _, err := os.Stat(inputs[1]); err != nil {
		return err
	}

	var total int64
	scanner := bufio.NewScanner(manifest)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		path, ok := parseManifestLine(line)
		if !ok {
			return fmt.Errorf("bad manifest line %q", line)
		}
		frames, err := ReadMediaFrames(path)
		if err != nil {
			return err
		}
		total += frames
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	delta := f.JoinFrameDelta
	f.mu.Unlock()
	return WriteMediaFile(args[len(args)-1], total+delta)
}

func count(args []string) (ffmpeg.Result, error) {
	frames, err := ReadMediaFrames(FlagValue(args, "-i"))
	if err != nil {
		return ffmpeg.Result{}, err
	}
	var b strings.Builder
	b.WriteString("Input #0, matroska,webm\n")
	if frames > 1 {
		fmt.Fprintf(&b, "frame=%5d fps=0.0 q=-0.0 size=N/A time=N/A bitrate=N/A speed=N/A\r", frames/2)
	}
	fmt.Fprintf(&b, "frame=%5d fps=0.0 q=-0.0 Lsize=N/A time=N/A bitrate=N/A speed=N/A\n", frames)
	return ffmpeg.Result{Stderr: []byte(b.String())}, nil
}

func parseManifestLine(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "file '")
	if !ok || !strings.HasSuffix(rest, "'") {
		return "", false
	}
	return strings.ReplaceAll(strings.TrimSuffix(rest, "'"), `'\''`, "'"), true
}

// WriteMediaFile writes a fake media file holding frames frames.
func WriteMediaFile(path string, frames int64) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("fake-media frames=%d\n", frames)), 0o644)
}

// ReadMediaFrames reads the frame count from a fake media file.
func ReadMediaFrames(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	_, value, ok := strings.Cut(strings.TrimSpace(string(data)), "frames=")
	if !ok {
		return 0, fmt.Errorf("%s: invalid data found when processing input", path)
	}
	return strconv.ParseInt(value, 10, 64)
}

// FlagValue returns the argument following the first occurrence of flag.
func FlagValue(args []string, flag string) string {
	values := flagValues(args, flag)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func flagValues(args []string, flag string) []string {
	var out []string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			out = append(out, args[i+1])
		}
	}
	return out
}

func rateOf(rate string) float64 {
	r, err := ffprobe.ParseRational(rate)
	if err != nil {
		return 24
	}
	return r.Float64()
}
