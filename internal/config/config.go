package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains scratch, log, and ledger locations.
type Paths struct {
	ScratchRoot string `toml:"scratch_root"`
	LogDir      string `toml:"log_dir"`
	LedgerPath  string `toml:"ledger_path"`
}

// Tools names the external media binaries.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Encoding contains segmenting, worker pool, and two-pass encoder settings.
type Encoding struct {
	Concurrency     int `toml:"concurrency"`
	SegmentDuration int `toml:"segment_duration"`
	// Nice is applied to every child process (0 leaves priority untouched).
	Nice int `toml:"nice"`

	VideoCodec         string `toml:"video_codec"`
	CRF                int    `toml:"crf"`
	PixelFormat        string `toml:"pixel_format"`
	ColorRange         int    `toml:"color_range"`
	Profile            int    `toml:"profile"`
	KeyframeInterval   int    `toml:"keyframe_interval"`
	CPUUsed            int    `toml:"cpu_used"`
	Threads            int    `toml:"threads"`
	TileColumns        int    `toml:"tile_columns"`
	FrameParallel      bool   `toml:"frame_parallel"`
	AutoAltRef         bool   `toml:"auto_alt_ref"`
	LagInFrames        int    `toml:"lag_in_frames"`
	MaxMuxingQueueSize int    `toml:"max_muxing_queue_size"`

	// AnalysisSpeed is the speed used for the first (analysis) pass.
	AnalysisSpeed int `toml:"analysis_speed"`
	// SpeedLowRes applies when width*height is below LowResPixelThreshold.
	SpeedLowRes          int `toml:"speed_low_res"`
	SpeedHighRes         int `toml:"speed_high_res"`
	LowResPixelThreshold int `toml:"low_res_pixel_threshold"`
}

// Audio contains the remux audio transcode settings.
type Audio struct {
	Codec    string `toml:"codec"`
	Bitrate  string `toml:"bitrate"`
	Channels int    `toml:"channels"`
	VBR      bool   `toml:"vbr"`
}

// Subtitles maps source subtitle codecs to the codec used in the joined
// output. Codecs without an entry are stream copied.
type Subtitles struct {
	Convert map[string]string `toml:"convert"`
}

// Validation contains frame-count validation settings.
type Validation struct {
	// StreamCopy counts frames without decoding. Faster, but trusts the
	// container packet count.
	StreamCopy bool `toml:"stream_copy"`
}

// Batch contains directory scan settings for batch mode.
type Batch struct {
	Extensions      []string `toml:"extensions"`
	SkipDirs        []string `toml:"skip_dirs"`
	OutputExtension string   `toml:"output_extension"`
}

// Cleanup controls scratch directory retention.
type Cleanup struct {
	RemoveWorkdirOnSuccess bool `toml:"remove_workdir_on_success"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	ToFile bool   `toml:"to_file"`
}

// Config encapsulates all configuration values for chunkenc.
//
// Configuration sections by subsystem:
//   - Paths: scratch root, log directory, batch ledger
//   - Tools: ffmpeg and ffprobe binaries
//   - Encoding: segmenting, worker pool size, two-pass encoder parameters
//   - Audio: remux audio transcode
//   - Subtitles: subtitle codec conversion table
//   - Validation: frame counting mode
//   - Batch: directory scan rules
//   - Cleanup: scratch retention
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Tools      Tools      `toml:"tools"`
	Encoding   Encoding   `toml:"encoding"`
	Audio      Audio      `toml:"audio"`
	Subtitles  Subtitles  `toml:"subtitles"`
	Validation Validation `toml:"validation"`
	Batch      Batch      `toml:"batch"`
	Cleanup    Cleanup    `toml:"cleanup"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/chunkenc/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("chunkenc.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the scratch root and log directory. The ledger
// directory is created when batch mode opens it.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ScratchRoot}
	if c.Logging.ToFile {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SubtitleCodecFor returns the output codec for a source subtitle codec,
// or "copy" when no conversion is configured.
func (c *Config) SubtitleCodecFor(source string) string {
	if target, ok := c.Subtitles.Convert[strings.ToLower(strings.TrimSpace(source))]; ok {
		return target
	}
	return "copy"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
