package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"chunkenc/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CHUNKENC_FFMPEG", "")
	t.Setenv("CHUNKENC_FFPROBE", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.ScratchRoot != "/tmp/chunk_encode" {
		t.Fatalf("unexpected scratch root: %q", cfg.Paths.ScratchRoot)
	}
	wantLedger := filepath.Join(tempHome, ".local", "share", "chunkenc", "ledger.db")
	if cfg.Paths.LedgerPath != wantLedger {
		t.Fatalf("unexpected ledger path: got %q want %q", cfg.Paths.LedgerPath, wantLedger)
	}
	if cfg.Encoding.Concurrency != 6 {
		t.Fatalf("expected concurrency 6, got %d", cfg.Encoding.Concurrency)
	}
	if cfg.Encoding.SegmentDuration != 120 {
		t.Fatalf("expected segment duration 120, got %d", cfg.Encoding.SegmentDuration)
	}
	if cfg.Encoding.Nice != 19 {
		t.Fatalf("expected nice 19, got %d", cfg.Encoding.Nice)
	}
	if cfg.Tools.FFmpeg != "ffmpeg" || cfg.Tools.FFprobe != "ffprobe" {
		t.Fatalf("unexpected tools: %+v", cfg.Tools)
	}
	if got := cfg.SubtitleCodecFor("mov_text"); got != "srt" {
		t.Fatalf("expected mov_text to convert to srt, got %q", got)
	}
	if got := cfg.SubtitleCodecFor("subrip"); got != "copy" {
		t.Fatalf("expected subrip to be copied, got %q", got)
	}
	if cfg.Validation.StreamCopy {
		t.Fatal("expected decoding frame count by default")
	}
	if cfg.Cleanup.RemoveWorkdirOnSuccess {
		t.Fatal("expected workdir retention by default")
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CHUNKENC_FFMPEG", "")
	t.Setenv("CHUNKENC_FFPROBE", "")

	configPath := filepath.Join(tempHome, "config.toml")
	payload := struct {
		Paths struct {
			ScratchRoot string `toml:"scratch_root"`
		} `toml:"paths"`
		Encoding struct {
			Concurrency     int `toml:"concurrency"`
			SegmentDuration int `toml:"segment_duration"`
		} `toml:"encoding"`
		Batch struct {
			Extensions []string `toml:"extensions"`
		} `toml:"batch"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}{}
	payload.Paths.ScratchRoot = "~/scratch"
	payload.Encoding.Concurrency = 2
	payload.Encoding.SegmentDuration = 30
	payload.Batch.Extensions = []string{"MP4", ".mkv", "mp4"}
	payload.Logging.Format = "JSON"

	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Paths.ScratchRoot != filepath.Join(tempHome, "scratch") {
		t.Fatalf("unexpected scratch root: %q", cfg.Paths.ScratchRoot)
	}
	if cfg.Encoding.Concurrency != 2 || cfg.Encoding.SegmentDuration != 30 {
		t.Fatalf("unexpected encoding: %+v", cfg.Encoding)
	}
	if cfg.Encoding.CRF != 26 {
		t.Fatalf("expected untouched crf default, got %d", cfg.Encoding.CRF)
	}
	if strings.Join(cfg.Batch.Extensions, ",") != ".mp4,.mkv" {
		t.Fatalf("unexpected extensions: %v", cfg.Batch.Extensions)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadHonorsToolEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHUNKENC_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("CHUNKENC_FFPROBE", "/opt/ffmpeg/bin/ffprobe")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Tools.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected ffmpeg: %q", cfg.Tools.FFmpeg)
	}
	if cfg.Tools.FFprobe != "/opt/ffmpeg/bin/ffprobe" {
		t.Fatalf("unexpected ffprobe: %q", cfg.Tools.FFprobe)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero concurrency", func(c *config.Config) { c.Encoding.Concurrency = 0 }, "encoding.concurrency"},
		{"negative segment duration", func(c *config.Config) { c.Encoding.SegmentDuration = -5 }, "encoding.segment_duration"},
		{"nice out of range", func(c *config.Config) { c.Encoding.Nice = 30 }, "encoding.nice"},
		{"crf out of range", func(c *config.Config) { c.Encoding.CRF = 70 }, "encoding.crf"},
		{"speed out of range", func(c *config.Config) { c.Encoding.SpeedHighRes = 9 }, "encoding.speed_high_res"},
		{"no extensions", func(c *config.Config) { c.Batch.Extensions = nil }, "batch.extensions"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleLoadsCleanly(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHUNKENC_FFMPEG", "")
	t.Setenv("CHUNKENC_FFPROBE", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	defaults := config.Default()
	if cfg.Encoding.CRF != defaults.Encoding.CRF || cfg.Audio.Bitrate != defaults.Audio.Bitrate {
		t.Fatalf("sample drifted from defaults: %+v %+v", cfg.Encoding, cfg.Audio)
	}
}
