package workflow

import (
	"log/slog"

	"chunkenc/internal/config"
	"chunkenc/internal/encoding"
	"chunkenc/internal/logging"
	"chunkenc/internal/media/ffmpeg"
	"chunkenc/internal/media/mediainfo"
	"chunkenc/internal/remux"
	"chunkenc/internal/segment"
	"chunkenc/internal/validation"
)

// Manager runs jobs. It holds no per-job state and may run several jobs in
// sequence; concurrent runs over the same input are refused by the workdir
// lock.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	prober    *mediainfo.Prober
	splitter  *segment.Splitter
	pool      *encoding.Pool
	remuxer   *remux.Remuxer
	validator *validation.Validator
}

// NewManager wires every stage to runner using the settings in cfg.
func NewManager(cfg *config.Config, runner ffmpeg.Runner, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
		prober: &mediainfo.Prober{Runner: runner, Binary: cfg.Tools.FFprobe, Logger: logger},
		splitter: &segment.Splitter{
			Runner: runner,
			FFmpeg: cfg.Tools.FFmpeg,
			Logger: logger,
		},
		pool: &encoding.Pool{
			Encoder: &encoding.Encoder{
				Runner:   runner,
				FFmpeg:   cfg.Tools.FFmpeg,
				Settings: encoding.SettingsFromConfig(cfg),
				Logger:   logger,
			},
			Concurrency: cfg.Encoding.Concurrency,
			Logger:      logger,
		},
		remuxer:   remux.NewRemuxer(cfg, runner, logger),
		validator: validation.NewValidator(cfg, runner, logger),
	}
}
