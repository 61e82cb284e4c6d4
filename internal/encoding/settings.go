package encoding

import (
	"fmt"

	"chunkenc/internal/config"
	"chunkenc/internal/media/ffmpeg"
)

const (
	tierLowRes  = "low_res"
	tierHighRes = "high_res"
)

// Settings holds the encoder parameters fixed for a job.
type Settings struct {
	Video ffmpeg.VideoParams

	AnalysisSpeed        int
	SpeedLowRes          int
	SpeedHighRes         int
	LowResPixelThreshold int
}

// SettingsFromConfig copies the encoder section of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	e := cfg.Encoding
	return Settings{
		Video: ffmpeg.VideoParams{
			Codec:              e.VideoCodec,
			CRF:                e.CRF,
			PixelFormat:        e.PixelFormat,
			ColorRange:         e.ColorRange,
			Profile:            e.Profile,
			KeyframeInterval:   e.KeyframeInterval,
			CPUUsed:            e.CPUUsed,
			Threads:            e.Threads,
			TileColumns:        e.TileColumns,
			FrameParallel:      e.FrameParallel,
			AutoAltRef:         e.AutoAltRef,
			LagInFrames:        e.LagInFrames,
			MaxMuxingQueueSize: e.MaxMuxingQueueSize,
		},
		AnalysisSpeed:        e.AnalysisSpeed,
		SpeedLowRes:          e.SpeedLowRes,
		SpeedHighRes:         e.SpeedHighRes,
		LowResPixelThreshold: e.LowResPixelThreshold,
	}
}

// SpeedChoice is the result of the two-tier speed rule.
type SpeedChoice struct {
	Speed  int
	Tier   string
	Reason string
}

// SelectSpeed picks the final pass speed from the source pixel count.
// Sources under the threshold are cheaper to encode and get the slower,
// higher quality preset.
func (s Settings) SelectSpeed(pixels int) SpeedChoice {
	if pixels < s.LowResPixelThreshold {
		return SpeedChoice{
			Speed:  s.SpeedLowRes,
			Tier:   tierLowRes,
			Reason: fmt.Sprintf("%d pixels below threshold %d", pixels, s.LowResPixelThreshold),
		}
	}
	return SpeedChoice{
		Speed:  s.SpeedHighRes,
		Tier:   tierHighRes,
		Reason: fmt.Sprintf("%d pixels at or above threshold %d", pixels, s.LowResPixelThreshold),
	}
}
