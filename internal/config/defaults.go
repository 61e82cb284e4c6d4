package config

const (
	defaultScratchRoot          = "/tmp/chunk_encode"
	defaultLogDir               = "~/.local/share/chunkenc/logs"
	defaultLedgerPath           = "~/.local/share/chunkenc/ledger.db"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultConcurrency          = 6
	defaultSegmentDuration      = 120
	defaultNice                 = 19
	defaultVideoCodec           = "libvpx-vp9"
	defaultCRF                  = 26
	defaultPixelFormat          = "yuv420p10le"
	defaultColorRange           = 1
	defaultProfile              = 2
	defaultKeyframeInterval     = 240
	defaultCPUUsed              = 8
	defaultThreads              = 16
	defaultTileColumns          = 3
	defaultLagInFrames          = 16
	defaultMaxMuxingQueueSize   = 1024
	defaultAnalysisSpeed        = 4
	defaultSpeedLowRes          = 2
	defaultSpeedHighRes         = 3
	defaultLowResPixelThreshold = 3110400 // 1920*1080*1.5
	defaultAudioCodec           = "libopus"
	defaultAudioBitrate         = "160k"
	defaultAudioChannels        = 2
	defaultOutputExtension      = ".mkv"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchRoot: defaultScratchRoot,
			LogDir:      defaultLogDir,
			LedgerPath:  defaultLedgerPath,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Encoding: Encoding{
			Concurrency:          defaultConcurrency,
			SegmentDuration:      defaultSegmentDuration,
			Nice:                 defaultNice,
			VideoCodec:           defaultVideoCodec,
			CRF:                  defaultCRF,
			PixelFormat:          defaultPixelFormat,
			ColorRange:           defaultColorRange,
			Profile:              defaultProfile,
			KeyframeInterval:     defaultKeyframeInterval,
			CPUUsed:              defaultCPUUsed,
			Threads:              defaultThreads,
			TileColumns:          defaultTileColumns,
			FrameParallel:        true,
			AutoAltRef:           true,
			LagInFrames:          defaultLagInFrames,
			MaxMuxingQueueSize:   defaultMaxMuxingQueueSize,
			AnalysisSpeed:        defaultAnalysisSpeed,
			SpeedLowRes:          defaultSpeedLowRes,
			SpeedHighRes:         defaultSpeedHighRes,
			LowResPixelThreshold: defaultLowResPixelThreshold,
		},
		Audio: Audio{
			Codec:    defaultAudioCodec,
			Bitrate:  defaultAudioBitrate,
			Channels: defaultAudioChannels,
			VBR:      true,
		},
		Subtitles: Subtitles{
			Convert: map[string]string{"mov_text": "srt"},
		},
		Batch: Batch{
			Extensions:      []string{".mkv", ".mp4", ".flv", ".avi", ".m4v"},
			SkipDirs:        []string{"Plex Versions"},
			OutputExtension: defaultOutputExtension,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
