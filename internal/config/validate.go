package config

import (
	"errors"
	"fmt"
	"slices"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if err := ensurePositiveMap(map[string]int{
		"encoding.concurrency":             c.Encoding.Concurrency,
		"encoding.segment_duration":        c.Encoding.SegmentDuration,
		"encoding.keyframe_interval":       c.Encoding.KeyframeInterval,
		"encoding.threads":                 c.Encoding.Threads,
		"encoding.max_muxing_queue_size":   c.Encoding.MaxMuxingQueueSize,
		"encoding.low_res_pixel_threshold": c.Encoding.LowResPixelThreshold,
	}); err != nil {
		return err
	}
	if c.Encoding.Nice < -20 || c.Encoding.Nice > 19 {
		return errors.New("encoding.nice must be between -20 and 19")
	}
	if c.Encoding.CRF < 0 || c.Encoding.CRF > 63 {
		return errors.New("encoding.crf must be between 0 and 63")
	}
	for key, speed := range map[string]int{
		"encoding.analysis_speed": c.Encoding.AnalysisSpeed,
		"encoding.speed_low_res":  c.Encoding.SpeedLowRes,
		"encoding.speed_high_res": c.Encoding.SpeedHighRes,
	} {
		if speed < 0 || speed > 8 {
			return fmt.Errorf("%s must be between 0 and 8", key)
		}
	}
	if c.Encoding.TileColumns < 0 || c.Encoding.TileColumns > 6 {
		return errors.New("encoding.tile_columns must be between 0 and 6")
	}
	if c.Encoding.LagInFrames < 0 || c.Encoding.LagInFrames > 25 {
		return errors.New("encoding.lag_in_frames must be between 0 and 25")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.Bitrate == "" {
		return errors.New("audio.bitrate must be set")
	}
	if c.Audio.Channels <= 0 {
		return errors.New("audio.channels must be positive")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if len(c.Batch.Extensions) == 0 {
		return errors.New("batch.extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains([]string{"console", "json"}, c.Logging.Format) {
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
