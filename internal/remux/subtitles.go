package remux

import (
	"chunkenc/internal/media/ffmpeg"
	"chunkenc/internal/media/mediainfo"
)

// PlanSubtitles maps each source subtitle stream, in order, to the codec it
// is written with. codecFor returns "copy" for pass-through.
func PlanSubtitles(subtitles []mediainfo.Stream, codecFor func(string) string) []ffmpeg.SubtitleMap {
	if len(subtitles) == 0 {
		return nil
	}
	plan := make([]ffmpeg.SubtitleMap, 0, len(subtitles))
	for i, s := range subtitles {
		codec := "copy"
		if codecFor != nil {
			codec = codecFor(s.CodecName)
		}
		plan = append(plan, ffmpeg.SubtitleMap{Position: i, Codec: codec})
	}
	return plan
}
