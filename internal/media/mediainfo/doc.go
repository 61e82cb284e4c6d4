// Package mediainfo reduces a single ffprobe inspection to the immutable
// stream summary the encode pipeline works from: duration, the primary video
// stream with its exact frame rate, and the audio and subtitle streams in
// source order.
package mediainfo
