// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties
//   - Format: container-level metadata (duration, size, bitrate, tags)
//   - Rational: exact num/den frame rates
//
// Primary entry point:
//   - Inspect: executes ffprobe through an ffmpeg.Runner and returns the
//     parsed Result
package ffprobe
