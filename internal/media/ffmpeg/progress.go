package ffmpeg

import (
	"errors"
	"regexp"
	"strconv"
)

var frameRe = regexp.MustCompile(`frame=\s*(\d+)`)

// ErrNoFrameCount is returned when the output holds no frame= progress line.
var ErrNoFrameCount = errors.New("no frame count in ffmpeg output")

// ParseFrameCount returns the frame total from the last frame= value in
// ffmpeg's progress output. Progress lines may be separated by either \r or
// \n.
func ParseFrameCount(output []byte) (int64, error) {
	lines := splitLines(string(output))
	for i := len(lines) - 1; i >= 0; i-- {
		matches := frameRe.FindAllStringSubmatch(lines[i], -1)
		if len(matches) == 0 {
			continue
		}
		last := matches[len(matches)-1][1]
		count, err := strconv.ParseInt(last, 10, 64)
		if err != nil {
			return 0, err
		}
		return count, nil
	}
	return 0, ErrNoFrameCount
}
