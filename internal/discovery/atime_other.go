//go:build !linux

package discovery

import (
	"os"
	"time"
)

// accessTime falls back to the modification time where atime is not
// exposed uniformly.
func accessTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
