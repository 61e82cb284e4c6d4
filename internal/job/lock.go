package job

import (
	"errors"

	"github.com/gofrs/flock"

	"chunkenc/internal/services"
)

// ErrLocked reports that another process holds the job's lock.
var ErrLocked = errors.New("job is locked by another process")

// Lock is an exclusive advisory lock on a file.
type Lock struct {
	lock *flock.Flock
}

// AcquireLock takes the lock at path without blocking.
func AcquireLock(path string) (*Lock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "setup", "acquire lock", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrFilesystem, "setup", "acquire lock", path, ErrLocked)
	}
	return &Lock{lock: lock}, nil
}

// Release unlocks. Safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

// IsLocked reports whether some process currently holds the lock at path.
// It briefly takes the lock to find out.
func IsLocked(path string) (bool, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}
