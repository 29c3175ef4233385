package cache

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
)

const (
	maxLockRetries = 50
	lockRetryDelay = 10 * time.Millisecond
)

// ErrLocked is returned when another process holds the cache lock for longer
// than the retry window.
var ErrLocked = errors.New("catalog cache is locked by another process")

// fileLock guards the cache with a sidecar lock file, so the lock survives
// the rename that replaces the cache file itself.
type fileLock struct {
	lockPath string
}

func newFileLock(path string) *fileLock {
	return &fileLock{lockPath: path + ".lock"}
}

// withLock runs fn while holding an exclusive lock.
func (f *fileLock) withLock(fn func() error) error {
	lock := flock.New(f.lockPath)
	if err := acquire(lock.TryLock); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

// withRLock runs fn while holding a shared lock.
func (f *fileLock) withRLock(fn func() error) error {
	lock := flock.New(f.lockPath)
	if err := acquire(lock.TryRLock); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

func acquire(try func() (bool, error)) error {
	for range maxLockRetries {
		locked, err := try()
		if err != nil {
			return errors.CombineErrors(ErrLocked, err)
		}
		if locked {
			return nil
		}
		time.Sleep(lockRetryDelay)
	}
	return ErrLocked
}
