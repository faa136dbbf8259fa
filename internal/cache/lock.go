package cache

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("another run holds the cache lock")

// RunLock guards a cache file against overlapping runs.
type RunLock struct {
	fl *flock.Flock
}

// LockRun takes the exclusive run lock next to the cache file without
// waiting. It returns ErrLocked when another process holds it.
func LockRun(cachePath string) (*RunLock, error) {
	fl := flock.New(cachePath + ".lock")

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock cache (path = %s): %w", fl.Path(), err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return &RunLock{fl: fl}, nil
}

func (l *RunLock) Unlock() error {
	return l.fl.Unlock()
}
