package database

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrStoreInUse is returned when a rebuild is attempted while a server holds
// the store's serve lock.
var ErrStoreInUse = errors.New("lookup store is in use by a running server")

// ServeLock marks a store as being served. Rebuilds refuse to run while it exists.
type ServeLock struct {
	path string
}

// AcquireServeLock creates the lock file at path, failing with ErrStoreInUse
// if another process already holds it.
func AcquireServeLock(path string) (*ServeLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w (lock file %s)", ErrStoreInUse, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create serve lock %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write serve lock %s: %w", path, err)
	}
	return &ServeLock{path: path}, nil
}

// Release removes the lock file.
func (l *ServeLock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove serve lock %s: %w", l.path, err)
	}
	return nil
}

// EnsureNotServing fails with ErrStoreInUse when a serve lock exists at path.
// A lock left behind by a crashed server must be removed by hand.
func EnsureNotServing(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w (lock file %s)", ErrStoreInUse, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check serve lock %s: %w", path, err)
	}
	return nil
}
