// SPDX-License-Identifier: MIT

package fsutil

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// FileLock is an advisory lock backed by an O_EXCL lock file next to the
// guarded resource. It coordinates concurrent runs of the CLI on one host;
// it is not a defense against hostile processes.
type FileLock struct {
	path string
}

// ErrLocked is returned when the lock is currently held by another process.
var ErrLocked = fmt.Errorf("resource is locked by another process")

// staleAfter is how old a lock file may be before it is considered abandoned
// (e.g. a crashed run) and broken.
const staleAfter = 4 * time.Hour

// AcquireLock takes the advisory lock at path (conventionally "<file>.lock").
func AcquireLock(path string) (*FileLock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
			if cerr := f.Close(); cerr != nil {
				_ = os.Remove(path)
				return nil, cerr
			}
			return &FileLock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		st, serr := os.Stat(path)
		if serr != nil || time.Since(st.ModTime()) < staleAfter {
			return nil, ErrLocked
		}
		// Stale lock from a crashed run; break it and retry once.
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			return nil, ErrLocked
		}
	}
	return nil, ErrLocked
}

// Release removes the lock file. Safe to call once.
func (l *FileLock) Release() error {
	if l == nil {
		return nil
	}
	return os.Remove(l.path)
}
