//go:build windows

package chainkv

import (
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

type writerLock struct {
	file *os.File
}

func tryLockWriter(dir string) (*writerLock, error) {
	f, err := os.OpenFile(filepath.Join(dir, LockFileName), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, &lockError{"open writer lock", err}
	}
	var overlapped windows.Overlapped
	err = windows.LockFileEx(windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, &overlapped)
	if err != nil {
		f.Close()
		// ERROR_LOCK_VIOLATION means another process holds it
		if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
			return nil, ErrWriterLocked
		}
		return nil, &lockError{"try writer lock", err}
	}
	return &writerLock{file: f}, nil
}

func (l *writerLock) unlock() error {
	if l == nil || l.file == nil {
		return nil
	}
	var overlapped windows.Overlapped
	err := windows.UnlockFileEx(windows.Handle(l.file.Fd()), 0, 1, 0, &overlapped)
	l.file.Close()
	l.file = nil
	if err != nil {
		return &lockError{"release writer lock", err}
	}
	return nil
}

type lockError struct {
	op  string
	err error
}

func (e *lockError) Error() string {
	if e.err != nil {
		return "lock: " + e.op + ": " + e.err.Error()
	}
	return "lock: " + e.op
}

func (e *lockError) Unwrap() error {
	return e.err
}
