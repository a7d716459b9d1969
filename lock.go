//go:build unix

package chainkv

import (
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// writerLock is an advisory lock on LockFileName that keeps a second
// read-write Env off the same directory.
type writerLock struct {
	file *os.File
}

// tryLockWriter takes the writer lock without blocking. It returns
// ErrWriterLocked when another Env holds it.
func tryLockWriter(dir string) (*writerLock, error) {
	f, err := os.OpenFile(filepath.Join(dir, LockFileName), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, &lockError{"open writer lock", err}
	}
	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrWriterLocked
		}
		return nil, &lockError{"try writer lock", err}
	}
	return &writerLock{file: f}, nil
}

// unlock releases the lock. The file itself stays for the next writer.
func (l *writerLock) unlock() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
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
