package rangedl

import (
	"os"

	"github.com/gofrs/flock"
)

// FileSink is the concrete os.File-backed Sink that NewFileSink produces. It
// holds an advisory OS file lock for its lifetime so two Downloaders (or a
// Downloader and some other tool) never write the same destination
// concurrently — the cross-process analogue of SinkWriter's in-process
// mutex.
type FileSink struct {
	file *os.File
	lock *flock.Flock
}

// NewFileSink opens (creating if necessary) the file at path for random
// access and takes an advisory lock on a sibling ".lock" file. It returns an
// error if the file cannot be opened or is already locked by another holder.
func NewFileSink(path string) (*FileSink, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, &os.PathError{Op: "lock", Path: path, Err: os.ErrExist}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return &FileSink{file: f, lock: lock}, nil
}

func (s *FileSink) Write(p []byte) (int, error) { return s.file.Write(p) }

func (s *FileSink) Seek(offset int64, whence int) (int64, error) {
	return s.file.Seek(offset, whence)
}

func (s *FileSink) Flush() error { return s.file.Sync() }

// Close releases the file and unlocks the sibling lock file. It does not
// call Flush first.
func (s *FileSink) Close() error {
	ferr := s.file.Close()
	lerr := s.lock.Unlock()
	if ferr != nil {
		return ferr
	}
	return lerr
}
