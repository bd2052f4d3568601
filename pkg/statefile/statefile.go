// Package statefile persists the display index for a module instance
// across restarts and guards against two agents of the same module and
// label running at once.
package statefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
)

// ErrLocked is returned when another agent already owns this
// module+label combination.
var ErrLocked = fmt.Errorf("statefile: another instance is already running")

// File is the on-disk state for one module instance: a persisted format
// index and an advisory lock. One File per module+label.
type File struct {
	path string
	lock *flock.Flock
}

// Open creates dir if needed, takes the instance lock, and returns the
// state handle. It fails with ErrLocked if another process holds the
// lock.
func Open(dir, module, label string) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("statefile: create %s: %w", dir, err)
	}

	base := "bar-pulse-" + module
	if label != "" {
		base += "-" + sanitize(label)
	}

	lock := flock.New(filepath.Join(dir, base+".lock"))
	held, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("statefile: lock: %w", err)
	}
	if !held {
		return nil, ErrLocked
	}

	return &File{
		path: filepath.Join(dir, base+".state"),
		lock: lock,
	}, nil
}

// Index returns the persisted format index, or 0 when none was saved or
// the file is unreadable. A stale or garbled statefile is never fatal.
func (f *File) Index() int {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// SetIndex persists the format index. The write is atomic so a reader
// never observes a partial file.
func (f *File) SetIndex(i int) error {
	content := strings.NewReader(strconv.Itoa(i) + "\n")
	if err := atomic.WriteFile(f.path, content); err != nil {
		return fmt.Errorf("statefile: write %s: %w", f.path, err)
	}
	return nil
}

// Close releases the instance lock.
func (f *File) Close() error {
	return f.lock.Unlock()
}

// sanitize maps a free-form label to a filename-safe token.
func sanitize(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, label)
}
