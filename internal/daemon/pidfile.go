package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned by PIDFile.Acquire when another process
// already holds the lock.
var ErrAlreadyRunning = fmt.Errorf("kestr: another daemon instance is already running")

// PIDFile enforces single-instance operation via an advisory file lock,
// adapted from internal/daemon/pidfile.go's PID-file concept but backed
// by github.com/gofrs/flock rather than a hand-rolled signal-0 liveness
// check, which cannot race two processes starting at the same instant.
type PIDFile struct {
	path string
	lock *flock.Flock
}

// NewPIDFile creates a PIDFile manager for the given path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path, lock: flock.New(path)}
}

// Acquire takes an exclusive, non-blocking lock and writes the current
// PID into the file. Returns ErrAlreadyRunning if another process holds
// the lock.
func (p *PIDFile) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("daemon: create pidfile directory: %w", err)
	}

	locked, err := p.lock.TryLock()
	if err != nil {
		return fmt.Errorf("daemon: lock pidfile: %w", err)
	}
	if !locked {
		return ErrAlreadyRunning
	}

	if err := os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		p.lock.Unlock()
		return fmt.Errorf("daemon: write pidfile: %w", err)
	}
	return nil
}

// Release unlocks and removes the pidfile.
func (p *PIDFile) Release() error {
	if err := p.lock.Unlock(); err != nil {
		return fmt.Errorf("daemon: unlock pidfile: %w", err)
	}
	return os.Remove(p.path)
}
