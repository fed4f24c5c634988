package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning is returned when the PID file names a live process
type ErrAlreadyRunning struct {
	PID  int
	Path string
}

func (e *ErrAlreadyRunning) Error() string {
	return fmt.Sprintf("another simulation is already running (PID %d, lock %s)", e.PID, e.Path)
}

// PIDFile keeps two simulations from sharing the same journal at once
type PIDFile struct {
	path string
}

// New creates a PID file manager for path
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the location of the PID file
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire writes the current PID, replacing a stale or unreadable file.
// It fails with *ErrAlreadyRunning when the recorded process is alive.
func (p *PIDFile) Acquire() error {
	pid, err := p.read()
	switch {
	case err == nil && pid != os.Getpid() && processAlive(pid):
		return &ErrAlreadyRunning{PID: pid, Path: p.path}
	case err != nil && !errors.Is(err, os.ErrNotExist):
		// Garbage in the file: treat it as stale
		_ = os.Remove(p.path)
	}

	data := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(p.path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Release removes the PID file; a missing file is not an error
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

func (p *PIDFile) read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed PID file %s: %w", p.path, err)
	}
	return pid, nil
}

// processAlive checks pid with signal 0
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
