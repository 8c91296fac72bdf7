package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/crackedoura/backend/internal/paths"
)

// ProbeFileName is the marker written by the writability probe.
const ProbeFileName = "write_test.tmp"

var probeContent = []byte("test")

// ProbeError reports a data directory that failed the writability probe.
type ProbeError struct {
	Dir     string
	Outcome paths.Outcome
	Err     error

	stack []byte
}

func newProbeError(res paths.Resolution, err error) *ProbeError {
	return &ProbeError{Dir: res.Dir, Outcome: res.Outcome, Err: err, stack: debug.Stack()}
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("data directory %q is not writable (%s): %v", e.Dir, e.Outcome, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// StackTrace returns the goroutine stack at the point the probe failed.
func (e *ProbeError) StackTrace() []byte { return e.stack }

// probeWritable creates, writes and removes a marker file in dir.
func probeWritable(dir string) error {
	if dir == "" {
		return errors.New("no data directory")
	}
	name := filepath.Join(dir, ProbeFileName)

	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create probe file: %w", err)
	}
	if _, err := f.Write(probeContent); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write probe file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close probe file: %w", err)
	}
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("remove probe file: %w", err)
	}
	return nil
}
