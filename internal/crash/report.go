// Package crash writes a human-readable crash report and terminates the
// process. It is used only for failures that must stop the process at boot.
//
// The report holds the error text followed by a goroutine stack. When the
// error carries the stack of the point where it was detected (a StackTrace
// method anywhere in its chain) that stack is used; otherwise the report
// falls back to the stack of the goroutine calling Fatal. The report time
// is appended after the trace.
package crash

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"
)

const (
	// FileName is the crash report written into the Documents directory.
	FileName = "cracked_oura_backend_crash.txt"
	// ExitCode is the process status used after a crash report.
	ExitCode = 1
)

// stackTracer is implemented by errors that record where they were detected.
type stackTracer interface {
	StackTrace() []byte
}

// Reporter writes crash reports. Exit and Stack default to os.Exit and
// debug.Stack; tests replace them.
type Reporter struct {
	// Dir returns the directory receiving the report.
	Dir    func() (string, error)
	Exit   func(code int)
	Stack  func() []byte
	Stderr io.Writer
	Logger *slog.Logger
	Now    func() time.Time
}

// NewReporter returns a Reporter that writes into the directory returned by dir.
func NewReporter(dir func() (string, error), logger *slog.Logger) *Reporter {
	return &Reporter{
		Dir:    dir,
		Exit:   os.Exit,
		Stack:  debug.Stack,
		Stderr: os.Stderr,
		Logger: logger,
		Now:    time.Now,
	}
}

// Fatal writes the report for err and exits with ExitCode. If Exit is
// replaced and returns, Fatal returns the path it wrote (empty when the
// report went to stderr instead).
func (r *Reporter) Fatal(err error) string {
	report := r.render(err)

	path, werr := r.write(report)
	if werr != nil {
		r.logger().Error("failed to write crash report", "error", werr)
		_, _ = io.WriteString(r.stderr(), report)
		path = ""
	} else {
		r.logger().Error("fatal startup failure", "error", err, "report", path)
	}

	exit := r.Exit
	if exit == nil {
		exit = os.Exit
	}
	exit(ExitCode)
	return path
}

func (r *Reporter) render(err error) string {
	var trace []byte
	var st stackTracer
	if errors.As(err, &st) {
		trace = st.StackTrace()
	}
	if len(trace) == 0 {
		stack := r.Stack
		if stack == nil {
			stack = debug.Stack
		}
		trace = stack()
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return fmt.Sprintf("Database Config CRASH: %v\n\n%s\ntime: %s\n",
		err, trace, now().UTC().Format(time.RFC3339))
}

func (r *Reporter) write(report string) (string, error) {
	if r.Dir == nil {
		return "", fmt.Errorf("no crash report directory configured")
	}
	dir, err := r.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve crash report directory: %w", err)
	}
	// Documents may not exist on minimal installs.
	_ = os.MkdirAll(dir, 0o755)

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}

func (r *Reporter) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

func (r *Reporter) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
