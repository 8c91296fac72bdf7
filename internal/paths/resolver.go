package paths

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName is the directory name used under the platform data area.
	AppName = "CrackedOura"
	// FallbackDirName is created directly under the home directory when the
	// platform directory is unavailable.
	FallbackDirName = ".cracked_oura"

	dirPerm = 0o755
)

var (
	// ErrNoHome is returned when the user's home directory cannot be determined.
	ErrNoHome = errors.New("home directory not available")
	// ErrNoAppData is returned on windows when APPDATA is unset.
	ErrNoAppData = errors.New("APPDATA is not set")
	// ErrNotDirectory is returned when the target exists but is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// Outcome tags how a Resolution was produced.
type Outcome int

const (
	// Resolved means the platform directory exists and was returned.
	Resolved Outcome = iota
	// ResolvedWithFallback means the home-directory fallback exists and was returned.
	ResolvedWithFallback
	// Unresolved means neither tier could be created.
	Unresolved
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case ResolvedWithFallback:
		return "resolved_with_fallback"
	case Unresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Resolution is the result of Resolve.
type Resolution struct {
	Dir     string  // Directory to use; best-effort when Unresolved
	Outcome Outcome // Which tier produced Dir
	Primary string  // Platform candidate that was attempted, may be empty
	Err     error   // Primary failure for fallbacks, final failure when Unresolved
}

// Usable reports whether Dir is known to exist.
func (r Resolution) Usable() bool {
	return r.Outcome != Unresolved && r.Dir != ""
}

// Resolver computes the application data directory. The function fields
// default to the os package and exist so tests can simulate platforms and
// filesystem failures.
type Resolver struct {
	GOOS        string
	Getenv      func(string) string
	UserHomeDir func() (string, error)
	Stat        func(string) (os.FileInfo, error)
	MkdirAll    func(string, os.FileMode) error
	Logger      *slog.Logger
}

// NewResolver returns a Resolver bound to the host platform.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{
		GOOS:        runtime.GOOS,
		Getenv:      os.Getenv,
		UserHomeDir: os.UserHomeDir,
		Stat:        os.Stat,
		MkdirAll:    os.MkdirAll,
		Logger:      logger,
	}
}

// Resolve returns the application data directory, creating it if needed.
func (r *Resolver) Resolve() Resolution {
	home, homeErr := r.homeDir()

	primary, err := r.primaryDir(home, homeErr)
	if err == nil {
		if err = r.ensureDir(primary); err == nil {
			return Resolution{Dir: primary, Outcome: Resolved, Primary: primary}
		}
	}

	if homeErr != nil {
		if primary == "" {
			return Resolution{Outcome: Unresolved, Err: homeErr}
		}
		r.logger().Warn("failed to create user data dir, no fallback without a home directory",
			"path", primary, "error", err)
		return Resolution{Outcome: Unresolved, Primary: primary, Err: errors.Join(err, homeErr)}
	}

	fallback := filepath.Join(home, FallbackDirName)
	r.logger().Warn("failed to create user data dir, falling back",
		"path", primary, "fallback", fallback, "error", err)

	if ferr := r.ensureDir(fallback); ferr != nil {
		return Resolution{Dir: fallback, Outcome: Unresolved, Primary: primary, Err: ferr}
	}
	return Resolution{Dir: fallback, Outcome: ResolvedWithFallback, Primary: primary, Err: err}
}

// PlatformDir returns the platform candidate without touching the filesystem.
func (r *Resolver) PlatformDir() (string, error) {
	home, homeErr := r.homeDir()
	return r.primaryDir(home, homeErr)
}

// DocumentsDir returns the user's Documents directory. On linux
// XDG_DOCUMENTS_DIR takes precedence when set.
func (r *Resolver) DocumentsDir() (string, error) {
	if r.goos() == "linux" {
		if dir := r.getenv("XDG_DOCUMENTS_DIR"); dir != "" {
			return dir, nil
		}
	}
	home, err := r.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Documents"), nil
}

func (r *Resolver) primaryDir(home string, homeErr error) (string, error) {
	switch r.goos() {
	case "windows":
		appData := r.getenv("APPDATA")
		if appData == "" {
			return "", ErrNoAppData
		}
		return filepath.Join(appData, AppName), nil
	case "darwin":
		if homeErr != nil {
			return "", homeErr
		}
		return filepath.Join(home, "Library", "Application Support", AppName), nil
	default:
		if homeErr != nil {
			return "", homeErr
		}
		return filepath.Join(home, ".local", "share", AppName), nil
	}
}

func (r *Resolver) ensureDir(dir string) error {
	stat := r.Stat
	if stat == nil {
		stat = os.Stat
	}
	if info, err := stat(dir); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}

	mkdirAll := r.MkdirAll
	if mkdirAll == nil {
		mkdirAll = os.MkdirAll
	}
	if err := mkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

func (r *Resolver) homeDir() (string, error) {
	userHomeDir := r.UserHomeDir
	if userHomeDir == nil {
		userHomeDir = os.UserHomeDir
	}
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoHome, err)
	}
	if home == "" {
		return "", ErrNoHome
	}
	return home, nil
}

func (r *Resolver) goos() string {
	if r.GOOS == "" {
		return runtime.GOOS
	}
	return r.GOOS
}

func (r *Resolver) getenv(key string) string {
	if r.Getenv == nil {
		return os.Getenv(key)
	}
	return r.Getenv(key)
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
