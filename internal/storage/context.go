package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/jmoiron/sqlx"

	"github.com/crackedoura/backend/internal/paths"
)

const (
	// DatabaseFileName is the SQLite file inside the data directory.
	DatabaseFileName = "oura_database.db"

	// DefaultMaxOpenConns bounds the pool shared by all sessions.
	DefaultMaxOpenConns = 4
)

// DirResolver produces the base directory for the database.
// *paths.Resolver implements it.
type DirResolver interface {
	Resolve() paths.Resolution
}

// FatalReporter terminates the process after recording err.
// *crash.Reporter implements it.
type FatalReporter interface {
	Fatal(err error) string
}

// Options configures Open.
type Options struct {
	Resolver     DirResolver  // Used when DataDir is empty
	DataDir      string       // Explicit directory, bypasses Resolver
	Schema       Schema       // Structures realized by InitSchema
	MaxOpenConns int          // Defaults to DefaultMaxOpenConns
	Logger       *slog.Logger // Defaults to slog.Default()
}

// Stats describes session usage of a Context.
type Stats struct {
	Open     int64 // Sessions acquired and not yet closed
	Acquired int64 // Sessions acquired since Open
	Released int64 // Sessions closed since Open
	DB       sql.DBStats
}

// Context owns the process-wide database handle. It is created once at
// process entry and passed to every component that needs storage.
// The handle is never replaced after Open returns.
type Context struct {
	resolution paths.Resolution
	dir        string
	path       string
	db         *sqlx.DB
	schema     Schema
	logger     *slog.Logger

	open     atomic.Int64
	acquired atomic.Int64
	released atomic.Int64
}

// Open resolves the data directory, verifies that it is writable and opens
// the database handle. A failed writability check is reported as *ProbeError.
func Open(opts Options) (*Context, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res, err := resolveDir(opts)
	if err != nil {
		return nil, err
	}
	if !res.Usable() {
		logger.Warn("data directory unresolved, probing best-effort path",
			"dir", res.Dir, "outcome", res.Outcome.String(), "error", res.Err)
	}

	if err := probeWritable(res.Dir); err != nil {
		return nil, newProbeError(res, err)
	}

	path := filepath.Join(res.Dir, DatabaseFileName)
	db, err := openDatabase(path, opts.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger.Info("storage ready",
		"path", path, "outcome", res.Outcome.String(), "driver", DriverName, "build", BuildMode)

	return &Context{
		resolution: res,
		dir:        res.Dir,
		path:       path,
		db:         db,
		schema:     opts.Schema,
		logger:     logger,
	}, nil
}

// Boot is Open for process entry points. A failed writability probe is
// handed to reporter, which is expected to terminate the process; Boot
// then returns the probe error without touching the database.
func Boot(opts Options, reporter FatalReporter) (*Context, error) {
	sc, err := Open(opts)
	if err == nil {
		return sc, nil
	}
	var probeErr *ProbeError
	if errors.As(err, &probeErr) && reporter != nil {
		reporter.Fatal(err)
	}
	return nil, err
}

func resolveDir(opts Options) (paths.Resolution, error) {
	if opts.DataDir != "" {
		dir, err := filepath.Abs(opts.DataDir)
		if err != nil {
			return paths.Resolution{}, fmt.Errorf("invalid data dir %q: %w", opts.DataDir, err)
		}
		// Creation errors surface through the probe.
		_ = os.MkdirAll(dir, 0o755)
		return paths.Resolution{Dir: dir, Outcome: paths.Resolved, Primary: dir}, nil
	}
	if opts.Resolver == nil {
		return paths.Resolution{}, errors.New("storage: no resolver or data dir configured")
	}
	return opts.Resolver.Resolve(), nil
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(path string, maxOpen int) (*sqlx.DB, error) {
	db, err := sqlx.Open(DriverName, dsn(path))
	if err != nil {
		return nil, err
	}

	// WAL lets readers proceed while one session writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// Dir returns the data directory.
func (c *Context) Dir() string { return c.dir }

// Path returns the database file path.
func (c *Context) Path() string { return c.path }

// Resolution returns how the data directory was chosen.
func (c *Context) Resolution() paths.Resolution { return c.resolution }

// Schema returns the structures InitSchema realizes.
func (c *Context) Schema() Schema { return c.schema }

// Stats returns session and pool counters.
func (c *Context) Stats() Stats {
	return Stats{
		Open:     c.open.Load(),
		Acquired: c.acquired.Load(),
		Released: c.released.Load(),
		DB:       c.db.Stats(),
	}
}

// Ping verifies the database file can be reached.
func (c *Context) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database handle. It is called once at process exit.
func (c *Context) Close() error {
	return c.db.Close()
}
