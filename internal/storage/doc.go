// Package storage owns the SQLite database behind the backend.
//
// A Context is created once at process entry and passed to every component
// that needs the database. Creating it resolves the data directory, checks
// that the directory is writable and opens the shared handle:
//
//	resolver := paths.NewResolver(logger)
//	sc, err := storage.Boot(storage.Options{
//	    Resolver: resolver,
//	    Schema:   schema.Default(),
//	    Logger:   logger,
//	}, crash.NewReporter(resolver.DocumentsDir, logger))
//	if err != nil {
//	    return err
//	}
//	defer sc.Close()
//
// # Writability Probe
//
// Before the handle is opened a marker file (write_test.tmp) is created,
// written and removed in the data directory. A failure is a *ProbeError.
// Boot treats it as fatal: the error goes to a FatalReporter, which writes a
// crash report and exits the process. Open returns it instead, for callers
// that want to handle it.
//
// # Schema
//
// InitSchema realizes the caller's Schema with CREATE ... IF NOT EXISTS
// statements in one transaction and records the schema version in the
// schema_version table. It never drops or alters existing structures.
// Failures are logged and returned; the process keeps running.
//
// # Sessions
//
// Each logical operation acquires its own Session and closes it when done:
//
//	err := sc.WithSession(ctx, func(sess *storage.Session) error {
//	    tx, err := sess.Beginx(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    defer tx.Rollback()
//	    // ...
//	    return tx.Commit()
//	})
//
// Sessions are never shared between operations. Close is idempotent and
// releases the connection exactly once. Whether work was committed is
// decided by the caller, not by the session.
//
// # Build Tags
//
// Pure Go build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build ./...
//
// CGO build (mattn tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "mattn" ./...
package storage
