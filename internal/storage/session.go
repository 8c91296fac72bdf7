package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrSessionClosed is returned when a closed session is used.
var ErrSessionClosed = errors.New("session closed")

// Session is a single-use unit of work bound to one pooled connection.
// It is owned by the operation that acquired it and must not be shared.
// Commit and rollback of any transaction begun on it are the caller's
// responsibility; a transaction still open at Close is rolled back.
type Session struct {
	id      string
	conn    *sqlx.Conn
	owner   *Context
	started time.Time
	closed  atomic.Bool

	mu sync.Mutex
	tx *sqlx.Tx
}

// AcquireSession checks out a dedicated connection. The caller must close
// the session when its operation ends, typically with defer.
//
//	sess, err := sc.AcquireSession(ctx)
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
func (c *Context) AcquireSession(ctx context.Context) (*Session, error) {
	conn, err := c.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}

	s := &Session{
		id:      uuid.NewString(),
		conn:    conn,
		owner:   c,
		started: time.Now(),
	}
	c.open.Add(1)
	c.acquired.Add(1)
	c.logger.Debug("session acquired", "session", s.id)
	return s, nil
}

// WithSession acquires a session, runs fn and closes the session on every
// exit path, including a panic in fn.
func (c *Context) WithSession(ctx context.Context, fn func(*Session) error) (err error) {
	sess, err := c.AcquireSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(sess)
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Close rolls back any transaction left open on the session and releases
// the connection back to the pool. Only the first call has an effect.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	// sql.Conn.Close waits for open transactions, so they must end first.
	var rerr error
	s.mu.Lock()
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			rerr = fmt.Errorf("failed to roll back open transaction: %w", err)
		} else if err == nil {
			s.owner.logger.Warn("rolled back transaction left open", "session", s.id)
		}
		s.tx = nil
	}
	s.mu.Unlock()

	cerr := s.conn.Close()
	if errors.Is(cerr, sql.ErrConnDone) {
		cerr = nil
	}

	s.owner.open.Add(-1)
	s.owner.released.Add(1)
	s.owner.logger.Debug("session released", "session", s.id, "duration", time.Since(s.started))

	if cerr != nil {
		return fmt.Errorf("failed to release session: %w", errors.Join(rerr, cerr))
	}
	return rerr
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed.Load() }

// Beginx starts a transaction on the session's connection.
func (s *Session) Beginx(ctx context.Context) (*sqlx.Tx, error) {
	if s.Closed() {
		return nil, ErrSessionClosed
	}
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.tx = tx
	s.mu.Unlock()
	return tx, nil
}

// Exec runs a statement outside of any explicit transaction.
func (s *Session) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if s.Closed() {
		return nil, ErrSessionClosed
	}
	return s.conn.ExecContext(ctx, query, args...)
}

// Get scans a single row into dest.
func (s *Session) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	return s.conn.GetContext(ctx, dest, query, args...)
}

// Select scans all rows into dest, which must be a slice.
func (s *Session) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	return s.conn.SelectContext(ctx, dest, query, args...)
}
