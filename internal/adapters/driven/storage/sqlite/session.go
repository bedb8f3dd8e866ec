package sqlite

import (
	"context"
	"database/sql"
	"sync"

	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
)

// dbtx is the subset of *sql.Conn the stores need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var _ driven.Session = (*session)(nil)

// session is a persistence scope owned by one job. All of its stores share
// one connection, so nothing it writes interleaves with another job's
// transactions.
type session struct {
	conn      *sql.Conn
	closeOnce sync.Once
	closeErr  error
}

func newSession(conn *sql.Conn) *session {
	return &session{conn: conn}
}

func (s *session) Documents() driven.DocumentStore {
	return &documentStore{db: s.conn}
}

func (s *session) ProcessLogs() driven.ProcessLogStore {
	return &processLogStore{db: s.conn}
}

// Close returns the connection to the pool.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
