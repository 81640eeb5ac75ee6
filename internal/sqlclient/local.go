package sqlclient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/logger"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// Local runs statements through database/sql. Batches run in one
// transaction, so the atomicity contract matches the remote store.
type Local struct {
	db      *sqlx.DB
	timeout time.Duration
	logger  *slog.Logger
}

// NewLocal wraps an open database. timeout <= 0 means DefaultTimeout.
func NewLocal(db *sqlx.DB, timeout time.Duration) *Local {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Local{
		db:      db,
		timeout: timeout,
		logger:  logger.For("sqlclient").With(slog.String("driver", db.DriverName())),
	}
}

// DB exposes the underlying handle for migrations.
func (l *Local) DB() *sqlx.DB {
	return l.db
}

func (l *Local) Close() error {
	return l.db.Close()
}

func (l *Local) Query(ctx context.Context, query string, params ...any) ([]Row, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	rows, err := l.queryRows(ctx, l.db, NewStatement(query, params...))
	err = l.classify(ctx, err)
	observe("local", "exec", start, err)
	return rows, err
}

func (l *Local) Batch(ctx context.Context, stmts []Statement) (out [][]Row, err error) {
	if len(stmts) == 0 {
		return [][]Row{}, nil
	}
	start := time.Now()
	defer func() { observe("local", "batch", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, l.classify(ctx, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	out = make([][]Row, 0, len(stmts))
	for i, stmt := range stmts {
		rows, qerr := l.queryRows(ctx, tx, stmt)
		if qerr != nil {
			l.logger.DebugContext(ctx, "batch statement failed", "index", i, "stmt", stmt)
			return nil, l.classify(ctx, qerr)
		}
		out = append(out, rows)
	}

	if err = tx.Commit(); err != nil {
		return nil, l.classify(ctx, err)
	}
	return out, nil
}

type queryer interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	Rebind(query string) string
}

func (l *Local) queryRows(ctx context.Context, q queryer, stmt Statement) ([]Row, error) {
	rows, err := q.QueryxContext(ctx, q.Rebind(stmt.SQL), stmt.Params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := []Row{}
	for rows.Next() {
		m := map[string]any{}
		if err := rows.MapScan(m); err != nil {
			return nil, err
		}
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
		result = append(result, Row(m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// classify prefers structured driver codes and falls back to message text.
func (l *Local) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperr.Conflict("value already exists", err)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return apperr.Conflict("value already exists", err)
		}
	}
	if IsUniqueViolationMessage(err.Error()) {
		return apperr.Conflict("value already exists", err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return apperr.Transient("sql store timed out", err)
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return apperr.Transient("sql store connection lost", err)
	}

	l.logger.WarnContext(ctx, "sql store error", "error", err)
	return apperr.Store(fmt.Sprintf("sql store request failed (%s)", l.db.DriverName()), err)
}
