// Package sqlclient executes SQL statements against the link store.
//
// Two executors share one contract: Client talks to a remote SQL store that is
// only reachable over HTTP (Cloudflare D1 REST shape), Local runs the same
// statements through database/sql for development, tooling and tests.
package sqlclient

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/templui/linkstash/internal/apperr"
)

// DefaultTimeout bounds every call, measured from the start of the request.
const DefaultTimeout = 5000 * time.Millisecond

// Row is one result row, column name to scalar value.
type Row map[string]any

// Statement is a single parameterized SQL statement.
// Placeholders are always written as "?".
type Statement struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// NewStatement is shorthand for building a Statement inline.
func NewStatement(sql string, params ...any) Statement {
	if params == nil {
		params = []any{}
	}
	return Statement{SQL: sql, Params: params}
}

// LogValue keeps parameter values out of logs.
func (s Statement) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("sql", compactSQL(s.SQL)),
		slog.Int("params", len(s.Params)),
	)
}

// Meta is the write metadata reported by the store for one statement.
type Meta struct {
	Changes   int64 `json:"changes"`
	LastRowID int64 `json:"last_row_id"`
}

// Result is the outcome of one statement.
type Result struct {
	Rows []Row
	Meta Meta
}

// Executor is what the data access layer needs from a SQL store.
type Executor interface {
	// Query runs one statement and returns its rows.
	Query(ctx context.Context, sql string, params ...any) ([]Row, error)
	// Batch runs all statements as one atomic unit and returns one row set
	// per statement, in input order. An empty batch makes no call.
	Batch(ctx context.Context, stmts []Statement) ([][]Row, error)
}

var (
	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkstash_sql_call_duration_seconds",
		Help:    "Duration of SQL store calls",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"executor", "op"})

	callErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkstash_sql_call_errors_total",
		Help: "SQL store call failures by classified kind",
	}, []string{"executor", "kind"})
)

func observe(executor, op string, start time.Time, err error) {
	callDuration.WithLabelValues(executor, op).Observe(time.Since(start).Seconds())
	if err != nil {
		callErrors.WithLabelValues(executor, kindLabel(err)).Inc()
	}
}

func kindLabel(err error) string {
	switch apperr.Kind(err) {
	case apperr.ErrConflict:
		return "conflict"
	case apperr.ErrTransient:
		return "transient"
	case apperr.ErrConfiguration:
		return "configuration"
	default:
		return "store"
	}
}

// uniqueViolationPatterns are matched case-insensitively against error text
// when the store gives no structured code. D1 forwards SQLite's message.
var uniqueViolationPatterns = []string{
	"unique constraint failed",
	"sqlite_constraint_unique",
	"sqlite_constraint_primarykey",
	"duplicate key value violates unique constraint",
}

// IsUniqueViolationMessage reports whether msg looks like a uniqueness
// violation. It is a compatibility shim for stores that only expose error
// text; prefer structured codes where a driver provides them.
func IsUniqueViolationMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, p := range uniqueViolationPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
