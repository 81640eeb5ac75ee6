package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/linkstash/internal/sqlclient"
)

// remoteVersionTable mirrors goose's bookkeeping for stores reached only
// through an Executor.
const remoteVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at INTEGER NOT NULL
)`

func appliedVersions(ctx context.Context, exec sqlclient.Executor) (map[int64]bool, error) {
	if _, err := exec.Query(ctx, remoteVersionTable); err != nil {
		return nil, fmt.Errorf("failed to create version table: %w", err)
	}
	rows, err := exec.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied versions: %w", err)
	}
	applied := make(map[int64]bool, len(rows))
	for _, row := range rows {
		applied[row.Int64("version")] = true
	}
	return applied, nil
}

// MigrateRemote applies pending migrations through exec. Each migration and
// its version row go in one batch, so a failed migration leaves no trace.
func MigrateRemote(ctx context.Context, exec sqlclient.Executor) (int, error) {
	migrations, err := Schema()
	if err != nil {
		return 0, err
	}
	applied, err := appliedVersions(ctx, exec)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		stmts := make([]sqlclient.Statement, 0, len(m.Up)+1)
		for _, sql := range m.Up {
			stmts = append(stmts, sqlclient.NewStatement(sql))
		}
		stmts = append(stmts, sqlclient.NewStatement(
			`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			m.Version, time.Now().UnixMilli()))
		if _, err := exec.Batch(ctx, stmts); err != nil {
			return n, fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
		}
		slog.Info("applied migration", "name", m.Name)
		n++
	}
	return n, nil
}

// MigrateRemoteDown rolls back the most recent applied migration.
func MigrateRemoteDown(ctx context.Context, exec sqlclient.Executor) error {
	migrations, err := Schema()
	if err != nil {
		return err
	}
	applied, err := appliedVersions(ctx, exec)
	if err != nil {
		return err
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		if !applied[m.Version] {
			continue
		}
		stmts := make([]sqlclient.Statement, 0, len(m.Down)+1)
		for _, sql := range m.Down {
			stmts = append(stmts, sqlclient.NewStatement(sql))
		}
		stmts = append(stmts, sqlclient.NewStatement(`DELETE FROM schema_migrations WHERE version = ?`, m.Version))
		if _, err := exec.Batch(ctx, stmts); err != nil {
			return fmt.Errorf("failed to roll back migration %s: %w", m.Name, err)
		}
		slog.Info("rolled back one migration", "name", m.Name)
		return nil
	}
	return nil
}
