// Package db provides durable persistence for the hiring store.
//
// Two backends implement store.Persister over the same three tables:
// SQLite through modernc.org/sqlite for single-node deployments, and
// PostgreSQL through a pgx connection pool.
package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nerdintosubs/hiring-agent/internal/store"
)

// snapshotID is the primary key of the single state snapshot row.
const snapshotID = "default"

// Open connects to the database named by databaseURL and ensures its schema.
//
// postgres:// and postgresql:// URLs select PostgreSQL. sqlite:///path and
// bare filesystem paths select SQLite; the parent directory is created when
// missing.
func Open(ctx context.Context, databaseURL string) (store.Persister, error) {
	value := strings.TrimSpace(databaseURL)
	if value == "" {
		return nil, fmt.Errorf("database url is empty")
	}
	if IsPostgres(value) {
		return Connect(ctx, value)
	}

	path, err := SQLitePath(value)
	if err != nil {
		return nil, err
	}
	return OpenSQLite(ctx, path)
}

// IsPostgres reports whether databaseURL names a PostgreSQL server.
func IsPostgres(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://")
}

// SQLitePath extracts the file path from a sqlite:/// URL or bare path.
// Query parameters on a sqlite URL are dropped.
func SQLitePath(databaseURL string) (string, error) {
	if rest, ok := strings.CutPrefix(databaseURL, "sqlite:///"); ok {
		path, _, _ := strings.Cut(rest, "?")
		if path == "" {
			return "", fmt.Errorf("sqlite url has no path: %s", databaseURL)
		}
		return path, nil
	}
	if strings.Contains(databaseURL, "://") {
		scheme, _, _ := strings.Cut(databaseURL, "://")
		return "", fmt.Errorf("unsupported database scheme: %s", scheme)
	}
	return databaseURL, nil
}

func ensureParentDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}
