// Package database centralises sqlx connection helpers for the
// workspace's PostgreSQL sync target.  The driver is lib/pq; the DSN is
// assembled from the resolved database section, with the password
// supplied by the caller (resolved through internal/secrets, never read
// here).
//
// Public entry points:
//
//	BuildDSN(cfg, password)      – key/value DSN from a resolved section.
//	Open(cfg, password)          – pool with conservative sizes, pinged.
//	TestConnection(ctx, db)      – cheap round-trip for health checks.
//
// Open pings the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when
// no longer needed.
package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/AdeptTravel/mediaplan/internal/workspace"
)

// BuildDSN renders a lib/pq key/value connection string from the
// resolved database section.  Keys are emitted in sorted order so the
// output is deterministic and testable.
func BuildDSN(cfg workspace.DatabaseConfig, password string) string {
	params := map[string]string{
		"host":   cfg.Host,
		"dbname": cfg.Database,
		"user":   cfg.Username,
	}
	if cfg.Port != 0 {
		params["port"] = fmt.Sprintf("%d", cfg.Port)
	}
	if password != "" {
		params["password"] = password
	}
	if cfg.Schema != "" {
		params["search_path"] = cfg.Schema
	}
	if cfg.ConnectionTimeout != 0 {
		params["connect_timeout"] = fmt.Sprintf("%d", cfg.ConnectionTimeout)
	}
	if cfg.SSL {
		params["sslmode"] = "require"
	} else {
		params["sslmode"] = "disable"
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+quoteParam(params[k]))
	}
	return strings.Join(parts, " ")
}

// quoteParam wraps values containing spaces or quotes per the libpq
// key/value syntax.
func quoteParam(v string) string {
	if v == "" || strings.ContainsAny(v, " '\\") {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `'`, `\'`)
		return "'" + v + "'"
	}
	return v
}

// Open returns a *sqlx.DB for the sync target with sane defaults: 15
// max open, 5 idle, and a 30-minute connection lifetime.
func Open(cfg workspace.DatabaseConfig, password string) (*sqlx.DB, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("database: sync target is not enabled in the workspace configuration")
	}

	db, err := sqlx.Open("postgres", BuildDSN(cfg, password))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(15)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// TestConnection verifies the pool can serve a trivial query.  Used by
// the CLI's inspect command and by upgrade-readiness checks.
func TestConnection(ctx context.Context, db *sqlx.DB) error {
	var one int
	if err := db.GetContext(ctx, &one, `SELECT 1`); err != nil {
		return fmt.Errorf("database: connection test failed: %w", err)
	}
	return nil
}
