// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package db is the optional history store. It keeps scan summaries and an
// audit trail of the writes Claudius makes, in SQLite by default or in
// PostgreSQL or MySQL when configured.
package db // import "github.com/iclaudius/claudius/internal/db"

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jonboulle/clockwork"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var (
	//go:embed migrations
	embeddedMigrations embed.FS
	// sqlOpenFunc allows tests to override database opening behavior.
	sqlOpenFunc = sql.Open
)

// Supported database types.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
)

// driverName maps a database type to its registered driver. pgx registers
// itself as "pgx".
func driverName(dbType string) (string, error) {
	switch dbType {
	case TypeSQLite, TypeMySQL:
		return dbType, nil
	case TypePostgres:
		return "pgx", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, dbType)
}

// Open connects to the database, runs pending migrations and returns the
// store. clock may be nil.
func Open(dbType, dsn string, clock clockwork.Clock) (*Store, error) {
	driver, err := driverName(dbType)
	if err != nil {
		return nil, err
	}
	if dbType == TypeSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	start := time.Now()
	sqlDB, err := sqlOpenFunc(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	configurePool(sqlDB, dbType, dsn)
	dbLogf("db: opened %s driver in %s", driver, time.Since(start))

	migStart := time.Now()
	if err := RunMigrations(sqlDB, dbType); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	dbLogf("db: migrations for %s completed in %s", dbType, time.Since(migStart))

	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{bun: createBunDB(sqlDB, dbType), dbType: dbType, clock: clock}, nil
}

// configurePool applies conservative pool limits, overridable through
// CLAUDIUS_DB_* environment variables.
func configurePool(sqlDB *sql.DB, dbType, dsn string) {
	const (
		defaultMaxOpenConns    = 4
		defaultMaxIdleConns    = 4
		defaultConnMaxLifetime = 5 * time.Minute
	)
	maxOpen := envInt("CLAUDIUS_DB_MAX_OPEN_CONNS", defaultMaxOpenConns)
	maxIdle := envInt("CLAUDIUS_DB_MAX_IDLE_CONNS", defaultMaxIdleConns)

	lifetime := time.Duration(envInt("CLAUDIUS_DB_CONN_MAX_LIFETIME_SECONDS", int(defaultConnMaxLifetime/time.Second))) * time.Second

	// Every connection to ":memory:" gets its own empty database.
	if dbType == TypeSQLite && dsn == ":memory:" {
		maxOpen = 1
		maxIdle = 1
		lifetime = 0
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// createBunDB wraps sqlDB with the dialect for dbType.
func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case TypePostgres:
		return bun.NewDB(sqlDB, pgdialect.New())
	case TypeMySQL:
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// RunMigrations applies the embedded migrations/<dbType>/*.up.sql files that
// are not yet recorded in schema_migrations, in name order.
func RunMigrations(db *sql.DB, dbType string) error {
	migrationsPath := fmt.Sprintf("migrations/%s", dbType)
	entries, err := fs.ReadDir(embeddedMigrations, migrationsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: no migrations for %q", ErrUnsupported, dbType)
		}
		return fmt.Errorf("failed to read embedded migrations (%s): %w", migrationsPath, err)
	}

	var ups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	if err := ensureSchemaMigrationsTable(db, dbType); err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	selectQuery := "SELECT 1 FROM schema_migrations WHERE version = ?"
	insertQuery := "INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)"
	if dbType == TypePostgres {
		selectQuery = "SELECT 1 FROM schema_migrations WHERE version = $1"
		insertQuery = "INSERT INTO schema_migrations(version, applied_at) VALUES($1, $2)"
	}

	for _, fname := range ups {
		version := strings.TrimSuffix(fname, ".up.sql")

		var exists int
		err := db.QueryRow(selectQuery, version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check migration version %s: %w", version, err)
		}

		p := path.Join(migrationsPath, fname)
		data, err := embeddedMigrations.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", p, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", version, err)
		}
		for _, stmt := range splitStatements(string(data)) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("failed to execute migration %s: %w", version, err)
			}
		}
		if _, err := tx.Exec(insertQuery, version, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", version, err)
		}
		dbLogf("db: applied migration %s", version)
	}
	return nil
}

// splitStatements splits a migration file on semicolons at line ends. MySQL
// rejects multi-statement Exec calls unless the DSN opts in.
func splitStatements(script string) []string {
	var out []string
	var cur strings.Builder
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}

// ensureSchemaMigrationsTable creates schema_migrations if missing. MySQL
// cannot index TEXT without a length, so it gets a VARCHAR key.
func ensureSchemaMigrationsTable(db *sql.DB, dbType string) error {
	ddl := `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP)`
	if dbType == TypeMySQL {
		ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (version VARCHAR(191) PRIMARY KEY, applied_at TIMESTAMP NULL)`
	}
	_, err := db.Exec(ddl)
	return err
}

// Store is the history database.
type Store struct {
	bun    *bun.DB
	dbType string
	clock  clockwork.Clock
}

// Type returns the database type the store was opened with.
func (s *Store) Type() string { return s.dbType }

// Close releases the connection pool.
func (s *Store) Close() error { return s.bun.Close() }
