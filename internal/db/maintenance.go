// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"
	"time"
)

// maintenanceTimeout bounds a single maintenance run.
var maintenanceTimeout = 2 * time.Minute

// Maintenance runs engine-specific housekeeping: PRAGMA optimize, VACUUM,
// a WAL checkpoint and an integrity check on SQLite, VACUUM ANALYZE on
// PostgreSQL and OPTIMIZE TABLE on MySQL.
func (s *Store) Maintenance(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, maintenanceTimeout)
	defer cancel()

	sqlDB := s.bun.DB
	switch s.dbType {
	case TypeSQLite:
		// optimize is not useful everywhere, e.g. on in-memory databases
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
			dbLogf("db: sqlite optimize failed (ignored): %v", err)
		}
		if _, err := sqlDB.ExecContext(ctx, "VACUUM;"); err != nil {
			return fmt.Errorf("sqlite vacuum failed: %w", err)
		}
		_, _ = sqlDB.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);")
		var res string
		if err := sqlDB.QueryRowContext(ctx, "PRAGMA integrity_check;").Scan(&res); err != nil {
			return fmt.Errorf("sqlite integrity_check failed: %w", err)
		}
		if res != "ok" {
			return fmt.Errorf("sqlite integrity_check failed: %s", res)
		}
	case TypePostgres:
		if _, err := sqlDB.ExecContext(ctx, "VACUUM ANALYZE;"); err != nil {
			return fmt.Errorf("postgres vacuum failed: %w", err)
		}
	case TypeMySQL:
		var lastErr error
		for _, table := range []string{"scans", "audit_log", "schema_migrations"} {
			if _, err := sqlDB.ExecContext(ctx, "OPTIMIZE TABLE "+table); err != nil {
				dbLogf("db: mysql optimize table %s failed: %v", table, err)
				lastErr = err
			}
		}
		if lastErr != nil {
			return fmt.Errorf("mysql optimize encountered errors: %w", lastErr)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, s.dbType)
	}
	dbLogf("db: maintenance for %s done", s.dbType)
	return nil
}
