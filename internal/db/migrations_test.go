// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"
	"testing"
)

func TestRunMigrationsIsIdempotent(t *testing.T) {
	sqlDB, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(1)

	if err := RunMigrations(sqlDB, "sqlite"); err != nil {
		t.Fatalf("first RunMigrations failed: %v", err)
	}
	// Re-applying must be a no-op, not a constraint failure.
	if err := RunMigrations(sqlDB, "sqlite"); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}

	var n int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("reading schema_migrations failed: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected at least one applied migration")
	}

	// The core tables exist after migrating.
	for _, table := range []string{"users", "icons", "groups", "credentials", "attachments", "audit_log"} {
		var name string
		err := sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing after migrations: %v", table, err)
		}
	}
}

func TestMaintenanceSqlite(t *testing.T) {
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	// Maintenance opens its own connection against the same shared cache.
	if err := RunDBMaintenance("sqlite", dsn); err != nil {
		t.Fatalf("RunDBMaintenance failed: %v", err)
	}
}
