// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for Passkeep.
// This file contains the MySQL implementation of the database store.
// Note: This implementation is considered experimental. The DSN must enable
// multiStatements for migrations to apply.
package db // import "github.com/passkeep/passkeep/internal/db"

import (
	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLStore is the MySQL implementation of the Store interface.
type MySQLStore struct {
	bunStore
}
