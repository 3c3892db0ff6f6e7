// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for Passkeep.
// This file contains the PostgreSQL implementation of the database store.
// Note: This implementation is considered experimental.
package db // import "github.com/passkeep/passkeep/internal/db"

import (
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

// PostgresStore is the PostgreSQL implementation of the Store interface.
// Behavior is shared with the other backends through bunStore; only the
// dialect and migrations differ.
type PostgresStore struct {
	bunStore
}
