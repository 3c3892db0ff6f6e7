// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for Passkeep.
// This file contains the SQLite implementation of the database store.
package db // import "github.com/passkeep/passkeep/internal/db"

import (
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SqliteStore is the SQLite implementation of the Store interface. SQLite is
// the default backend for desktop use: a single local file, no server.
type SqliteStore struct {
	bunStore
}
