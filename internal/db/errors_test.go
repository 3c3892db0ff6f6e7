// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"errors"
	"testing"
)

func TestMapDBError(t *testing.T) {
	if MapDBError(nil) != nil {
		t.Fatalf("nil must map to nil")
	}

	cases := []string{
		"UNIQUE constraint failed: icons.name",
		"Error 1062: Duplicate entry 'bank' for key 'name'",
		"ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)",
	}
	for _, msg := range cases {
		if got := MapDBError(errors.New(msg)); !errors.Is(got, ErrDuplicate) {
			t.Fatalf("%q: expected ErrDuplicate, got %v", msg, got)
		}
	}

	other := errors.New("connection refused")
	if got := MapDBError(other); got != other {
		t.Fatalf("unrelated errors must pass through, got %v", got)
	}
}
