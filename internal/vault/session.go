// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"github.com/google/uuid"
	"github.com/passkeep/passkeep/internal/security"
)

// Session represents one unlocked vault for one user. It holds the derived
// key for its lifetime only; the key never reaches storage or logs. A locked
// session rejects every further operation.
type Session struct {
	ID       string
	UserID   int
	Username string

	key    security.Secret
	reveal bool
	locked bool
}

func newSession(userID int, username string, key security.Secret, reveal bool) *Session {
	return &Session{
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
		key:      key,
		reveal:   reveal,
	}
}

// Reveal reports whether secret fields are returned in clear for this session.
func (s *Session) Reveal() bool { return s.reveal }

// SetReveal switches the session between masked and clear representations.
func (s *Session) SetReveal(on bool) { s.reveal = on }

// Locked reports whether the session has been locked.
func (s *Session) Locked() bool { return s.locked }

// Lock ends the session and actively wipes the derived key from memory.
// A locked session cannot be reused; unlock again for a fresh one.
func (s *Session) Lock() {
	s.locked = true
	s.key.Zero()
	s.key = nil
}

// valid returns the session key, or ErrLocked once Lock was called.
func (s *Session) valid() (security.Secret, error) {
	if s == nil || s.locked || s.key == nil {
		return nil, ErrLocked
	}
	return s.key, nil
}
