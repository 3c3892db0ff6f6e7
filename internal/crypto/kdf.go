// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package crypto implements the two cryptographic primitives of the vault:
// master-password key derivation (argon2id) and authenticated field
// encryption (XChaCha20-Poly1305).
package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/passkeep/passkeep/internal/security"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// SaltSize is the length of per-user KDF salts.
const SaltSize = 32

// KeySize is the length of derived session keys (XChaCha20-Poly1305 key).
const KeySize = chacha20poly1305.KeySize

// keyCheckPlain is the fixed value sealed under a freshly derived key to
// produce the stored verification material. Opening it again proves the
// password without storing anything recoverable.
const keyCheckPlain = "passkeep-key-check-v1"

// aadKeyCheck is the AAD label for key-check blobs.
const aadKeyCheck = "check"

// Params are the argon2id work-factor parameters. Higher values slow down
// unlock and offline guessing alike.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultParams returns the desktop work factor: 3 passes over 64 MiB with
// 4 lanes.
func DefaultParams() Params {
	return Params{Time: 3, Memory: 64 * 1024, Threads: 4}
}

// NewSalt returns a fresh random KDF salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey turns a master password and per-user salt into a symmetric key.
// It is a pure function of its inputs: same password and salt always yield
// the same key.
func DeriveKey(master security.Secret, salt []byte, p Params) security.Secret {
	key := argon2.IDKey([]byte(master), salt, p.Time, p.Memory, p.Threads, KeySize)
	out := security.FromBytes(key)
	for i := range key {
		key[i] = 0
	}
	return out
}

// NewKeyCheck produces the verification material stored for a user: the
// fixed check string sealed under the derived key. It is stored next to the
// salt and reveals nothing about the password.
func NewKeyCheck(key security.Secret) ([]byte, error) {
	return Seal(key, security.FromString(keyCheckPlain), aadKeyCheck)
}

// Verify reports whether masterPassword matches the stored verification
// material. A wrong password is an expected outcome and returns (false, nil);
// an error indicates malformed inputs, not a failed login.
func Verify(master security.Secret, salt, keyCheck []byte, p Params) (bool, security.Secret) {
	key := DeriveKey(master, salt, p)
	plain, err := Open(key, keyCheck, aadKeyCheck)
	if err != nil {
		key.Zero()
		return false, nil
	}
	ok := string(plain) == keyCheckPlain
	plain.Zero()
	if !ok {
		key.Zero()
		return false, nil
	}
	return true, key
}
