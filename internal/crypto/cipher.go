// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/passkeep/passkeep/internal/security"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecrypt is returned when a ciphertext blob fails authentication or is
// malformed. It means wrong key or corrupted data, never a normal outcome.
var ErrDecrypt = errors.New("crypto: decryption failed")

// Seal encrypts plaintext under key with XChaCha20-Poly1305 and returns a
// blob laid out as [nonce || ciphertext+tag]. Every call draws a fresh
// 24-byte random nonce, so no two encryptions under the same key share one.
// The aad label binds the blob to its column so ciphertexts cannot be
// swapped between fields.
func Seal(key security.Secret, plaintext security.Secret, aad string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("crypto: bad key: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: nonce generation failed: %w", err)
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = aead.Seal(out[:len(nonce)], nonce, []byte(plaintext), []byte(aad))
	return out, nil
}

// Open decrypts a blob produced by Seal. It fails with ErrDecrypt when the
// key does not match, the blob was tampered with, or the blob is truncated.
func Open(key security.Secret, blob []byte, aad string) (security.Secret, error) {
	aead, err := chacha20poly1305.NewX([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("crypto: bad key: %w", err)
	}
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, ErrDecrypt
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	plain, err := aead.Open(nil, nonce, ct, []byte(aad))
	if err != nil {
		return nil, ErrDecrypt
	}
	return security.Secret(plain), nil
}

// Nonce extracts the nonce prefix of a sealed blob. Used by tests to check
// nonce uniqueness; returns nil for blobs too short to carry one.
func Nonce(blob []byte) []byte {
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil
	}
	return blob[:chacha20poly1305.NonceSizeX]
}
