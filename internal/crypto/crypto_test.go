// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passkeep/passkeep/internal/security"
)

// testParams keeps derivation fast in tests; production strength is covered
// by DefaultParams.
func testParams() Params {
	return Params{Time: 1, Memory: 64, Threads: 1}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	require.Len(t, salt, SaltSize)

	k1 := DeriveKey(security.FromString("correct horse"), salt, testParams())
	k2 := DeriveKey(security.FromString("correct horse"), salt, testParams())
	assert.Equal(t, []byte(k1), []byte(k2), "same password and salt must derive the same key")
	assert.Len(t, []byte(k1), KeySize)

	otherSalt, err := NewSalt()
	require.NoError(t, err)
	k3 := DeriveKey(security.FromString("correct horse"), otherSalt, testParams())
	assert.NotEqual(t, []byte(k1), []byte(k3), "different salts must derive different keys")

	k4 := DeriveKey(security.FromString("Correct horse"), salt, testParams())
	assert.NotEqual(t, []byte(k1), []byte(k4), "different passwords must derive different keys")
}

func TestSealOpenRoundTrip(t *testing.T) {
	salt, _ := NewSalt()
	key := DeriveKey(security.FromString("pw"), salt, testParams())

	blob, err := Seal(key, security.FromString("hunter2"), "password")
	require.NoError(t, err)

	plain, err := Open(key, blob, "password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(plain))
}

func TestOpenWrongKeyFails(t *testing.T) {
	salt, _ := NewSalt()
	key := DeriveKey(security.FromString("pw"), salt, testParams())
	wrong := DeriveKey(security.FromString("pw2"), salt, testParams())

	blob, err := Seal(key, security.FromString("secret"), "password")
	require.NoError(t, err)

	_, err = Open(wrong, blob, "password")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestOpenWrongAADFails(t *testing.T) {
	salt, _ := NewSalt()
	key := DeriveKey(security.FromString("pw"), salt, testParams())

	blob, err := Seal(key, security.FromString("alice@example.com"), "username")
	require.NoError(t, err)

	// A username blob must not open as a password blob.
	_, err = Open(key, blob, "password")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestOpenTamperedOrTruncatedFails(t *testing.T) {
	salt, _ := NewSalt()
	key := DeriveKey(security.FromString("pw"), salt, testParams())

	blob, err := Seal(key, security.FromString("secret"), "password")
	require.NoError(t, err)

	// Flip one bit anywhere in the blob.
	for _, idx := range []int{0, len(blob) / 2, len(blob) - 1} {
		tampered := append([]byte(nil), blob...)
		tampered[idx] ^= 0x01
		_, err := Open(key, tampered, "password")
		assert.ErrorIs(t, err, ErrDecrypt, "bit flip at %d must fail", idx)
	}

	_, err = Open(key, blob[:10], "password")
	assert.ErrorIs(t, err, ErrDecrypt, "truncated blob must fail")

	_, err = Open(key, nil, "password")
	assert.ErrorIs(t, err, ErrDecrypt, "empty blob must fail")
}

func TestSealNoncesUnique(t *testing.T) {
	salt, _ := NewSalt()
	key := DeriveKey(security.FromString("pw"), salt, testParams())

	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		blob, err := Seal(key, security.FromString("x"), "password")
		require.NoError(t, err)
		n := string(Nonce(blob))
		require.False(t, seen[n], "nonce repeated after %d seals", i)
		seen[n] = true
	}
}

func TestSealSamePlaintextDiffers(t *testing.T) {
	salt, _ := NewSalt()
	key := DeriveKey(security.FromString("pw"), salt, testParams())

	b1, err := Seal(key, security.FromString("same"), "password")
	require.NoError(t, err)
	b2, err := Seal(key, security.FromString("same"), "password")
	require.NoError(t, err)
	assert.NotEqual(t, b1, b2, "repeated encryption must not produce equal blobs")
}

func TestVerify(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	key := DeriveKey(security.FromString("master"), salt, testParams())
	check, err := NewKeyCheck(key)
	require.NoError(t, err)

	ok, got := Verify(security.FromString("master"), salt, check, testParams())
	require.True(t, ok)
	assert.Equal(t, []byte(key), []byte(got), "Verify must hand back the derived key")

	ok, got = Verify(security.FromString("wrong"), salt, check, testParams())
	assert.False(t, ok)
	assert.Nil(t, got)

	// A corrupted key check never verifies.
	bad := append([]byte(nil), check...)
	bad[len(bad)-1] ^= 0x01
	ok, got = Verify(security.FromString("master"), salt, bad, testParams())
	assert.False(t, ok)
	assert.Nil(t, got)
}
