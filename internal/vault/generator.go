// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/passkeep/passkeep/internal/security"
)

const (
	genLower   = "abcdefghijklmnopqrstuvwxyz"
	genUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	genDigits  = "0123456789"
	genSymbols = "!@#$%^&*()-_=+[]{};:,.<>?"
)

// GeneratorOptions select the character classes for generated passwords.
// Zero value means lowercase only; use DefaultGeneratorOptions for the
// usual mix.
type GeneratorOptions struct {
	Upper   bool
	Digits  bool
	Symbols bool
}

// DefaultGeneratorOptions enables all character classes.
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{Upper: true, Digits: true, Symbols: true}
}

// GeneratePassword returns a random password of the given length drawn
// uniformly from the selected character classes using crypto/rand.
func GeneratePassword(length int, opts GeneratorOptions) (security.Secret, error) {
	if length <= 0 {
		return nil, fmt.Errorf("vault: password length must be positive, got %d", length)
	}
	charset := genLower
	if opts.Upper {
		charset += genUpper
	}
	if opts.Digits {
		charset += genDigits
	}
	if opts.Symbols {
		charset += genSymbols
	}
	max := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return nil, fmt.Errorf("vault: password generation failed: %w", err)
		}
		out[i] = charset[n.Int64()]
	}
	return security.Secret(out), nil
}
