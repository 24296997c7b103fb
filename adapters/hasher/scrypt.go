// Package hasher implements salted one-way password hashing on scrypt.
package hasher

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"

	"github.com/garmlabs/garm/ports"
)

const (
	saltLength = 16
	keyLength  = 64

	// scrypt cost parameters. N must be a power of two.
	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// ScryptHasher derives password hashes as hex(salt) + "." + hex(key).
type ScryptHasher struct{}

// NewScryptHasher creates a new scrypt-backed hasher.
func NewScryptHasher() ports.Hasher {
	return &ScryptHasher{}
}

// Hash generates a fresh random salt and derives the key. The salt is never
// reused across users or rehashes.
func (h *ScryptHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	return hex.EncodeToString(salt) + "." + hex.EncodeToString(key), nil
}

// Verify re-derives the key with the stored salt and compares in constant
// time. Malformed hashes verify as false, never panic or error.
func (h *ScryptHasher) Verify(password, hash string) bool {
	parts := strings.Split(hash, ".")
	if len(parts) != 2 {
		return false
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil || len(salt) == 0 {
		return false
	}

	expected, err := hex.DecodeString(parts[1])
	if err != nil || len(expected) == 0 {
		return false
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, len(expected))
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(key, expected) == 1
}
