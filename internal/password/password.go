// Package password derives and verifies credential records using argon2id.
//
// A credential record is a single delimited string "hash.salt" where both
// halves are base64 (raw URL) encoded. Verification is timing-safe and
// fails closed on malformed records.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"
)

// Fixed argon2id work parameters. Changing these invalidates nothing:
// verification always recomputes with the same values.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	saltLength   = 32
	keyLength    = 32
)

// Hash derives a credential record for the given secret using a fresh
// random salt. The result is the encoded "hash.salt" string.
func Hash(secret string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, keyLength)

	return base64.RawURLEncoding.EncodeToString(key) + "." +
		base64.RawURLEncoding.EncodeToString(salt), nil
}

// Verify reports whether secret matches the encoded credential record.
// A malformed record yields false, never an error: callers treat any
// failure as a plain mismatch.
func Verify(secret, encoded string) bool {
	hashPart, saltPart, ok := strings.Cut(encoded, ".")
	if !ok {
		return false
	}

	expected, err := base64.RawURLEncoding.DecodeString(hashPart)
	if err != nil || len(expected) == 0 {
		return false
	}
	salt, err := base64.RawURLEncoding.DecodeString(saltPart)
	if err != nil || len(salt) == 0 {
		return false
	}

	computed := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// Policy bounds for new secrets.
const (
	MinLength = 8
	MaxLength = 64
)

// CheckPolicy validates a candidate secret against the complexity policy.
// It returns a human-readable reason when the secret is too weak, or ""
// when the secret is acceptable.
func CheckPolicy(secret string) string {
	if len(secret) < MinLength {
		return fmt.Sprintf("password must be at least %d characters", MinLength)
	}
	if len(secret) > MaxLength {
		return fmt.Sprintf("password must be at most %d characters", MaxLength)
	}

	var letters, others bool
	for _, r := range secret {
		if unicode.IsLetter(r) {
			letters = true
		} else {
			others = true
		}
	}
	if !letters || !others {
		return "password must mix letters with digits or symbols"
	}
	return ""
}
