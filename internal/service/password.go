package service

import (
	"bytes"
	"crypto/sha256"
)

// HashPassword returns the unsalted SHA-256 digest of plain.
//
// KNOWN WEAKNESS: there is no per-user salt and no work factor, so two
// users with the same password store the same hash. The scheme is kept
// as-is for compatibility with hashes already in the credential store;
// changing it would invalidate every existing password.
func HashPassword(plain string) []byte {
	digest := sha256.Sum256([]byte(plain))
	return digest[:]
}

// VerifyPassword reports whether plain hashes to storedHash.
func VerifyPassword(plain string, storedHash []byte) bool {
	digest := sha256.Sum256([]byte(plain))
	return bytes.Equal(digest[:], storedHash)
}
