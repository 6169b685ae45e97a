// Package crypto implements server-side password hashing.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// SaltLen is the per-account salt size in bytes.
const SaltLen = 16

// argonParams fixes the Argon2id cost. Changing it invalidates stored
// hashes, so treat it as part of the schema.
var argonParams = struct {
	time    uint32
	memory  uint32 // KiB
	threads uint8
	keyLen  uint32
}{time: 3, memory: 64 * 1024, threads: 1, keyLen: 32}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// NewSalt returns a fresh per-account salt.
func NewSalt() ([]byte, error) { return RandBytes(SaltLen) }

// HashPassword derives the Argon2id hash of password under salt.
func HashPassword(password, salt []byte) []byte {
	p := argonParams
	return argon2.IDKey(password, salt, p.time, p.memory, p.threads, p.keyLen)
}

// VerifyPassword re-derives the hash and compares in constant time.
func VerifyPassword(password, salt, expected []byte) bool {
	return subtle.ConstantTimeCompare(HashPassword(password, salt), expected) == 1
}
