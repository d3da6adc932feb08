// Package crypto provides the cryptographic primitives used by the MRP
// session protocol: ChaCha20-Poly1305 AEAD, HKDF-SHA512 key derivation,
// Curve25519 ECDH, Ed25519 signatures, and SRP-6a password authentication.
package crypto

import (
	"crypto/sha512"
	"hash"
)

// SHA512LenBytes is the SHA-512 output length in bytes.
const SHA512LenBytes = 64

// SHA512 computes the SHA-512 digest of a message.
func SHA512(message []byte) [SHA512LenBytes]byte {
	return sha512.Sum512(message)
}

// SHA512Slice computes the SHA-512 digest and returns it as a slice.
func SHA512Slice(message []byte) []byte {
	h := sha512.Sum512(message)
	return h[:]
}

// NewSHA512 returns a new hash.Hash for computing SHA-512 digests incrementally.
func NewSHA512() hash.Hash {
	return sha512.New()
}
