package crypto

import "errors"

// AEAD and key-material errors.
var (
	// ErrInvalidNonceSize indicates a nonce of the wrong length was supplied.
	ErrInvalidNonceSize = errors.New("crypto: invalid nonce size")

	// ErrDecryptionFailed indicates AEAD authentication failed; the frame is
	// either corrupt or the key/nonce are wrong.
	ErrDecryptionFailed = errors.New("crypto: AEAD authentication failed")

	// ErrInvalidKeySize indicates a key of the wrong length was supplied.
	ErrInvalidKeySize = errors.New("crypto: invalid key size")
)

// SRP-6a errors.
var (
	// ErrSRPInvalidPublicKey indicates the peer's SRP public value was zero
	// modulo N, or the derived scrambling parameter u was zero.
	ErrSRPInvalidPublicKey = errors.New("crypto: invalid SRP public key")

	// ErrSRPProofMismatch indicates the peer's SRP proof did not match,
	// meaning the password was wrong or the exchange was tampered with.
	ErrSRPProofMismatch = errors.New("crypto: SRP proof mismatch")
)

// Signature verification errors.
var (
	// ErrSignatureInvalid indicates an Ed25519 signature failed verification.
	ErrSignatureInvalid = errors.New("crypto: signature verification failed")
)
