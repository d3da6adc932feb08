package crypto

import (
	"golang.org/x/crypto/chacha20poly1305"
)

// AEADKeySize is the ChaCha20-Poly1305 key size in bytes.
const AEADKeySize = chacha20poly1305.KeySize

// AEADNonceSize is the ChaCha20-Poly1305 nonce size in bytes.
const AEADNonceSize = chacha20poly1305.NonceSize

// AEADTagSize is the Poly1305 authentication tag size in bytes.
const AEADTagSize = chacha20poly1305.Overhead

// Seal encrypts and authenticates plaintext with ChaCha20-Poly1305 under key
// and nonce. No additional authenticated data is used anywhere in the
// protocol. The returned slice is ciphertext with the 16-byte tag appended.
func Seal(key, nonce, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrInvalidNonceSize
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open authenticates and decrypts ciphertext (which includes the trailing
// tag) with ChaCha20-Poly1305 under key and nonce.
func Open(key, nonce, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrInvalidNonceSize
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
