package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"golang.org/x/crypto/curve25519"
)

// X25519KeyPair holds an ephemeral Curve25519 key pair used during the
// verify phase.
type X25519KeyPair struct {
	Private [32]byte
	Public  [32]byte
}

// GenerateX25519KeyPair creates a new ephemeral Curve25519 key pair.
func GenerateX25519KeyPair() (*X25519KeyPair, error) {
	kp := &X25519KeyPair{}
	if _, err := rand.Read(kp.Private[:]); err != nil {
		return nil, err
	}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// SharedSecret computes the X25519 shared secret between the local private
// key and a peer's public key.
func (kp *X25519KeyPair) SharedSecret(peerPublic []byte) ([]byte, error) {
	return curve25519.X25519(kp.Private[:], peerPublic)
}

// Ed25519KeyPair holds a long-term Ed25519 signing identity.
type Ed25519KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateEd25519KeyPair creates a new long-term Ed25519 identity, persisted
// by the caller as part of a Credentials value.
func GenerateEd25519KeyPair() (*Ed25519KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Ed25519KeyPair{Public: pub, Private: priv}, nil
}

// Sign signs message with the Ed25519 private key.
func (kp *Ed25519KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(kp.Private, message)
}

// VerifyEd25519 verifies an Ed25519 signature against a raw 32-byte public
// key.
func VerifyEd25519(publicKey, message, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}
