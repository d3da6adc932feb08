package transport

import (
	"sync"

	"github.com/atvremote/mrp/pkg/crypto"
)

// SessionKeys holds the per-direction ChaCha20-Poly1305 keys and nonce
// counters Verifier hands to Transport once the verify exchange completes.
// The Transport calls Encrypt from its reactor goroutine and Decrypt from
// its read loop, so the counters are guarded by mu.
type SessionKeys struct {
	readKey, writeKey         [crypto.AEADKeySize]byte
	readCounter, writeCounter uint64

	mu sync.Mutex
}

// NewSessionKeys wraps a pair of freshly derived direction keys.
func NewSessionKeys(readKey, writeKey []byte) *SessionKeys {
	sk := &SessionKeys{}
	copy(sk.readKey[:], readKey)
	copy(sk.writeKey[:], writeKey)
	return sk
}

// Encrypt seals plaintext under writeKey using the next write nonce and
// advances the write counter.
func (sk *SessionKeys) Encrypt(plaintext []byte) ([]byte, error) {
	sk.mu.Lock()
	counter := sk.writeCounter
	sk.writeCounter++
	sk.mu.Unlock()

	return crypto.Seal(sk.writeKey[:], crypto.SessionNonce(counter), plaintext)
}

// Decrypt opens ciphertext under readKey using the next read nonce and
// advances the read counter. A MAC failure is not retried: the caller must
// treat it as fatal to the session, per the protocol's AEAD contract.
func (sk *SessionKeys) Decrypt(ciphertext []byte) ([]byte, error) {
	sk.mu.Lock()
	counter := sk.readCounter
	sk.readCounter++
	sk.mu.Unlock()

	return crypto.Open(sk.readKey[:], crypto.SessionNonce(counter), ciphertext)
}
