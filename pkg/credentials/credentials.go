// Package credentials holds the long-term identity and key material a
// client needs to reconnect to a device without repeating the pairing
// exchange: a stable pairing identity, an Ed25519 keypair for that
// identity, and the device's own identifier and public key.
package credentials

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// keySize is the length in bytes of both localPrivateKey (an Ed25519 seed)
// and remotePublicKey (an Ed25519 public key).
const keySize = 32

// Credentials is the persistent result of a successful pairing. The caller
// owns the value; Credentials itself carries no storage logic, and
// persisting it is optional, through a Store such as FileStore.
type Credentials struct {
	PairingID       string
	LocalPrivateKey [keySize]byte
	RemotePeerID    string
	RemotePublicKey [keySize]byte
}

// New builds a Credentials value from pairing-flow outputs, generating a
// fresh random pairing identity.
func New(localPrivateKey [keySize]byte, remotePeerID string, remotePublicKey [keySize]byte) Credentials {
	return Credentials{
		PairingID:       uuid.New().String(),
		LocalPrivateKey: localPrivateKey,
		RemotePeerID:    remotePeerID,
		RemotePublicKey: remotePublicKey,
	}
}

// Serialize encodes c as hex(pairingId) ":" hex(localPrivateKey) ":"
// hex(remotePeerId) ":" hex(remotePublicKey), with every hex field emitted
// in strict lowercase.
func (c Credentials) Serialize() string {
	return strings.Join([]string{
		hex.EncodeToString([]byte(c.PairingID)),
		hex.EncodeToString(c.LocalPrivateKey[:]),
		hex.EncodeToString([]byte(c.RemotePeerID)),
		hex.EncodeToString(c.RemotePublicKey[:]),
	}, ":")
}

// Parse decodes the serialized form produced by Serialize. Hex decoding is
// case-insensitive, matching encoding/hex's own behavior.
func Parse(s string) (Credentials, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 4 {
		return Credentials{}, ErrMalformedCredentials
	}

	pairingID, err := decodeHexString(fields[0])
	if err != nil {
		return Credentials{}, err
	}
	localPrivateKey, err := decodeHexKey(fields[1])
	if err != nil {
		return Credentials{}, err
	}
	remotePeerID, err := decodeHexString(fields[2])
	if err != nil {
		return Credentials{}, err
	}
	remotePublicKey, err := decodeHexKey(fields[3])
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{
		PairingID:       pairingID,
		LocalPrivateKey: localPrivateKey,
		RemotePeerID:    remotePeerID,
		RemotePublicKey: remotePublicKey,
	}, nil
}

func decodeHexString(field string) (string, error) {
	b, err := hex.DecodeString(field)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return string(b), nil
}

func decodeHexKey(field string) ([keySize]byte, error) {
	var key [keySize]byte
	b, err := hex.DecodeString(field)
	if err != nil {
		return key, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	if len(b) != keySize {
		return key, ErrInvalidKeyLength
	}
	copy(key[:], b)
	return key, nil
}
