package crypto

import "encoding/binary"

// SessionNonce builds the 96-bit ChaCha20-Poly1305 nonce used for encrypted
// session frames: 32 zero bits followed by a 64-bit little-endian counter.
// The counter starts at zero for the first frame sent in a direction and
// increments by one per frame; it is never reused within a session.
func SessionNonce(counter uint64) []byte {
	nonce := make([]byte, AEADNonceSize)
	binary.LittleEndian.PutUint64(nonce[4:], counter)
	return nonce
}

// FixedNonce builds one of the fixed pairing-phase nonces by left-padding an
// 8-byte ASCII tag with zeros to the AEAD nonce length. Used for the
// PS-Msg05/PS-Msg06/PV-Msg02/PV-Msg03 pairing frames, each of which is
// encrypted exactly once under a key that is never reused.
func FixedNonce(tag string) []byte {
	if len(tag) != 8 {
		panic("crypto: fixed nonce tag must be 8 bytes")
	}
	nonce := make([]byte, AEADNonceSize)
	copy(nonce[4:], tag)
	return nonce
}

// Pairing and verification nonce tags, per the pair-setup/pair-verify
// message sequence.
const (
	NonceTagPairSetupM5  = "PS-Msg05"
	NonceTagPairSetupM6  = "PS-Msg06"
	NonceTagPairVerifyM2 = "PV-Msg02"
	NonceTagPairVerifyM3 = "PV-Msg03"
)
