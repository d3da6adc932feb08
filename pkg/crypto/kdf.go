package crypto

import (
	"crypto/sha512"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDFSHA512 derives key material using HKDF-SHA512 (RFC 5869).
//
// Parameters:
//   - inputKey: Input keying material (IKM)
//   - salt: Optional salt value (can be nil or empty)
//   - info: Optional context/application-specific info (can be nil or empty)
//   - length: Number of bytes to derive
func HKDFSHA512(inputKey, salt, info []byte, length int) ([]byte, error) {
	// HKDF = HKDF-Expand(PRK := HKDF-Extract(salt, IKM), info, L)
	reader := hkdf.New(sha512.New, inputKey, salt, info)
	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Session key derivation labels for the verify phase. From the client's
// perspective, the "read" stream decrypts the device's writes, so the
// labels follow the device's orientation: the client writes with
// "ClientEncrypt-main" and reads with "ServerEncrypt-main".
var (
	sessionSalt       = []byte("MRP-Salt")
	clientEncryptInfo = []byte("ClientEncrypt-main")
	serverEncryptInfo = []byte("ServerEncrypt-main")
)

// DeriveSessionKeys derives the per-direction session keys from the
// Curve25519 shared secret established during verification.
//
// writeKey encrypts outbound frames; readKey decrypts inbound frames
// (the device's write stream).
func DeriveSessionKeys(sharedSecret []byte) (readKey, writeKey []byte, err error) {
	readKey, err = HKDFSHA512(sharedSecret, sessionSalt, serverEncryptInfo, 32)
	if err != nil {
		return nil, nil, err
	}
	writeKey, err = HKDFSHA512(sharedSecret, sessionSalt, clientEncryptInfo, 32)
	if err != nil {
		return nil, nil, err
	}
	return readKey, writeKey, nil
}

// Pairing (SRP) derivation labels.
var (
	pairSetupEncryptSalt = []byte("Pair-Setup-Encrypt-Salt")
	pairSetupEncryptInfo = []byte("Pair-Setup-Encrypt-Info")

	controllerSignSalt = []byte("Pair-Setup-Controller-Sign-Salt")
	controllerSignInfo = []byte("Pair-Setup-Controller-Sign-Info")

	accessorySignSalt = []byte("Accessory-Sign-Salt")
	accessorySignInfo = []byte("Accessory-Sign-Info")

	pairVerifyEncryptSalt = []byte("Pair-Verify-Encrypt-Salt")
	pairVerifyEncryptInfo = []byte("Pair-Verify-Encrypt-Info")
)

// DerivePairSetupEncryptKey derives the M5/M6 encryption key from the SRP
// session key.
func DerivePairSetupEncryptKey(srpSessionKey []byte) ([]byte, error) {
	return HKDFSHA512(srpSessionKey, pairSetupEncryptSalt, pairSetupEncryptInfo, 32)
}

// DeriveControllerSignKey derives the key used in the controller's (the
// client's) M5 signature material.
func DeriveControllerSignKey(srpSessionKey []byte) ([]byte, error) {
	return HKDFSHA512(srpSessionKey, controllerSignSalt, controllerSignInfo, 32)
}

// DeriveAccessorySignKey derives the key used to verify the accessory's
// (the device's) M6 signature material.
func DeriveAccessorySignKey(srpSessionKey []byte) ([]byte, error) {
	return HKDFSHA512(srpSessionKey, accessorySignSalt, accessorySignInfo, 32)
}

// DerivePairVerifyEncryptKey derives the M2/M3 encryption key from the
// Curve25519 ECDH shared secret computed during verification.
func DerivePairVerifyEncryptKey(sharedSecret []byte) ([]byte, error) {
	return HKDFSHA512(sharedSecret, pairVerifyEncryptSalt, pairVerifyEncryptInfo, 32)
}
