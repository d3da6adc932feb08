package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// Inputs from RFC 5869 Appendix A.3 (zero-length salt/info). The RFC gives
// the SHA-256 output; the expected OKM here is the HKDF-SHA512 output for
// the same inputs.
// https://datatracker.ietf.org/doc/html/rfc5869#appendix-A.3
var hkdfSHA512TestVectors = []struct {
	name   string
	ikm    string // Input Keying Material (hex)
	salt   string // Salt (hex)
	info   string // Info (hex)
	length int    // Output length in bytes
	okm    string // Expected Output Keying Material (hex)
}{
	{
		name:   "RFC5869_A3_SHA512",
		ikm:    "0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b",
		salt:   "",
		info:   "",
		length: 42,
		okm:    "f5fa02b18298a72a8c23898a8703472c6eb179dc204c03425c970e3b164bf90fff22d04836d0e2343bac",
	},
}

func TestHKDFSHA512(t *testing.T) {
	for _, tc := range hkdfSHA512TestVectors {
		t.Run(tc.name, func(t *testing.T) {
			ikm, err := hex.DecodeString(tc.ikm)
			if err != nil {
				t.Fatalf("failed to decode ikm: %v", err)
			}

			var salt, info []byte
			if tc.salt != "" {
				salt, _ = hex.DecodeString(tc.salt)
			}
			if tc.info != "" {
				info, _ = hex.DecodeString(tc.info)
			}

			expected, err := hex.DecodeString(tc.okm)
			if err != nil {
				t.Fatalf("failed to decode expected okm: %v", err)
			}

			result, err := HKDFSHA512(ikm, salt, info, tc.length)
			if err != nil {
				t.Fatalf("HKDFSHA512 failed: %v", err)
			}

			if !bytes.Equal(result, expected) {
				t.Errorf("OKM mismatch\ngot:  %x\nwant: %x", result, expected)
			}
		})
	}
}

func TestHKDFSHA512_MultipleKeys(t *testing.T) {
	ikm := []byte("input key material for testing")
	salt := []byte("salt value")
	info := []byte("application info")

	keys, err := HKDFSHA512(ikm, salt, info, 96)
	if err != nil {
		t.Fatalf("HKDFSHA512 failed: %v", err)
	}
	if len(keys) != 96 {
		t.Errorf("expected 96 bytes, got %d", len(keys))
	}

	key1, key2, key3 := keys[0:32], keys[32:64], keys[64:96]
	if bytes.Equal(key1, key2) || bytes.Equal(key2, key3) || bytes.Equal(key1, key3) {
		t.Error("derived keys should be different")
	}
}

func TestDeriveSessionKeys_Distinct(t *testing.T) {
	sharedSecret := make([]byte, 32)
	for i := range sharedSecret {
		sharedSecret[i] = byte(i)
	}

	readKey, writeKey, err := DeriveSessionKeys(sharedSecret)
	if err != nil {
		t.Fatalf("DeriveSessionKeys failed: %v", err)
	}
	if len(readKey) != 32 || len(writeKey) != 32 {
		t.Fatalf("expected 32-byte keys, got read=%d write=%d", len(readKey), len(writeKey))
	}
	if bytes.Equal(readKey, writeKey) {
		t.Error("readKey and writeKey must differ")
	}

	// Deterministic: same input always yields same keys.
	readKey2, writeKey2, err := DeriveSessionKeys(sharedSecret)
	if err != nil {
		t.Fatalf("DeriveSessionKeys failed: %v", err)
	}
	if !bytes.Equal(readKey, readKey2) || !bytes.Equal(writeKey, writeKey2) {
		t.Error("DeriveSessionKeys must be deterministic")
	}
}

func TestPairingKeyDerivation_Distinct(t *testing.T) {
	sessionKey := make([]byte, 64)
	for i := range sessionKey {
		sessionKey[i] = byte(i * 3)
	}

	encKey, err := DerivePairSetupEncryptKey(sessionKey)
	if err != nil {
		t.Fatalf("DerivePairSetupEncryptKey: %v", err)
	}
	ctrlSign, err := DeriveControllerSignKey(sessionKey)
	if err != nil {
		t.Fatalf("DeriveControllerSignKey: %v", err)
	}
	accSign, err := DeriveAccessorySignKey(sessionKey)
	if err != nil {
		t.Fatalf("DeriveAccessorySignKey: %v", err)
	}

	if bytes.Equal(encKey, ctrlSign) || bytes.Equal(ctrlSign, accSign) || bytes.Equal(encKey, accSign) {
		t.Error("distinct info strings must produce distinct derived keys")
	}
}

func BenchmarkHKDFSHA512(b *testing.B) {
	ikm := make([]byte, 32)
	salt := make([]byte, 32)
	info := make([]byte, 32)
	for i := range ikm {
		ikm[i] = byte(i)
		salt[i] = byte(i + 32)
		info[i] = byte(i + 64)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = HKDFSHA512(ikm, salt, info, 32)
	}
}
