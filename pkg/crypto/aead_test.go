package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// Key, nonce and plaintext from RFC 8439 Section 2.8.2 (ChaCha20-Poly1305
// AEAD). The RFC's vector also authenticates 12 bytes of AAD; Seal/Open use
// none, so the ciphertext matches the RFC while the tag is the one produced
// with empty AAD.
var chacha20poly1305TestVectors = []struct {
	name       string
	key        string
	nonce      string
	plaintext  string
	ciphertext string // includes trailing 16-byte tag
}{
	{
		name:      "RFC8439_2_8_2",
		key:       "808182838485868788898a8b8c8d8e8f909192939495969798999a9b9c9d9e9fa0a1a2a3a4a5a6a7a8a9aaabacadaeaf",
		nonce:     "070000004041424344454647",
		plaintext: "4c616469657320616e642047656e746c656d656e206f662074686520636c617373206f66202739393a204966204920636f756c64206f6666657220796f75206f6e6c79206f6e652074697020666f7220746865206675747572652c2073756e73637265656e20776f756c642062652069742e",
		ciphertext: "d31a8d34648e60db7b86afbc53ef7ec2a4aded51296e08fea9e2b5a736ee62d" +
			"63dbea45e8ca9671282fafb69da92728b1a71de0a9e060b2905d6a5b67ecd3b" +
			"3692ddbd7f2d778b8c9803aee328091b58fab324e4fad675945585808b4831d" +
			"7bc3ff4def08e4b7a9de576d26586cec64b6116" +
			"6a23a4681fd59456aea1d29f82477216",
	},
}

func TestSeal(t *testing.T) {
	for _, tc := range chacha20poly1305TestVectors {
		t.Run(tc.name, func(t *testing.T) {
			key, _ := hex.DecodeString(tc.key[:64])
			nonce, _ := hex.DecodeString(tc.nonce)
			plaintext, _ := hex.DecodeString(tc.plaintext)
			expected, _ := hex.DecodeString(tc.ciphertext)

			result, err := Seal(key, nonce, plaintext)
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}
			if !bytes.Equal(result, expected) {
				t.Errorf("ciphertext mismatch\ngot:  %x\nwant: %x", result, expected)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	for _, tc := range chacha20poly1305TestVectors {
		t.Run(tc.name, func(t *testing.T) {
			key, _ := hex.DecodeString(tc.key[:64])
			nonce, _ := hex.DecodeString(tc.nonce)
			ciphertext, _ := hex.DecodeString(tc.ciphertext)
			expected, _ := hex.DecodeString(tc.plaintext)

			result, err := Open(key, nonce, ciphertext)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !bytes.Equal(result, expected) {
				t.Errorf("plaintext mismatch\ngot:  %x\nwant: %x", result, expected)
			}
		})
	}
}

func TestOpen_TamperedTagFails(t *testing.T) {
	key := make([]byte, AEADKeySize)
	nonce := SessionNonce(0)

	ciphertext, err := Seal(key, nonce, []byte("hello device"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xff

	if _, err := Open(key, nonce, ciphertext); err != ErrDecryptionFailed {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestSeal_RoundTripWithCounterNonces(t *testing.T) {
	key := make([]byte, AEADKeySize)
	for i := range key {
		key[i] = byte(i)
	}

	for counter := uint64(0); counter < 4; counter++ {
		nonce := SessionNonce(counter)
		plaintext := []byte("frame payload")

		ciphertext, err := Seal(key, nonce, plaintext)
		if err != nil {
			t.Fatalf("Seal failed: %v", err)
		}
		recovered, err := Open(key, nonce, ciphertext)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if !bytes.Equal(recovered, plaintext) {
			t.Errorf("round trip mismatch at counter %d", counter)
		}
	}
}

func TestSeal_InvalidNonceSize(t *testing.T) {
	key := make([]byte, AEADKeySize)
	if _, err := Seal(key, []byte("short"), []byte("data")); err != ErrInvalidNonceSize {
		t.Errorf("expected ErrInvalidNonceSize, got %v", err)
	}
}

func TestFixedNonce(t *testing.T) {
	nonce := FixedNonce(NonceTagPairSetupM5)
	if len(nonce) != AEADNonceSize {
		t.Fatalf("expected %d bytes, got %d", AEADNonceSize, len(nonce))
	}
	if !bytes.Equal(nonce[4:], []byte("PS-Msg05")) {
		t.Errorf("unexpected nonce tail: %x", nonce[4:])
	}
	for _, b := range nonce[:4] {
		if b != 0 {
			t.Errorf("expected zero padding, got %x", nonce[:4])
		}
	}
}
