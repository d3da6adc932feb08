package credentials

import "testing"

func TestSerializeParseRoundTrip(t *testing.T) {
	var localPriv, remotePub [keySize]byte
	for i := range localPriv {
		localPriv[i] = byte(i)
		remotePub[i] = byte(255 - i)
	}

	original := New(localPriv, "device-peer-id", remotePub)

	parsed, err := Parse(original.Serialize())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if parsed.PairingID != original.PairingID {
		t.Errorf("PairingID = %q, want %q", parsed.PairingID, original.PairingID)
	}
	if parsed.RemotePeerID != original.RemotePeerID {
		t.Errorf("RemotePeerID = %q, want %q", parsed.RemotePeerID, original.RemotePeerID)
	}
	if parsed.LocalPrivateKey != original.LocalPrivateKey {
		t.Errorf("LocalPrivateKey mismatch")
	}
	if parsed.RemotePublicKey != original.RemotePublicKey {
		t.Errorf("RemotePublicKey mismatch")
	}
}

func TestSerializeEmitsLowercaseHex(t *testing.T) {
	var localPriv, remotePub [keySize]byte
	localPriv[0] = 0xAB
	remotePub[0] = 0xCD

	c := New(localPriv, "peer", remotePub)
	s := c.Serialize()

	for _, r := range s {
		if r >= 'A' && r <= 'F' {
			t.Fatalf("Serialize produced uppercase hex: %q", s)
		}
	}
}

func TestParseAcceptsUppercaseHex(t *testing.T) {
	c := New([keySize]byte{1, 2, 3}, "peer", [keySize]byte{4, 5, 6})
	s := c.Serialize()

	upper := ""
	for _, r := range s {
		if r >= 'a' && r <= 'f' {
			upper += string(r - 32)
		} else {
			upper += string(r)
		}
	}

	parsed, err := Parse(upper)
	if err != nil {
		t.Fatalf("Parse with uppercase hex: %v", err)
	}
	if parsed.LocalPrivateKey != c.LocalPrivateKey {
		t.Error("LocalPrivateKey mismatch after uppercase parse")
	}
}

func TestParseRejectsMalformedFieldCount(t *testing.T) {
	if _, err := Parse("onlyonefield"); err != ErrMalformedCredentials {
		t.Errorf("got %v, want ErrMalformedCredentials", err)
	}
	if _, err := Parse("a:b:c:d:e"); err != ErrMalformedCredentials {
		t.Errorf("got %v, want ErrMalformedCredentials", err)
	}
}

func TestParseRejectsInvalidHex(t *testing.T) {
	if _, err := Parse("zz:00:00:00"); err == nil {
		t.Error("expected an error for non-hex pairingId field")
	}
}

func TestParseRejectsWrongKeyLength(t *testing.T) {
	short := "70656572:0a0b:70656572:0c0d"
	if _, err := Parse(short); err != ErrInvalidKeyLength {
		t.Errorf("got %v, want ErrInvalidKeyLength", err)
	}
}
