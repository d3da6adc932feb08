package codec

import (
	"bytes"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env := &Envelope{
		Type:       MessageTypeDeviceInfo,
		Identifier: "c0ffee-1234",
		Priority:   1,
		Payload: EncodeDeviceInfoMessage(&DeviceInfoMessage{
			UniqueIdentifier:      "pairing-id-1",
			Name:                  "atvremote",
			ProtocolVersion:       1,
			SupportsSystemPairing: true,
		}),
	}

	encoded := EncodeEnvelope(env)
	decoded, err := DecodeEnvelope(encoded)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}

	if decoded.Type != env.Type {
		t.Errorf("Type = %v, want %v", decoded.Type, env.Type)
	}
	if decoded.Identifier != env.Identifier {
		t.Errorf("Identifier = %q, want %q", decoded.Identifier, env.Identifier)
	}
	if decoded.Priority != env.Priority {
		t.Errorf("Priority = %d, want %d", decoded.Priority, env.Priority)
	}
	if !bytes.Equal(decoded.Payload, env.Payload) {
		t.Errorf("Payload mismatch\ngot:  %x\nwant: %x", decoded.Payload, env.Payload)
	}

	info, err := DecodeDeviceInfoMessage(decoded.Payload)
	if err != nil {
		t.Fatalf("DecodeDeviceInfoMessage: %v", err)
	}
	if info.UniqueIdentifier != "pairing-id-1" {
		t.Errorf("UniqueIdentifier = %q", info.UniqueIdentifier)
	}
	if !info.SupportsSystemPairing {
		t.Error("expected SupportsSystemPairing = true")
	}
}

func TestEnvelopeRoundTrip_NoIdentifierNoPriority(t *testing.T) {
	env := &Envelope{Type: MessageTypeSetConnectionState}
	encoded := EncodeEnvelope(env)

	decoded, err := DecodeEnvelope(encoded)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if decoded.Identifier != "" {
		t.Errorf("expected empty identifier, got %q", decoded.Identifier)
	}
	if decoded.Priority != 0 {
		t.Errorf("expected zero priority, got %d", decoded.Priority)
	}
}

func TestDecodeEnvelope_UnknownTypeStillDecodes(t *testing.T) {
	env := &Envelope{Type: MessageType(9999), Identifier: "x"}
	encoded := EncodeEnvelope(env)

	decoded, err := DecodeEnvelope(encoded)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if decoded.Type != MessageType(9999) {
		t.Errorf("Type = %v, want 9999", decoded.Type)
	}
}

func TestSetConnectionStateMessageEncode(t *testing.T) {
	data := EncodeSetConnectionStateMessage(&SetConnectionStateMessage{State: ConnectionStateConnected})
	if len(data) == 0 {
		t.Fatal("expected non-empty payload")
	}
}

func TestClientUpdatesConfigMessageEncode(t *testing.T) {
	data := EncodeClientUpdatesConfigMessage(&ClientUpdatesConfigMessage{
		NowPlayingUpdates: true,
		VolumeUpdates:     true,
	})
	if len(data) == 0 {
		t.Fatal("expected non-empty payload")
	}
}

func TestSendHIDEventMessageEncode(t *testing.T) {
	blob := make([]byte, 44)
	data := EncodeSendHIDEventMessage(&SendHIDEventMessage{HIDEventData: blob})
	decoded, err := DecodeEnvelope(EncodeEnvelope(&Envelope{Type: MessageTypeSendHIDEvent, Payload: data}))
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if len(decoded.Payload) == 0 {
		t.Fatal("expected non-empty payload")
	}
}

func TestDecodeSetStateMessage_SupportedCommands(t *testing.T) {
	cmd := &SupportedCommand{Command: "Play", Enabled: true, CanScrub: false}
	cmdBytes := appendString(nil, fieldSupportedCommandCommand, cmd.Command)
	cmdBytes = appendBool(cmdBytes, fieldSupportedCommandEnabled, cmd.Enabled)

	payload := appendBytes(nil, fieldSetStateSupportedCommands, cmdBytes)

	decoded, err := DecodeSetStateMessage(payload)
	if err != nil {
		t.Fatalf("DecodeSetStateMessage: %v", err)
	}
	if len(decoded.SupportedCommands) != 1 {
		t.Fatalf("expected 1 supported command, got %d", len(decoded.SupportedCommands))
	}
	if decoded.SupportedCommands[0].Command != "Play" || !decoded.SupportedCommands[0].Enabled {
		t.Errorf("unexpected command: %+v", decoded.SupportedCommands[0])
	}
	if decoded.HasNowPlaying {
		t.Error("expected HasNowPlaying = false")
	}
}

func TestDecodeSetStateMessage_NowPlayingNull(t *testing.T) {
	payload := appendBytes(nil, fieldSetStateNowPlaying, nil)
	// appendBytes treats a nil/empty value as "absent", so this payload is
	// wholly empty: a SetStateMessage with no nowPlaying field at all.
	if len(payload) != 0 {
		t.Fatal("appendBytes should have produced no bytes for an empty value")
	}

	decoded, err := DecodeSetStateMessage(payload)
	if err != nil {
		t.Fatalf("DecodeSetStateMessage: %v", err)
	}
	if decoded.HasNowPlaying {
		t.Error("expected HasNowPlaying = false for a wholly empty message")
	}
}

func TestTLV8RoundTrip(t *testing.T) {
	order := []TLV8Tag{TLV8Method, TLV8State, TLV8PublicKey, TLV8Salt}
	fields := map[TLV8Tag][]byte{
		TLV8Method:    {1},
		TLV8State:     {1},
		TLV8PublicKey: bytes.Repeat([]byte{0xAB}, 384),
		TLV8Salt:      []byte{0x01, 0x02, 0x03, 0x04},
	}

	encoded := EncodeTLV8(fields, order)
	decoded, err := DecodeTLV8(encoded)
	if err != nil {
		t.Fatalf("DecodeTLV8: %v", err)
	}

	for tag, want := range fields {
		if !bytes.Equal(decoded[tag], want) {
			t.Errorf("tag %x: got %d bytes, want %d bytes", tag, len(decoded[tag]), len(want))
		}
	}
}

func TestTLV8ChunksLongValues(t *testing.T) {
	value := bytes.Repeat([]byte{0x42}, 600)
	encoded := EncodeTLV8(map[TLV8Tag][]byte{TLV8EncryptedData: value}, []TLV8Tag{TLV8EncryptedData})

	// 600 bytes splits into chunks of 255, 255, 90: three (tag,len) headers.
	wantHeaders := 3
	gotHeaders := 0
	for i := 0; i < len(encoded); {
		gotHeaders++
		length := int(encoded[i+1])
		i += 2 + length
	}
	if gotHeaders != wantHeaders {
		t.Errorf("got %d chunks, want %d", gotHeaders, wantHeaders)
	}

	decoded, err := DecodeTLV8(encoded)
	if err != nil {
		t.Fatalf("DecodeTLV8: %v", err)
	}
	if !bytes.Equal(decoded[TLV8EncryptedData], value) {
		t.Error("reassembled value does not match original")
	}
}

func TestCryptoPairingMessageRoundTrip(t *testing.T) {
	pairingData := EncodeTLV8(map[TLV8Tag][]byte{
		TLV8State: {3},
		TLV8Proof: bytes.Repeat([]byte{0x9}, 64),
	}, []TLV8Tag{TLV8State, TLV8Proof})

	data := EncodeCryptoPairingMessage(&CryptoPairingMessage{PairingData: pairingData})
	decoded, err := DecodeCryptoPairingMessage(data)
	if err != nil {
		t.Fatalf("DecodeCryptoPairingMessage: %v", err)
	}
	if !bytes.Equal(decoded.PairingData, pairingData) {
		t.Error("PairingData mismatch")
	}
}
