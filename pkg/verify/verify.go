// Package verify runs the two-round pair-verify exchange: an ephemeral
// Curve25519 ECDH plus mutual Ed25519 signature check against a previously
// paired Credentials value, producing the per-connection SessionKeys that
// put the Transport into encrypted mode.
package verify

import (
	"context"
	"crypto/ed25519"

	"github.com/atvremote/mrp/pkg/codec"
	"github.com/atvremote/mrp/pkg/credentials"
	"github.com/atvremote/mrp/pkg/crypto"
	"github.com/atvremote/mrp/pkg/transport"
)

// State is a step of the pair-verify state machine.
type State int

const (
	StateIdle State = iota
	StateAwaitM2
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitM2:
		return "AwaitM2"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

const (
	stateM1 byte = 1
	stateM2 byte = 2
	stateM3 byte = 3
)

// Verifier drives one pair-verify exchange over an already-connected,
// unencrypted Transport for which Credentials were already established by
// a prior Pairer run.
type Verifier struct {
	tr      *transport.Transport
	inbound <-chan *codec.Envelope
	creds   credentials.Credentials

	state          State
	onStateChanged func(State)
}

// New creates a Verifier. inbound must deliver every CryptoPairingMessage
// envelope the transport receives, in arrival order.
func New(tr *transport.Transport, inbound <-chan *codec.Envelope, creds credentials.Credentials) *Verifier {
	return &Verifier{tr: tr, inbound: inbound, creds: creds, state: StateIdle}
}

// OnStateChanged registers a callback invoked whenever the state machine
// advances.
func (v *Verifier) OnStateChanged(fn func(State)) {
	v.onStateChanged = fn
}

// State returns the state machine's current step.
func (v *Verifier) State() State {
	return v.state
}

func (v *Verifier) setState(s State) {
	v.state = s
	if v.onStateChanged != nil {
		v.onStateChanged(s)
	}
}

// Verify runs the M1-M3 exchange. On success it installs fresh SessionKeys
// on the Transport, switching it into encrypted mode for every subsequent
// frame.
func (v *Verifier) Verify(ctx context.Context) error {
	v.setState(StateIdle)

	clientEph, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		v.setState(StateFailed)
		return err
	}

	m1 := codec.EncodeTLV8(map[codec.TLV8Tag][]byte{
		codec.TLV8State:     {stateM1},
		codec.TLV8PublicKey: clientEph.Public[:],
	}, []codec.TLV8Tag{codec.TLV8State, codec.TLV8PublicKey})
	if err := v.send(ctx, m1); err != nil {
		v.setState(StateFailed)
		return err
	}

	v.setState(StateAwaitM2)
	m2, err := v.waitForState(ctx, stateM2)
	if err != nil {
		v.setState(StateFailed)
		return err
	}
	deviceEphPub := m2[codec.TLV8PublicKey]

	sharedSecret, err := clientEph.SharedSecret(deviceEphPub)
	if err != nil {
		v.setState(StateFailed)
		return err
	}

	encryptKey, err := crypto.DerivePairVerifyEncryptKey(sharedSecret)
	if err != nil {
		v.setState(StateFailed)
		return err
	}

	plainM2, err := crypto.Open(encryptKey, crypto.FixedNonce(crypto.NonceTagPairVerifyM2), m2[codec.TLV8EncryptedData])
	if err != nil {
		v.setState(StateFailed)
		return ErrAuthFailed
	}
	m2Fields, err := codec.DecodeTLV8(plainM2)
	if err != nil {
		v.setState(StateFailed)
		return ErrProtocol
	}

	peerID := string(m2Fields[codec.TLV8Identifier])
	peerSignature := m2Fields[codec.TLV8Signature]
	if peerID != v.creds.RemotePeerID {
		v.setState(StateFailed)
		return ErrAuthFailed
	}

	peerVerifyMaterial := append(append(append([]byte{}, deviceEphPub...), []byte(peerID)...), clientEph.Public[:]...)
	if !crypto.VerifyEd25519(v.creds.RemotePublicKey[:], peerVerifyMaterial, peerSignature) {
		v.setState(StateFailed)
		return ErrAuthFailed
	}

	localIdentity := ed25519.NewKeyFromSeed(v.creds.LocalPrivateKey[:])
	signMaterial := append(append(append([]byte{}, clientEph.Public[:]...), []byte(v.creds.PairingID)...), deviceEphPub...)
	signature := ed25519.Sign(localIdentity, signMaterial)

	subTLV := codec.EncodeTLV8(map[codec.TLV8Tag][]byte{
		codec.TLV8Identifier: []byte(v.creds.PairingID),
		codec.TLV8Signature:  signature,
	}, []codec.TLV8Tag{codec.TLV8Identifier, codec.TLV8Signature})

	encryptedM3, err := crypto.Seal(encryptKey, crypto.FixedNonce(crypto.NonceTagPairVerifyM3), subTLV)
	if err != nil {
		v.setState(StateFailed)
		return err
	}

	m3 := codec.EncodeTLV8(map[codec.TLV8Tag][]byte{
		codec.TLV8State:         {stateM3},
		codec.TLV8EncryptedData: encryptedM3,
	}, []codec.TLV8Tag{codec.TLV8State, codec.TLV8EncryptedData})
	if err := v.send(ctx, m3); err != nil {
		v.setState(StateFailed)
		return err
	}

	readKey, writeKey, err := crypto.DeriveSessionKeys(sharedSecret)
	if err != nil {
		v.setState(StateFailed)
		return err
	}
	v.tr.SetSessionKeys(transport.NewSessionKeys(readKey, writeKey))

	v.setState(StateDone)
	return nil
}

func (v *Verifier) send(ctx context.Context, pairingData []byte) error {
	env := &codec.Envelope{
		Type: codec.MessageTypeCryptoPairing,
		Payload: codec.EncodeCryptoPairingMessage(&codec.CryptoPairingMessage{
			PairingData: pairingData,
		}),
	}
	_, err := v.tr.Send(ctx, env, false, 0)
	return err
}

// waitForState blocks until an inbound CryptoPairingMessage carrying the
// wanted state byte arrives, skipping envelopes that fail to decode as a
// CryptoPairingMessage/TLV8 blob.
func (v *Verifier) waitForState(ctx context.Context, want byte) (map[codec.TLV8Tag][]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case env, ok := <-v.inbound:
			if !ok {
				return nil, ErrProtocol
			}
			msg, err := codec.DecodeCryptoPairingMessage(env.Payload)
			if err != nil {
				continue
			}
			fields, err := codec.DecodeTLV8(msg.PairingData)
			if err != nil {
				continue
			}
			state, ok := fields[codec.TLV8State]
			if !ok || len(state) != 1 {
				continue
			}
			if errData, hasError := fields[codec.TLV8Error]; hasError && len(errData) == 1 && errData[0] != 0 {
				return nil, ErrAuthFailed
			}
			if state[0] != want {
				return nil, ErrProtocol
			}
			return fields, nil
		}
	}
}
