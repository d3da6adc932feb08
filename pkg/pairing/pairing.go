// Package pairing runs the SRP-6a pair-setup exchange: four rounds of
// CryptoPairingMessage that turn a user-supplied PIN into a long-term
// Credentials value, establishing a stable identity between this client and
// one device.
package pairing

import (
	"context"

	"github.com/google/uuid"

	"github.com/atvremote/mrp/pkg/codec"
	"github.com/atvremote/mrp/pkg/credentials"
	"github.com/atvremote/mrp/pkg/crypto"
	"github.com/atvremote/mrp/pkg/transport"
)

// State is a step of the pair-setup state machine.
type State int

const (
	StateIdle State = iota
	StateAwaitM2
	StateAwaitPIN
	StateAwaitM4
	StateAwaitM6
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitM2:
		return "AwaitM2"
	case StateAwaitPIN:
		return "AwaitPIN"
	case StateAwaitM4:
		return "AwaitM4"
	case StateAwaitM6:
		return "AwaitM6"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

const srpIdentity = "Pair-Setup"

const (
	methodPairSetup byte = 0x00
)

const (
	stateM1 byte = 1
	stateM2 byte = 2
	stateM3 byte = 3
	stateM4 byte = 4
	stateM5 byte = 5
	stateM6 byte = 6
)

// PINProvider supplies the setup PIN once the device's salt and ephemeral
// public key (M2) have arrived. It may prompt a user interactively or
// return a value already on hand.
type PINProvider func(ctx context.Context) (string, error)

// Pairer drives one pair-setup exchange over an already-connected,
// unencrypted Transport.
type Pairer struct {
	tr      *transport.Transport
	inbound <-chan *codec.Envelope
	getPIN  PINProvider

	state          State
	onStateChanged func(State)
}

// New creates a Pairer. inbound must deliver every CryptoPairingMessage
// envelope the transport receives, in arrival order; the caller is
// responsible for routing those envelopes there (see Device's dispatch).
func New(tr *transport.Transport, inbound <-chan *codec.Envelope, getPIN PINProvider) *Pairer {
	return &Pairer{tr: tr, inbound: inbound, getPIN: getPIN, state: StateIdle}
}

// OnStateChanged registers a callback invoked whenever the state machine
// advances.
func (p *Pairer) OnStateChanged(fn func(State)) {
	p.onStateChanged = fn
}

// State returns the state machine's current step.
func (p *Pairer) State() State {
	return p.state
}

func (p *Pairer) setState(s State) {
	p.state = s
	if p.onStateChanged != nil {
		p.onStateChanged(s)
	}
}

// Pair runs the full M1-M6 exchange and returns the resulting Credentials.
func (p *Pairer) Pair(ctx context.Context) (credentials.Credentials, error) {
	p.setState(StateIdle)

	m1 := codec.EncodeTLV8(map[codec.TLV8Tag][]byte{
		codec.TLV8Method: {methodPairSetup},
		codec.TLV8State:  {stateM1},
	}, []codec.TLV8Tag{codec.TLV8Method, codec.TLV8State})
	if err := p.send(ctx, m1); err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}

	p.setState(StateAwaitM2)
	m2, err := p.waitForState(ctx, stateM2)
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}
	salt := m2[codec.TLV8Salt]
	serverPublicB := m2[codec.TLV8PublicKey]

	p.setState(StateAwaitPIN)
	pin, err := p.getPIN(ctx)
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}

	srpClient, err := crypto.NewSRPClient([]byte(srpIdentity), []byte(pin))
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}
	clientProof, err := srpClient.Generate(salt, serverPublicB)
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, ErrAuthFailed
	}

	m3 := codec.EncodeTLV8(map[codec.TLV8Tag][]byte{
		codec.TLV8State:     {stateM3},
		codec.TLV8PublicKey: srpClient.PublicKey(),
		codec.TLV8Proof:     clientProof,
	}, []codec.TLV8Tag{codec.TLV8State, codec.TLV8PublicKey, codec.TLV8Proof})
	if err := p.send(ctx, m3); err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}

	p.setState(StateAwaitM4)
	m4, err := p.waitForState(ctx, stateM4)
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}
	if !srpClient.VerifyServerProof(m4[codec.TLV8Proof]) {
		p.setState(StateFailed)
		return credentials.Credentials{}, ErrAuthFailed
	}

	pairSetupKey, err := crypto.DerivePairSetupEncryptKey(srpClient.SessionKey())
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}
	controllerSignKey, err := crypto.DeriveControllerSignKey(srpClient.SessionKey())
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}

	edKP, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}
	pairingID := uuid.New().String()

	signMaterial := append(append(append([]byte{}, controllerSignKey...), []byte(pairingID)...), edKP.Public...)
	signature := edKP.Sign(signMaterial)

	subTLV := codec.EncodeTLV8(map[codec.TLV8Tag][]byte{
		codec.TLV8Identifier: []byte(pairingID),
		codec.TLV8PublicKey:  edKP.Public,
		codec.TLV8Signature:  signature,
	}, []codec.TLV8Tag{codec.TLV8Identifier, codec.TLV8PublicKey, codec.TLV8Signature})

	encryptedM5, err := crypto.Seal(pairSetupKey, crypto.FixedNonce(crypto.NonceTagPairSetupM5), subTLV)
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}

	m5 := codec.EncodeTLV8(map[codec.TLV8Tag][]byte{
		codec.TLV8State:         {stateM5},
		codec.TLV8EncryptedData: encryptedM5,
	}, []codec.TLV8Tag{codec.TLV8State, codec.TLV8EncryptedData})
	if err := p.send(ctx, m5); err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}

	p.setState(StateAwaitM6)
	m6, err := p.waitForState(ctx, stateM6)
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}

	plainM6, err := crypto.Open(pairSetupKey, crypto.FixedNonce(crypto.NonceTagPairSetupM6), m6[codec.TLV8EncryptedData])
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, ErrAuthFailed
	}
	peerFields, err := codec.DecodeTLV8(plainM6)
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, ErrProtocol
	}

	peerID := string(peerFields[codec.TLV8Identifier])
	peerPublicKey := peerFields[codec.TLV8PublicKey]
	peerSignature := peerFields[codec.TLV8Signature]

	accessorySignKey, err := crypto.DeriveAccessorySignKey(srpClient.SessionKey())
	if err != nil {
		p.setState(StateFailed)
		return credentials.Credentials{}, err
	}

	verifyMaterial := append(append(append([]byte{}, accessorySignKey...), []byte(peerID)...), peerPublicKey...)
	if len(peerPublicKey) != 32 || !crypto.VerifyEd25519(peerPublicKey, verifyMaterial, peerSignature) {
		p.setState(StateFailed)
		return credentials.Credentials{}, ErrAuthFailed
	}

	var remotePublicKey [32]byte
	copy(remotePublicKey[:], peerPublicKey)

	var localPrivateKey [32]byte
	copy(localPrivateKey[:], edKP.Private.Seed())

	p.setState(StateDone)
	return credentials.Credentials{
		PairingID:       pairingID,
		LocalPrivateKey: localPrivateKey,
		RemotePeerID:    peerID,
		RemotePublicKey: remotePublicKey,
	}, nil
}

func (p *Pairer) send(ctx context.Context, pairingData []byte) error {
	env := &codec.Envelope{
		Type: codec.MessageTypeCryptoPairing,
		Payload: codec.EncodeCryptoPairingMessage(&codec.CryptoPairingMessage{
			PairingData: pairingData,
		}),
	}
	_, err := p.tr.Send(ctx, env, false, 0)
	return err
}

// waitForState blocks until an inbound CryptoPairingMessage carrying the
// wanted state byte arrives, skipping envelopes that fail to decode as a
// CryptoPairingMessage/TLV8 blob (those are none of this exchange's concern).
func (p *Pairer) waitForState(ctx context.Context, want byte) (map[codec.TLV8Tag][]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case env, ok := <-p.inbound:
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
