package verify

import "errors"

// Pair-verify failure modes.
var (
	// ErrProtocol indicates an inbound CryptoPairingMessage carried a state
	// byte other than the one this step of the exchange expects.
	ErrProtocol = errors.New("verify: unexpected state in exchange")

	// ErrAuthFailed indicates the device's identifier didn't match the
	// stored peer, or its M2 signature failed verification.
	ErrAuthFailed = errors.New("verify: authentication failed")
)
