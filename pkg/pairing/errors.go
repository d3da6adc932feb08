package pairing

import "errors"

// Pair-setup failure modes.
var (
	// ErrProtocol indicates an inbound CryptoPairingMessage carried a state
	// byte other than the one this step of the exchange expects.
	ErrProtocol = errors.New("pairing: unexpected state in exchange")

	// ErrAuthFailed indicates the SRP server proof or the accessory's
	// M6 signature failed verification.
	ErrAuthFailed = errors.New("pairing: authentication failed")
)
