package credentials

import "errors"

// Serialization and validation errors.
var (
	// ErrMalformedCredentials indicates the serialized form does not split
	// into the four colon-separated fields the wire format requires.
	ErrMalformedCredentials = errors.New("credentials: malformed serialized form")

	// ErrInvalidHex indicates one of the four fields is not valid hex.
	ErrInvalidHex = errors.New("credentials: invalid hex encoding")

	// ErrInvalidKeyLength indicates localPrivateKey or remotePublicKey
	// decoded to something other than 32 bytes.
	ErrInvalidKeyLength = errors.New("credentials: key material must be 32 bytes")
)
