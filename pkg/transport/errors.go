package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed transport.
	ErrClosed = errors.New("transport: closed")

	// ErrInvalidAddress is not returned by this package; Connect surfaces
	// the dialer's own error for a bad address.
	ErrInvalidAddress = errors.New("transport: invalid address")

	// ErrAlreadyConnected is not returned by this package: Connect and
	// NewWithConn always build a new Transport.
	ErrAlreadyConnected = errors.New("transport: already connected")

	// ErrNotConnected is not returned by this package: a Transport exists
	// only once its connection does.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrTimeout is returned when a waited send receives no matching
	// response within its deadline.
	ErrTimeout = errors.New("transport: timeout waiting for response")

	// ErrDecode is not returned by this package: when an inbound frame
	// fails to decrypt or decode, OnError receives the AEAD or codec error
	// itself.
	ErrDecode = errors.New("transport: malformed inbound frame")

	// ErrDuplicateIdentifier is returned if a waited send somehow collides
	// with an identifier already pending; callers never construct
	// identifiers themselves so this indicates a bug, not a wire event.
	ErrDuplicateIdentifier = errors.New("transport: identifier already pending")
)
