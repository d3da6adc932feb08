package codec

import "errors"

// Framing and decode errors.
var (
	// ErrFrameTooLarge indicates a varint length prefix exceeded MaxFrameSize.
	ErrFrameTooLarge = errors.New("codec: frame exceeds maximum size")

	// ErrTruncatedVarint indicates a length prefix ran to the maximum varint
	// length without terminating. A stream that ends mid-prefix surfaces the
	// underlying io error instead.
	ErrTruncatedVarint = errors.New("codec: truncated length prefix")

	// ErrMalformedMessage indicates a protobuf-wire field could not be parsed.
	ErrMalformedMessage = errors.New("codec: malformed message")

	// ErrUnknownMessageType indicates a decode was attempted for a message
	// type with no registered inner payload decoder. Unknown inbound types
	// still decode the envelope successfully: DecodeEnvelope never returns
	// this error, and neither do the typed per-message decoders.
	ErrUnknownMessageType = errors.New("codec: unknown message type")

	// ErrMissingField indicates a required field was absent from a decoded
	// message.
	ErrMissingField = errors.New("codec: missing required field")
)
