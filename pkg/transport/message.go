package transport

import "github.com/atvremote/mrp/pkg/codec"

// MessageHandler is invoked from the reactor goroutine for every decoded
// inbound envelope, whether or not it also matched a pending call.
// Implementations must return quickly or hand off to another goroutine;
// the transport's read loop is blocked for the duration of the call.
type MessageHandler func(env *codec.Envelope)

// ErrorHandler is invoked from the reactor goroutine when a frame fails to
// decrypt or decode, or the connection fails. A frame that fails to decode
// is dropped and the connection continues; a read or decrypt failure
// closes the transport.
type ErrorHandler func(err error)

// DebugHandler receives human-readable diagnostic strings; nil disables
// diagnostics entirely.
type DebugHandler func(msg string)
