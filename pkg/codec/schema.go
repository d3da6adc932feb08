package codec

// MessageType identifies a ProtocolMessage's inner payload. Values mirror
// the protocol's own numbering: the oneof field number for a message's
// inner payload equals its MessageType value.
type MessageType uint32

const (
	MessageTypeDeviceInfo           MessageType = 15
	MessageTypeCryptoPairing        MessageType = 20
	MessageTypePlaybackQueueRequest MessageType = 26
	MessageTypeClientUpdatesConfig  MessageType = 39
	MessageTypeSetConnectionState   MessageType = 41
	MessageTypeSetState             MessageType = 42
	MessageTypeSendHIDEvent         MessageType = 45
)

// Field numbers within the ProtocolMessage envelope itself.
const (
	fieldEnvelopeType       = 1
	fieldEnvelopeIdentifier = 8
	fieldEnvelopePriority   = 2
)

// ConnectionState values for SetConnectionStateMessage.state.
type ConnectionState int32

const (
	ConnectionStateConnecting ConnectionState = 1
	ConnectionStateConnected  ConnectionState = 2
	ConnectionStateDisconnect ConnectionState = 3
)
