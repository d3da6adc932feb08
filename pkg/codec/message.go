package codec

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Envelope is the decoded ProtocolMessage: a required type, optional
// identifier and priority, and the raw bytes of whichever inner message the
// type selects. Callers use the typed Decode* helpers in messages.go to
// interpret Payload.
type Envelope struct {
	Type       MessageType
	Identifier string // empty if absent
	Priority   int32  // zero if absent
	Payload    []byte // raw inner-message bytes, selected by Type
}

// EncodeEnvelope serializes an envelope to protobuf wire bytes (without the
// outer frame length prefix).
func EncodeEnvelope(env *Envelope) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldEnvelopeType, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(env.Type))

	if env.Priority != 0 {
		buf = protowire.AppendTag(buf, fieldEnvelopePriority, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(env.Priority))
	}
	if env.Identifier != "" {
		buf = protowire.AppendTag(buf, fieldEnvelopeIdentifier, protowire.BytesType)
		buf = protowire.AppendString(buf, env.Identifier)
	}
	if len(env.Payload) > 0 {
		buf = protowire.AppendTag(buf, protowire.Number(env.Type), protowire.BytesType)
		buf = protowire.AppendBytes(buf, env.Payload)
	}
	return buf
}

// DecodeEnvelope parses protobuf wire bytes into an Envelope. Unknown
// fields, including an inner payload type the caller has no decoder for,
// are preserved structurally: Payload is simply the bytes for whatever
// field number matched Type, or nil if none did.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	env := &Envelope{}
	haveType := false

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, ErrMalformedMessage
		}
		data = data[n:]

		switch {
		case num == fieldEnvelopeType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, ErrMalformedMessage
			}
			env.Type = MessageType(v)
			haveType = true
			data = data[n:]

		case num == fieldEnvelopePriority && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, ErrMalformedMessage
			}
			env.Priority = int32(v)
			data = data[n:]

		case num == fieldEnvelopeIdentifier && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, ErrMalformedMessage
			}
			env.Identifier = v
			data = data[n:]

		case typ == protowire.BytesType:
			// Any other length-delimited field is a candidate inner
			// payload; keep the one matching Type once we know it, or
			// the most recent if Type appears after the payload field.
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, ErrMalformedMessage
			}
			if !haveType || protowire.Number(env.Type) == num {
				env.Payload = v
			}
			data = data[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, ErrMalformedMessage
			}
			data = data[n:]
		}
	}

	return env, nil
}
