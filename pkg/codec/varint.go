// Package codec implements the MRP wire format: a varint-length-prefixed
// ProtocolMessage envelope with a type-selected inner payload, built
// directly on protowire rather than generated protobuf stubs.
package codec

import (
	"encoding/binary"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// MaxFrameSize bounds a single frame's payload length. Frames larger than
// this are rejected before the length-prefixed body is read, protecting
// against a malicious or corrupt length prefix forcing a huge allocation.
const MaxFrameSize = 1 << 20 // 1 MiB

// EncodeFrame prepends a varint length prefix to payload.
func EncodeFrame(payload []byte) []byte {
	prefix := protowire.AppendVarint(nil, uint64(len(payload)))
	return append(prefix, payload...)
}

// ReadFrame reads one varint-length-prefixed frame from r and returns its
// payload, with the prefix consumed.
func ReadFrame(r io.Reader) ([]byte, error) {
	length, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	if length > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// readVarint reads a base-128 varint one byte at a time, since protowire
// has no streaming reader and the length prefix must be read before we know
// how many bytes follow.
func readVarint(r io.Reader) (uint64, error) {
	var buf [1]byte
	var result uint64
	var shift uint

	for i := 0; i < binary.MaxVarintLen64; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		b := buf[0]
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrTruncatedVarint
}
