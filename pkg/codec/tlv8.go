package codec

// TLV8Tag identifies a field inside a pairingData blob. Values match the
// tag-length-value scheme Apple uses across its pairing protocols: each
// field is a single tag byte, a single length byte, and up to 255 bytes of
// value, with values longer than 255 bytes split into consecutive
// same-tagged chunks.
type TLV8Tag byte

const (
	TLV8Method        TLV8Tag = 0x00
	TLV8Identifier    TLV8Tag = 0x01
	TLV8Salt          TLV8Tag = 0x02
	TLV8PublicKey     TLV8Tag = 0x03
	TLV8Proof         TLV8Tag = 0x04
	TLV8EncryptedData TLV8Tag = 0x05
	TLV8State         TLV8Tag = 0x06
	TLV8Error         TLV8Tag = 0x07
	TLV8Signature     TLV8Tag = 0x0A
)

const tlv8MaxChunk = 255

// EncodeTLV8 serializes fields in order, chunking any value longer than 255
// bytes into consecutive same-tagged fragments.
func EncodeTLV8(fields map[TLV8Tag][]byte, order []TLV8Tag) []byte {
	var out []byte
	for _, tag := range order {
		value, ok := fields[tag]
		if !ok {
			continue
		}
		if len(value) == 0 {
			out = append(out, byte(tag), 0)
			continue
		}
		for offset := 0; offset < len(value); offset += tlv8MaxChunk {
			end := offset + tlv8MaxChunk
			if end > len(value) {
				end = len(value)
			}
			chunk := value[offset:end]
			out = append(out, byte(tag), byte(len(chunk)))
			out = append(out, chunk...)
		}
	}
	return out
}

// DecodeTLV8 parses a pairingData blob into its tagged fields, reassembling
// chunked values for tags that appear more than once consecutively.
func DecodeTLV8(data []byte) (map[TLV8Tag][]byte, error) {
	fields := make(map[TLV8Tag][]byte)
	var lastTag TLV8Tag
	haveLast := false

	for i := 0; i < len(data); {
		if i+2 > len(data) {
			return nil, ErrMalformedMessage
		}
		tag := TLV8Tag(data[i])
		length := int(data[i+1])
		i += 2
		if i+length > len(data) {
			return nil, ErrMalformedMessage
		}
		value := data[i : i+length]
		i += length

		if haveLast && tag == lastTag {
			fields[tag] = append(fields[tag], value...)
		} else {
			existing := fields[tag]
			fields[tag] = append(append([]byte{}, existing...), value...)
		}
		lastTag = tag
		haveLast = true
	}
	return fields, nil
}
