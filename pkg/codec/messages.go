package codec

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// DeviceInfoMessage is the introduction message sent by the client and
// received as the device's reply to an unpaired connection. Field numbers
// below are this codec's own consistent numbering, since the real schema is
// treated as an opaque external data file; the field set reproduced here is
// the bit-exact compatibility surface the device expects on introduction,
// including the richer capability-flag set (supportsACL,
// supportsExtendedMotion, sharedQueueVersion).
type DeviceInfoMessage struct {
	UniqueIdentifier       string
	Name                   string
	LocalizedModelName     string
	SystemBuildVersion     string
	ApplicationBundleID    string
	ProtocolVersion        uint32
	LastSupportedMsgType   uint32
	SupportsSystemPairing  bool
	SupportsSharedQueue    bool
	SupportsACL            bool
	SupportsExtendedMotion bool
	SharedQueueVersion     uint32
}

const (
	fieldDeviceInfoUniqueIdentifier       = 1
	fieldDeviceInfoName                   = 2
	fieldDeviceInfoLocalizedModelName     = 3
	fieldDeviceInfoSystemBuildVersion     = 4
	fieldDeviceInfoApplicationBundleID    = 5
	fieldDeviceInfoProtocolVersion        = 7
	fieldDeviceInfoLastSupportedMsgType   = 8
	fieldDeviceInfoSupportsSystemPairing  = 9
	fieldDeviceInfoSupportsSharedQueue    = 10
	fieldDeviceInfoSupportsACL            = 11
	fieldDeviceInfoSupportsExtendedMotion = 12
	fieldDeviceInfoSharedQueueVersion     = 13
)

// EncodeDeviceInfoMessage serializes a DeviceInfoMessage inner payload.
func EncodeDeviceInfoMessage(m *DeviceInfoMessage) []byte {
	var buf []byte
	buf = appendString(buf, fieldDeviceInfoUniqueIdentifier, m.UniqueIdentifier)
	buf = appendString(buf, fieldDeviceInfoName, m.Name)
	buf = appendString(buf, fieldDeviceInfoLocalizedModelName, m.LocalizedModelName)
	buf = appendString(buf, fieldDeviceInfoSystemBuildVersion, m.SystemBuildVersion)
	buf = appendString(buf, fieldDeviceInfoApplicationBundleID, m.ApplicationBundleID)
	buf = appendVarint(buf, fieldDeviceInfoProtocolVersion, uint64(m.ProtocolVersion))
	buf = appendVarint(buf, fieldDeviceInfoLastSupportedMsgType, uint64(m.LastSupportedMsgType))
	buf = appendBool(buf, fieldDeviceInfoSupportsSystemPairing, m.SupportsSystemPairing)
	buf = appendBool(buf, fieldDeviceInfoSupportsSharedQueue, m.SupportsSharedQueue)
	buf = appendBool(buf, fieldDeviceInfoSupportsACL, m.SupportsACL)
	buf = appendBool(buf, fieldDeviceInfoSupportsExtendedMotion, m.SupportsExtendedMotion)
	buf = appendVarint(buf, fieldDeviceInfoSharedQueueVersion, uint64(m.SharedQueueVersion))
	return buf
}

// DecodeDeviceInfoMessage parses a DeviceInfoMessage inner payload.
func DecodeDeviceInfoMessage(data []byte) (*DeviceInfoMessage, error) {
	m := &DeviceInfoMessage{}
	return m, forEachField(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch {
		case num == fieldDeviceInfoUniqueIdentifier && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			m.UniqueIdentifier = v
			return n, nil
		case num == fieldDeviceInfoName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			m.Name = v
			return n, nil
		case num == fieldDeviceInfoLocalizedModelName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			m.LocalizedModelName = v
			return n, nil
		case num == fieldDeviceInfoSystemBuildVersion && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			m.SystemBuildVersion = v
			return n, nil
		case num == fieldDeviceInfoApplicationBundleID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			m.ApplicationBundleID = v
			return n, nil
		case num == fieldDeviceInfoProtocolVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			m.ProtocolVersion = uint32(v)
			return n, nil
		case num == fieldDeviceInfoLastSupportedMsgType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			m.LastSupportedMsgType = uint32(v)
			return n, nil
		case num == fieldDeviceInfoSupportsSystemPairing && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			m.SupportsSystemPairing = v != 0
			return n, nil
		case num == fieldDeviceInfoSupportsSharedQueue && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			m.SupportsSharedQueue = v != 0
			return n, nil
		case num == fieldDeviceInfoSupportsACL && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			m.SupportsACL = v != 0
			return n, nil
		case num == fieldDeviceInfoSupportsExtendedMotion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			m.SupportsExtendedMotion = v != 0
			return n, nil
		case num == fieldDeviceInfoSharedQueueVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			m.SharedQueueVersion = uint32(v)
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, data), nil
		}
	})
}

// SetConnectionStateMessage announces a connection-state transition.
type SetConnectionStateMessage struct {
	State ConnectionState
}

const fieldSetConnectionStateState = 1

func EncodeSetConnectionStateMessage(m *SetConnectionStateMessage) []byte {
	return appendVarint(nil, fieldSetConnectionStateState, uint64(m.State))
}

// ClientUpdatesConfigMessage tells the device which update streams the
// client wants pushed.
type ClientUpdatesConfigMessage struct {
	NowPlayingUpdates bool
	ArtworkUpdates    bool
	KeyboardUpdates   bool
	VolumeUpdates     bool
}

const (
	fieldClientUpdatesNowPlaying = 1
	fieldClientUpdatesArtwork    = 2
	fieldClientUpdatesKeyboard   = 3
	fieldClientUpdatesVolume     = 4
)

func EncodeClientUpdatesConfigMessage(m *ClientUpdatesConfigMessage) []byte {
	var buf []byte
	buf = appendBool(buf, fieldClientUpdatesNowPlaying, m.NowPlayingUpdates)
	buf = appendBool(buf, fieldClientUpdatesArtwork, m.ArtworkUpdates)
	buf = appendBool(buf, fieldClientUpdatesKeyboard, m.KeyboardUpdates)
	buf = appendBool(buf, fieldClientUpdatesVolume, m.VolumeUpdates)
	return buf
}

// SendHIDEventMessage carries a fixed 44-byte HID event blob.
type SendHIDEventMessage struct {
	HIDEventData []byte
}

const fieldSendHIDEventData = 1

func EncodeSendHIDEventMessage(m *SendHIDEventMessage) []byte {
	return appendBytes(nil, fieldSendHIDEventData, m.HIDEventData)
}

// PlaybackQueueRequestMessage polls the device for now-playing/queue state.
type PlaybackQueueRequestMessage struct {
	Location      int32
	Length        int32
	ArtworkWidth  int32
	ArtworkHeight int32
	RequestID     string
}

const (
	fieldPlaybackQueueLocation      = 1
	fieldPlaybackQueueLength        = 2
	fieldPlaybackQueueArtworkWidth  = 3
	fieldPlaybackQueueArtworkHeight = 4
	fieldPlaybackQueueRequestID     = 5
)

func EncodePlaybackQueueRequestMessage(m *PlaybackQueueRequestMessage) []byte {
	var buf []byte
	buf = appendVarint(buf, fieldPlaybackQueueLocation, uint64(uint32(m.Location)))
	buf = appendVarint(buf, fieldPlaybackQueueLength, uint64(uint32(m.Length)))
	buf = appendVarint(buf, fieldPlaybackQueueArtworkWidth, uint64(uint32(m.ArtworkWidth)))
	buf = appendVarint(buf, fieldPlaybackQueueArtworkHeight, uint64(uint32(m.ArtworkHeight)))
	buf = appendString(buf, fieldPlaybackQueueRequestID, m.RequestID)
	return buf
}

// CryptoPairingMessage carries one round of the pairing or verify exchange.
// PairingData is a TLV8-encoded blob (see EncodeTLV8/DecodeTLV8); this
// message's only protobuf-level field wraps that opaque blob.
type CryptoPairingMessage struct {
	PairingData []byte
}

const fieldCryptoPairingData = 1

// EncodeCryptoPairingMessage serializes a CryptoPairingMessage inner payload.
func EncodeCryptoPairingMessage(m *CryptoPairingMessage) []byte {
	return appendBytes(nil, fieldCryptoPairingData, m.PairingData)
}

// DecodeCryptoPairingMessage parses a CryptoPairingMessage inner payload.
func DecodeCryptoPairingMessage(data []byte) (*CryptoPairingMessage, error) {
	m := &CryptoPairingMessage{}
	err := forEachField(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch {
		case num == fieldCryptoPairingData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			m.PairingData = v
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, data), nil
		}
	})
	return m, err
}

// NowPlayingInfo is a decoded now-playing metadata snapshot.
type NowPlayingInfo struct {
	Title    string
	Artist   string
	Album    string
	Duration float64
	Elapsed  float64
}

// SupportedCommand describes one command the device currently accepts.
type SupportedCommand struct {
	Command  string
	Enabled  bool
	CanScrub bool
}

// SetStateMessage is decode-only: the device is the only sender. The
// decoder fills in whichever of NowPlaying, SupportedCommands, and
// PlaybackQueue are present, possibly none (the null now-playing snapshot).
type SetStateMessage struct {
	HasNowPlaying     bool
	NowPlaying        *NowPlayingInfo
	SupportedCommands []SupportedCommand
	PlaybackQueue     []byte
}

const (
	fieldSetStateNowPlaying        = 1
	fieldSetStateSupportedCommands = 2
	fieldSetStatePlaybackQueue     = 3

	fieldNowPlayingTitle    = 1
	fieldNowPlayingArtist   = 2
	fieldNowPlayingAlbum    = 3
	fieldNowPlayingDuration = 4
	fieldNowPlayingElapsed  = 5

	fieldSupportedCommandCommand  = 1
	fieldSupportedCommandEnabled  = 2
	fieldSupportedCommandCanScrub = 3
)

func DecodeSetStateMessage(data []byte) (*SetStateMessage, error) {
	m := &SetStateMessage{}
	err := forEachField(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch {
		case num == fieldSetStateNowPlaying && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return n, ErrMalformedMessage
			}
			info, err := decodeNowPlayingInfo(v)
			if err != nil {
				return n, err
			}
			m.HasNowPlaying = true
			m.NowPlaying = info
			return n, nil
		case num == fieldSetStateSupportedCommands && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return n, ErrMalformedMessage
			}
			cmd, err := decodeSupportedCommand(v)
			if err != nil {
				return n, err
			}
			m.SupportedCommands = append(m.SupportedCommands, *cmd)
			return n, nil
		case num == fieldSetStatePlaybackQueue && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			m.PlaybackQueue = v
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, data), nil
		}
	})
	return m, err
}

func decodeNowPlayingInfo(data []byte) (*NowPlayingInfo, error) {
	info := &NowPlayingInfo{}
	err := forEachField(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch {
		case num == fieldNowPlayingTitle && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			info.Title = v
			return n, nil
		case num == fieldNowPlayingArtist && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			info.Artist = v
			return n, nil
		case num == fieldNowPlayingAlbum && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			info.Album = v
			return n, nil
		case num == fieldNowPlayingDuration && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			info.Duration = math.Float64frombits(v)
			return n, nil
		case num == fieldNowPlayingElapsed && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			info.Elapsed = math.Float64frombits(v)
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, data), nil
		}
	})
	return info, err
}

func decodeSupportedCommand(data []byte) (*SupportedCommand, error) {
	cmd := &SupportedCommand{}
	err := forEachField(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch {
		case num == fieldSupportedCommandCommand && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			cmd.Command = v
			return n, nil
		case num == fieldSupportedCommandEnabled && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			cmd.Enabled = v != 0
			return n, nil
		case num == fieldSupportedCommandCanScrub && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			cmd.CanScrub = v != 0
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, data), nil
		}
	})
	return cmd, err
}

// --- shared field helpers ---

func appendString(buf []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendString(buf, v)
}

func appendBytes(buf []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendBytes(buf, v)
}

func appendVarint(buf []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	return protowire.AppendVarint(buf, v)
}

func appendBool(buf []byte, num protowire.Number, v bool) []byte {
	if !v {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	return protowire.AppendVarint(buf, 1)
}

// forEachField walks a length-delimited message's fields, delegating each
// to fn. fn returns the number of bytes consumed from data (as Consume*
// functions do) and an error, if any.
func forEachField(data []byte, fn func(num protowire.Number, typ protowire.Type, data []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return ErrMalformedMessage
		}
		data = data[n:]

		consumed, err := fn(num, typ, data)
		if err != nil {
			return err
		}
		if consumed < 0 {
			return ErrMalformedMessage
		}
		data = data[consumed:]
	}
	return nil
}
