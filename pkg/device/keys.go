package device

import "encoding/binary"

// Key identifies a remote-control key that can be injected as a HID event.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyMenu
	KeySelect
	KeySuspend
	KeyWakeUp
	KeyPlay
	KeyPause
	KeyNext
	KeyPrevious
	KeyTopMenu
	KeyHome
	KeyHomeHold
	KeyVolumeUp
	KeyVolumeDown
)

func (k Key) String() string {
	switch k {
	case KeyUp:
		return "Up"
	case KeyDown:
		return "Down"
	case KeyLeft:
		return "Left"
	case KeyRight:
		return "Right"
	case KeyMenu:
		return "Menu"
	case KeySelect:
		return "Select"
	case KeySuspend:
		return "Suspend"
	case KeyWakeUp:
		return "WakeUp"
	case KeyPlay:
		return "Play"
	case KeyPause:
		return "Pause"
	case KeyNext:
		return "Next"
	case KeyPrevious:
		return "Previous"
	case KeyTopMenu:
		return "Topmenu"
	case KeyHome:
		return "Home"
	case KeyHomeHold:
		return "HomeHold"
	case KeyVolumeUp:
		return "VolumeUp"
	case KeyVolumeDown:
		return "VolumeDown"
	default:
		return "Unknown"
	}
}

// hidUsage is the (usagePage, usageId) pair a Key maps to, plus whether
// pressing it holds for a second between the down and up frames.
type hidUsage struct {
	page  uint16
	id    uint16
	holds bool
}

var keyUsages = map[Key]hidUsage{
	KeyUp:         {1, 0x8C, false},
	KeyDown:       {1, 0x8D, false},
	KeyLeft:       {1, 0x8B, false},
	KeyRight:      {1, 0x8A, false},
	KeyMenu:       {1, 0x86, false},
	KeySelect:     {1, 0x89, false},
	KeySuspend:    {1, 0x82, false},
	KeyWakeUp:     {1, 0x83, false},
	KeyPlay:       {12, 0xB0, false},
	KeyPause:      {12, 0xB1, false},
	KeyNext:       {12, 0xB5, false},
	KeyPrevious:   {12, 0xB6, false},
	KeyTopMenu:    {12, 0x60, false},
	KeyHome:       {12, 0x40, false},
	KeyHomeHold:   {12, 0x40, true},
	KeyVolumeUp:   {12, 0xE9, false},
	KeyVolumeDown: {12, 0xEA, false},
}

// hidEventLength is the fixed size of the SendHIDEventMessage.hidEventData
// blob the device expects.
const hidEventLength = 44

// hidUsageOffset is where the (usagePage, usageId, down) triple of
// little-endian uint16s sits inside the blob.
const hidUsageOffset = 30

// hidTimestampStub is the fixed 8-byte prefix observed preceding the usage
// triple. The remaining bytes besides the timestamp and the usage triple
// are left zeroed; no capture is available in this tree to pin them down
// further (see the HID byte layout entry in DESIGN.md).
var hidTimestampStub = [8]byte{0x43, 0x89, 0x22, 0xCF, 0x08, 0x02, 0x00, 0x00}

// encodeHIDEvent builds one hidEventData frame for a single (page, id, down)
// state.
func encodeHIDEvent(page, id uint16, down bool) []byte {
	buf := make([]byte, hidEventLength)
	copy(buf, hidTimestampStub[:])

	downValue := uint16(0)
	if down {
		downValue = 1
	}
	binary.LittleEndian.PutUint16(buf[hidUsageOffset:], page)
	binary.LittleEndian.PutUint16(buf[hidUsageOffset+2:], id)
	binary.LittleEndian.PutUint16(buf[hidUsageOffset+4:], downValue)
	return buf
}
