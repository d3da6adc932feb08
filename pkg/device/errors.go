package device

import "errors"

// Device-level failure modes.
var (
	// ErrNotOpen indicates SendKey was called on a Device with no
	// transport attached.
	ErrNotOpen = errors.New("device: not open")

	// ErrUnknownKey indicates a Key value with no (usagePage, usageId)
	// mapping was used with SendKey.
	ErrUnknownKey = errors.New("device: unknown key")
)
