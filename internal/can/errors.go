package can

import "errors"

// Validation failures are sentinel values so callers can branch with
// errors.Is. Wrapped forms carry the offending measurement.
var (
	// ErrInvalidLength reports a frame region whose size is neither MTU
	// nor FDMTU.
	ErrInvalidLength = errors.New("can: invalid frame length")

	// ErrPayloadTooLong reports a declared data length beyond the maximum
	// the frame's classification can carry.
	ErrPayloadTooLong = errors.New("can: payload too long")

	// ErrBufferOverflow reports a payload span that extends past the limit
	// of its frame region or backing storage.
	ErrBufferOverflow = errors.New("can: buffer overflow")
)
