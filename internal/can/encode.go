package can

import (
	"encoding/binary"
	"fmt"
)

// NewFrame builds a frame over freshly allocated storage from an identifier
// word, FD flags and a payload. The region size follows the payload alone:
// up to MaxDataLength bytes yield an MTU region, longer payloads an FDMTU
// region. Flags never influence sizing; the kernel ignores them on classic
// frames.
func NewFrame(id uint32, flags byte, payload []byte) (Frame, error) {
	if len(payload) > MaxFDDataLength {
		return Frame{}, fmt.Errorf("%w: %d bytes declared, at most %d fit",
			ErrPayloadTooLong, len(payload), MaxFDDataLength)
	}
	size := MTU
	if len(payload) > MaxDataLength {
		size = FDMTU
	}
	region := make([]byte, size)
	binary.NativeEndian.PutUint32(region[offsetID:], id)
	region[offsetDataLength] = byte(len(payload))
	region[offsetFlags] = flags
	copy(region[offsetData:], payload)

	// Freshly written regions go through the same validation as foreign
	// ones. A failure here is a bug in this function, not caller error.
	f, err := Decode(region)
	if err != nil {
		return Frame{}, fmt.Errorf("can: frame construction produced an invalid region: %w", err)
	}
	return f, nil
}
