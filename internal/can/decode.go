package can

import "fmt"

// Decode validates region as one encoded frame and wraps it without
// copying. The region must be exactly MTU or FDMTU bytes long.
func Decode(region []byte) (Frame, error) {
	return DecodeAt(region, 0, len(region))
}

// DecodeAt validates the span [base, base+size) of buf as one encoded frame
// and wraps it without copying. Use this form when several frames share a
// single read buffer.
func DecodeAt(buf []byte, base, size int) (Frame, error) {
	if base < 0 || size < 0 || base+size > len(buf) {
		return Frame{}, fmt.Errorf("%w: span [%d, %d) outside %d byte storage",
			ErrBufferOverflow, base, base+size, len(buf))
	}
	f := Frame{buf: buf, base: base, size: size}
	if err := f.validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// validate enforces every region invariant in one pass. It runs once at
// construction; accessors assume it already held.
func (f Frame) validate() error {
	if f.size != MTU && f.size != FDMTU {
		return fmt.Errorf("%w: %d bytes, want %d or %d", ErrInvalidLength, f.size, MTU, FDMTU)
	}
	dlen := f.DataLength()
	max := MaxDataLength
	if f.IsFD() {
		max = MaxFDDataLength
	}
	if dlen > max {
		return fmt.Errorf("%w: %d bytes declared, at most %d fit", ErrPayloadTooLong, dlen, max)
	}
	if HeaderLength+dlen > f.size {
		return fmt.Errorf("%w: %d byte payload exceeds %d byte region", ErrBufferOverflow, dlen, f.size)
	}
	return nil
}
