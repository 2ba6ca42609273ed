package can

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Frame is a read-only view over one encoded CAN or CAN FD frame inside a
// byte buffer. It never copies or owns the storage it points at; the span
// [base, base+size) must stay intact and unshared for as long as the view
// is read. Construct one through Decode, DecodeAt or NewFrame so the
// invariants hold; the zero Frame is not usable.
type Frame struct {
	buf  []byte
	base int
	size int
}

// RawID returns the full identifier word as it sits on the wire, flag bits
// included.
func (f Frame) RawID() uint32 {
	return binary.NativeEndian.Uint32(f.buf[f.base+offsetID:])
}

// ID returns the bare numeric identifier, masked to 11 or 29 bits depending
// on the addressing mode.
func (f Frame) ID() uint32 {
	return MaskID(f.RawID())
}

// Flags returns the FD flag byte. For classic frames the value is
// meaningless.
func (f Frame) Flags() byte {
	return f.buf[f.base+offsetFlags]
}

// DataLength returns the number of valid payload bytes.
func (f Frame) DataLength() int {
	return int(f.buf[f.base+offsetDataLength])
}

// Base returns the offset of the frame within its backing buffer.
func (f Frame) Base() int {
	return f.base
}

// Size returns the full region size, MTU or FDMTU.
func (f Frame) Size() int {
	return f.size
}

// IsFD reports whether the frame uses the flexible data rate format. The
// classification is derived, never stored: any nonzero flag byte or a data
// length beyond MaxDataLength makes the frame FD.
func (f Frame) IsFD() bool {
	return f.Flags() != 0 || f.DataLength() > MaxDataLength
}

// IsExtended reports whether the frame uses 29-bit addressing.
func (f Frame) IsExtended() bool {
	return IsExtended(f.RawID())
}

// IsError reports whether the frame carries a bus error report.
func (f Frame) IsError() bool {
	return IsError(f.RawID())
}

// ErrorCause returns the error cause bits of the identifier word. The value
// is meaningless when IsError reports false.
func (f Frame) ErrorCause() uint32 {
	return ErrorCause(f.RawID())
}

// IsRemoteRequest reports whether the frame is a remote transmission
// request.
func (f Frame) IsRemoteRequest() bool {
	return IsRemoteRequest(f.RawID())
}

// payload returns the valid payload span, exactly DataLength bytes starting
// at the data offset.
func (f Frame) payload() []byte {
	start := f.base + offsetData
	return f.buf[start : start+f.DataLength()]
}

// CopyPayload copies the payload into dst and reports how many bytes were
// written. The copy clips to the shorter of dst and the declared data
// length; header, padding and trailing region bytes are never touched.
func (f Frame) CopyPayload(dst []byte) int {
	return copy(dst, f.payload())
}

// Region returns the full frame span ready to be written to a socket or
// persisted as-is. The slice aliases the backing storage with its capacity
// clipped to the span; calling Region repeatedly yields the same span.
func (f Frame) Region() []byte {
	return f.buf[f.base : f.base+f.size : f.base+f.size]
}

// Equal reports whether two frames carry byte-identical regions of equal
// size. Padding bytes participate; backing storage identity does not.
func (f Frame) Equal(o Frame) bool {
	if f.size != o.size {
		return false
	}
	return bytes.Equal(f.Region(), o.Region())
}

// Hash returns an order-sensitive digest of the frame region, consistent
// with Equal.
func (f Frame) Hash() uint64 {
	return xxhash.Sum64(f.Region())
}

// String renders the frame on one line for diagnostics. The format is not
// stable and not parseable.
func (f Frame) String() string {
	var sb strings.Builder
	sb.WriteString("Can")
	if f.IsFD() {
		sb.WriteString("FD")
	}
	fmt.Fprintf(&sb, "Frame(ID=%02X, FLAGS=%X, LEN=%d, DATA=[", f.ID(), f.Flags(), f.DataLength())
	for i, b := range f.payload() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	sb.WriteString("])")
	return sb.String()
}
