package can

import (
	"encoding/binary"
	"errors"
	"testing"
)

// region builds a raw frame region by hand so decode sees foreign bytes.
func region(t *testing.T, size int, id uint32, dlen, flags byte) []byte {
	t.Helper()
	b := make([]byte, size)
	if size >= HeaderLength {
		binary.NativeEndian.PutUint32(b, id)
		b[offsetDataLength] = dlen
		b[offsetFlags] = flags
	}
	return b
}

func TestDecodeRejectsOddRegionLength(t *testing.T) {
	_, err := Decode(region(t, 15, 0x1, 0, 0))
	if !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	_, err = Decode(region(t, 0, 0, 0, 0))
	if !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength for empty region, got %v", err)
	}
}

func TestDecodeRejectsPayloadOverrunInClassicRegion(t *testing.T) {
	// dlen 9 forces FD classification, so the 64 byte ceiling passes, but
	// 8+9 bytes cannot sit inside a 16 byte region.
	_, err := Decode(region(t, MTU, 0x1, 9, 0))
	if !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("expected ErrBufferOverflow, got %v", err)
	}
}

func TestDecodeRejectsDataLengthBeyondFDMaximum(t *testing.T) {
	_, err := Decode(region(t, FDMTU, 0x1, 65, 0))
	if !errors.Is(err, ErrPayloadTooLong) {
		t.Fatalf("expected ErrPayloadTooLong, got %v", err)
	}
	_, err = Decode(region(t, MTU, 0x1, 200, 0))
	if !errors.Is(err, ErrPayloadTooLong) {
		t.Fatalf("expected ErrPayloadTooLong in classic region, got %v", err)
	}
}

func TestDecodeClassificationFollowsContentNotRegionSize(t *testing.T) {
	// A full size FD region whose content is classic: zero flags, short
	// payload.
	f, err := Decode(region(t, FDMTU, 0x1, 4, 0))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.IsFD() {
		t.Fatalf("zero flags and 4 byte payload classified as FD")
	}
	// A classic size region carrying FD flags.
	f, err = Decode(region(t, MTU, 0x1, 2, FDFlagErrorStateIndicator))
	if err != nil {
		t.Fatalf("decode flagged region: %v", err)
	}
	if !f.IsFD() {
		t.Fatalf("nonzero flags not classified as FD")
	}
}

func TestDecodeAtRejectsSpanOutsideStorage(t *testing.T) {
	buf := make([]byte, 20)
	_, err := DecodeAt(buf, 8, MTU)
	if !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("expected ErrBufferOverflow, got %v", err)
	}
	_, err = DecodeAt(buf, -1, MTU)
	if !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("expected ErrBufferOverflow for negative base, got %v", err)
	}
}

func TestDecodeAtReadsFramesFromSharedBuffer(t *testing.T) {
	first, err := NewFrame(0x100, 0, []byte{1, 2})
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	second, err := NewFrame(0x200, 0, []byte{3, 4, 5})
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	buf := make([]byte, 2*MTU)
	copy(buf, first.Region())
	copy(buf[MTU:], second.Region())

	a, err := DecodeAt(buf, 0, MTU)
	if err != nil {
		t.Fatalf("decode first: %v", err)
	}
	b, err := DecodeAt(buf, MTU, MTU)
	if err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if a.ID() != 0x100 || b.ID() != 0x200 {
		t.Fatalf("id mismatch: a=%#x b=%#x", a.ID(), b.ID())
	}
	if b.Base() != MTU || b.Size() != MTU {
		t.Fatalf("view geometry mismatch: base=%d size=%d", b.Base(), b.Size())
	}
	if !b.Equal(second) {
		t.Fatalf("shared buffer view differs from source frame")
	}
}
