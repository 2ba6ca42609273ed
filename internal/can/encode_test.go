package can

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewFrameSizesRegionByPayloadLength(t *testing.T) {
	for length := 0; length <= MaxFDDataLength; length++ {
		payload := bytes.Repeat([]byte{byte(length)}, length)
		f, err := NewFrame(0x123, 0, payload)
		if err != nil {
			t.Fatalf("new frame with %d byte payload: %v", length, err)
		}
		want := MTU
		if length > MaxDataLength {
			want = FDMTU
		}
		if f.Size() != want {
			t.Fatalf("size mismatch for %d byte payload: got=%d want=%d", length, f.Size(), want)
		}
		if f.DataLength() != length {
			t.Fatalf("data length mismatch: got=%d want=%d", f.DataLength(), length)
		}
		dst := make([]byte, length)
		f.CopyPayload(dst)
		if !bytes.Equal(dst, payload) {
			t.Fatalf("payload mismatch at length %d", length)
		}
	}
}

func TestNewFrameSizingIgnoresFlags(t *testing.T) {
	// Flags mark the frame FD but never widen the region.
	f, err := NewFrame(0x1, FDFlagBitRateSwitch, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	if f.Size() != MTU {
		t.Fatalf("size mismatch: got=%d want=%d", f.Size(), MTU)
	}
	if !f.IsFD() {
		t.Fatalf("flagged frame not classified as FD")
	}
}

func TestNewFrameRejectsOversizedPayload(t *testing.T) {
	_, err := NewFrame(0x1, 0, make([]byte, MaxFDDataLength+1))
	if !errors.Is(err, ErrPayloadTooLong) {
		t.Fatalf("expected ErrPayloadTooLong, got %v", err)
	}
	// Lengths past 255 must not wrap through the one byte length field.
	_, err = NewFrame(0x1, 0, make([]byte, 300))
	if !errors.Is(err, ErrPayloadTooLong) {
		t.Fatalf("expected ErrPayloadTooLong for 300 bytes, got %v", err)
	}
}

func TestNewFrameZeroesPaddingAndTail(t *testing.T) {
	f, err := NewFrame(0x1FFFFFFF|FlagExtended, 0, []byte{0xAA})
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	r := f.Region()
	if r[6] != 0 || r[7] != 0 {
		t.Fatalf("padding not zeroed: %#v", r[6:8])
	}
	for i := HeaderLength + 1; i < len(r); i++ {
		if r[i] != 0 {
			t.Fatalf("tail byte %d not zeroed: %#x", i, r[i])
		}
	}
}

func TestNewFrameRoundTripsThroughDecode(t *testing.T) {
	payload := bytes.Repeat([]byte{0x5A}, 48)
	f, err := NewFrame(FlagExtended|0xCAFE, FDFlagErrorStateIndicator, payload)
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	region := make([]byte, f.Size())
	copy(region, f.Region())
	g, err := Decode(region)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !f.Equal(g) {
		t.Fatalf("round trip changed the region")
	}
	if g.RawID() != FlagExtended|0xCAFE || g.Flags() != FDFlagErrorStateIndicator {
		t.Fatalf("field mismatch: raw=%#x flags=%#x", g.RawID(), g.Flags())
	}
}
