package can

import "testing"

func TestMaskIDExtendedWord(t *testing.T) {
	raw := FlagExtended | 0x1ABCDE
	if !IsExtended(raw) {
		t.Fatalf("expected extended addressing for %#x", raw)
	}
	if got := MaskID(raw); got != 0x1ABCDE {
		t.Fatalf("masked id mismatch: got=%#x want=0x1abcde", got)
	}
}

func TestMaskIDStandardWordTruncatesTo11Bits(t *testing.T) {
	// Same numeric bits without the extended flag: only 11 bits survive.
	raw := uint32(0x1ABCDE)
	if IsExtended(raw) {
		t.Fatalf("expected standard addressing for %#x", raw)
	}
	if got := MaskID(raw); got != 0x4DE {
		t.Fatalf("masked id mismatch: got=%#x want=0x4de", got)
	}
}

func TestErrorWordExposesCause(t *testing.T) {
	raw := FlagError | 0x42
	if !IsError(raw) {
		t.Fatalf("expected error word for %#x", raw)
	}
	if got := ErrorCause(raw); got != 0x42 {
		t.Fatalf("error cause mismatch: got=%#x want=0x42", got)
	}
	if IsRemoteRequest(raw) {
		t.Fatalf("error word misread as remote request")
	}
}

func TestRemoteRequestBitIsOrthogonal(t *testing.T) {
	raw := FlagRemoteRequest | 0x123
	if !IsRemoteRequest(raw) {
		t.Fatalf("expected remote request for %#x", raw)
	}
	if IsExtended(raw) || IsError(raw) {
		t.Fatalf("remote request word misread: extended=%v error=%v", IsExtended(raw), IsError(raw))
	}
	if got := MaskID(raw); got != 0x123 {
		t.Fatalf("masked id mismatch: got=%#x want=0x123", got)
	}
}
