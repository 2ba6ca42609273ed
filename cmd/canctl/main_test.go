package main

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/danmuck/canctl/internal/can"
)

func TestParseSendIDAcceptsStandardAndExtended(t *testing.T) {
	raw, err := parseSendID("0x123", false)
	if err != nil {
		t.Fatalf("parse standard id: %v", err)
	}
	if raw != 0x123 {
		t.Fatalf("unexpected raw word %#x", raw)
	}

	raw, err = parseSendID("18DAF110", true)
	if err != nil {
		t.Fatalf("parse extended id: %v", err)
	}
	if raw != 0x18DAF110|can.FlagExtended {
		t.Fatalf("extended flag missing from raw word %#x", raw)
	}
}

func TestParseSendIDRejectsOversizedIdentifiers(t *testing.T) {
	if _, err := parseSendID("800", false); err == nil {
		t.Fatal("0x800 must not fit a standard identifier")
	}
	if _, err := parseSendID("20000000", true); err == nil {
		t.Fatal("0x20000000 must not fit an extended identifier")
	}
	if _, err := parseSendID("grille", false); err == nil {
		t.Fatal("non hex identifier must be rejected")
	}
}

func TestRunInspectPrintsFrameFields(t *testing.T) {
	frame, err := can.NewFrame(0x123, 0, []byte{0x11, 0x22, 0x33})
	if err != nil {
		t.Fatalf("build frame: %v", err)
	}

	var out bytes.Buffer
	if err := runInspect(&out, []string{hex.EncodeToString(frame.Region())}); err != nil {
		t.Fatalf("inspect: %v", err)
	}

	report := out.String()
	for _, want := range []string{
		"Identifier:  0x123 (standard, 11 bit)",
		"Kind:        classic data frame",
		"Data length: 3",
		"Payload:     112233",
		"Region size: 16 bytes",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestRunInspectAcceptsByteSeparatedArguments(t *testing.T) {
	frame, err := can.NewFrame(0x7FF, 0, []byte{0xAB})
	if err != nil {
		t.Fatalf("build frame: %v", err)
	}

	args := make([]string, 0, len(frame.Region()))
	for _, b := range frame.Region() {
		args = append(args, hex.EncodeToString([]byte{b}))
	}

	var out bytes.Buffer
	if err := runInspect(&out, args); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out.String(), "Payload:     ab") {
		t.Fatalf("split byte arguments not decoded:\n%s", out.String())
	}
}

func TestRunInspectReportsErrorFrames(t *testing.T) {
	frame, err := can.NewFrame(can.FlagError|0x0042, 0, nil)
	if err != nil {
		t.Fatalf("build error frame: %v", err)
	}

	var out bytes.Buffer
	if err := runInspect(&out, []string{hex.EncodeToString(frame.Region())}); err != nil {
		t.Fatalf("inspect: %v", err)
	}

	report := out.String()
	if !strings.Contains(report, "Kind:        error report") {
		t.Fatalf("error frame not recognized:\n%s", report)
	}
	if !strings.Contains(report, "Error cause: 0x42") {
		t.Fatalf("error cause missing:\n%s", report)
	}
}

func TestRunInspectRejectsBadInput(t *testing.T) {
	var out bytes.Buffer
	if err := runInspect(&out, []string{"zz"}); err == nil {
		t.Fatal("non hex region must be rejected")
	}
	if err := runInspect(&out, []string{"1234"}); err == nil {
		t.Fatal("undersized region must be rejected")
	}
}

func TestFDFlagRendering(t *testing.T) {
	payload := bytes.Repeat([]byte{0xEE}, 12)
	frame, err := can.NewFrame(0x123, can.FDFlagBitRateSwitch|can.FDFlagErrorStateIndicator, payload)
	if err != nil {
		t.Fatalf("build fd frame: %v", err)
	}
	if got := fdFlags(frame); got != "bit rate switch, error state indicator" {
		t.Fatalf("unexpected flag rendering %q", got)
	}
	if got := frameKind(frame); got != "FD data frame" {
		t.Fatalf("unexpected frame kind %q", got)
	}
}
