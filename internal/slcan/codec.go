// Package slcan implements the serial line CAN ASCII protocol spoken by
// Lawicel style adapters, plus a bus transport over a serial port.
//
// The line protocol carries classic frames only: FD frames and error frames
// have no representation and are rejected on encode.
package slcan

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/canctl/internal/can"
)

var (
	// ErrUnsupportedFrame reports a frame the line protocol cannot carry.
	ErrUnsupportedFrame = errors.New("slcan: frame has no line encoding")

	// ErrMalformed reports a line that does not parse as a frame.
	ErrMalformed = errors.New("slcan: malformed line")
)

// EncodeFrame renders a classic frame as one line, trailing carriage return
// included. Remote requests keep their declared length but carry no data
// characters.
func EncodeFrame(f can.Frame) (string, error) {
	if f.IsFD() {
		return "", fmt.Errorf("%w: fd frame", ErrUnsupportedFrame)
	}
	if f.IsError() {
		return "", fmt.Errorf("%w: error frame", ErrUnsupportedFrame)
	}
	remote := f.IsRemoteRequest()
	extended := f.IsExtended()

	var b strings.Builder
	switch {
	case remote && extended:
		b.WriteByte('R')
	case remote:
		b.WriteByte('r')
	case extended:
		b.WriteByte('T')
	default:
		b.WriteByte('t')
	}
	if extended {
		fmt.Fprintf(&b, "%08X", f.ID())
	} else {
		fmt.Fprintf(&b, "%03X", f.ID())
	}
	b.WriteByte('0' + byte(f.DataLength()))
	if !remote {
		data := make([]byte, f.DataLength())
		f.CopyPayload(data)
		for _, d := range data {
			fmt.Fprintf(&b, "%02X", d)
		}
	}
	b.WriteByte('\r')
	return b.String(), nil
}

// DecodeFrame parses one line into a classic frame. A trailing carriage
// return is tolerated but not required.
func DecodeFrame(line string) (can.Frame, error) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return can.Frame{}, fmt.Errorf("%w: empty line", ErrMalformed)
	}
	var extended, remote bool
	switch line[0] {
	case 't':
	case 'T':
		extended = true
	case 'r':
		remote = true
	case 'R':
		extended, remote = true, true
	default:
		return can.Frame{}, fmt.Errorf("%w: unknown frame kind %q", ErrMalformed, line[0])
	}

	idLen := 3
	maxID := uint64(can.MaskStandard)
	if extended {
		idLen = 8
		maxID = uint64(can.MaskExtended)
	}
	rest := line[1:]
	if len(rest) < idLen+1 {
		return can.Frame{}, fmt.Errorf("%w: truncated header %q", ErrMalformed, line)
	}
	id, err := strconv.ParseUint(rest[:idLen], 16, 32)
	if err != nil || id > maxID {
		return can.Frame{}, fmt.Errorf("%w: identifier %q", ErrMalformed, rest[:idLen])
	}
	dlc := rest[idLen]
	if dlc < '0' || dlc > '8' {
		return can.Frame{}, fmt.Errorf("%w: data length %q", ErrMalformed, dlc)
	}
	dlen := int(dlc - '0')

	raw := uint32(id)
	if extended {
		raw |= can.FlagExtended
	}
	if remote {
		raw |= can.FlagRemoteRequest
	}

	body := rest[idLen+1:]
	if remote {
		if body != "" {
			return can.Frame{}, fmt.Errorf("%w: remote frame carries data", ErrMalformed)
		}
		// A remote request declares the length it asks for; the payload
		// bytes stay zero.
		return can.NewFrame(raw, 0, make([]byte, dlen))
	}
	if len(body) != 2*dlen {
		return can.Frame{}, fmt.Errorf("%w: %d data chars for length %d", ErrMalformed, len(body), dlen)
	}
	payload, err := hex.DecodeString(body)
	if err != nil {
		return can.Frame{}, fmt.Errorf("%w: data %q", ErrMalformed, body)
	}
	return can.NewFrame(raw, 0, payload)
}
