package slcan

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/danmuck/canctl/internal/can"
	"github.com/danmuck/canctl/internal/canbus"
)

// readPoll bounds how long a blocked Receive waits between context checks.
const readPoll = 100 * time.Millisecond

// Lawicel bitrate presets, command S0 through S8.
var bitrateCodes = map[int]byte{
	10000:   '0',
	20000:   '1',
	50000:   '2',
	100000:  '3',
	125000:  '4',
	250000:  '5',
	500000:  '6',
	800000:  '7',
	1000000: '8',
}

// SerialConfig describes a serial line CAN adapter.
type SerialConfig struct {
	// Port is the device path, for example /dev/ttyUSB0.
	Port string
	// BaudRate is the serial line speed. Zero means 115200.
	BaudRate int
	// Bitrate is the CAN bus bitrate the adapter should open with. It must
	// match a Lawicel preset (10k up to 1M). Zero leaves the adapter
	// untouched: no setup or close commands are sent.
	Bitrate int
}

// linePort is the slice of the serial port API the transport needs.
type linePort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Serial is a canbus.Bus over an slcan adapter. Frames travel as ASCII
// lines; lines that do not carry a frame (command acknowledgements, status
// reports) are skipped on receive.
type Serial struct {
	port     linePort
	name     string
	teardown bool

	txMu sync.Mutex

	rxMu    sync.Mutex
	pending []byte
	readBuf []byte

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// DialSerial opens the adapter and, when a bitrate is configured, resets
// the channel and opens it at that bitrate.
func DialSerial(cfg SerialConfig) (*Serial, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = 115200
	}
	var code byte
	if cfg.Bitrate != 0 {
		var ok bool
		code, ok = bitrateCodes[cfg.Bitrate]
		if !ok {
			return nil, fmt.Errorf("slcan: no preset for bitrate %d", cfg.Bitrate)
		}
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("slcan: open %q: %w", cfg.Port, err)
	}
	if err := port.SetReadTimeout(readPoll); err != nil {
		port.Close()
		return nil, fmt.Errorf("slcan: read timeout on %q: %w", cfg.Port, err)
	}
	s := newSerial(port, cfg.Port)
	if cfg.Bitrate != 0 {
		setup := fmt.Sprintf("C\rS%c\rO\r", code)
		if _, err := port.Write([]byte(setup)); err != nil {
			port.Close()
			return nil, fmt.Errorf("slcan: open channel on %q: %w", cfg.Port, err)
		}
		s.teardown = true
	}
	return s, nil
}

func newSerial(port linePort, name string) *Serial {
	return &Serial{
		port:    port,
		name:    name,
		readBuf: make([]byte, 256),
		closed:  make(chan struct{}),
	}
}

// Send encodes the frame and writes the line. FD and error frames fail with
// ErrUnsupportedFrame before anything is written.
func (s *Serial) Send(ctx context.Context, f can.Frame) error {
	line, err := EncodeFrame(f)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-s.closed:
		return canbus.ErrClosed
	default:
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if _, err := s.port.Write([]byte(line)); err != nil {
		select {
		case <-s.closed:
			return canbus.ErrClosed
		default:
		}
		return fmt.Errorf("slcan: write %q: %w", s.name, err)
	}
	return nil
}

// Receive assembles lines from the port until one parses as a frame. A
// frame line that fails to parse is reported to the caller; other chatter
// is dropped.
func (s *Serial) Receive(ctx context.Context) (can.Frame, error) {
	s.rxMu.Lock()
	defer s.rxMu.Unlock()
	for {
		if line, ok := s.nextLine(); ok {
			if !frameLine(line) {
				continue
			}
			return DecodeFrame(line)
		}
		select {
		case <-s.closed:
			return can.Frame{}, canbus.ErrClosed
		case <-ctx.Done():
			return can.Frame{}, ctx.Err()
		default:
		}
		n, err := s.port.Read(s.readBuf)
		if err != nil {
			select {
			case <-s.closed:
				return can.Frame{}, canbus.ErrClosed
			default:
			}
			return can.Frame{}, fmt.Errorf("slcan: read %q: %w", s.name, err)
		}
		if n == 0 {
			continue // read timeout tick
		}
		s.pending = append(s.pending, s.readBuf[:n]...)
	}
}

// nextLine pops one carriage return terminated line from the pending
// buffer. Bare bell bytes (command error acks) are discarded first so they
// cannot glue onto a following frame.
func (s *Serial) nextLine() (string, bool) {
	for len(s.pending) > 0 && s.pending[0] == 0x07 {
		s.pending = s.pending[1:]
	}
	i := bytes.IndexByte(s.pending, '\r')
	if i < 0 {
		return "", false
	}
	line := string(s.pending[:i])
	s.pending = s.pending[i+1:]
	return line, true
}

func frameLine(line string) bool {
	if line == "" {
		return false
	}
	switch line[0] {
	case 't', 'T', 'r', 'R':
		return true
	}
	return false
}

// Close shuts the channel down on the adapter when it was opened here, then
// closes the port.
func (s *Serial) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.teardown {
			s.txMu.Lock()
			_, _ = s.port.Write([]byte("C\r"))
			s.txMu.Unlock()
		}
		s.closeErr = s.port.Close()
	})
	return s.closeErr
}
