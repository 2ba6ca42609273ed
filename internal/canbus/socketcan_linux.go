//go:build linux

package canbus

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/danmuck/canctl/internal/can"
)

// socketCAN implements Bus over a raw AF_CAN socket. The descriptor runs in
// non-blocking mode; waits go through poll so contexts stay responsive.
type socketCAN struct {
	fd      int
	name    string
	readMTU int

	mu     sync.Mutex
	closed chan struct{}
}

// DialSocketCAN opens a raw CAN socket bound to the named interface, for
// example "can0". With enableFD set the socket negotiates CAN_RAW_FD_FRAMES
// and reads may yield FDMTU regions; otherwise the kernel delivers classic
// MTU regions only.
func DialSocketCAN(iface string, enableFD bool) (Bus, error) {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("canbus: open raw socket: %w", err)
	}
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("canbus: interface %q: %w", iface, err)
	}
	if enableFD {
		if err := unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FD_FRAMES, 1); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("canbus: enable fd frames on %q: %w", iface, err)
		}
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: ifi.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("canbus: bind %q: %w", iface, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("canbus: set nonblocking on %q: %w", iface, err)
	}
	readMTU := can.MTU
	if enableFD {
		readMTU = can.FDMTU
	}
	return &socketCAN{fd: fd, name: iface, readMTU: readMTU, closed: make(chan struct{})}, nil
}

func (s *socketCAN) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.closed:
		return nil
	default:
	}
	close(s.closed)
	return unix.Close(s.fd)
}

// Send writes the frame region as a single datagram. The kernel rejects
// FDMTU regions unless the socket negotiated FD frames.
func (s *socketCAN) Send(ctx context.Context, f can.Frame) error {
	region := f.Region()
	if _, err := can.Decode(region); err != nil {
		return err
	}
	for {
		select {
		case <-s.closed:
			return ErrClosed
		default:
		}
		n, err := unix.Write(s.fd, region)
		if err == nil {
			if n != len(region) {
				return fmt.Errorf("canbus: short write on %q: %d of %d bytes", s.name, n, len(region))
			}
			return nil
		}
		if err == unix.EAGAIN {
			if werr := s.wait(ctx, unix.POLLOUT); werr != nil {
				return werr
			}
			continue
		}
		if err == unix.EINTR {
			continue
		}
		return fmt.Errorf("canbus: write on %q: %w", s.name, err)
	}
}

// Receive reads the next frame into fresh storage. The kernel hands over
// exactly one MTU or FDMTU sized region per read.
func (s *socketCAN) Receive(ctx context.Context) (can.Frame, error) {
	for {
		select {
		case <-s.closed:
			return can.Frame{}, ErrClosed
		default:
		}
		buf := make([]byte, s.readMTU)
		n, err := unix.Read(s.fd, buf)
		if err == nil {
			return can.DecodeAt(buf, 0, n)
		}
		if err == unix.EAGAIN {
			if werr := s.wait(ctx, unix.POLLIN); werr != nil {
				return can.Frame{}, werr
			}
			continue
		}
		if err == unix.EINTR {
			continue
		}
		return can.Frame{}, fmt.Errorf("canbus: read on %q: %w", s.name, err)
	}
}

// wait polls the descriptor for the given events. Poll timeouts are capped
// so context cancellation is observed within ~100ms even without a
// deadline.
func (s *socketCAN) wait(ctx context.Context, events int16) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		timeout := 100
		if deadline, ok := ctx.Deadline(); ok {
			d := time.Until(deadline)
			if d <= 0 {
				return context.DeadlineExceeded
			}
			if ms := int(d/time.Millisecond) + 1; ms < timeout {
				timeout = ms
			}
		}
		fds := []unix.PollFd{{Fd: int32(s.fd), Events: events}}
		n, err := unix.Poll(fds, timeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("canbus: poll on %q: %w", s.name, err)
		}
		select {
		case <-s.closed:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if n > 0 {
			return nil
		}
	}
}
