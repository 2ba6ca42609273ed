package canbus

import (
	"context"
	"errors"

	"github.com/danmuck/canctl/internal/can"
)

// Bus is one connection to a CAN bus. Implementations must be safe for
// concurrent use by multiple goroutines.
type Bus interface {
	// Send transmits a frame. It may block until the frame is queued or
	// sent; context cancellation aborts the wait and returns the context
	// error.
	Send(ctx context.Context, f can.Frame) error

	// Receive blocks until the next frame is available or the context is
	// done. The returned frame owns its backing storage exclusively.
	Receive(ctx context.Context) (can.Frame, error)

	// Close releases the connection. Blocked and later calls fail.
	Close() error
}

// ErrClosed reports an operation on a closed bus or endpoint.
var ErrClosed = errors.New("canbus: closed")
