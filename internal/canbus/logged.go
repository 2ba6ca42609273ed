package canbus

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/danmuck/canctl/internal/can"
)

// LogOption selects which bus operations a logged bus records.
type LogOption uint8

const (
	// LogReceive records frames arriving from the bus.
	LogReceive LogOption = 1 << iota
	// LogSend records frames handed to the bus.
	LogSend

	// LogAll records both directions.
	LogAll = LogReceive | LogSend
)

// NewLoggedBus wraps inner so the selected operations are recorded on log.
// Frames log at debug level, failures at error level.
func NewLoggedBus(inner Bus, log zerolog.Logger, opts LogOption) Bus {
	return &loggedBus{inner: inner, log: log, opts: opts}
}

type loggedBus struct {
	inner Bus
	log   zerolog.Logger
	opts  LogOption
}

// quiet reports errors that accompany a normal shutdown and carry no
// diagnostic value.
func quiet(err error) bool {
	return errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled)
}

func (l *loggedBus) Send(ctx context.Context, f can.Frame) error {
	err := l.inner.Send(ctx, f)
	if l.opts&LogSend != 0 {
		if err != nil {
			if !quiet(err) {
				l.log.Error().Err(err).Msg("bus send failed")
			}
		} else {
			l.log.Debug().
				Uint32("id", f.ID()).
				Bool("fd", f.IsFD()).
				Int("len", f.DataLength()).
				Stringer("frame", f).
				Msg("bus send")
		}
	}
	return err
}

func (l *loggedBus) Receive(ctx context.Context) (can.Frame, error) {
	f, err := l.inner.Receive(ctx)
	if l.opts&LogReceive != 0 {
		if err != nil {
			if !quiet(err) {
				l.log.Error().Err(err).Msg("bus receive failed")
			}
		} else {
			l.log.Debug().
				Uint32("id", f.ID()).
				Bool("fd", f.IsFD()).
				Int("len", f.DataLength()).
				Stringer("frame", f).
				Msg("bus receive")
		}
	}
	return f, err
}

func (l *loggedBus) Close() error {
	return l.inner.Close()
}
