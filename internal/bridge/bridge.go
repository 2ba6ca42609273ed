// Package bridge moves frames between a CAN bus and an MQTT broker.
// Conversion rules map identifier words to topics and describe how
// payload bytes become JSON fields and back.
package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/canctl/internal/can"
	"github.com/danmuck/canctl/internal/canbus"
	"github.com/danmuck/canctl/internal/observability"
)

// Publisher delivers converted messages to the broker.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Bridge pumps one bus into one publisher and packs incoming MQTT
// messages back onto the bus.
type Bridge struct {
	bus     canbus.Bus
	pub     Publisher
	conv    *Converter
	busName string
	log     zerolog.Logger
	stats   stats
}

func NewBridge(bus canbus.Bus, pub Publisher, conv *Converter, busName string, log zerolog.Logger) *Bridge {
	return &Bridge{
		bus:     bus,
		pub:     pub,
		conv:    conv,
		busName: busName,
		log:     log,
	}
}

// Topics lists the MQTT subscriptions this bridge needs.
func (b *Bridge) Topics() []string {
	return b.conv.Topics()
}

// Stats returns a snapshot of the bridge counters.
func (b *Bridge) Stats() Snapshot {
	return b.stats.snapshot()
}

// Run receives frames until the context is canceled or the bus closes.
// Frames that fail conversion are counted and skipped; the loop only
// stops on transport failure.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		frame, err := b.bus.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, canbus.ErrClosed) {
				return nil
			}
			if isFrameError(err) {
				b.stats.convertErrors.Add(1)
				observability.RecordBusError(b.busName, "receive")
				b.log.Warn().Err(err).Msg("dropped unreadable frame")
				continue
			}
			observability.RecordBusError(b.busName, "receive")
			return err
		}
		b.stats.framesIn.Add(1)
		observability.RecordBusFrame(b.busName, "receive")
		b.forward(frame)
	}
}

// forward converts one received frame and publishes it.
func (b *Bridge) forward(frame can.Frame) {
	start := time.Now()
	msg, err := b.conv.ToMessage(frame)
	if err != nil {
		if errors.Is(err, ErrNoRule) {
			b.stats.dropped.Add(1)
			b.log.Debug().Uint32("id", frame.ID()).Msg("no rule for frame")
			return
		}
		b.stats.convertErrors.Add(1)
		b.log.Warn().Uint32("id", frame.ID()).Err(err).Msg("frame conversion failed")
		return
	}
	if err := b.pub.Publish(msg.Topic, msg.Payload); err != nil {
		b.stats.deliverErrors.Add(1)
		observability.RecordBridgePublish(string(CANToMQTT), false)
		b.log.Error().Str("topic", msg.Topic).Err(err).Msg("publish failed")
		return
	}
	b.stats.published.Add(1)
	observability.RecordBridgePublish(string(CANToMQTT), true)
	observability.ObserveBridgeHandle(string(CANToMQTT), time.Since(start))
	b.log.Debug().
		Uint32("id", frame.ID()).
		Str("topic", msg.Topic).
		Int("bytes", len(msg.Payload)).
		Msg("frame published")
}

// HandleMQTT packs one MQTT message into a frame and transmits it.
func (b *Bridge) HandleMQTT(ctx context.Context, topic string, payload []byte) error {
	start := time.Now()
	frame, err := b.conv.ToFrame(topic, payload)
	if err != nil {
		if errors.Is(err, ErrNoRule) {
			b.stats.dropped.Add(1)
			b.log.Debug().Str("topic", topic).Msg("no rule for topic")
		} else {
			b.stats.convertErrors.Add(1)
			b.log.Warn().Str("topic", topic).Err(err).Msg("message conversion failed")
		}
		return err
	}
	if err := b.bus.Send(ctx, frame); err != nil {
		b.stats.deliverErrors.Add(1)
		observability.RecordBusError(b.busName, "send")
		observability.RecordBridgePublish(string(MQTTToCAN), false)
		b.log.Error().Str("topic", topic).Uint32("id", frame.ID()).Err(err).Msg("transmit failed")
		return err
	}
	b.stats.framesOut.Add(1)
	observability.RecordBusFrame(b.busName, "send")
	observability.RecordBridgePublish(string(MQTTToCAN), true)
	observability.ObserveBridgeHandle(string(MQTTToCAN), time.Since(start))
	b.log.Debug().
		Str("topic", topic).
		Uint32("id", frame.ID()).
		Int("len", frame.DataLength()).
		Msg("message transmitted")
	return nil
}

// isFrameError reports whether a receive failure came from frame
// validation rather than the transport itself.
func isFrameError(err error) bool {
	return errors.Is(err, can.ErrInvalidLength) ||
		errors.Is(err, can.ErrPayloadTooLong) ||
		errors.Is(err, can.ErrBufferOverflow)
}
