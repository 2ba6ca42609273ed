package bridge

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/danmuck/canctl/internal/can"
)

// Message is one MQTT payload produced from a frame.
type Message struct {
	Topic   string
	Payload []byte
}

// Converter translates frames to MQTT messages and back using a fixed
// rule set. Lookups are read-only after construction, so a Converter is
// safe for concurrent use.
type Converter struct {
	byID    map[uint32]*Rule
	byTopic map[string]*Rule
}

func NewConverter(rules []Rule) (*Converter, error) {
	conv := &Converter{
		byID:    make(map[uint32]*Rule),
		byTopic: make(map[string]*Rule),
	}
	for i := range rules {
		rule := rules[i]
		if err := rule.validate(); err != nil {
			return nil, err
		}
		if rule.Direction.readsCAN() {
			key := ruleKey(rule.RawID())
			if prev, dup := conv.byID[key]; dup {
				return nil, fmt.Errorf("%w: %q and %q share id %X", ErrDuplicateRule, prev.Name, rule.Name, rule.ID)
			}
			conv.byID[key] = &rule
		}
		if rule.Direction.writesCAN() {
			if prev, dup := conv.byTopic[rule.Topic]; dup {
				return nil, fmt.Errorf("%w: %q and %q share topic %q", ErrDuplicateRule, prev.Name, rule.Name, rule.Topic)
			}
			conv.byTopic[rule.Topic] = &rule
		}
	}
	return conv, nil
}

// Topics lists the topics the bridge must subscribe for MQTT to CAN rules.
func (c *Converter) Topics() []string {
	topics := make([]string, 0, len(c.byTopic))
	for topic := range c.byTopic {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// RuleCounts reports how many rules read and write the bus.
func (c *Converter) RuleCounts() (fromCAN, toCAN int) {
	return len(c.byID), len(c.byTopic)
}

// ruleKey strips the RTR and error bits so a data frame and its rule
// agree on the identifier word.
func ruleKey(raw uint32) uint32 {
	return raw & (can.FlagExtended | can.MaskExtended)
}

// ToMessage converts one received frame into an MQTT message. Error and
// remote frames carry no rule-shaped payload and report ErrNoRule, as do
// identifiers without a configured rule.
func (c *Converter) ToMessage(f can.Frame) (Message, error) {
	if f.IsError() || f.IsRemoteRequest() {
		return Message{}, fmt.Errorf("%w for id %X", ErrNoRule, f.RawID())
	}
	rule, ok := c.byID[ruleKey(f.RawID())]
	if !ok {
		return Message{}, fmt.Errorf("%w for id %X", ErrNoRule, f.ID())
	}

	data := make([]byte, f.DataLength())
	f.CopyPayload(data)

	values := make(map[string]any, len(rule.Fields)+1)
	for _, field := range rule.Fields {
		value, ok := decodeField(field, data)
		if !ok {
			continue
		}
		values[field.Key] = value
	}
	values["timestamp"] = time.Now().UnixMilli()

	payload, err := json.Marshal(values)
	if err != nil {
		return Message{}, fmt.Errorf("bridge: marshal for id %X: %w", f.ID(), err)
	}
	return Message{Topic: rule.Topic, Payload: payload}, nil
}

// decodeField reads one field from the payload. Fields that do not fit
// the received length are dropped; short frames are routine on a shared
// identifier.
func decodeField(field Field, data []byte) (any, bool) {
	if field.Offset >= len(data) {
		return nil, false
	}
	if field.Type == FieldString {
		end := field.Offset + field.Length
		if end > len(data) {
			end = len(data)
		}
		return string(bytes.TrimRight(data[field.Offset:end], "\x00")), true
	}
	if field.Offset+field.Type.Width() > len(data) {
		return nil, false
	}
	sub := data[field.Offset:]
	var raw float64
	switch field.Type {
	case FieldUint8:
		raw = float64(sub[0])
	case FieldInt8:
		raw = float64(int8(sub[0]))
	case FieldUint16:
		raw = float64(binary.LittleEndian.Uint16(sub))
	case FieldInt16:
		raw = float64(int16(binary.LittleEndian.Uint16(sub)))
	case FieldUint32:
		raw = float64(binary.LittleEndian.Uint32(sub))
	case FieldInt32:
		raw = float64(int32(binary.LittleEndian.Uint32(sub)))
	case FieldFloat32:
		raw = float64(math.Float32frombits(binary.LittleEndian.Uint32(sub)))
	default:
		return nil, false
	}
	return raw * field.scale(), true
}

func (f Field) scale() float64 {
	if f.Scale == 0 {
		return 1
	}
	return f.Scale
}

// ToFrame converts one MQTT message into a frame ready for transmission.
// Keys absent from the JSON document leave their payload bytes zero.
func (c *Converter) ToFrame(topic string, payload []byte) (can.Frame, error) {
	rule, ok := c.byTopic[topic]
	if !ok {
		return can.Frame{}, fmt.Errorf("%w for topic %q", ErrNoRule, topic)
	}

	var values map[string]any
	if err := json.Unmarshal(payload, &values); err != nil {
		return can.Frame{}, fmt.Errorf("%w: topic %q: %v", ErrBadPayload, topic, err)
	}

	data := make([]byte, rule.payloadLength())
	for _, field := range rule.Fields {
		value, present := values[field.Key]
		if !present {
			continue
		}
		if err := encodeField(field, value, data); err != nil {
			return can.Frame{}, fmt.Errorf("topic %q key %q: %w", topic, field.Key, err)
		}
	}

	frame, err := can.NewFrame(rule.RawID(), 0, data)
	if err != nil {
		return can.Frame{}, fmt.Errorf("bridge: build frame for topic %q: %w", topic, err)
	}
	return frame, nil
}

// encodeField packs one JSON value into the payload buffer. Numeric
// values arrive as float64 from encoding/json; integer targets round to
// nearest before the range check.
func encodeField(field Field, value any, data []byte) error {
	if field.Type == FieldString {
		text, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: want string, got %T", ErrBadPayload, value)
		}
		copy(data[field.Offset:field.Offset+field.Length], text)
		return nil
	}

	num, ok := value.(float64)
	if !ok {
		return fmt.Errorf("%w: want number, got %T", ErrBadPayload, value)
	}
	raw := num / field.scale()
	dst := data[field.Offset:]

	switch field.Type {
	case FieldFloat32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(raw)))
		return nil
	case FieldUint8:
		v, err := roundToRange(raw, 0, math.MaxUint8)
		if err != nil {
			return err
		}
		dst[0] = byte(v)
	case FieldInt8:
		v, err := roundToRange(raw, math.MinInt8, math.MaxInt8)
		if err != nil {
			return err
		}
		dst[0] = byte(int8(v))
	case FieldUint16:
		v, err := roundToRange(raw, 0, math.MaxUint16)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case FieldInt16:
		v, err := roundToRange(raw, math.MinInt16, math.MaxInt16)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
	case FieldUint32:
		v, err := roundToRange(raw, 0, math.MaxUint32)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(dst, uint32(v))
	case FieldInt32:
		v, err := roundToRange(raw, math.MinInt32, math.MaxInt32)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFieldType, field.Type)
	}
	return nil
}

func roundToRange(raw, lo, hi float64) (int64, error) {
	rounded := math.Round(raw)
	if rounded < lo || rounded > hi {
		return 0, fmt.Errorf("%w: %g outside [%g, %g]", ErrValueOutOfRange, raw, lo, hi)
	}
	return int64(rounded), nil
}
