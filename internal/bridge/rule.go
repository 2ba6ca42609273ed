package bridge

import (
	"errors"
	"fmt"

	"github.com/danmuck/canctl/internal/can"
)

var (
	ErrNoRule           = errors.New("bridge: no conversion rule")
	ErrInvalidRule      = errors.New("bridge: invalid conversion rule")
	ErrDuplicateRule    = errors.New("bridge: duplicate conversion rule")
	ErrUnknownFieldType = errors.New("bridge: unknown field type")
	ErrValueOutOfRange  = errors.New("bridge: value out of range")
	ErrBadPayload       = errors.New("bridge: bad message payload")
)

// Direction selects which way a rule translates.
type Direction string

const (
	CANToMQTT     Direction = "can_to_mqtt"
	MQTTToCAN     Direction = "mqtt_to_can"
	Bidirectional Direction = "both"
)

func (d Direction) valid() bool {
	switch d {
	case CANToMQTT, MQTTToCAN, Bidirectional:
		return true
	}
	return false
}

func (d Direction) readsCAN() bool {
	return d == CANToMQTT || d == Bidirectional
}

func (d Direction) writesCAN() bool {
	return d == MQTTToCAN || d == Bidirectional
}

// FieldType names the binary encoding of one payload field. Multi-byte
// types are little-endian within the frame payload.
type FieldType string

const (
	FieldUint8   FieldType = "uint8"
	FieldInt8    FieldType = "int8"
	FieldUint16  FieldType = "uint16"
	FieldInt16   FieldType = "int16"
	FieldUint32  FieldType = "uint32"
	FieldInt32   FieldType = "int32"
	FieldFloat32 FieldType = "float32"
	FieldString  FieldType = "string"
)

// Width returns the encoded size in bytes, or 0 for variable-width types.
func (t FieldType) Width() int {
	switch t {
	case FieldUint8, FieldInt8:
		return 1
	case FieldUint16, FieldInt16:
		return 2
	case FieldUint32, FieldInt32, FieldFloat32:
		return 4
	}
	return 0
}

// Field maps one span of frame payload bytes to one JSON key.
type Field struct {
	Key    string
	Type   FieldType
	Offset int
	// Length applies to string fields only; numeric widths are fixed.
	Length int
	// Scale multiplies decoded numeric values; raw = value / Scale when
	// packing. Zero means 1.
	Scale float64
}

func (f Field) span() int {
	if f.Type == FieldString {
		return f.Length
	}
	return f.Type.Width()
}

// Rule binds one CAN identifier to one MQTT topic with a field layout.
type Rule struct {
	Name      string
	ID        uint32
	Extended  bool
	Topic     string
	Direction Direction
	// Length is the payload size of frames built from MQTT messages.
	// Zero means the smallest length that fits every field.
	Length int
	Fields []Field
}

// RawID returns the identifier word for frames built from this rule.
func (r Rule) RawID() uint32 {
	if r.Extended {
		return r.ID | can.FlagExtended
	}
	return r.ID
}

func (r Rule) validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRule)
	}
	if r.Topic == "" {
		return fmt.Errorf("%w: rule %q missing topic", ErrInvalidRule, r.Name)
	}
	if !r.Direction.valid() {
		return fmt.Errorf("%w: rule %q direction %q", ErrInvalidRule, r.Name, r.Direction)
	}
	limit := uint32(can.MaskStandard)
	if r.Extended {
		limit = can.MaskExtended
	}
	if r.ID > limit {
		return fmt.Errorf("%w: rule %q id %X exceeds %X", ErrInvalidRule, r.Name, r.ID, limit)
	}
	if r.Length < 0 || r.Length > can.MaxFDDataLength {
		return fmt.Errorf("%w: rule %q length %d", ErrInvalidRule, r.Name, r.Length)
	}
	seen := make(map[string]struct{}, len(r.Fields))
	for _, field := range r.Fields {
		if field.Key == "" {
			return fmt.Errorf("%w: rule %q has a field without a key", ErrInvalidRule, r.Name)
		}
		if _, dup := seen[field.Key]; dup {
			return fmt.Errorf("%w: rule %q key %q", ErrDuplicateRule, r.Name, field.Key)
		}
		seen[field.Key] = struct{}{}
		if field.Type.Width() == 0 && field.Type != FieldString {
			return fmt.Errorf("%w: rule %q field %q type %q", ErrUnknownFieldType, r.Name, field.Key, field.Type)
		}
		if field.Type == FieldString && field.Length <= 0 {
			return fmt.Errorf("%w: rule %q string field %q needs a length", ErrInvalidRule, r.Name, field.Key)
		}
		if field.Offset < 0 || field.Offset+field.span() > can.MaxFDDataLength {
			return fmt.Errorf("%w: rule %q field %q span [%d, %d)", ErrInvalidRule, r.Name, field.Key, field.Offset, field.Offset+field.span())
		}
		if r.Length > 0 && field.Offset+field.span() > r.Length {
			return fmt.Errorf("%w: rule %q field %q outside %d byte payload", ErrInvalidRule, r.Name, field.Key, r.Length)
		}
	}
	return nil
}

// payloadLength resolves the payload size used when building frames.
func (r Rule) payloadLength() int {
	if r.Length > 0 {
		return r.Length
	}
	max := 0
	for _, field := range r.Fields {
		if end := field.Offset + field.span(); end > max {
			max = end
		}
	}
	return max
}
