package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ISO8601Millis is the timestamp layout used throughout the integration:
// ISO-8601 with fractional seconds in UTC. Birthdays arrive from hosts in
// this shape, and Time values serialize back to it.
const ISO8601Millis = "2006-01-02T15:04:05.000Z"

// Value is a sealed interface representing one dynamically-typed payload
// value. Only String, Number, Bool, Time, Object, and List implement it.
// Absence is modeled as a nil Value, never as a null variant.
type Value interface {
	value() // Sealed - only these types implement it
}

// String is a text value.
type String string

func (String) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// Number is a numeric value backed by an arbitrary-precision decimal.
// Integers, floats and decimal strings in numeric positions all normalize
// into this one representation.
type Number struct {
	dec decimal.Decimal
}

func (Number) value() {}

// Decimal returns the underlying decimal.
func (n Number) Decimal() decimal.Decimal { return n.dec }

// NumberFromDecimal wraps an existing decimal.
func NumberFromDecimal(d decimal.Decimal) Number { return Number{dec: d} }

// NumberFromInt creates a Number from an int64.
func NumberFromInt(i int64) Number { return Number{dec: decimal.NewFromInt(i)} }

// NumberFromFloat creates a Number from a float64.
func NumberFromFloat(f float64) Number { return Number{dec: decimal.NewFromFloat(f)} }

// NumberFromString parses a decimal string. The second return is false when
// the string is not a valid numeral.
func NumberFromString(s string) (Number, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Number{}, false
	}
	return Number{dec: d}, true
}

// Time is an instant. Comparison is by instant, never by formatted text.
type Time time.Time

func (Time) value() {}

// Std returns the value as a time.Time.
func (t Time) Std() time.Time { return time.Time(t) }

// Object is a map of string keys to payload values.
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// List is an ordered sequence of payload values.
type List []Value

func (List) value() {}

// SortedKeys returns the object's keys in lexicographic order.
func (o Object) SortedKeys() []string {
	return slices.Sorted(maps.Keys(o))
}

// Clone returns a shallow copy of the object. Nested objects and lists are
// shared; callers treat values as immutable.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	out := make(Object, len(o))
	maps.Copy(out, o)
	return out
}

// FromAny converts an arbitrary decoded value (JSON, YAML, or host-supplied
// Go data) into a payload Value. The second return is false for nil input and
// for types outside the model; such entries are dropped by callers rather
// than failing the surrounding operation.
func FromAny(v any) (Value, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case Value:
		return val, val != nil
	case string:
		return String(val), true
	case bool:
		return Bool(val), true
	case int:
		return NumberFromInt(int64(val)), true
	case int8:
		return NumberFromInt(int64(val)), true
	case int16:
		return NumberFromInt(int64(val)), true
	case int32:
		return NumberFromInt(int64(val)), true
	case int64:
		return NumberFromInt(val), true
	case uint:
		return Number{dec: decimal.NewFromUint64(uint64(val))}, true
	case uint32:
		return NumberFromInt(int64(val)), true
	case uint64:
		return Number{dec: decimal.NewFromUint64(val)}, true
	case float32:
		return NumberFromFloat(float64(val)), true
	case float64:
		return NumberFromFloat(val), true
	case json.Number:
		if n, ok := NumberFromString(string(val)); ok {
			return n, true
		}
		return String(string(val)), true
	case decimal.Decimal:
		return Number{dec: val}, true
	case time.Time:
		return Time(val), true
	case *time.Time:
		if val == nil {
			return nil, false
		}
		return Time(*val), true
	case map[string]any:
		return FromMap(val), true
	case map[string]Value:
		return Object(val), true
	case []any:
		out := make(List, 0, len(val))
		for _, elem := range val {
			if ev, ok := FromAny(elem); ok {
				out = append(out, ev)
			}
		}
		return out, true
	case []Value:
		return List(val), true
	case []string:
		out := make(List, 0, len(val))
		for _, s := range val {
			out = append(out, String(s))
		}
		return out, true
	default:
		return nil, false
	}
}

// FromMap converts a loosely-typed map into an Object, dropping entries whose
// values fall outside the model. A nil map yields an empty Object.
func FromMap(m map[string]any) Object {
	out := make(Object, len(m))
	for k, v := range m {
		if pv, ok := FromAny(v); ok {
			out[k] = pv
		}
	}
	return out
}

// Marshal serializes a Value to JSON with deterministic object key order.
// Numbers serialize as plain numerals (no quotes, no float round-tripping),
// times as ISO-8601 with milliseconds in UTC.
func Marshal(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case String:
		return marshalString(string(val))
	case Bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case Number:
		return []byte(val.dec.String()), nil
	case Time:
		return marshalString(time.Time(val).UTC().Format(ISO8601Millis))
	case Object:
		return marshalObject(val)
	case List:
		return marshalList(val)
	default:
		return nil, fmt.Errorf("unknown payload value type: %T", v)
	}
}

// MarshalJSON implements json.Marshaler so Objects embedded in ordinary
// structs still serialize deterministically.
func (o Object) MarshalJSON() ([]byte, error) { return marshalObject(o) }

// MarshalJSON implements json.Marshaler for List.
func (l List) MarshalJSON() ([]byte, error) { return marshalList(l) }

// MarshalJSON implements json.Marshaler for Number (plain numeral, unquoted).
func (n Number) MarshalJSON() ([]byte, error) { return []byte(n.dec.String()), nil }

// MarshalJSON implements json.Marshaler for Time (ISO-8601 millis, UTC).
func (t Time) MarshalJSON() ([]byte, error) {
	return marshalString(time.Time(t).UTC().Format(ISO8601Millis))
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	// Encoder appends a trailing newline, strip it.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalObject(o Object) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := marshalString(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := Marshal(o[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalList(l List) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := Marshal(elem)
		if err != nil {
			return nil, fmt.Errorf("list[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
