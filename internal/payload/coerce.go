package payload

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CoercePrice converts a value in a price position into a decimal. Numbers
// pass through; numeric strings parse. Anything else — non-numeric strings,
// booleans, structured values, absence — yields ok=false, and the caller
// drops the surrounding entry rather than failing.
func CoercePrice(v Value) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case Number:
		return val.dec, true
	case String:
		d, err := decimal.NewFromString(strings.TrimSpace(string(val)))
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

// CoerceQuantity converts a value in a quantity position into an integer.
// Accepts integral numbers and parseable integral numeric strings; anything
// else falls back to the default quantity of 1.
func CoerceQuantity(v Value) int {
	switch val := v.(type) {
	case Number:
		if val.dec.IsInteger() {
			return int(val.dec.IntPart())
		}
	case String:
		d, err := decimal.NewFromString(strings.TrimSpace(string(val)))
		if err == nil && d.IsInteger() {
			return int(d.IntPart())
		}
	}
	return 1
}

// ScalarString renders a scalar value as text by direct interpolation:
// strings pass through, numbers render as plain numerals, booleans as
// "true"/"false". Structured values and absence yield ok=false.
func ScalarString(v Value) (string, bool) {
	switch val := v.(type) {
	case String:
		return string(val), true
	case Number:
		return val.dec.String(), true
	case Bool:
		return strconv.FormatBool(bool(val)), true
	default:
		return "", false
	}
}

// JSONString serializes a structured value (list or object) to a compact
// JSON string for SDK surfaces that only accept flat attribute values.
func JSONString(v Value) (string, bool) {
	switch v.(type) {
	case List, Object:
		data, err := Marshal(v)
		if err != nil {
			return "", false
		}
		return string(data), true
	default:
		return "", false
	}
}
