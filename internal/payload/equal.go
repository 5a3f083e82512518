package payload

import (
	"time"

	"golang.org/x/text/unicode/norm"
)

// Equal reports whether two payload values are present and structurally
// equal. Either side absent (nil) or a type-tag mismatch is false — this
// function never panics and never reports errors. It underlies every
// "did this field change" decision in the dedup engine.
//
// Normalization rules:
//   - strings compare by NFC-normalized form, so composed and decomposed
//     sequences of the same text compare equal
//   - numbers compare by numeric value regardless of original representation
//   - times compare by instant, not by formatted text or zone
//   - objects and lists compare by deep equality
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return false
	}
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		return ok && equalString(string(av), string(bv))
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av.dec.Equal(bv.dec)
	case Time:
		bv, ok := b.(Time)
		return ok && time.Time(av).Equal(time.Time(bv))
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !Equal(v, bv[k]) {
				return false
			}
		}
		return true
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// EqualString reports whether two raw strings are equal after NFC
// normalization. Used wherever trait text is compared outside the Value
// wrappers.
func EqualString(a, b string) bool { return equalString(a, b) }

func equalString(a, b string) bool {
	if a == b {
		return true
	}
	return norm.NFC.String(a) == norm.NFC.String(b)
}
