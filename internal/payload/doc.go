// Package payload provides the dynamic value model for loosely-typed
// analytics payloads.
//
// This package contains type definitions and total conversion/comparison
// functions only. All other internal packages import payload; payload imports
// nothing internal. This keeps it the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Values form a closed tagged union: String, Number, Bool, Time, Object,
//     List. No reflection-based casting anywhere.
//   - All numeric representations (int, float, numeric string in a numeric
//     position) normalize into arbitrary-precision decimals, so 25, 25.0 and
//     "25.00" compare equal where numbers are expected.
//   - Every conversion and comparison is total: malformed input yields
//     absence or a default, never a panic and never an error for callers to
//     mishandle.
package payload
