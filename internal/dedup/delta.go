// Package dedup reduces consecutive trait snapshots to only the fields
// that changed, so unchanged user state is not re-sent on every identify.
//
// The reduction is lossy on purpose: a key that disappears between
// snapshots produces nothing, because the downstream boundary has no way
// to express a deletion.
package dedup

import (
	"github.com/meterline/brazekit/internal/payload"
	"github.com/meterline/brazekit/internal/traits"
)

// Delta returns the changed-only view of current relative to previous.
//
// With dedup disabled, or on the first snapshot (previous nil), current
// passes through whole. Otherwise each field survives only when it is
// present in current and differs from previous: scalar strings under
// Unicode normalization, the birthday as an instant, the address as one
// compound unit, and the external-id list as an ordered whole. Custom
// keys survive when new or changed. An all-empty result is a valid
// "nothing changed" outcome, never an error.
func Delta(current, previous *traits.UserTraits, enabled bool) *traits.UserTraits {
	if current == nil {
		return &traits.UserTraits{Custom: payload.Object{}}
	}
	if !enabled || previous == nil {
		return current
	}

	out := &traits.UserTraits{
		UserID:    changedString(current.UserID, previous.UserID),
		Email:     changedString(current.Email, previous.Email),
		FirstName: changedString(current.FirstName, previous.FirstName),
		LastName:  changedString(current.LastName, previous.LastName),
		Phone:     changedString(current.Phone, previous.Phone),
		Custom:    payload.Object{},
	}

	if len(current.ExternalIDs) > 0 && !traits.ExternalIDsEqual(current.ExternalIDs, previous.ExternalIDs) {
		out.ExternalIDs = current.ExternalIDs
	}
	if current.Gender != traits.GenderUnset && current.Gender != previous.Gender {
		out.Gender = current.Gender
	}
	if !current.Birthday.IsZero() && !current.Birthday.Equal(previous.Birthday) {
		out.Birthday = current.Birthday
	}
	if current.Address != nil && !current.Address.Equal(previous.Address) {
		addr := *current.Address
		out.Address = &addr
	}

	for key, val := range current.Custom {
		prev, ok := previous.Custom[key]
		if !ok || !payload.Equal(val, prev) {
			out.Custom[key] = val
		}
	}
	return out
}

// changedString keeps cur only when it is present and differs from prev
// under Unicode normalization.
func changedString(cur, prev string) string {
	if cur != "" && !payload.EqualString(cur, prev) {
		return cur
	}
	return ""
}
