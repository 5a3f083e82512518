// Package traits defines the canonical user-trait model extracted from
// identify events, and the extraction rules that separate recognized
// standard fields from the residual custom bag.
package traits

import (
	"strings"
	"time"

	"github.com/meterline/brazekit/internal/payload"
)

// BrazeExternalIDType is the external-id record type that overrides the host
// user id when resolving the engagement-platform identity.
const BrazeExternalIDType = "brazeExternalId"

// Gender is the normalized gender of a user. Unrecognized inputs stay Unset
// and are never forwarded.
type Gender uint8

const (
	GenderUnset Gender = iota
	GenderMale
	GenderFemale
)

// Code returns the single-letter wire code used by the engagement SDK.
func (g Gender) Code() string {
	switch g {
	case GenderMale:
		return "m"
	case GenderFemale:
		return "f"
	default:
		return ""
	}
}

// Address is the compound home-address trait. It deduplicates as a single
// unit: a change to either sub-field passes the whole address through.
type Address struct {
	City    string
	Country string
}

// Equal reports whether two address snapshots match. Nil receivers and
// arguments count as absent, and absence never equals presence.
func (a *Address) Equal(b *Address) bool {
	if a == nil || b == nil {
		return false
	}
	return payload.EqualString(a.City, b.City) && payload.EqualString(a.Country, b.Country)
}

// ExternalID is one alternate-identifier record from the host payload.
type ExternalID struct {
	Type string
	ID   string
}

// UserTraits is the canonical snapshot of one identify event. Zero values
// mean "absent": empty strings for scalar fields, zero time for the
// birthday, nil for the address pointer.
type UserTraits struct {
	UserID      string
	ExternalIDs []ExternalID

	Email     string
	FirstName string
	LastName  string
	Phone     string
	Gender    Gender
	Address   *Address
	Birthday  time.Time

	// Custom holds every trait key not in the recognized standard set,
	// with its original dynamic type. Standard keys (any casing) never
	// appear here.
	Custom payload.Object
}

// BrazeExternalID returns the id of the first external-id record carrying
// the Braze type, if any.
func (t *UserTraits) BrazeExternalID() (string, bool) {
	for _, ext := range t.ExternalIDs {
		if ext.Type == BrazeExternalIDType && ext.ID != "" {
			return ext.ID, true
		}
	}
	return "", false
}

// Identity resolves the id used for identity linking: the Braze external id
// when present, else the host user id. Empty when neither exists.
func (t *UserTraits) Identity() string {
	if id, ok := t.BrazeExternalID(); ok {
		return id
	}
	return t.UserID
}

// ExternalIDsEqual compares two external-id sequences as ordered lists.
// Any difference, including length, counts as changed.
func ExternalIDsEqual(a, b []ExternalID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// NormalizeGender maps free-form gender text onto the closed Gender set.
// Matching is case-insensitive; anything outside m/male/f/female is Unset.
func NormalizeGender(s string) Gender {
	switch strings.ToLower(s) {
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	default:
		return GenderUnset
	}
}
