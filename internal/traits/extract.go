package traits

import (
	"strings"
	"time"

	"github.com/meterline/brazekit/internal/payload"
)

// Recognized standard trait keys, matched case-insensitively. Everything
// else lands in the custom bag under its original key.
const (
	keyEmail     = "email"
	keyFirstName = "firstname"
	keyLastName  = "lastname"
	keyGender    = "gender"
	keyPhone     = "phone"
	keyAddress   = "address"
	keyBirthday  = "birthday"
)

// Extract folds a loosely-typed identify payload into the canonical trait
// model. It is total: values of the wrong shape for a standard field are
// dropped rather than failing, and unconvertible custom values vanish the
// same way payload.FromMap drops them.
func Extract(userID string, raw map[string]any, externalIDs []ExternalID) *UserTraits {
	out := &UserTraits{
		UserID: userID,
		Custom: payload.Object{},
	}
	if len(externalIDs) > 0 {
		out.ExternalIDs = make([]ExternalID, len(externalIDs))
		copy(out.ExternalIDs, externalIDs)
	}

	for key, val := range raw {
		switch strings.ToLower(key) {
		case keyEmail:
			if s, ok := val.(string); ok {
				out.Email = s
			}
		case keyFirstName:
			if s, ok := val.(string); ok {
				out.FirstName = s
			}
		case keyLastName:
			if s, ok := val.(string); ok {
				out.LastName = s
			}
		case keyPhone:
			if s, ok := val.(string); ok {
				out.Phone = s
			}
		case keyGender:
			if s, ok := val.(string); ok {
				out.Gender = NormalizeGender(s)
			}
		case keyAddress:
			if addr, ok := extractAddress(val); ok {
				out.Address = addr
			}
		case keyBirthday:
			if bd, ok := extractBirthday(val); ok {
				out.Birthday = bd
			}
		default:
			if v, ok := payload.FromAny(val); ok {
				out.Custom[key] = v
			}
		}
	}
	return out
}

// extractAddress accepts a map-shaped address and pulls the city and
// country sub-keys. Either sub-key may be missing or mistyped; a
// non-map value means no address at all.
func extractAddress(val any) (*Address, bool) {
	m, ok := val.(map[string]any)
	if !ok {
		return nil, false
	}
	addr := &Address{}
	if s, ok := m["city"].(string); ok {
		addr.City = s
	}
	if s, ok := m["country"].(string); ok {
		addr.Country = s
	}
	return addr, true
}

// extractBirthday accepts either a native timestamp or an ISO-8601 string
// with fractional seconds. Unparseable strings leave the birthday absent.
func extractBirthday(val any) (time.Time, bool) {
	switch v := val.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		if ts, err := time.Parse(payload.ISO8601Millis, v); err == nil {
			return ts, true
		}
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
