// Package braze is the adapter boundary to the engagement SDK. The core
// only ever calls the Client interface; translating those calls into real
// network traffic (RestClient) or a recorded trace (Recorder) is this
// package's whole job.
package braze

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meterline/brazekit/internal/payload"
	"github.com/meterline/brazekit/internal/track"
	"github.com/meterline/brazekit/internal/traits"
)

// Field identifies one of the standard profile attributes.
type Field uint8

const (
	FieldEmail Field = iota + 1
	FieldFirstName
	FieldLastName
	FieldGender
	FieldPhone
	FieldAddress
	FieldBirthday
)

func (f Field) String() string {
	switch f {
	case FieldEmail:
		return "email"
	case FieldFirstName:
		return "first_name"
	case FieldLastName:
		return "last_name"
	case FieldGender:
		return "gender"
	case FieldPhone:
		return "phone"
	case FieldAddress:
		return "address"
	case FieldBirthday:
		return "birthday"
	default:
		return "unknown"
	}
}

// StandardAttribute pairs a field tag with its new value. Exactly one of
// Text, Address, or Time carries the value, determined by the field.
type StandardAttribute struct {
	Field   Field
	Text    string
	Address *traits.Address
	Time    time.Time
}

// TextAttribute builds an attribute update for one of the scalar string
// fields, including the normalized gender code.
func TextAttribute(f Field, value string) StandardAttribute {
	return StandardAttribute{Field: f, Text: value}
}

// AddressAttribute builds the compound home-address update.
func AddressAttribute(addr traits.Address) StandardAttribute {
	return StandardAttribute{Field: FieldAddress, Address: &addr}
}

// BirthdayAttribute builds the date-of-birth update.
func BirthdayAttribute(t time.Time) StandardAttribute {
	return StandardAttribute{Field: FieldBirthday, Time: t}
}

// Client is everything the core is allowed to do to the engagement SDK.
//
// All calls apply to the user most recently passed to ChangeUser. Custom
// attribute values are always one of payload.String, payload.Number,
// payload.Bool, or payload.Time; containers arrive pre-encoded as JSON
// strings via FlattenCustom. Only Flush can fail; its error is reported
// once and the buffered data is dropped, retries are not this layer's
// concern.
type Client interface {
	ChangeUser(id string)
	AddAlias(id, label string)
	SetStandardAttribute(attr StandardAttribute)
	SetCustomAttribute(key string, value payload.Value)
	LogPurchase(productID, currency string, price decimal.Decimal, quantity int, properties payload.Object)
	LogCustomEvent(name string, properties payload.Object)
	SetAttributionData(attr track.Attribution)
	Flush() error
}

// FlattenCustom reduces an arbitrary payload value to the restricted set
// the custom-attribute surface accepts. Scalars pass through; lists and
// objects become their deterministic JSON encoding as a string. A nil
// value reports false and must not be forwarded.
func FlattenCustom(v payload.Value) (payload.Value, bool) {
	switch v.(type) {
	case nil:
		return nil, false
	case payload.String, payload.Number, payload.Bool, payload.Time:
		return v, true
	default:
		if s, ok := payload.JSONString(v); ok {
			return payload.String(s), true
		}
		return nil, false
	}
}
