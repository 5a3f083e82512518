// Package track classifies host track events into the closed set of calls
// the engagement SDK understands: commerce purchases, install attribution,
// or plain custom events.
package track

import (
	"github.com/shopspring/decimal"

	"github.com/meterline/brazekit/internal/payload"
)

// Call is the sealed classification result. Implementations are Purchase,
// Attribution, and Custom; a nil Call means the event produces no SDK
// activity at all.
type Call interface {
	call()
}

func (Purchase) call()    {}
func (Attribution) call() {}
func (Custom) call()      {}

// Purchase is one commerce event expanded into per-product line items.
type Purchase struct {
	Items []LineItem
}

// LineItem is a single purchasable unit of an order. ProductID is always
// non-empty and Price always parsed; entries that cannot satisfy both are
// dropped during classification rather than surfacing here.
type LineItem struct {
	ProductID  string
	Currency   string
	Price      decimal.Decimal
	Quantity   int
	Properties payload.Object
}

// Attribution is the install-campaign record. Fields left empty were
// absent from the campaign object.
type Attribution struct {
	Network  string
	Campaign string
	AdGroup  string
	Creative string
}

// Custom is the verbatim fallback for every event that is not recognized
// commerce or attribution. Properties is never nil.
type Custom struct {
	Name       string
	Properties payload.Object
}
