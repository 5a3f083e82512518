package track

import (
	"unicode/utf8"

	"github.com/meterline/brazekit/internal/payload"
)

// Event names with reserved classification behavior.
const (
	EventOrderCompleted    = "Order Completed"
	EventInstallAttributed = "Install Attributed"
)

const defaultCurrency = "USD"

// Root-level property keys consumed by purchase reshaping. They never
// appear in a line item's merged custom properties.
var purchaseRootReserved = map[string]struct{}{
	"products":   {},
	"currency":   {},
	"time":       {},
	"event_name": {},
}

// Product-level keys lifted into the line item itself.
var productReserved = map[string]struct{}{
	"product_id": {},
	"price":      {},
	"quantity":   {},
}

// Classify maps one track event onto the SDK call it should produce.
// It is pure and total: every input yields a Purchase, an Attribution,
// a Custom call, or nil for "log nothing".
func Classify(name string, properties map[string]any) Call {
	props := payload.FromMap(properties)
	switch name {
	case EventInstallAttributed:
		return classifyAttribution(props)
	case EventOrderCompleted:
		return classifyPurchase(props)
	default:
		return Custom{Name: name, Properties: props}
	}
}

// classifyAttribution requires the campaign key to be structurally an
// object. An empty-but-present object still yields an Attribution with
// all fields blank; anything else falls back to a custom event.
func classifyAttribution(props payload.Object) Call {
	campaign, ok := props["campaign"].(payload.Object)
	if !ok {
		return Custom{Name: EventInstallAttributed, Properties: props}
	}
	return Attribution{
		Network:  stringProp(campaign, "source"),
		Campaign: stringProp(campaign, "name"),
		AdGroup:  stringProp(campaign, "ad_group"),
		Creative: stringProp(campaign, "ad_creative"),
	}
}

// classifyPurchase expands the products list into line items. No products
// means no call at all; a non-empty list in which every entry fails to
// parse degrades to a custom event carrying the original properties.
func classifyPurchase(props payload.Object) Call {
	products, ok := props["products"].(payload.List)
	if !ok || len(products) == 0 {
		return nil
	}

	currency := defaultCurrency
	if s, ok := props["currency"].(payload.String); ok && utf8.RuneCountInString(string(s)) == 3 {
		currency = string(s)
	}

	rootProps := payload.Object{}
	for key, val := range props {
		if _, reserved := purchaseRootReserved[key]; !reserved {
			rootProps[key] = val
		}
	}

	items := make([]LineItem, 0, len(products))
	for _, entry := range products {
		if item, ok := lineItem(entry, currency, rootProps); ok {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return Custom{Name: EventOrderCompleted, Properties: props}
	}
	return Purchase{Items: items}
}

// lineItem parses one product entry. Entries missing a scalar product_id
// or a parseable price are rejected.
func lineItem(entry payload.Value, currency string, rootProps payload.Object) (LineItem, bool) {
	product, ok := entry.(payload.Object)
	if !ok {
		return LineItem{}, false
	}
	id, ok := payload.ScalarString(product["product_id"])
	if !ok || id == "" {
		return LineItem{}, false
	}
	price, ok := payload.CoercePrice(product["price"])
	if !ok {
		return LineItem{}, false
	}

	merged := rootProps.Clone()
	for key, val := range product {
		if _, reserved := productReserved[key]; !reserved {
			merged[key] = val
		}
	}

	return LineItem{
		ProductID:  id,
		Currency:   currency,
		Price:      price,
		Quantity:   payload.CoerceQuantity(product["quantity"]),
		Properties: merged,
	}, true
}

func stringProp(obj payload.Object, key string) string {
	if s, ok := obj[key].(payload.String); ok {
		return string(s)
	}
	return ""
}
