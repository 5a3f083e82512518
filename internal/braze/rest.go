package braze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meterline/brazekit/internal/payload"
	"github.com/meterline/brazekit/internal/track"
)

const (
	usersTrackPath = "/users/track"
	dobFormat      = "2006-01-02"

	defaultTimeout = 10 * time.Second
)

// RestClient buffers boundary calls and ships them as one users-track
// document per Flush. A failed flush reports its error once and the
// buffered data is gone; retrying is the caller's decision.
type RestClient struct {
	url    string
	apiKey string
	client *http.Client
	now    func() time.Time

	mu         sync.Mutex
	externalID string
	pending    map[string]any
	attributes []map[string]any
	events     []map[string]any
	purchases  []map[string]any
}

var _ Client = (*RestClient)(nil)

// RestOption adjusts RestClient construction.
type RestOption func(*RestClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) RestOption {
	return func(c *RestClient) { c.client = hc }
}

// WithClock fixes the timestamp source for events and purchases.
func WithClock(now func() time.Time) RestOption {
	return func(c *RestClient) { c.now = now }
}

// NewRestClient builds a client for the given endpoint host and REST API
// key. The endpoint may be a bare host (https is assumed) or carry an
// explicit scheme.
func NewRestClient(endpoint, apiKey string, opts ...RestOption) (*RestClient, error) {
	if endpoint == "" {
		return nil, errors.New("empty endpoint")
	}
	if apiKey == "" {
		return nil, errors.New("empty api key")
	}
	base := endpoint
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	c := &RestClient{
		url:    strings.TrimSuffix(base, "/") + usersTrackPath,
		apiKey: apiKey,
		client: &http.Client{Timeout: defaultTimeout},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *RestClient) ChangeUser(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.externalID {
		c.sealPendingLocked()
		c.externalID = id
	}
}

func (c *RestClient) AddAlias(id, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj := map[string]any{
		"user_alias": map[string]any{"alias_name": id, "alias_label": label},
	}
	if c.externalID != "" {
		obj["external_id"] = c.externalID
	}
	c.attributes = append(c.attributes, obj)
}

func (c *RestClient) SetStandardAttribute(attr StandardAttribute) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.pendingLocked()
	switch attr.Field {
	case FieldEmail:
		pending["email"] = attr.Text
	case FieldFirstName:
		pending["first_name"] = attr.Text
	case FieldLastName:
		pending["last_name"] = attr.Text
	case FieldGender:
		pending["gender"] = attr.Text
	case FieldPhone:
		pending["phone"] = attr.Text
	case FieldAddress:
		if attr.Address != nil {
			pending["home_city"] = attr.Address.City
			pending["country"] = attr.Address.Country
		}
	case FieldBirthday:
		pending["dob"] = attr.Time.UTC().Format(dobFormat)
	}
}

func (c *RestClient) SetCustomAttribute(key string, value payload.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingLocked()[key] = wireValue(value)
}

func (c *RestClient) LogPurchase(productID, currency string, price decimal.Decimal, quantity int, properties payload.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purchases = append(c.purchases, map[string]any{
		"external_id": c.externalID,
		"product_id":  productID,
		"currency":    currency,
		"price":       json.Number(price.String()),
		"quantity":    quantity,
		"time":        c.now().UTC().Format(payload.ISO8601Millis),
		"properties":  wireObject(properties),
	})
}

func (c *RestClient) LogCustomEvent(name string, properties payload.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, map[string]any{
		"external_id": c.externalID,
		"name":        name,
		"time":        c.now().UTC().Format(payload.ISO8601Millis),
		"properties":  wireObject(properties),
	})
}

func (c *RestClient) SetAttributionData(attr track.Attribution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	campaign := map[string]any{}
	if attr.Network != "" {
		campaign["source"] = attr.Network
	}
	if attr.Campaign != "" {
		campaign["name"] = attr.Campaign
	}
	if attr.AdGroup != "" {
		campaign["ad_group"] = attr.AdGroup
	}
	if attr.Creative != "" {
		campaign["creative"] = attr.Creative
	}
	c.pendingLocked()["install_attribution"] = map[string]any{"campaign": campaign}
}

// Flush posts everything buffered since the last flush as a single
// users-track document. Nothing buffered means no request at all.
func (c *RestClient) Flush() error {
	c.mu.Lock()
	c.sealPendingLocked()
	attributes, events, purchases := c.attributes, c.events, c.purchases
	c.attributes, c.events, c.purchases = nil, nil, nil
	c.mu.Unlock()

	if len(attributes) == 0 && len(events) == 0 && len(purchases) == 0 {
		return nil
	}

	doc := map[string]any{}
	if len(attributes) > 0 {
		doc["attributes"] = attributes
	}
	if len(events) > 0 {
		doc["events"] = events
	}
	if len(purchases) > 0 {
		doc["purchases"] = purchases
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode users track: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build users track request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post users track: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("users track: unexpected status %s", resp.Status)
	}
	return nil
}

// pendingLocked returns the attribute object being assembled for the
// current user, creating it on first use. Requires c.mu held.
func (c *RestClient) pendingLocked() map[string]any {
	if c.pending == nil {
		c.pending = map[string]any{}
	}
	return c.pending
}

// sealPendingLocked moves the in-progress attribute object into the
// attributes buffer under the current external id. Requires c.mu held.
func (c *RestClient) sealPendingLocked() {
	if len(c.pending) == 0 {
		c.pending = nil
		return
	}
	obj := map[string]any{"external_id": c.externalID}
	maps.Copy(obj, c.pending)
	c.attributes = append(c.attributes, obj)
	c.pending = nil
}

// wireValue renders a payload value in the JSON shape the REST surface
// expects: numbers stay numbers, timestamps become ISO-8601 strings.
func wireValue(v payload.Value) any {
	switch t := v.(type) {
	case payload.String:
		return string(t)
	case payload.Bool:
		return bool(t)
	case payload.Number:
		return json.Number(t.Decimal().String())
	case payload.Time:
		return t.Std().UTC().Format(payload.ISO8601Millis)
	case payload.Object:
		return wireObject(t)
	case payload.List:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, wireValue(item))
		}
		return out
	default:
		return nil
	}
}

func wireObject(obj payload.Object) map[string]any {
	out := make(map[string]any, len(obj))
	for key, val := range obj {
		out[key] = wireValue(val)
	}
	return out
}
