package braze

import (
	"encoding/json"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/meterline/brazekit/internal/payload"
	"github.com/meterline/brazekit/internal/track"
)

// Call is one recorded boundary invocation. Args holds JSON-stable values
// only, so a trace serializes deterministically.
type Call struct {
	Seq    int            `json:"seq"`
	Method string         `json:"method"`
	Args   map[string]any `json:"args,omitempty"`
}

// Recorder is a Client that captures every call instead of sending it.
// The simulator and the package tests read traces back through Calls.
type Recorder struct {
	mu       sync.Mutex
	next     int
	calls    []Call
	flushErr error
}

var _ Client = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Calls returns a copy of the trace in record order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset drops the trace and restarts the sequence counter.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.next = 0
}

// FailFlushWith makes every subsequent Flush return err.
func (r *Recorder) FailFlushWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushErr = err
}

func (r *Recorder) ChangeUser(id string) {
	r.record("changeUser", map[string]any{"id": id})
}

func (r *Recorder) AddAlias(id, label string) {
	r.record("addAlias", map[string]any{"id": id, "label": label})
}

func (r *Recorder) SetStandardAttribute(attr StandardAttribute) {
	args := map[string]any{"field": attr.Field.String()}
	switch attr.Field {
	case FieldAddress:
		if attr.Address != nil {
			args["value"] = map[string]any{"city": attr.Address.City, "country": attr.Address.Country}
		}
	case FieldBirthday:
		args["value"] = attr.Time.UTC().Format(payload.ISO8601Millis)
	default:
		args["value"] = attr.Text
	}
	r.record("setStandardAttribute", args)
}

func (r *Recorder) SetCustomAttribute(key string, value payload.Value) {
	r.record("setCustomAttribute", map[string]any{"key": key, "value": rawJSON(value)})
}

func (r *Recorder) LogPurchase(productID, currency string, price decimal.Decimal, quantity int, properties payload.Object) {
	r.record("logPurchase", map[string]any{
		"product_id": productID,
		"currency":   currency,
		"price":      json.Number(price.String()),
		"quantity":   quantity,
		"properties": rawJSON(properties),
	})
}

func (r *Recorder) LogCustomEvent(name string, properties payload.Object) {
	r.record("logCustomEvent", map[string]any{"name": name, "properties": rawJSON(properties)})
}

func (r *Recorder) SetAttributionData(attr track.Attribution) {
	args := map[string]any{}
	if attr.Network != "" {
		args["network"] = attr.Network
	}
	if attr.Campaign != "" {
		args["campaign"] = attr.Campaign
	}
	if attr.AdGroup != "" {
		args["ad_group"] = attr.AdGroup
	}
	if attr.Creative != "" {
		args["creative"] = attr.Creative
	}
	r.record("setAttributionData", args)
}

func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.append("flush", nil)
	return r.flushErr
}

func (r *Recorder) record(method string, args map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.append(method, args)
}

// append requires r.mu held. Empty args maps are normalized to nil so the
// serialized trace omits them.
func (r *Recorder) append(method string, args map[string]any) {
	if len(args) == 0 {
		args = nil
	}
	r.calls = append(r.calls, Call{Seq: r.next, Method: method, Args: args})
	r.next++
}

func rawJSON(v payload.Value) json.RawMessage {
	b, err := payload.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(b)
}
