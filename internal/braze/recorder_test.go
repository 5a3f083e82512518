package braze

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterline/brazekit/internal/payload"
	"github.com/meterline/brazekit/internal/track"
	"github.com/meterline/brazekit/internal/traits"
)

func TestRecorderSequencesCalls(t *testing.T) {
	rec := NewRecorder()

	rec.ChangeUser("u1")
	rec.SetStandardAttribute(TextAttribute(FieldEmail, "a@b.c"))
	require.NoError(t, rec.Flush())

	calls := rec.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, 0, calls[0].Seq)
	assert.Equal(t, "changeUser", calls[0].Method)
	assert.Equal(t, 1, calls[1].Seq)
	assert.Equal(t, "setStandardAttribute", calls[1].Method)
	assert.Equal(t, 2, calls[2].Seq)
	assert.Equal(t, "flush", calls[2].Method)
	assert.Nil(t, calls[2].Args)
}

func TestRecorderCallsReturnsCopy(t *testing.T) {
	rec := NewRecorder()
	rec.ChangeUser("u1")

	calls := rec.Calls()
	calls[0].Method = "mutated"

	assert.Equal(t, "changeUser", rec.Calls()[0].Method)
}

func TestRecorderReset(t *testing.T) {
	rec := NewRecorder()
	rec.ChangeUser("u1")
	rec.Reset()

	assert.Empty(t, rec.Calls())

	rec.ChangeUser("u2")
	assert.Equal(t, 0, rec.Calls()[0].Seq)
}

func TestRecorderFailFlush(t *testing.T) {
	rec := NewRecorder()
	sentinel := errors.New("boom")
	rec.FailFlushWith(sentinel)

	err := rec.Flush()
	require.ErrorIs(t, err, sentinel)
	// The failing flush is still part of the trace.
	require.Len(t, rec.Calls(), 1)
	assert.Equal(t, "flush", rec.Calls()[0].Method)
}

func TestRecorderStandardAttributeArgs(t *testing.T) {
	rec := NewRecorder()

	rec.SetStandardAttribute(TextAttribute(FieldFirstName, "Kim"))
	rec.SetStandardAttribute(AddressAttribute(traits.Address{City: "Oslo", Country: "NO"}))
	rec.SetStandardAttribute(BirthdayAttribute(time.Date(1991, 5, 2, 8, 30, 0, 0, time.UTC)))

	calls := rec.Calls()
	require.Len(t, calls, 3)

	assert.Equal(t, map[string]any{"field": "first_name", "value": "Kim"}, calls[0].Args)
	assert.Equal(t, map[string]any{
		"field": "address",
		"value": map[string]any{"city": "Oslo", "country": "NO"},
	}, calls[1].Args)
	assert.Equal(t, map[string]any{"field": "birthday", "value": "1991-05-02T08:30:00.000Z"}, calls[2].Args)
}

func TestRecorderCustomAttributeArgs(t *testing.T) {
	rec := NewRecorder()
	rec.SetCustomAttribute("plan", payload.String("pro"))
	rec.SetCustomAttribute("seats", payload.NumberFromInt(3))

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "setCustomAttribute", calls[0].Method)
	assert.Equal(t, "plan", calls[0].Args["key"])
	assert.Equal(t, json.RawMessage(`"pro"`), calls[0].Args["value"])
	assert.Equal(t, json.RawMessage(`3`), calls[1].Args["value"])
}

func TestRecorderPurchaseArgs(t *testing.T) {
	rec := NewRecorder()
	rec.LogPurchase("p1", "GBP", decimal.RequireFromString("25.50"), 3, payload.Object{"coupon": payload.String("X")})

	calls := rec.Calls()
	require.Len(t, calls, 1)
	args := calls[0].Args
	assert.Equal(t, "logPurchase", calls[0].Method)
	assert.Equal(t, "p1", args["product_id"])
	assert.Equal(t, "GBP", args["currency"])
	// decimal renders without trailing zeros.
	assert.Equal(t, json.Number("25.5"), args["price"])
	assert.Equal(t, 3, args["quantity"])
	assert.Equal(t, json.RawMessage(`{"coupon":"X"}`), args["properties"])
}

func TestRecorderAttributionArgsOmitEmpty(t *testing.T) {
	rec := NewRecorder()
	rec.SetAttributionData(track.Attribution{Network: "fb", Campaign: "summer"})
	rec.SetAttributionData(track.Attribution{})

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, map[string]any{"network": "fb", "campaign": "summer"}, calls[0].Args)
	// An all-empty record still appears in the trace, just without args.
	assert.Equal(t, "setAttributionData", calls[1].Method)
	assert.Nil(t, calls[1].Args)
}

func TestRecorderTraceSerializesDeterministically(t *testing.T) {
	build := func() []byte {
		rec := NewRecorder()
		rec.ChangeUser("u1")
		rec.SetCustomAttribute("tags", payload.List{payload.String("a"), payload.String("b")})
		rec.LogCustomEvent("Signed In", payload.Object{"method": payload.String("sso"), "attempt": payload.NumberFromInt(2)})
		out, err := json.Marshal(rec.Calls())
		require.NoError(t, err)
		return out
	}

	first := build()
	for range 5 {
		assert.Equal(t, string(first), string(build()))
	}
}
