package payload

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Verify all types implement Value (compile-time check via assignment)
	var _ Value = String("test")
	var _ Value = Number{}
	var _ Value = Bool(true)
	var _ Value = Time(time.Now())
	var _ Value = Object{"key": String("value")}
	var _ Value = List{String("a"), NumberFromInt(1)}
}

func TestFromAnyScalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"string", "hello", String("hello")},
		{"bool", true, Bool(true)},
		{"int", 42, NumberFromInt(42)},
		{"int64", int64(-7), NumberFromInt(-7)},
		{"float64", 25.5, NumberFromFloat(25.5)},
		{"json number", json.Number("25.50"), mustNumber(t, "25.50")},
		{"decimal", decimal.RequireFromString("3.14"), mustNumber(t, "3.14")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromAny(tt.in)
			require.True(t, ok)
			assert.True(t, Equal(tt.want, got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestFromAnyTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	got, ok := FromAny(now)
	require.True(t, ok)
	tv, isTime := got.(Time)
	require.True(t, isTime)
	assert.True(t, tv.Std().Equal(now))

	got, ok = FromAny(&now)
	require.True(t, ok)
	_, isTime = got.(Time)
	assert.True(t, isTime)

	var nilTime *time.Time
	_, ok = FromAny(nilTime)
	assert.False(t, ok)
}

func TestFromAnyNested(t *testing.T) {
	in := map[string]any{
		"name": "cart",
		"tags": []any{"a", "b"},
		"dims": map[string]any{"w": 3, "h": 4},
	}

	got, ok := FromAny(in)
	require.True(t, ok)
	obj, isObj := got.(Object)
	require.True(t, isObj)

	assert.Equal(t, String("cart"), obj["name"])

	tags, isList := obj["tags"].(List)
	require.True(t, isList)
	assert.Len(t, tags, 2)

	dims, isNested := obj["dims"].(Object)
	require.True(t, isNested)
	assert.True(t, Equal(NumberFromInt(3), dims["w"]))
}

func TestFromAnyUnsupportedDropped(t *testing.T) {
	type opaque struct{ x int }

	_, ok := FromAny(opaque{x: 1})
	assert.False(t, ok)

	_, ok = FromAny(nil)
	assert.False(t, ok)

	// Unsupported entries vanish without taking the rest of the map down.
	obj := FromMap(map[string]any{
		"keep": "yes",
		"drop": opaque{x: 2},
		"nope": nil,
	})
	assert.Len(t, obj, 1)
	assert.Equal(t, String("yes"), obj["keep"])
}

func TestFromMapNil(t *testing.T) {
	obj := FromMap(nil)
	require.NotNil(t, obj)
	assert.Empty(t, obj)
}

func TestMarshalDeterministic(t *testing.T) {
	obj := Object{
		"zebra": String("z"),
		"apple": NumberFromInt(1),
		"nested": Object{
			"b": Bool(false),
			"a": mustNumber(t, "25.50"),
		},
	}

	first, err := Marshal(obj)
	require.NoError(t, err)
	assert.JSONEq(t, `{"apple":1,"nested":{"a":25.5,"b":false},"zebra":"z"}`, string(first))

	// Key order is stable across marshals.
	for range 5 {
		again, err := Marshal(obj)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMarshalTime(t *testing.T) {
	ts := time.Date(1991, 5, 2, 8, 30, 15, 123_000_000, time.UTC)

	data, err := Marshal(Time(ts))
	require.NoError(t, err)
	assert.Equal(t, `"1991-05-02T08:30:15.123Z"`, string(data))
}

func TestMarshalNoHTMLEscaping(t *testing.T) {
	data, err := Marshal(String("a<b>&c"))
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(data))
}

func TestSortedKeys(t *testing.T) {
	obj := Object{"c": Bool(true), "a": Bool(true), "b": Bool(true)}
	assert.Equal(t, []string{"a", "b", "c"}, obj.SortedKeys())
	assert.Empty(t, Object{}.SortedKeys())
}

func TestObjectClone(t *testing.T) {
	orig := Object{"k": String("v")}
	cp := orig.Clone()
	cp["k2"] = String("v2")

	assert.Len(t, orig, 1)
	assert.Len(t, cp, 2)
	assert.Nil(t, Object(nil).Clone())
}

func mustNumber(t *testing.T, s string) Number {
	t.Helper()
	n, ok := NumberFromString(s)
	require.True(t, ok)
	return n
}
