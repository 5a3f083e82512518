package braze

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterline/brazekit/internal/payload"
	"github.com/meterline/brazekit/internal/track"
	"github.com/meterline/brazekit/internal/traits"
)

type capturedRequest struct {
	method      string
	path        string
	auth        string
	contentType string
	body        map[string]any
}

type captureLog struct {
	mu   sync.Mutex
	reqs []capturedRequest
}

func (l *captureLog) add(r capturedRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reqs = append(l.reqs, r)
}

func (l *captureLog) all() []capturedRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]capturedRequest, len(l.reqs))
	copy(out, l.reqs)
	return out
}

// newCaptureServer responds with the given status and records every
// request it sees. Undecodable bodies get a 400 regardless of status.
func newCaptureServer(t *testing.T, status int) (*httptest.Server, *captureLog) {
	t.Helper()
	log := &captureLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.add(capturedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			auth:        r.Header.Get("Authorization"),
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, log
}

func TestNewRestClientValidation(t *testing.T) {
	_, err := NewRestClient("", "key")
	require.Error(t, err)

	_, err = NewRestClient("sdk.fra-02.braze.eu", "")
	require.Error(t, err)

	c, err := NewRestClient("sdk.fra-02.braze.eu", "key")
	require.NoError(t, err)
	assert.Equal(t, "https://sdk.fra-02.braze.eu/users/track", c.url)

	c, err = NewRestClient("http://localhost:9999/", "key")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/users/track", c.url)
}

func TestRestClientFlushPostsUsersTrackDocument(t *testing.T) {
	srv, seen := newCaptureServer(t, http.StatusCreated)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c, err := NewRestClient(srv.URL, "key-123", WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	c.ChangeUser("u1")
	c.SetStandardAttribute(TextAttribute(FieldEmail, "kim@example.com"))
	c.SetStandardAttribute(TextAttribute(FieldGender, "f"))
	c.SetStandardAttribute(AddressAttribute(traits.Address{City: "Oslo", Country: "NO"}))
	c.SetStandardAttribute(BirthdayAttribute(time.Date(1991, 5, 2, 8, 30, 0, 0, time.UTC)))
	c.SetCustomAttribute("plan", payload.String("pro"))
	c.LogCustomEvent("Signed In", payload.Object{"method": payload.String("sso")})
	c.LogPurchase("p1", "GBP", decimal.RequireFromString("25.5"), 2, payload.Object{"coupon": payload.String("X")})
	require.NoError(t, c.Flush())

	reqs := seen.all()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/users/track", req.path)
	assert.Equal(t, "Bearer key-123", req.auth)
	assert.Equal(t, "application/json", req.contentType)

	attributes, ok := req.body["attributes"].([]any)
	require.True(t, ok)
	require.Len(t, attributes, 1)
	attr := attributes[0].(map[string]any)
	assert.Equal(t, "u1", attr["external_id"])
	assert.Equal(t, "kim@example.com", attr["email"])
	assert.Equal(t, "f", attr["gender"])
	assert.Equal(t, "Oslo", attr["home_city"])
	assert.Equal(t, "NO", attr["country"])
	assert.Equal(t, "1991-05-02", attr["dob"])
	assert.Equal(t, "pro", attr["plan"])

	events, ok := req.body["events"].([]any)
	require.True(t, ok)
	require.Len(t, events, 1)
	evt := events[0].(map[string]any)
	assert.Equal(t, "u1", evt["external_id"])
	assert.Equal(t, "Signed In", evt["name"])
	assert.Equal(t, "2024-03-01T12:00:00.000Z", evt["time"])
	assert.Equal(t, map[string]any{"method": "sso"}, evt["properties"])

	purchases, ok := req.body["purchases"].([]any)
	require.True(t, ok)
	require.Len(t, purchases, 1)
	p := purchases[0].(map[string]any)
	assert.Equal(t, "p1", p["product_id"])
	assert.Equal(t, "GBP", p["currency"])
	assert.Equal(t, json.Number("25.5"), p["price"])
	assert.Equal(t, json.Number("2"), p["quantity"])
}

func TestRestClientFlushNothingBuffered(t *testing.T) {
	srv, seen := newCaptureServer(t, http.StatusOK)
	c, err := NewRestClient(srv.URL, "key")
	require.NoError(t, err)

	require.NoError(t, c.Flush())
	assert.Empty(t, seen.all())
}

func TestRestClientFlushDropsBufferOnFailure(t *testing.T) {
	srv, seen := newCaptureServer(t, http.StatusBadRequest)
	c, err := NewRestClient(srv.URL, "key")
	require.NoError(t, err)

	c.ChangeUser("u1")
	c.SetStandardAttribute(TextAttribute(FieldEmail, "a@b.c"))

	err = c.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	require.Len(t, seen.all(), 1)

	// The failed document is not retried on the next flush.
	require.NoError(t, c.Flush())
	assert.Len(t, seen.all(), 1)
}

func TestRestClientSealsAttributesPerUser(t *testing.T) {
	srv, seen := newCaptureServer(t, http.StatusOK)
	c, err := NewRestClient(srv.URL, "key")
	require.NoError(t, err)

	c.ChangeUser("u1")
	c.SetStandardAttribute(TextAttribute(FieldFirstName, "Kim"))
	c.ChangeUser("u2")
	c.SetStandardAttribute(TextAttribute(FieldFirstName, "Alex"))
	require.NoError(t, c.Flush())

	reqs := seen.all()
	require.Len(t, reqs, 1)
	attributes := reqs[0].body["attributes"].([]any)
	require.Len(t, attributes, 2)
	first := attributes[0].(map[string]any)
	second := attributes[1].(map[string]any)
	assert.Equal(t, "u1", first["external_id"])
	assert.Equal(t, "Kim", first["first_name"])
	assert.Equal(t, "u2", second["external_id"])
	assert.Equal(t, "Alex", second["first_name"])
}

func TestRestClientAlias(t *testing.T) {
	srv, seen := newCaptureServer(t, http.StatusOK)
	c, err := NewRestClient(srv.URL, "key")
	require.NoError(t, err)

	// Alias registered before any identity is known.
	c.AddAlias("anon-1", "anonymous_id")
	require.NoError(t, c.Flush())

	reqs := seen.all()
	require.Len(t, reqs, 1)
	attributes := reqs[0].body["attributes"].([]any)
	require.Len(t, attributes, 1)
	attr := attributes[0].(map[string]any)
	_, hasExternal := attr["external_id"]
	assert.False(t, hasExternal)
	assert.Equal(t, map[string]any{"alias_name": "anon-1", "alias_label": "anonymous_id"}, attr["user_alias"])
}

func TestRestClientAttributionBecomesAttribute(t *testing.T) {
	srv, seen := newCaptureServer(t, http.StatusOK)
	c, err := NewRestClient(srv.URL, "key")
	require.NoError(t, err)

	c.ChangeUser("u1")
	c.SetAttributionData(track.Attribution{Network: "fb", Campaign: "summer", AdGroup: "g", Creative: "c"})
	require.NoError(t, c.Flush())

	attributes := seen.all()[0].body["attributes"].([]any)
	attr := attributes[0].(map[string]any)
	install := attr["install_attribution"].(map[string]any)
	campaign := install["campaign"].(map[string]any)
	assert.Equal(t, "fb", campaign["source"])
	assert.Equal(t, "summer", campaign["name"])
	assert.Equal(t, "g", campaign["ad_group"])
	assert.Equal(t, "c", campaign["creative"])
}

func TestRestClientNetworkErrorSurfaced(t *testing.T) {
	c, err := NewRestClient("http://127.0.0.1:1", "key", WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))
	require.NoError(t, err)

	c.ChangeUser("u1")
	c.SetStandardAttribute(TextAttribute(FieldEmail, "a@b.c"))
	require.Error(t, c.Flush())
}
