package brazekit

import (
	"sync"

	"github.com/meterline/brazekit/internal/braze"
	"github.com/meterline/brazekit/internal/dedup"
	"github.com/meterline/brazekit/internal/settings"
	"github.com/meterline/brazekit/internal/track"
	"github.com/meterline/brazekit/internal/traits"
)

// Setup error surface, re-exported so callers never import internal
// packages. Check the sentinels with errors.Is and the initialization
// failure with errors.As.
var (
	ErrInvalidAPIKey     = settings.ErrInvalidAPIKey
	ErrInvalidDataCenter = settings.ErrInvalidDataCenter
)

// InitializationError reports that SDK client construction failed.
type InitializationError = settings.InitializationError

// AliasLabelAnonymous is the label under which the host's anonymous id is
// registered as a user alias at setup.
const AliasLabelAnonymous = "anonymous_id"

// Destination is one configured integration instance. The host delivers
// events serially per instance; the internal mutex only protects the
// dedup baseline against concurrent misuse.
type Destination struct {
	settings *settings.Settings
	client   braze.Client
	log      Logger

	mu       sync.Mutex
	previous *traits.UserTraits
}

type options struct {
	logger      Logger
	client      braze.Client
	anonymousID string
}

// Option adjusts Destination construction.
type Option func(*options)

// WithLogger sets the leveled sink. Defaults to a discard logger.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClient replaces the REST-backed SDK client, primarily with a
// recording client in tests and the simulator.
func WithClient(c braze.Client) Option {
	return func(o *options) { o.client = c }
}

// WithAnonymousID registers the host's anonymous id as a device alias
// during setup.
func WithAnonymousID(id string) Option {
	return func(o *options) { o.anonymousID = id }
}

// New parses the destination settings and constructs the SDK client.
// It fails with ErrInvalidAPIKey, ErrInvalidDataCenter, or an
// InitializationError; there is no partial initialization and no
// default endpoint.
func New(config map[string]any, opts ...Option) (*Destination, error) {
	o := options{logger: NopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := settings.Parse(config)
	if err != nil {
		return nil, err
	}

	client := o.client
	if client == nil {
		rest, err := braze.NewRestClient(st.Endpoint, st.APIKey)
		if err != nil {
			return nil, settings.NewInitializationError(err)
		}
		client = rest
	}

	d := &Destination{
		settings: st,
		client:   client,
		log:      o.logger,
	}

	if st.ConnectionMode.Processes() && o.anonymousID != "" {
		client.AddAlias(o.anonymousID, AliasLabelAnonymous)
		d.log.Debug("registered anonymous alias", "id", o.anonymousID)
	}
	d.log.Info("destination ready",
		"dataCenter", st.DataCenter,
		"connectionMode", string(st.ConnectionMode),
		"supportDedup", st.SupportDedup)
	return d, nil
}

// Identify extracts the canonical traits, links identity, and forwards
// the fields that changed since the previous snapshot. With dedup off or
// on the first call the full snapshot goes out. Identity linking happens
// even when nothing changed.
func (d *Destination) Identify(evt IdentifyEvent) {
	if !d.settings.ConnectionMode.Processes() {
		return
	}

	current := traits.Extract(evt.UserID, evt.Context.Traits, externalIDs(evt.Context.ExternalIDs))

	d.mu.Lock()
	previous := d.previous
	d.previous = current
	d.mu.Unlock()

	delta := dedup.Delta(current, previous, d.settings.SupportDedup)

	if id := current.Identity(); id != "" {
		d.client.ChangeUser(id)
	} else {
		d.log.Verbose("identify without resolvable identity")
	}
	d.applyTraits(delta)
}

// applyTraits forwards the surviving fields in a fixed order: standard
// fields first, then custom keys sorted, so traces are deterministic.
func (d *Destination) applyTraits(delta *traits.UserTraits) {
	if delta.Email != "" {
		d.client.SetStandardAttribute(braze.TextAttribute(braze.FieldEmail, delta.Email))
	}
	if delta.FirstName != "" {
		d.client.SetStandardAttribute(braze.TextAttribute(braze.FieldFirstName, delta.FirstName))
	}
	if delta.LastName != "" {
		d.client.SetStandardAttribute(braze.TextAttribute(braze.FieldLastName, delta.LastName))
	}
	if delta.Gender != traits.GenderUnset {
		d.client.SetStandardAttribute(braze.TextAttribute(braze.FieldGender, delta.Gender.Code()))
	}
	if delta.Phone != "" {
		d.client.SetStandardAttribute(braze.TextAttribute(braze.FieldPhone, delta.Phone))
	}
	if delta.Address != nil {
		d.client.SetStandardAttribute(braze.AddressAttribute(*delta.Address))
	}
	if !delta.Birthday.IsZero() {
		d.client.SetStandardAttribute(braze.BirthdayAttribute(delta.Birthday))
	}

	for _, key := range delta.Custom.SortedKeys() {
		value, ok := braze.FlattenCustom(delta.Custom[key])
		if !ok {
			d.log.Debug("dropping custom trait", "key", key)
			continue
		}
		d.client.SetCustomAttribute(key, value)
	}
}

// Track classifies the event and dispatches the resulting SDK calls:
// one LogPurchase per line item, one attribution record, one custom
// event, or nothing at all.
func (d *Destination) Track(evt TrackEvent) {
	if !d.settings.ConnectionMode.Processes() {
		return
	}

	switch call := track.Classify(evt.Event, evt.Properties).(type) {
	case track.Purchase:
		for _, item := range call.Items {
			d.client.LogPurchase(item.ProductID, item.Currency, item.Price, item.Quantity, item.Properties)
		}
	case track.Attribution:
		d.client.SetAttributionData(call)
	case track.Custom:
		d.client.LogCustomEvent(call.Name, call.Properties)
	case nil:
		d.log.Verbose("track produced no call", "event", evt.Event)
	}
}

// Flush pushes buffered SDK state out. Failures are reported once at
// warn level and the data is dropped.
func (d *Destination) Flush() {
	if !d.settings.ConnectionMode.Processes() {
		return
	}
	if err := d.client.Flush(); err != nil {
		d.log.Warn("flush failed", "error", err)
	}
}

// Reset forgets the dedup baseline. The next identify passes its full
// snapshot through regardless of what was sent before.
func (d *Destination) Reset() {
	d.mu.Lock()
	d.previous = nil
	d.mu.Unlock()
}

func externalIDs(ids []ExternalID) []traits.ExternalID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]traits.ExternalID, len(ids))
	for i, id := range ids {
		out[i] = traits.ExternalID{Type: id.Type, ID: id.ID}
	}
	return out
}
