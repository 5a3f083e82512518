package brazekit

// IdentifyEvent is the identify payload shape consumed from the host
// runtime. Every field is optional; extraction is total.
type IdentifyEvent struct {
	UserID  string
	Context EventContext
}

// EventContext carries the identify context: the raw traits map and any
// alternate-identifier records.
type EventContext struct {
	Traits      map[string]any
	ExternalIDs []ExternalID
}

// ExternalID is one alternate-identifier record. An entry with type
// "brazeExternalId" overrides the user id during identity resolution.
type ExternalID struct {
	Type string
	ID   string
}

// TrackEvent is the track payload shape consumed from the host runtime.
type TrackEvent struct {
	Event      string
	Properties map[string]any
}
