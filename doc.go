// Package brazekit is a device-mode Braze destination for analytics event
// streams. It normalizes loosely-typed identify payloads into a canonical
// trait model, forwards only what changed since the previous snapshot, and
// classifies track events into the purchase, attribution, and custom-event
// calls of the engagement SDK boundary.
//
// A Destination is created from the host-delivered settings map and then
// fed events:
//
//	dst, err := brazekit.New(config, brazekit.WithAnonymousID(anonID))
//	if err != nil {
//		// ErrInvalidAPIKey, ErrInvalidDataCenter, or InitializationError
//	}
//	dst.Identify(identifyEvent)
//	dst.Track(trackEvent)
//	dst.Flush()
//
// Setup is the only fallible step. Event processing is total: malformed
// traits, products, and property values degrade silently per field, never
// aborting the surrounding event.
package brazekit
