// Package settings parses the destination configuration map the host
// delivers at create/update time: API keys, data-center endpoint
// resolution, the dedup flag, and the connection mode.
package settings

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Configuration keys as they appear in the host-delivered map. AppKey is
// the legacy name and must stay spelled exactly like this.
const (
	KeyAppKey          = "appKey"
	KeyMobileAppKey    = "mobileAppKey"
	KeyUseMobileAppKey = "useMobileAppKey"
	KeyDataCenter      = "dataCenter"
	KeySupportDedup    = "supportDedup"
	KeyConnectionMode  = "connectionMode"
)

// ConnectionMode controls whether this integration processes events at
// all. Only device mode runs the core; hybrid and cloud route events
// server-side, and unrecognized modes are treated as "not ours".
type ConnectionMode string

const (
	ModeDevice ConnectionMode = "device"
	ModeHybrid ConnectionMode = "hybrid"
	ModeCloud  ConnectionMode = "cloud"
)

// Processes reports whether events should flow through the core.
func (m ConnectionMode) Processes() bool {
	return m == ModeDevice
}

// dataCenters is the fixed enumeration of supported codes and their
// endpoint hosts. There is no default: an unknown code is a hard error.
var dataCenters = map[string]string{
	"US-01": "sdk.iad-01.braze.com",
	"US-02": "sdk.iad-02.braze.com",
	"US-03": "sdk.iad-03.braze.com",
	"US-04": "sdk.iad-04.braze.com",
	"US-05": "sdk.iad-05.braze.com",
	"US-06": "sdk.iad-06.braze.com",
	"US-07": "sdk.iad-07.braze.com",
	"US-08": "sdk.iad-08.braze.com",
	"EU-01": "sdk.fra-01.braze.eu",
	"EU-02": "sdk.fra-02.braze.eu",
	"AU-01": "sdk.au-01.braze.com",
}

// Settings is the parsed, validated destination configuration.
type Settings struct {
	APIKey         string
	DataCenter     string
	Endpoint       string
	SupportDedup   bool
	ConnectionMode ConnectionMode
}

// Parse validates the host-delivered configuration map. It fails with
// ErrInvalidAPIKey or ErrInvalidDataCenter; everything else has a lenient
// reading (tolerant booleans, defaulted connection mode).
func Parse(config map[string]any) (*Settings, error) {
	apiKey := stringValue(config[KeyAppKey])
	if mobile := stringValue(config[KeyMobileAppKey]); mobile != "" && truthy(config[KeyUseMobileAppKey]) {
		apiKey = mobile
	}
	if apiKey == "" {
		return nil, fmt.Errorf("destination settings: %w", ErrInvalidAPIKey)
	}

	code := strings.ToUpper(stringValue(config[KeyDataCenter]))
	endpoint, ok := dataCenters[code]
	if !ok {
		return nil, fmt.Errorf("destination settings: %w: %q", ErrInvalidDataCenter, stringValue(config[KeyDataCenter]))
	}

	mode := ConnectionMode(strings.ToLower(stringValue(config[KeyConnectionMode])))
	if mode == "" {
		mode = ModeDevice
	}

	return &Settings{
		APIKey:         apiKey,
		DataCenter:     code,
		Endpoint:       endpoint,
		SupportDedup:   truthy(config[KeySupportDedup]),
		ConnectionMode: mode,
	}, nil
}

// DataCenters lists the supported codes in sorted order, for help text
// and diagnostics.
func DataCenters() []string {
	return slices.Sorted(maps.Keys(dataCenters))
}

// stringValue reads a configuration value as a trimmed string; anything
// that is not a string reads as empty.
func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// truthy is the tolerant boolean reading used for flag-like settings,
// accepting native bools, "true"/"1"-style strings, and nonzero numbers.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return false
	}
}
