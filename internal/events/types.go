// Package events provides the pub/sub event bus that carries ipconfig change
// notifications. Every aggregate mutation is reported as one event per
// changed field group; commits and captures are reported as well.
package events

import "time"

// EventType identifies the category of event.
type EventType string

// Event types.
const (
	// Aggregate field groups
	EventAddresses   EventType = "config.addresses"
	EventRoutes      EventType = "config.routes"
	EventGateway     EventType = "config.gateway"
	EventNameservers EventType = "config.nameservers"
	EventDomains     EventType = "config.domains"
	EventSearches    EventType = "config.searches"
	EventDNSOptions  EventType = "config.dns-options"
	EventWINS        EventType = "config.wins"
	EventDNSPriority EventType = "config.dns-priority"

	// Platform round trips
	EventCaptured  EventType = "platform.captured"
	EventCommitted EventType = "platform.committed"
)

// ConfigEventTypes lists every aggregate field group event.
var ConfigEventTypes = []EventType{
	EventAddresses,
	EventRoutes,
	EventGateway,
	EventNameservers,
	EventDomains,
	EventSearches,
	EventDNSOptions,
	EventWINS,
	EventDNSPriority,
}

// Event is the core message passed through the event bus.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // Emitting aggregate or component
	Data      any       `json:"data"`   // Type-specific payload
}

// ──────────────────────────────────────────────────────────────────────────────
// Type-Specific Payloads
// ──────────────────────────────────────────────────────────────────────────────

// ConfigChangeData is the payload for the config.* events. It carries no
// field values; subscribers read the aggregate's accessors.
type ConfigChangeData struct {
	ConfigID string `json:"config_id"`
	Ifindex  int    `json:"ifindex"`
	Family   string `json:"family"`
}

// PlatformData is the payload for EventCaptured/EventCommitted.
type PlatformData struct {
	ConfigID string `json:"config_id,omitempty"`
	Ifindex  int    `json:"ifindex"`
	Family   string `json:"family"`
	Error    string `json:"error,omitempty"`
}
