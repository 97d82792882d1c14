// Package notify sends best-effort webhook notifications for identity
// events from the watch daemon.
package notify

// EventType identifies the type of gitshift event.
type EventType string

// Event types for webhook notifications.
const (
	EventSwitched     EventType = "switched"
	EventSwitchFailed EventType = "switch_failed"
	EventImported     EventType = "imported"
)

// Field keys used in notification payloads.
const (
	FieldIdentity = "identity"
	FieldEmail    = "email"
	FieldError    = "error"
)

// eventConfig holds display configuration for each event type.
type eventConfig struct {
	emoji string
	title string
}

var eventConfigs = map[EventType]eventConfig{
	EventSwitched:     {emoji: "🔀", title: "Identity Switched"},
	EventSwitchFailed: {emoji: "❌", title: "Identity Switch Failed"},
	EventImported:     {emoji: "📥", title: "Identity Imported"},
}
