// Package notify broadcasts best-effort "store changed" events between
// windows. Delivery is not guaranteed: a window that is not listening misses
// the event for good, and slow listeners have events dropped. Readers must
// not rely on it alone.
package notify

import (
	"context"
	"encoding/json"
	"time"
)

// Topics
const (
	TopicPromptsUpdated  = "prompts-updated"
	TopicSettingsUpdated = "settings-updated"
	TopicLicenseUpdated  = "license-updated"
)

// Topics lists every topic a window listens on
var Topics = []string{TopicPromptsUpdated, TopicSettingsUpdated, TopicLicenseUpdated}

// Event is one broadcast
type Event struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Source  string          `json:"source,omitempty"`
	At      time.Time       `json:"at"`
}

// Channel is a fire-and-forget broadcast medium
type Channel interface {
	// Broadcast hands payload to every current listener of topic. It never
	// blocks on listeners and does not persist anything.
	Broadcast(ctx context.Context, topic string, payload interface{}) error
	// Subscribe calls handler once per event received on topic until the
	// returned function is called.
	Subscribe(topic string, handler func(Event)) (unsubscribe func())
}

// NewEvent builds an event, encoding payload as JSON. A nil payload is left empty.
func NewEvent(topic, source string, payload interface{}) (Event, error) {
	ev := Event{Topic: topic, Source: source, At: time.Now().UTC()}
	if payload == nil {
		return ev, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		ev.Payload = raw
		return ev, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	ev.Payload = raw
	return ev, nil
}
