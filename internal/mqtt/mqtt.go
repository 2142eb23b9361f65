// Package mqtt bridges fan state to an MQTT broker, with abstraction
// for testing. Transitions and lifecycle events are published; set
// commands arriving on the command topics are handed to the fan
// client.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/udpfan/internal/protocol"
	"github.com/sweeney/udpfan/internal/track"
)

// Topic layout under one fan's base topic "fan/<name>".
const (
	topicEvents   = "events"
	topicSystem   = "system"
	topicSetSpeed = "speed/set"
	topicSetPower = "power/set"
)

// TopicEvents returns the topic fan transition events are published to.
func TopicEvents(name string) string {
	return fmt.Sprintf("fan/%s/%s", name, topicEvents)
}

// TopicSystem returns the topic for system lifecycle events.
func TopicSystem(name string) string {
	return fmt.Sprintf("fan/%s/%s", name, topicSystem)
}

// TopicSetSpeed returns the inbound topic for speed commands. The
// payload is a plain percentage, 0-100.
func TopicSetSpeed(name string) string {
	return fmt.Sprintf("fan/%s/%s", name, topicSetSpeed)
}

// TopicSetPower returns the inbound topic for power commands. The
// payload is "0" or "1".
func TopicSetPower(name string) string {
	return fmt.Sprintf("fan/%s/%s", name, topicSetPower)
}

// Publisher publishes fan events to MQTT.
type Publisher interface {
	// Publish sends a fan transition event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event track.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Commands receives set commands arriving over MQTT. The daemon wires
// these to the fan client.
type Commands interface {
	// SetSpeed applies a speed percentage, 0-100, and returns the
	// percentage the device confirmed.
	SetSpeed(pct float64) (float64, error)

	// SetActive powers the fan on or off.
	SetActive(on bool) error
}

// SystemEvent represents a system lifecycle event (e.g., startup,
// shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Fan FanPayload `json:"fan"`
}

// FanPayload contains the fan event details.
type FanPayload struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	Level     int     `json:"level"`
	PrevLevel int     `json:"prev_level"`
	Percent   float64 `json:"percent"`
	Active    bool    `json:"active"`
}

// FormatPayload creates the JSON payload for a fan transition event.
func FormatPayload(event track.Event) ([]byte, error) {
	payload := Payload{
		Fan: FanPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Level:     event.Level,
			PrevLevel: event.PrevLevel,
			Percent:   protocol.LevelToPercent(event.Level),
			Active:    protocol.Active(event.Level),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full
// status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
