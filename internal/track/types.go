// Package track contains pure change-tracking logic for polled fan
// state. This package has NO external dependencies (no network, MQTT,
// OS, or time.Sleep). Time is always injectable via time.Time
// parameters.
package track

import "time"

// EventType represents a fan state transition event.
type EventType string

const (
	EventFanOn       EventType = "FAN_ON"
	EventFanOff      EventType = "FAN_OFF"
	EventSpeedChange EventType = "SPEED_CHANGE"
)

// Event represents a state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Level     int // level after the transition
	PrevLevel int // level before the transition
}

// Sample is one polled reading of the fan's speed level.
type Sample struct {
	Level int
	Time  time.Time
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	FanOn       int
	FanOff      int
	SpeedChange int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
