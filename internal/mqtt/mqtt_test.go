package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/udpfan/internal/track"
)

func TestTopics(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{TopicEvents("attic"), "fan/attic/events"},
		{TopicSystem("attic"), "fan/attic/system"},
		{TopicSetSpeed("attic"), "fan/attic/speed/set"},
		{TopicSetPower("attic"), "fan/attic/power/set"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestFormatPayload(t *testing.T) {
	event := track.Event{
		Timestamp: time.Date(2026, 3, 2, 22, 18, 12, 0, time.UTC),
		Type:      track.EventFanOn,
		Level:     2,
		PrevLevel: 0,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Fan.Timestamp != "2026-03-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Fan.Timestamp)
	}
	if parsed.Fan.Event != "FAN_ON" {
		t.Errorf("unexpected event: %s", parsed.Fan.Event)
	}
	if parsed.Fan.Level != 2 {
		t.Errorf("level: got %d, want 2", parsed.Fan.Level)
	}
	if parsed.Fan.PrevLevel != 0 {
		t.Errorf("prev level: got %d, want 0", parsed.Fan.PrevLevel)
	}
	if parsed.Fan.Percent != 66.66 {
		t.Errorf("percent: got %v, want 66.66", parsed.Fan.Percent)
	}
	if !parsed.Fan.Active {
		t.Error("expected active=true")
	}
}

func TestFormatPayloadAllEventTypes(t *testing.T) {
	tests := []struct {
		eventType track.EventType
		level     int
		prev      int
		wantEvent string
		wantOn    bool
	}{
		{track.EventFanOn, 3, 0, "FAN_ON", true},
		{track.EventFanOff, 0, 3, "FAN_OFF", false},
		{track.EventSpeedChange, 1, 2, "SPEED_CHANGE", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			event := track.Event{
				Timestamp: time.Now(),
				Type:      tt.eventType,
				Level:     tt.level,
				PrevLevel: tt.prev,
			}

			payload, err := FormatPayload(event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed Payload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}

			if parsed.Fan.Event != tt.wantEvent {
				t.Errorf("event: got %s, want %s", parsed.Fan.Event, tt.wantEvent)
			}
			if parsed.Fan.Active != tt.wantOn {
				t.Errorf("active: got %v, want %v", parsed.Fan.Active, tt.wantOn)
			}
		})
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("event: got %s, want SHUTDOWN", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("reason: got %s, want SIGTERM", parsed.System.Reason)
	}
	if parsed.System.Timestamp != "2026-03-02T08:00:00Z" {
		t.Errorf("timestamp: got %s", parsed.System.Timestamp)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	event := SystemEvent{
		Timestamp:  time.Now(),
		Event:      "STARTUP",
		RawPayload: raw,
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	event := track.Event{
		Timestamp: time.Now(),
		Type:      track.EventFanOff,
		Level:     0,
		PrevLevel: 2,
	}
	if err := f.Publish(event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(f.Events) != 1 || f.Events[0].Type != track.EventFanOff {
		t.Errorf("expected one FAN_OFF event, got %v", f.Events)
	}
	if len(f.Payloads) != 1 {
		t.Errorf("expected one payload, got %d", len(f.Payloads))
	}

	sys := SystemEvent{Timestamp: time.Now(), Event: "HEARTBEAT"}
	if err := f.PublishSystem(sys); err != nil {
		t.Fatalf("publish system: %v", err)
	}
	if len(f.SystemEvents) != 1 {
		t.Errorf("expected one system event, got %d", len(f.SystemEvents))
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	wantErr := errors.New("broker down")
	f.PublishError = wantErr

	err := f.Publish(track.Event{Type: track.EventFanOn, Level: 1})
	if !errors.Is(err, wantErr) {
		t.Errorf("got %v, want injected error", err)
	}
	if len(f.Events) != 0 {
		t.Error("failed publish should not record the event")
	}
}
