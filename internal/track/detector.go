package track

import "time"

// Detector tracks polled fan state and detects transitions. Samples
// come from the retry-hardened client, so no debounce is applied: the
// first sample establishes the baseline, and every later change is a
// transition.
type Detector struct {
	level         int
	baselined     bool
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewDetector creates a transition detector. The startTime is used for
// calculating uptime in heartbeat events.
func NewDetector(startTime time.Time) *Detector {
	return &Detector{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes a new sample and returns the event it implies, if any.
// The first sample establishes the baseline and emits nothing.
func (d *Detector) Process(s Sample) []Event {
	if !d.baselined {
		d.level = s.Level
		d.baselined = true
		return nil
	}

	if s.Level == d.level {
		return nil
	}

	prev := d.level
	d.level = s.Level

	event := Event{
		Timestamp: s.Time,
		Level:     s.Level,
		PrevLevel: prev,
	}
	switch {
	case prev == 0:
		event.Type = EventFanOn
		d.eventCounts.FanOn++
	case s.Level == 0:
		event.Type = EventFanOff
		d.eventCounts.FanOff++
	default:
		event.Type = EventSpeedChange
		d.eventCounts.SpeedChange++
	}

	return []Event{event}
}

// IsBaselined returns whether the detector has seen its first sample.
func (d *Detector) IsBaselined() bool {
	return d.baselined
}

// CurrentLevel returns the last observed speed level.
func (d *Detector) CurrentLevel() int {
	return d.level
}

// EventCountsSnapshot returns a copy of the event counts.
func (d *Detector) EventCountsSnapshot() EventCounts {
	return d.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed
// since the last heartbeat (or startup). Returns nil if not yet
// baselined, if the interval has not elapsed, or if interval is <= 0
// (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !d.baselined {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts,
	}
}
