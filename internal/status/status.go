// Package status provides a thread-safe status tracker for the udpfan
// daemon. It is read by the HTTP handlers and the MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/udpfan/internal/protocol"
	"github.com/sweeney/udpfan/internal/track"
)

// NetworkInfo contains network state of the host running the daemon.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Name           string
	Device         string // device host:port
	PollMs         int64
	HeartbeatMs    int64
	MaxRetries     int
	RetryDelayMs   int64
	TimeoutMs      int64
	CacheTimeoutMs int64
	Broker         string
	HTTPAddr       string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Level         int
	Baselined     bool
	CacheFresh    bool
	Counts        track.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Percent returns the host-facing speed percentage for the level.
func (s Snapshot) Percent() float64 {
	return protocol.LevelToPercent(s.Level)
}

// Active reports whether the fan is running.
func (s Snapshot) Active() bool {
	return protocol.Active(s.Level)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the fan level, baseline status, cache freshness and event
// counts. Called from the poll loop on every tick.
func (t *Tracker) Update(level int, baselined, cacheFresh bool, counts track.EventCounts) {
	t.mu.Lock()
	t.snap.Level = level
	t.snap.Baselined = baselined
	t.snap.CacheFresh = cacheFresh
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
