package fan

import "time"

// Defaults for the retry and caching knobs. These match the device's
// observed behavior on a local network: the link is low latency, so the
// retry delay is flat rather than backed off.
const (
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 200 * time.Millisecond
	DefaultTimeout      = time.Second
	DefaultCacheTimeout = 2 * time.Second
	DefaultSettleDelay  = 100 * time.Millisecond
)

// Config describes one fan device and the client's retry policy.
// A zero value for any knob is replaced by the matching default.
type Config struct {
	// Name is a display label, used only in log messages.
	Name string

	// Host and Port identify the UDP peer for the client's lifetime.
	Host string
	Port int

	// MaxRetries bounds resend attempts after the first: a dispatch
	// makes at most MaxRetries+1 sends.
	MaxRetries int

	// RetryDelay is the flat pause between resend attempts.
	RetryDelay time.Duration

	// Timeout is the per-attempt deadline for a status reply.
	Timeout time.Duration

	// CacheTimeout is the freshness window for cached reads.
	CacheTimeout time.Duration

	// SettleDelay is the pause between a state-changing command and
	// its confirmation query, giving the device time to act.
	SettleDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "fan"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.CacheTimeout == 0 {
		c.CacheTimeout = DefaultCacheTimeout
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	return c
}
