// Package fan implements the command/response engine for a UDP fan
// controller: retrying dispatch, confirmation-checked writes and a
// short-lived state cache. The wire format lives in internal/protocol;
// the socket lives in internal/transport.
package fan

import (
	"log"
	"time"

	"github.com/sweeney/udpfan/internal/protocol"
	"github.com/sweeney/udpfan/internal/transport"
)

// Client exposes the four fan operations the host consumes. Reads are
// served from cache while fresh and fall back to the stale cache when a
// live query fails; writes always propagate failures, since masking a
// failed write would desynchronize the host from the device.
type Client struct {
	cfg   Config
	disp  *dispatcher
	cache *cache
}

// New creates a Client for one device over the given conn. Zero-valued
// Config knobs get the package defaults.
func New(cfg Config, conn transport.Conn) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:   cfg,
		disp:  newDispatcher(cfg, conn),
		cache: newCache(cfg.CacheTimeout, time.Now),
	}
}

// Name returns the client's display label.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Level returns the current speed level, preferring the fresh cache,
// then a live query, then the stale cache. The error propagates only
// when no cached value exists at all.
func (c *Client) Level() (int, error) {
	if level, ok := c.cache.read(); ok {
		return level, nil
	}

	level, err := c.disp.dispatch(protocol.QueryStatus, true)
	if err != nil {
		if stale, ok := c.cache.readStale(); ok {
			log.Printf("fan %s: live query failed (%v), serving stale cache",
				c.cfg.Name, err)
			return stale, nil
		}
		return 0, err
	}

	c.cache.write(level)
	return level, nil
}

// GetSpeed returns the fan speed as a percentage.
func (c *Client) GetSpeed() (float64, error) {
	level, err := c.Level()
	if err != nil {
		return 0, err
	}
	return protocol.LevelToPercent(level), nil
}

// SetSpeed sets the fan speed from a percentage and returns the
// confirmed percentage. The cache records what the device reported
// after the write, not what was asked for: the cache reflects device
// truth, not intent.
func (c *Client) SetSpeed(pct float64) (float64, error) {
	level := protocol.PercentToLevel(pct)
	confirmed, err := c.disp.setWithConfirm(protocol.EncodeSetSpeed(level), level)
	if err != nil {
		return 0, err
	}
	c.cache.write(confirmed)
	return protocol.LevelToPercent(confirmed), nil
}

// GetActive reports whether the fan is running, with the same caching
// policy as GetSpeed.
func (c *Client) GetActive() (bool, error) {
	level, err := c.Level()
	if err != nil {
		return false, err
	}
	return protocol.Active(level), nil
}

// SetActive powers the fan on or off. Power-off needs no confirmation
// query: the resulting level is locally known to be zero. Power-on may
// resume a prior speed the caller cannot know in advance, so the actual
// level is queried and cached afterwards.
func (c *Client) SetActive(on bool) error {
	if _, err := c.disp.dispatch(protocol.EncodeSetPower(on), false); err != nil {
		return err
	}

	if !on {
		c.cache.write(0)
		return nil
	}

	level, err := c.disp.dispatch(protocol.QueryStatus, true)
	if err != nil {
		return err
	}
	c.cache.write(level)
	return nil
}

// LastKnown returns the cached level regardless of freshness, for
// status display. ok is false until the first successful read or write.
func (c *Client) LastKnown() (level int, ok bool) {
	return c.cache.readStale()
}

// CacheFresh reports whether the cache is within its freshness window.
func (c *Client) CacheFresh() bool {
	_, ok := c.cache.read()
	return ok
}
