package fan

import (
	"testing"
	"time"
)

func TestCacheReadWhileFresh(t *testing.T) {
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newCache(2*time.Second, func() time.Time { return current })

	if _, ok := c.read(); ok {
		t.Fatal("empty cache should not read")
	}
	if _, ok := c.readStale(); ok {
		t.Fatal("empty cache should not read stale")
	}

	c.write(2)

	level, ok := c.read()
	if !ok || level != 2 {
		t.Fatalf("fresh read: got (%d,%v), want (2,true)", level, ok)
	}

	// One millisecond inside the window.
	current = current.Add(1999 * time.Millisecond)
	level, ok = c.read()
	if !ok || level != 2 {
		t.Fatalf("read at 1999ms: got (%d,%v), want (2,true)", level, ok)
	}

	// Past the window: fresh read fails, stale read still serves.
	current = current.Add(2 * time.Millisecond)
	if _, ok := c.read(); ok {
		t.Error("read at 2001ms should be stale")
	}
	level, ok = c.readStale()
	if !ok || level != 2 {
		t.Fatalf("stale read: got (%d,%v), want (2,true)", level, ok)
	}
}

func TestCacheWriteResetsCaptureTime(t *testing.T) {
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newCache(2*time.Second, func() time.Time { return current })

	c.write(1)
	current = current.Add(1900 * time.Millisecond)
	c.write(3)

	// The second write restarted the window.
	current = current.Add(1900 * time.Millisecond)
	level, ok := c.read()
	if !ok || level != 3 {
		t.Fatalf("got (%d,%v), want (3,true)", level, ok)
	}
}

func TestCacheExactBoundaryIsStale(t *testing.T) {
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newCache(2*time.Second, func() time.Time { return current })

	c.write(1)
	current = current.Add(2 * time.Second)
	if _, ok := c.read(); ok {
		t.Error("entry exactly at the window edge should be stale")
	}
}
