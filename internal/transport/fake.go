package transport

import (
	"net"
	"sync"
)

// Script describes the fake's behavior for one Send call.
type Script struct {
	// Err, if set, is returned by Send (the datagram is not recorded
	// as delivered and no reply is produced).
	Err error

	// Reply, if non-empty, is delivered to all subscribers after the
	// send returns.
	Reply string

	// Silent means the send succeeds but no reply ever arrives.
	Silent bool
}

// FakeConn is a test double that returns scripted replies.
// Each Send consumes the next script; once scripts are exhausted,
// further sends succeed silently.
type FakeConn struct {
	mu       sync.Mutex
	scripts  []Script
	index    int
	handlers map[int]Handler
	nextID   int

	// Sent records every payload passed to Send, including ones that
	// failed with a scripted error.
	Sent []string

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeConn creates a FakeConn with the given send scripts.
func NewFakeConn(scripts ...Script) *FakeConn {
	return &FakeConn{
		scripts:  scripts,
		handlers: make(map[int]Handler),
	}
}

// fakeAddr is the peer address the fake reports for delivered replies.
var fakeAddr = &net.UDPAddr{IP: net.IPv4(192, 168, 1, 50), Port: 8266}

// Send records the payload and runs the next script.
func (f *FakeConn) Send(payload []byte) error {
	f.mu.Lock()
	f.Sent = append(f.Sent, string(payload))

	var script Script
	if f.index < len(f.scripts) {
		script = f.scripts[f.index]
		f.index++
	} else {
		script = Script{Silent: true}
	}
	f.mu.Unlock()

	if script.Err != nil {
		return script.Err
	}
	if script.Reply != "" && !script.Silent {
		f.Deliver([]byte(script.Reply))
	}
	return nil
}

// Subscribe registers a handler, mirroring the shared-socket contract.
func (f *FakeConn) Subscribe(h Handler) (cancel func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.handlers[id] = h
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.handlers, id)
		f.mu.Unlock()
	}
}

// Deliver hands a datagram to every subscriber, as if it arrived on the
// wire. Tests use it to inject unsolicited or late datagrams.
func (f *FakeConn) Deliver(data []byte) {
	f.mu.Lock()
	hs := make([]Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		hs = append(hs, h)
	}
	f.mu.Unlock()

	for _, h := range hs {
		h(data, fakeAddr)
	}
}

// Close marks the conn as closed.
func (f *FakeConn) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// SubscriberCount returns the number of active handlers. Tests use it
// to verify listeners are removed on every exit path.
func (f *FakeConn) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

// SentCount returns the number of Send calls so far.
func (f *FakeConn) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}

// Reset clears recorded sends and rewinds the scripts.
func (f *FakeConn) Reset() {
	f.mu.Lock()
	f.Sent = nil
	f.index = 0
	f.Closed = false
	f.mu.Unlock()
}
