// Package transport provides the UDP datagram link to the fan with
// abstraction for testing. The real implementation shares one socket
// process-wide; the fake returns scripted replies without a network.
package transport

import "net"

// Handler receives an inbound datagram. Handlers are called for every
// datagram arriving on the socket regardless of sender; the protocol is
// connectionless and unlabeled, so filtering relevance is the caller's
// concern.
type Handler func(data []byte, from net.Addr)

// Conn is a datagram link to a single device.
type Conn interface {
	// Send enqueues one datagram to the device. It does not block
	// beyond the OS-level send and does not wait for any reply.
	Send(payload []byte) error

	// Subscribe registers a handler for inbound datagrams and returns
	// a cancel function that removes it. Callers must cancel promptly
	// once done: the socket is shared, and a lingering handler sees
	// other clients' replies.
	Subscribe(h Handler) (cancel func())

	// Close releases the link. Closing an Endpoint does not close the
	// shared socket underneath it.
	Close() error
}
