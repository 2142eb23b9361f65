package transport

import (
	"fmt"
	"log"
	"net"
	"sync"
)

// maxDatagram bounds the inbound read buffer. Status replies are a few
// bytes; larger datagrams are almost certainly not ours but are
// delivered to subscribers anyway.
const maxDatagram = 1024

// UDPSocket is a shared datagram socket. Outbound datagrams can target
// any peer; every inbound datagram is fanned out to all subscribers.
type UDPSocket struct {
	conn *net.UDPConn

	mu       sync.Mutex
	handlers map[int]Handler
	nextID   int
	closed   bool
}

// NewUDPSocket opens a UDP socket on an ephemeral local port and starts
// its read loop.
func NewUDPSocket() (*UDPSocket, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("open udp socket: %w", err)
	}

	s := &UDPSocket{
		conn:     conn,
		handlers: make(map[int]Handler),
	}
	go s.readLoop()
	return s, nil
}

func (s *UDPSocket) readLoop() {
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			log.Printf("transport: read error: %v", err)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		s.mu.Lock()
		hs := make([]Handler, 0, len(s.handlers))
		for _, h := range s.handlers {
			hs = append(hs, h)
		}
		s.mu.Unlock()

		for _, h := range hs {
			h(data, from)
		}
	}
}

// WriteTo sends one datagram to the given peer.
func (s *UDPSocket) WriteTo(payload []byte, addr *net.UDPAddr) error {
	if _, err := s.conn.WriteToUDP(payload, addr); err != nil {
		return fmt.Errorf("udp send to %s: %w", addr, err)
	}
	return nil
}

// Subscribe registers a handler for every inbound datagram.
func (s *UDPSocket) Subscribe(h Handler) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = h
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// Close shuts down the socket and its read loop.
func (s *UDPSocket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.conn.Close()
}

// LocalAddr returns the socket's bound address.
func (s *UDPSocket) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

var (
	sharedMu   sync.Mutex
	sharedSock *UDPSocket
)

// Shared returns the process-wide socket, creating it on first use.
// All fan clients multiplex over this one socket; each gets its own
// Endpoint bound to its device address.
func Shared() (*UDPSocket, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedSock != nil {
		return sharedSock, nil
	}
	s, err := NewUDPSocket()
	if err != nil {
		return nil, err
	}
	sharedSock = s
	return s, nil
}

// Endpoint binds a shared socket to one device address. It implements
// Conn: sends target the device, subscriptions see the whole socket.
type Endpoint struct {
	sock *UDPSocket
	peer *net.UDPAddr
}

// Dial resolves the device address and returns an Endpoint over the
// shared socket.
func Dial(host string, port int) (*Endpoint, error) {
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("resolve %s:%d: %w", host, port, err)
	}
	sock, err := Shared()
	if err != nil {
		return nil, err
	}
	return &Endpoint{sock: sock, peer: addr}, nil
}

// Send enqueues one datagram to the endpoint's device.
func (e *Endpoint) Send(payload []byte) error {
	return e.sock.WriteTo(payload, e.peer)
}

// Subscribe registers a handler on the underlying shared socket.
func (e *Endpoint) Subscribe(h Handler) (cancel func()) {
	return e.sock.Subscribe(h)
}

// Close is a no-op: the socket is shared with other endpoints and stays
// open for the process lifetime.
func (e *Endpoint) Close() error {
	return nil
}
