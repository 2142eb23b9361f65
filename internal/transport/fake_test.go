package transport

import (
	"errors"
	"net"
	"testing"
)

func TestFakeConnScriptedReplies(t *testing.T) {
	sendErr := errors.New("network unreachable")
	f := NewFakeConn(
		Script{Reply: "2"},
		Script{Err: sendErr},
		Script{Silent: true},
	)

	var got []string
	cancel := f.Subscribe(func(data []byte, from net.Addr) {
		got = append(got, string(data))
	})
	defer cancel()

	// Script 1: reply delivered to the subscriber.
	if err := f.Send([]byte("s")); err != nil {
		t.Fatalf("send 1: unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "2" {
		t.Fatalf("expected one reply %q, got %v", "2", got)
	}

	// Script 2: scripted send failure, no reply.
	if err := f.Send([]byte("s")); !errors.Is(err, sendErr) {
		t.Fatalf("send 2: got %v, want scripted error", err)
	}
	if len(got) != 1 {
		t.Fatalf("send failure must not produce a reply, got %v", got)
	}

	// Script 3: silent success.
	if err := f.Send([]byte("s")); err != nil {
		t.Fatalf("send 3: unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("silent send must not produce a reply, got %v", got)
	}

	// Exhausted scripts behave as silent successes.
	if err := f.Send([]byte("s")); err != nil {
		t.Fatalf("send 4: unexpected error: %v", err)
	}

	want := []string{"s", "s", "s", "s"}
	if len(f.Sent) != len(want) {
		t.Fatalf("expected %d recorded sends, got %d", len(want), len(f.Sent))
	}
}

func TestFakeConnDeliver(t *testing.T) {
	f := NewFakeConn()

	var a, b []string
	cancelA := f.Subscribe(func(data []byte, from net.Addr) {
		a = append(a, string(data))
	})
	cancelB := f.Subscribe(func(data []byte, from net.Addr) {
		b = append(b, string(data))
	})

	// Every subscriber sees every datagram.
	f.Deliver([]byte("1"))
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected both subscribers to see the datagram: a=%v b=%v", a, b)
	}

	// A cancelled subscriber sees nothing further.
	cancelA()
	f.Deliver([]byte("2"))
	if len(a) != 1 {
		t.Errorf("cancelled subscriber received datagram: %v", a)
	}
	if len(b) != 2 {
		t.Errorf("remaining subscriber missed datagram: %v", b)
	}

	cancelB()
	if n := f.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers after cancel, got %d", n)
	}
}

func TestFakeConnReset(t *testing.T) {
	f := NewFakeConn(Script{Reply: "1"})
	f.Send([]byte("s"))
	f.Close()

	f.Reset()
	if len(f.Sent) != 0 {
		t.Errorf("expected no recorded sends after reset, got %d", len(f.Sent))
	}
	if f.Closed {
		t.Error("expected Closed=false after reset")
	}

	// Scripts rewound: the reply plays again.
	var got []string
	cancel := f.Subscribe(func(data []byte, from net.Addr) {
		got = append(got, string(data))
	})
	defer cancel()
	f.Send([]byte("s"))
	if len(got) != 1 || got[0] != "1" {
		t.Errorf("expected rewound reply, got %v", got)
	}
}
