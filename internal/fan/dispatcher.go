package fan

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/sweeney/udpfan/internal/protocol"
	"github.com/sweeney/udpfan/internal/transport"
)

// dispatcher sends one encoded command and optionally awaits exactly
// one reply, retrying the whole send-and-wait cycle on send failure or
// timeout. Concurrent dispatches to one device are serialized: the
// protocol has no correlation ids, so overlapping queries on the shared
// socket could consume each other's replies.
type dispatcher struct {
	conn transport.Conn
	cfg  Config

	mu sync.Mutex

	// sleep is time.Sleep, made injectable so tests can record retry
	// and settle delays instead of waiting them out.
	sleep func(time.Duration)
}

func newDispatcher(cfg Config, conn transport.Conn) *dispatcher {
	return &dispatcher{
		conn:  conn,
		cfg:   cfg,
		sleep: time.Sleep,
	}
}

// dispatch runs the full retry cycle for one command. When expectReply
// is true, the returned int is the parsed speed level from the first
// reply datagram; otherwise it is zero and only the error matters.
func (d *dispatcher) dispatch(msg string, expectReply bool) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	payload := []byte(msg)
	attempts := d.cfg.MaxRetries + 1

	var lastSendErr error
	timedOut := false

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			d.sleep(d.cfg.RetryDelay)
		}

		if !expectReply {
			err := d.conn.Send(payload)
			if err == nil {
				return 0, nil
			}
			lastSendErr = err
			timedOut = false
			log.Printf("fan %s: send %q failed (attempt %d/%d): %v",
				d.cfg.Name, msg, attempt+1, attempts, err)
			continue
		}

		// Register the listener before sending: a fast reply must not
		// race the registration.
		reply := make(chan []byte, 1)
		cancel := d.conn.Subscribe(func(data []byte, _ net.Addr) {
			select {
			case reply <- data:
			default:
			}
		})

		if err := d.conn.Send(payload); err != nil {
			cancel()
			lastSendErr = err
			timedOut = false
			log.Printf("fan %s: send %q failed (attempt %d/%d): %v",
				d.cfg.Name, msg, attempt+1, attempts, err)
			continue
		}

		timer := time.NewTimer(d.cfg.Timeout)
		select {
		case data := <-reply:
			timer.Stop()
			cancel()
			level, err := protocol.ParseStatus(data)
			if err != nil {
				return 0, fmt.Errorf("%w from %s:%d: %v",
					ErrInvalidResponse, d.cfg.Host, d.cfg.Port, err)
			}
			return level, nil
		case <-timer.C:
			cancel()
			timedOut = true
			log.Printf("fan %s: no reply to %q within %v (attempt %d/%d)",
				d.cfg.Name, msg, d.cfg.Timeout, attempt+1, attempts)
		}
	}

	if timedOut {
		return 0, fmt.Errorf("%w from %s:%d after %d attempts",
			ErrTimeout, d.cfg.Host, d.cfg.Port, attempts)
	}
	return 0, fmt.Errorf("%w to %s:%d after %d attempts: %v",
		ErrSendExhausted, d.cfg.Host, d.cfg.Port, attempts, lastSendErr)
}

// setWithConfirm issues a state-changing command and verifies it took
// effect. The device never acknowledges writes, so the only check is an
// out-of-band status read after a short settle delay. On mismatch the
// command is re-issued exactly once, never in a loop, so a wedged
// device cannot keep the client oscillating. The returned level is
// whatever the confirmation query read, mismatch or not.
func (d *dispatcher) setWithConfirm(msg string, intended int) (int, error) {
	if _, err := d.dispatch(msg, false); err != nil {
		return 0, err
	}

	d.sleep(d.cfg.SettleDelay)

	actual, err := d.dispatch(protocol.QueryStatus, true)
	if err != nil {
		return 0, err
	}

	if actual != intended {
		log.Printf("fan %s: confirmed level %d, wanted %d; resending %q once",
			d.cfg.Name, actual, intended, msg)
		if _, err := d.dispatch(msg, false); err != nil {
			log.Printf("fan %s: corrective resend failed: %v", d.cfg.Name, err)
		}
	}

	return actual, nil
}
