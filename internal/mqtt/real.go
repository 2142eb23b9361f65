package mqtt

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/udpfan/internal/track"
)

// offlineCapacity bounds the number of messages held while the broker
// is unreachable.
const offlineCapacity = 64

// RealPublisher publishes to an actual MQTT broker and subscribes to
// the fan's command topics. While disconnected, outgoing events are
// queued and replayed on reconnect.
type RealPublisher struct {
	client   paho.Client
	name     string
	commands Commands

	mu    sync.Mutex
	queue *offlineQueue
}

// NewRealPublisher creates a publisher connected to the given broker.
// commands may be nil, in which case the command topics are not
// subscribed.
func NewRealPublisher(broker, name string, commands Commands) (*RealPublisher, error) {
	p := &RealPublisher{
		name:     name,
		commands: commands,
		queue:    newOfflineQueue(offlineCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("udpfan-" + name).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// onConnect runs on every (re)connect: command subscriptions do not
// survive a reconnect with a clean session, and queued messages can
// now be replayed.
func (p *RealPublisher) onConnect(c paho.Client) {
	if p.commands != nil {
		c.Subscribe(TopicSetSpeed(p.name), 0, p.handleSetSpeed)
		c.Subscribe(TopicSetPower(p.name), 0, p.handleSetPower)
	}

	p.mu.Lock()
	msgs := p.queue.drain()
	p.mu.Unlock()

	if len(msgs) > 0 {
		log.Printf("mqtt: replaying %d queued messages", len(msgs))
	}
	for _, m := range msgs {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

func (p *RealPublisher) handleSetSpeed(_ paho.Client, msg paho.Message) {
	text := strings.TrimSpace(string(msg.Payload()))
	pct, err := strconv.ParseFloat(text, 64)
	if err != nil || pct < 0 || pct > 100 {
		log.Printf("mqtt: ignoring bad speed command %q", text)
		return
	}
	actual, err := p.commands.SetSpeed(pct)
	if err != nil {
		log.Printf("mqtt: set speed %v%%: %v", pct, err)
		return
	}
	if actual != pct {
		log.Printf("mqtt: requested %v%%, device settled at %v%%", pct, actual)
	}
}

func (p *RealPublisher) handleSetPower(_ paho.Client, msg paho.Message) {
	text := strings.TrimSpace(string(msg.Payload()))
	var on bool
	switch text {
	case "1", "on", "true":
		on = true
	case "0", "off", "false":
		on = false
	default:
		log.Printf("mqtt: ignoring bad power command %q", text)
		return
	}
	if err := p.commands.SetActive(on); err != nil {
		log.Printf("mqtt: set power %v: %v", on, err)
	}
}

// publish sends one message, queueing it instead when the broker is
// unreachable.
func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.queue.push(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.queue.len()
		p.mu.Unlock()
		log.Printf("mqtt: broker unreachable, queued message (%d pending)", n)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Publish sends a fan transition event to the MQTT broker.
func (p *RealPublisher) Publish(event track.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.publish(TopicEvents(p.name), 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) - lifecycle events should survive a flaky
	// link.
	return p.publish(TopicSystem(p.name), 1, event.Retained, payload)
}

// IsConnected reports whether the broker connection is active.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
