// Command udpfan controls an ESP8266-based fan over UDP and bridges it
// to MQTT and HomeKit, with an HTTP status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/udpfan/internal/fan"
	"github.com/sweeney/udpfan/internal/homekit"
	"github.com/sweeney/udpfan/internal/mqtt"
	"github.com/sweeney/udpfan/internal/protocol"
	"github.com/sweeney/udpfan/internal/status"
	"github.com/sweeney/udpfan/internal/track"
	"github.com/sweeney/udpfan/internal/transport"
	"github.com/sweeney/udpfan/internal/web"
)

type options struct {
	host         string
	port         int
	name         string
	maxRetries   int
	retryDelay   time.Duration
	timeout      time.Duration
	cacheTimeout time.Duration
	poll         time.Duration
	heartbeat    time.Duration
	broker       string
	httpAddr     string
	hkDir        string
	hkPin        string
	printState   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.host, "host", "", "fan device IP or hostname (required)")
	flag.IntVar(&opts.port, "port", 8266, "fan device UDP port")
	flag.StringVar(&opts.name, "name", "fan", "fan name, used in MQTT topics and HomeKit")
	flag.IntVar(&opts.maxRetries, "max-retries", fan.DefaultMaxRetries, "resend attempts after the first send")
	flag.DurationVar(&opts.retryDelay, "retry-delay", fan.DefaultRetryDelay, "pause between resend attempts")
	flag.DurationVar(&opts.timeout, "timeout", fan.DefaultTimeout, "per-attempt reply timeout")
	flag.DurationVar(&opts.cacheTimeout, "cache-timeout", fan.DefaultCacheTimeout, "freshness window for the cached level")
	flag.DurationVar(&opts.poll, "poll", 30*time.Second, "device polling interval")
	flag.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "heartbeat interval (0 to disable)")
	flag.StringVar(&opts.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&opts.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&opts.hkDir, "hk-dir", "./homekit-state", "HomeKit state directory (empty to disable HomeKit)")
	flag.StringVar(&opts.hkPin, "hk-pin", "00102003", "HomeKit setup code")
	flag.BoolVar(&opts.printState, "print-state", false, "Print current fan state and exit")
	flag.Parse()

	if opts.host == "" {
		log.Fatal("fatal: -host is required")
	}
	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(opts options) error {
	// Connect the UDP endpoint
	ep, err := transport.Dial(opts.host, opts.port)
	if err != nil {
		return fmt.Errorf("dial device: %w", err)
	}
	defer ep.Close()

	client := fan.New(fan.Config{
		Name:         opts.name,
		Host:         opts.host,
		Port:         opts.port,
		MaxRetries:   opts.maxRetries,
		RetryDelay:   opts.retryDelay,
		Timeout:      opts.timeout,
		CacheTimeout: opts.cacheTimeout,
	}, ep)

	// Print state mode
	if opts.printState {
		level, err := client.Level()
		if err != nil {
			return fmt.Errorf("query device: %w", err)
		}
		fmt.Printf("%s: level %d (%.0f%%), %s\n",
			opts.name, level, protocol.LevelToPercent(level), stateString(protocol.Active(level)))
		return nil
	}

	// Initialize MQTT; the publisher subscribes to the command topics
	// and drives the client from broker messages.
	publisher, err := mqtt.NewRealPublisher(opts.broker, opts.name, client)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Name:           opts.name,
		Device:         fmt.Sprintf("%s:%d", opts.host, opts.port),
		PollMs:         opts.poll.Milliseconds(),
		HeartbeatMs:    opts.heartbeat.Milliseconds(),
		MaxRetries:     opts.maxRetries,
		RetryDelayMs:   opts.retryDelay.Milliseconds(),
		TimeoutMs:      opts.timeout.Milliseconds(),
		CacheTimeoutMs: opts.cacheTimeout.Milliseconds(),
		Broker:         opts.broker,
		HTTPAddr:       opts.httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	// Start HomeKit server
	var bridge *homekit.Bridge
	if opts.hkDir != "" {
		bridge, err = homekit.New(client, opts.name, opts.hkDir, opts.hkPin)
		if err != nil {
			return fmt.Errorf("init homekit: %w", err)
		}
		hkCtx, hkCancel := context.WithCancel(context.Background())
		defer hkCancel()
		go func() {
			if err := bridge.ListenAndServe(hkCtx); err != nil && err != context.Canceled {
				log.Printf("homekit server error: %v", err)
			}
		}()
		log.Printf("homekit accessory %q serving from %s", opts.name, opts.hkDir)
	}

	log.Printf("started: device=%s:%d poll=%v broker=%s heartbeat=%v",
		opts.host, opts.port, opts.poll, opts.broker, opts.heartbeat)

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(client, publisher, publisher, tracker, bridge, opts.heartbeat, time.Now, ticker.C, sigCh)
}

// fanSource is the slice of the fan client the run loop reads from.
type fanSource interface {
	Level() (int, error)
	CacheFresh() bool
}

func runLoop(source fanSource, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, bridge *homekit.Bridge, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	detector := track.NewDetector(startTime)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			level, err := source.Level()
			if err != nil {
				log.Printf("poll error: %v", err)
				continue
			}

			events := detector.Process(track.Sample{Level: level, Time: t})
			for _, event := range events {
				log.Printf("event: %s (level %d -> %d)", event.Type, event.PrevLevel, event.Level)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			if bridge != nil {
				bridge.Update(level)
			}

			// Check for heartbeat
			if hbData := detector.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v on=%d off=%d speed_change=%d",
					hbData.Uptime, hbData.Counts.FanOn, hbData.Counts.FanOff, hbData.Counts.SpeedChange)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					tracker.Update(detector.CurrentLevel(), detector.IsBaselined(), source.CacheFresh(), detector.EventCountsSnapshot())
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(detector.CurrentLevel(), detector.IsBaselined(), source.CacheFresh(), detector.EventCountsSnapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
