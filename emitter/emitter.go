// Package emitter publishes supplier statistics to an MQTT broker so fleet
// tooling can watch chip production without touching the training process.
// Payloads are msgpack-encoded snapshots; chip payloads themselves are never
// published.
package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jamesmcclain/chipsupplier"
)

// Config holds emitter settings.
type Config struct {
	// Broker is the MQTT broker address, host:port.
	Broker string
	// ClientID identifies this emitter to the broker and in payloads.
	ClientID string
	// Topic is the topic snapshots are published to.
	Topic string
	// QoS is the MQTT quality of service for snapshot publishes.
	QoS byte
	// Interval is the publish period. Defaults to 10s when zero.
	Interval time.Duration
}

// StatsEmitter periodically publishes supplier stats snapshots.
//
// Lifecycle: New() → Connect() → Start() → Stop(). Stop disconnects from
// the broker and is idempotent.
type StatsEmitter struct {
	cfg    Config
	source func() chipsupplier.SupplierStats

	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an emitter that snapshots stats through source. Fail-fast
// validation; no connection is attempted here.
func New(cfg Config, source func() chipsupplier.SupplierStats) (*StatsEmitter, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("emitter: broker address is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("emitter: client id is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("emitter: topic is required")
	}
	if source == nil {
		return nil, fmt.Errorf("emitter: stats source is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	return &StatsEmitter{cfg: cfg, source: source}, nil
}

// Connect establishes the broker connection with automatic reconnection.
func (e *StatsEmitter) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", e.cfg.Broker))
	opts.SetClientID(e.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		e.mu.Lock()
		e.connected = true
		e.mu.Unlock()
		slog.Info("emitter: mqtt connection established",
			"broker", e.cfg.Broker,
			"client_id", e.cfg.ClientID)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		e.mu.Lock()
		e.connected = false
		e.mu.Unlock()
		slog.Warn("emitter: mqtt connection lost, will auto-reconnect",
			"error", err,
			"broker", e.cfg.Broker)
	}

	e.client = mqtt.NewClient(opts)

	token := e.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("emitter: mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("emitter: mqtt connection failed: %w", err)
	}

	e.mu.Lock()
	e.connected = true
	e.mu.Unlock()

	return nil
}

// Start begins the publish loop. Connect must have succeeded first.
func (e *StatsEmitter) Start(ctx context.Context) error {
	if e.client == nil {
		return fmt.Errorf("emitter: not connected")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if err := e.publish(); err != nil {
					slog.Warn("emitter: publish failed", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop halts the publish loop and disconnects. Idempotent.
func (e *StatsEmitter) Stop() error {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.wg.Wait()

	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(250)
	}

	e.mu.Lock()
	e.connected = false
	e.mu.Unlock()

	return nil
}

// Published returns how many snapshots reached the broker.
func (e *StatsEmitter) Published() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.published
}

func (e *StatsEmitter) publish() error {
	e.mu.RLock()
	connected := e.connected
	e.mu.RUnlock()

	if !connected {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("emitter: mqtt not connected")
	}

	payload := buildPayload(e.cfg.ClientID, time.Now(), e.source())
	data, err := msgpack.Marshal(payload)
	if err != nil {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("emitter: failed to marshal snapshot: %w", err)
	}

	token := e.client.Publish(e.cfg.Topic, e.cfg.QoS, false, data)
	if !token.WaitTimeout(2 * time.Second) {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("emitter: publish timeout")
	}
	if err := token.Error(); err != nil {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("emitter: publish failed: %w", err)
	}

	e.mu.Lock()
	e.published++
	e.mu.Unlock()

	return nil
}
