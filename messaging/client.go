// Package messaging owns the broker connections: the MQTT client the gateway
// lives on, and an optional Kafka exporter for analytics fan-out.
package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"ccugateway/config"
)

// InboundHandler receives every parsed inbound message. Implemented by the
// gateway; set after construction because the gateway needs the client for
// its publish path.
type InboundHandler interface {
	OnMessage(topic string, payload []byte, qos byte, retained bool) bool
}

// Client is the single long-lived MQTT connection.
type Client struct {
	mu           sync.RWMutex
	cfg          *config.BrokerConfig
	conn         mqtt.Client
	handler      InboundHandler
	patterns     []string
	onConnChange func(connected bool, detail string)
}

// NewClient creates the client for the given broker config and subscription
// patterns. Connect must be called before publishing.
func NewClient(cfg *config.BrokerConfig, patterns []string) *Client {
	return &Client{cfg: cfg, patterns: patterns}
}

// SetGateway installs the inbound handler. Must be called before Connect.
func (c *Client) SetGateway(h InboundHandler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// SetConnectionListener installs a callback invoked on every connect and
// disconnect. Must be called before Connect.
func (c *Client) SetConnectionListener(fn func(connected bool, detail string)) {
	c.mu.Lock()
	c.onConnChange = fn
	c.mu.Unlock()
}

// Connect dials the broker and subscribes to the registry's patterns.
// Subscriptions are re-established by the OnConnect hook after every
// reconnect, which also replays the broker's retained messages; the gateway
// is idempotent so replay is safe.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler == nil {
		return fmt.Errorf("messaging: no gateway set")
	}

	clientID := fmt.Sprintf("%s-%s", c.cfg.ClientIDPrefix, uuid.New().String()[:8])
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.URL).
		SetClientID(clientID).
		SetUsername(c.cfg.Username).
		SetPassword(c.cfg.Password).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(c.cfg.ReconnectMin).
		SetMaxReconnectInterval(c.cfg.ReconnectMax).
		// Ordered delivery matters: the gateway relies on per-topic arrival
		// order, so callbacks must not be spawned per message.
		SetOrderMatters(true)

	opts.OnConnect = func(conn mqtt.Client) {
		log.Printf("messaging: connected to %s as %s", c.cfg.URL, clientID)
		c.subscribeAll(conn)
		c.notifyConnChange(true, c.cfg.URL)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("messaging: connection lost: %v", err)
		c.notifyConnChange(false, err.Error())
	}

	conn := mqtt.NewClient(opts)
	token := conn.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	c.conn = conn
	return nil
}

func (c *Client) subscribeAll(conn mqtt.Client) {
	for _, pattern := range c.patterns {
		token := conn.Subscribe(pattern, 1, c.onInbound)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("messaging: subscribe %s: %v", pattern, err)
			continue
		}
	}
	log.Printf("messaging: subscribed to %d patterns", len(c.patterns))
}

func (c *Client) notifyConnChange(connected bool, detail string) {
	c.mu.RLock()
	fn := c.onConnChange
	c.mu.RUnlock()
	if fn != nil {
		fn(connected, detail)
	}
}

func (c *Client) onInbound(_ mqtt.Client, msg mqtt.Message) {
	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()
	if handler == nil {
		return
	}
	handler.OnMessage(msg.Topic(), msg.Payload(), msg.Qos(), msg.Retained())
}

// Publish serializes the payload and sends it. Returns false on any failure;
// there is no retry here, the caller owns that decision.
func (c *Client) Publish(topic string, payload any, qos byte, retain bool) bool {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		log.Printf("messaging: publish %s: not connected", topic)
		return false
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("messaging: publish %s: marshal: %v", topic, err)
		return false
	}

	token := conn.Publish(topic, qos, retain, data)
	token.Wait()
	if err := token.Error(); err != nil {
		log.Printf("messaging: publish %s: %v", topic, err)
		return false
	}
	return true
}

// IsConnected reports the live connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}

// Close disconnects cleanly, interrupting the network reader.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Disconnect(1000)
		c.conn = nil
	}
}
