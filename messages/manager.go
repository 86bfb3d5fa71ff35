// Package messages keeps per-topic history of recent payloads and implements
// schema-driven validation and outbound templating.
package messages

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"ccugateway/registry"
)

// DefaultHistory is the per-topic ring size.
const DefaultHistory = 10

// Record is one buffered message.
type Record struct {
	Topic     string
	Payload   any
	Raw       []byte
	Timestamp time.Time
	QoS       byte
	Retained  bool
}

// Manager owns the ring buffers. One coarse mutex: buffers are written on
// every inbound message but only read by the operator surface.
type Manager struct {
	mu      sync.Mutex
	reg     *registry.Registry
	size    int
	buffers map[string][]Record
}

func NewManager(reg *registry.Registry, size int) *Manager {
	if size < 1 {
		size = DefaultHistory
	}
	return &Manager{
		reg:     reg,
		size:    size,
		buffers: make(map[string][]Record),
	}
}

// Append adds a message to its topic ring, dropping the oldest entry on
// overflow.
func (m *Manager) Append(rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := append(m.buffers[rec.Topic], rec)
	if len(buf) > m.size {
		buf = buf[len(buf)-m.size:]
	}
	m.buffers[rec.Topic] = buf
}

// Validate checks a payload against the topic's schema. A topic without a
// schema validates clean. Non-object payloads (arrays, nulls) are outside
// schema coverage and also validate clean.
func (m *Manager) Validate(topic string, payload any) registry.Result {
	schema := m.reg.TopicSchema(topic)
	if schema == nil {
		return registry.Result{}
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return registry.Result{}
	}
	return schema.Validate(obj)
}

// Generate builds an outbound payload for a topic from its schema, filling
// fields from params. Timestamps and ids the schema requires are synthesized
// when params omit them. Returns nil when a required field cannot be filled
// or the topic has no schema.
func (m *Manager) Generate(topic string, params map[string]any) map[string]any {
	schema := m.reg.TopicSchema(topic)
	if schema == nil {
		return nil
	}

	out := make(map[string]any, len(schema.Fields))
	for name, spec := range schema.Fields {
		if v, ok := params[name]; ok {
			out[name] = v
			continue
		}
		switch name {
		case "timestamp", "ts":
			out[name] = FormatTimestamp(time.Now())
		case "orderId", "actionId":
			out[name] = uuid.New().String()
		default:
			if spec.Required {
				return nil
			}
		}
	}
	return out
}

// Buffers returns a snapshot of all rings, newest last.
func (m *Manager) Buffers() map[string][]Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]Record, len(m.buffers))
	for topic, buf := range m.buffers {
		out[topic] = append([]Record(nil), buf...)
	}
	return out
}

// History returns the ring for one topic, newest last.
func (m *Manager) History(topic string) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.buffers[topic]...)
}

// ClearHistory drops all buffered messages.
func (m *Manager) ClearHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffers = make(map[string][]Record)
}

// FormatTimestamp renders the wire timestamp format: ISO-8601 UTC with
// millisecond precision and a Z suffix.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
