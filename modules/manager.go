// Package modules tracks per-serial module health merged from the
// connection, state and factsheet topics.
package modules

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"ccugateway/registry"
	"ccugateway/topics"
)

// Availability values modules report.
const (
	AvailabilityReady   = "READY"
	AvailabilityBusy    = "BUSY"
	AvailabilityBlocked = "BLOCKED"
	AvailabilityUnknown = "Unknown"
)

// Status is the merged record for one module serial.
type Status struct {
	Serial       string         `json:"serial"`
	Connected    bool           `json:"connected"`
	Availability string         `json:"availability"`
	Factsheet    map[string]any `json:"factsheet,omitempty"`
	MessageCount int            `json:"message_count"`
	LastUpdate   string         `json:"last_update"` // wall clock HH:MM:SS
}

// LayoutPosition is the shopfloor layout element shape consumed by
// IsConfigured; the layout itself belongs to the external route planner.
type LayoutPosition struct {
	Type    string `json:"type"`
	Serial  string `json:"serial"`
	Enabled bool   `json:"enabled"`
}

// Manager is the module status table. Only serials present in the registry
// catalog are tracked; everything else is ignored.
type Manager struct {
	mu     sync.Mutex
	reg    *registry.Registry
	status map[string]*Status
	now    func() time.Time
}

func NewManager(reg *registry.Registry) *Manager {
	return &Manager{
		reg:    reg,
		status: make(map[string]*Status),
		now:    time.Now,
	}
}

// Process ingests one module or FTS topic message. Returns false when the
// topic's serial is unknown to the catalog.
func (m *Manager) Process(topic string, payload map[string]any) bool {
	serial := topics.Serial(topic)
	if serial == "" || !m.reg.KnownSerial(serial) {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.status[serial]
	if rec == nil {
		rec = &Status{Serial: serial, Availability: AvailabilityUnknown}
		m.status[serial] = rec
	}

	switch {
	case strings.HasSuffix(topic, "/connection"):
		state, _ := payload["connectionState"].(string)
		rec.Connected = isConnectedState(state)
	case strings.HasSuffix(topic, "/state"):
		rec.Availability = extractAvailability(payload)
	case strings.HasSuffix(topic, "/factsheet"):
		// Factsheets are opaque; firmware revisions disagree on the shape.
		rec.Factsheet = payload
	}

	rec.MessageCount++
	rec.LastUpdate = m.now().Format("15:04:05")
	return true
}

func isConnectedState(state string) bool {
	switch strings.ToLower(state) {
	case "connected", "online", "active":
		return true
	}
	return false
}

func extractAvailability(payload map[string]any) string {
	if v, ok := payload["available"].(string); ok && v != "" {
		return v
	}
	// Some firmware only exposes the OPC-UA state under metadata.
	if meta, ok := payload["metadata"].(map[string]any); ok {
		if v, ok := meta["opcuaState"].(string); ok && v != "" {
			return v
		}
	}
	return AvailabilityUnknown
}

// Status returns the record for a serial, or a default when none exists.
func (m *Manager) Status(serial string) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.status[serial]; ok {
		return *rec
	}
	return Status{Serial: serial, Availability: AvailabilityUnknown}
}

// All returns a snapshot of every tracked module.
func (m *Manager) All() map[string]Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Status, len(m.status))
	for serial, rec := range m.status {
		out[serial] = *rec
	}
	return out
}

// AvailabilityDisplay renders the operator-facing availability string.
func AvailabilityDisplay(availability string) string {
	switch availability {
	case AvailabilityReady:
		return "🟢 Available"
	case AvailabilityBusy:
		return "🟡 Busy"
	case AvailabilityBlocked:
		return "🔴 Blocked"
	}
	return fmt.Sprintf("⚪ %s", availability)
}

// IsConfigured reports whether the shopfloor layout has an enabled MODULE
// position for the serial.
func IsConfigured(serial string, layout []LayoutPosition) bool {
	for _, pos := range layout {
		if pos.Type == "MODULE" && pos.Serial == serial && pos.Enabled {
			return true
		}
	}
	return false
}
