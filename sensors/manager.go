// Package sensors holds the latest normalized reading per sensor topic.
package sensors

import (
	"strings"
	"sync"
	"time"

	"ccugateway/registry"
)

// Canonical field names.
const (
	FieldTemperature = "temperature"
	FieldHumidity    = "humidity"
	FieldPressure    = "pressure"
	FieldAirQuality  = "air_quality"
	FieldLight       = "light"
	FieldImageData   = "image_data"
)

// Reading is the normalized record for one sensor topic.
type Reading struct {
	Topic        string         `json:"topic"`
	Fields       map[string]any `json:"fields"`
	Status       string         `json:"status,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	MessageCount int            `json:"message_count"`
}

// Image is a decoded camera frame reference.
type Image struct {
	Format string `json:"format"`
	Bytes  string `json:"bytes"` // base64 body without the data-URL prefix
}

// Statistics is the derived snapshot for the operator surface.
type Statistics struct {
	TotalSensors int             `json:"total_sensors"`
	Available    map[string]bool `json:"available"`
	Temperature  *float64        `json:"temperature,omitempty"`
	Humidity     *float64        `json:"humidity,omitempty"`
	Pressure     *float64        `json:"pressure,omitempty"`
	AirQuality   *float64        `json:"air_quality,omitempty"`
	Light        *float64        `json:"light,omitempty"`
}

// normalization maps raw payload fields to canonical names per topic.
var normalization = map[string]map[string]string{
	registry.TopicSensorBME680: {
		"t":   FieldTemperature,
		"h":   FieldHumidity,
		"p":   FieldPressure,
		"iaq": FieldAirQuality,
	},
	registry.TopicSensorLDR: {
		"ldr": FieldLight,
	},
	registry.TopicSensorCam: {
		"data": FieldImageData,
	},
}

// Manager is the thread-safe sensor state table.
type Manager struct {
	mu       sync.Mutex
	readings map[string]*Reading
}

func NewManager() *Manager {
	return &Manager{readings: make(map[string]*Reading)}
}

// Process ingests one sensor message. Payloads with no recognized fields are
// still recorded with an empty_payload status: live brokers emit them often
// and a silent drop hides the sensor entirely.
func (m *Manager) Process(topic string, payload map[string]any, received time.Time) {
	fields := make(map[string]any)
	for raw, canonical := range normalization[topic] {
		if v, ok := payload[raw]; ok && v != nil {
			fields[canonical] = v
		}
	}

	// Camera frames arrive as a data URL or bare base64.
	if data, ok := fields[FieldImageData].(string); ok {
		fields[FieldImageData] = ParseImage(data)
	}

	ts := received
	if raw, ok := payload["ts"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			ts = parsed
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.readings[topic]
	if rec == nil {
		rec = &Reading{Topic: topic}
		m.readings[topic] = rec
	}
	rec.MessageCount++
	rec.Timestamp = ts
	if len(fields) == 0 {
		rec.Fields = map[string]any{"raw": payload}
		rec.Status = "empty_payload"
		return
	}
	rec.Fields = fields
	rec.Status = ""
}

// ParseImage splits a camera payload into format and base64 body. A
// data:image/...;base64, prefix names the format; bare base64 is assumed
// jpeg.
func ParseImage(data string) Image {
	if strings.HasPrefix(data, "data:image/") {
		rest := data[len("data:image/"):]
		if i := strings.Index(rest, ";base64,"); i > 0 {
			return Image{Format: rest[:i], Bytes: rest[i+len(";base64,"):]}
		}
	}
	return Image{Format: "jpeg", Bytes: data}
}

// Get returns a copy of the reading for one topic.
func (m *Manager) Get(topic string) (Reading, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.readings[topic]
	if !ok {
		return Reading{}, false
	}
	return copyReading(rec), true
}

// GetAll returns a snapshot of every reading.
func (m *Manager) GetAll() map[string]Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Reading, len(m.readings))
	for topic, rec := range m.readings {
		out[topic] = copyReading(rec)
	}
	return out
}

// Statistics derives the dashboard summary.
func (m *Manager) Statistics() Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Statistics{
		TotalSensors: len(m.readings),
		Available:    make(map[string]bool),
	}
	for topic, rec := range m.readings {
		stats.Available[topic] = rec.Status == ""
	}
	if rec, ok := m.readings[registry.TopicSensorBME680]; ok {
		stats.Temperature = numField(rec, FieldTemperature)
		stats.Humidity = numField(rec, FieldHumidity)
		stats.Pressure = numField(rec, FieldPressure)
		stats.AirQuality = numField(rec, FieldAirQuality)
	}
	if rec, ok := m.readings[registry.TopicSensorLDR]; ok {
		stats.Light = numField(rec, FieldLight)
	}
	return stats
}

func numField(rec *Reading, name string) *float64 {
	switch v := rec.Fields[name].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

func copyReading(rec *Reading) Reading {
	out := *rec
	out.Fields = make(map[string]any, len(rec.Fields))
	for k, v := range rec.Fields {
		out.Fields[k] = v
	}
	return out
}
