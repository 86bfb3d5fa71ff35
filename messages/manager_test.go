package messages

import (
	"fmt"
	"testing"
	"time"

	"ccugateway/registry"
)

func newTestManager(t *testing.T, size int) *Manager {
	t.Helper()
	return NewManager(registry.Default(), size)
}

func TestRingOverflow(t *testing.T) {
	m := newTestManager(t, 3)

	for i := 0; i < 5; i++ {
		m.Append(Record{Topic: "t", Payload: i, Timestamp: time.Now()})
	}

	hist := m.History("t")
	if len(hist) != 3 {
		t.Fatalf("history len = %d, want 3", len(hist))
	}
	// Oldest dropped: 0 and 1 are gone.
	if hist[0].Payload != 2 || hist[2].Payload != 4 {
		t.Errorf("history = %v, %v, %v", hist[0].Payload, hist[1].Payload, hist[2].Payload)
	}
}

func TestBuffersSnapshot(t *testing.T) {
	m := newTestManager(t, 5)
	m.Append(Record{Topic: "a", Payload: 1})

	snap := m.Buffers()
	m.Append(Record{Topic: "a", Payload: 2})

	if len(snap["a"]) != 1 {
		t.Errorf("snapshot mutated by later append: %d entries", len(snap["a"]))
	}
}

func TestClearHistory(t *testing.T) {
	m := newTestManager(t, 5)
	m.Append(Record{Topic: "a", Payload: 1})
	m.ClearHistory()
	if len(m.Buffers()) != 0 {
		t.Error("buffers not cleared")
	}
}

func TestValidate(t *testing.T) {
	m := newTestManager(t, 5)

	res := m.Validate(registry.TopicSensorBME680, map[string]any{
		"t": 24.5, "h": 40.0, "p": 1012.0, "iaq": 55.0,
	})
	if !res.OK() {
		t.Errorf("valid bme680 rejected: %v", res.Errors)
	}

	res = m.Validate(registry.TopicSensorBME680, map[string]any{
		"t": "hot", "h": 40.0, "p": 1012.0, "iaq": 55.0,
	})
	if res.OK() {
		t.Error("wrong-typed bme680 accepted")
	}

	// No schema means no validation.
	res = m.Validate("unknown/topic", map[string]any{"whatever": true})
	if !res.OK() {
		t.Errorf("schemaless topic rejected: %v", res.Errors)
	}

	// Array payloads are outside schema coverage.
	res = m.Validate(registry.TopicOrderActive, []any{map[string]any{}})
	if !res.OK() {
		t.Errorf("array payload rejected: %v", res.Errors)
	}
}

func TestGenerate(t *testing.T) {
	m := newTestManager(t, 5)

	payload := m.Generate(registry.TopicOrderRequest, map[string]any{
		"orderType": "PRODUCTION",
		"type":      "BLUE",
	})
	if payload == nil {
		t.Fatal("generate returned nil for complete params")
	}
	if payload["orderType"] != "PRODUCTION" || payload["type"] != "BLUE" {
		t.Errorf("params not copied: %v", payload)
	}
	if payload["orderId"] == "" || payload["orderId"] == nil {
		t.Error("orderId not synthesized")
	}
	if payload["timestamp"] == "" || payload["timestamp"] == nil {
		t.Error("timestamp not synthesized")
	}
}

func TestGenerateMissingRequired(t *testing.T) {
	m := newTestManager(t, 5)

	// ccu/global requires a command; none given, nothing synthesizable.
	if payload := m.Generate(registry.TopicGlobal, map[string]any{}); payload != nil {
		t.Errorf("generate should fail without command, got %v", payload)
	}
}

func TestGenerateUnknownTopic(t *testing.T) {
	m := newTestManager(t, 5)
	if payload := m.Generate("no/schema/here", map[string]any{"x": 1}); payload != nil {
		t.Errorf("generate for schemaless topic = %v, want nil", payload)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 7, 14, 30, 5, 120_000_000, time.UTC)
	got := FormatTimestamp(ts)
	want := "2024-03-07T14:30:05.120Z"
	if got != want {
		t.Errorf("FormatTimestamp = %q, want %q", got, want)
	}
}

func TestDefaultSize(t *testing.T) {
	m := NewManager(registry.Default(), 0)
	for i := 0; i < DefaultHistory+5; i++ {
		m.Append(Record{Topic: "t", Payload: fmt.Sprint(i)})
	}
	if got := len(m.History("t")); got != DefaultHistory {
		t.Errorf("history len = %d, want %d", got, DefaultHistory)
	}
}
