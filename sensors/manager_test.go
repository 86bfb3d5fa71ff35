package sensors

import (
	"testing"
	"time"

	"ccugateway/registry"
)

func TestBME680Normalization(t *testing.T) {
	m := NewManager()

	m.Process(registry.TopicSensorBME680, map[string]any{
		"t": 24.5, "h": 40.0, "p": 1012.0, "iaq": 55.0,
	}, time.Now())

	rec, ok := m.Get(registry.TopicSensorBME680)
	if !ok {
		t.Fatal("no reading stored")
	}
	if rec.Fields[FieldTemperature] != 24.5 {
		t.Errorf("temperature = %v", rec.Fields[FieldTemperature])
	}
	if rec.Fields[FieldHumidity] != 40.0 {
		t.Errorf("humidity = %v", rec.Fields[FieldHumidity])
	}
	if rec.Fields[FieldPressure] != 1012.0 {
		t.Errorf("pressure = %v", rec.Fields[FieldPressure])
	}
	if rec.Fields[FieldAirQuality] != 55.0 {
		t.Errorf("air_quality = %v", rec.Fields[FieldAirQuality])
	}
	if rec.MessageCount != 1 {
		t.Errorf("message_count = %d", rec.MessageCount)
	}
}

func TestLDRNormalization(t *testing.T) {
	m := NewManager()
	m.Process(registry.TopicSensorLDR, map[string]any{"ldr": 880.0}, time.Now())

	rec, _ := m.Get(registry.TopicSensorLDR)
	if rec.Fields[FieldLight] != 880.0 {
		t.Errorf("light = %v", rec.Fields[FieldLight])
	}
}

func TestEmptyPayloadRecorded(t *testing.T) {
	m := NewManager()
	m.Process(registry.TopicSensorBME680, map[string]any{}, time.Now())

	rec, ok := m.Get(registry.TopicSensorBME680)
	if !ok {
		t.Fatal("empty payload should still create a record")
	}
	if rec.Status != "empty_payload" {
		t.Errorf("status = %q", rec.Status)
	}
	if rec.MessageCount != 1 {
		t.Errorf("message_count = %d", rec.MessageCount)
	}

	// A good reading afterwards clears the status.
	m.Process(registry.TopicSensorBME680, map[string]any{
		"t": 20.0, "h": 30.0, "p": 1000.0, "iaq": 40.0,
	}, time.Now())
	rec, _ = m.Get(registry.TopicSensorBME680)
	if rec.Status != "" {
		t.Errorf("status after valid reading = %q", rec.Status)
	}
	if rec.MessageCount != 2 {
		t.Errorf("message_count = %d", rec.MessageCount)
	}
}

func TestPayloadTimestampPreferred(t *testing.T) {
	m := NewManager()
	m.Process(registry.TopicSensorLDR, map[string]any{
		"ldr": 1.0,
		"ts":  "2024-03-07T10:00:00Z",
	}, time.Now())

	rec, _ := m.Get(registry.TopicSensorLDR)
	want := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp, want)
	}
}

func TestCameraImageParsing(t *testing.T) {
	m := NewManager()

	m.Process(registry.TopicSensorCam, map[string]any{
		"data": "data:image/png;base64,iVBORw0KGgo=",
	}, time.Now())
	rec, _ := m.Get(registry.TopicSensorCam)
	img, ok := rec.Fields[FieldImageData].(Image)
	if !ok {
		t.Fatalf("image_data = %T", rec.Fields[FieldImageData])
	}
	if img.Format != "png" || img.Bytes != "iVBORw0KGgo=" {
		t.Errorf("image = %+v", img)
	}

	// Bare base64 is assumed jpeg.
	m.Process(registry.TopicSensorCam, map[string]any{"data": "/9j/4AAQ"}, time.Now())
	rec, _ = m.Get(registry.TopicSensorCam)
	img = rec.Fields[FieldImageData].(Image)
	if img.Format != "jpeg" || img.Bytes != "/9j/4AAQ" {
		t.Errorf("image = %+v", img)
	}
}

func TestIdempotentProcessing(t *testing.T) {
	m := NewManager()
	payload := map[string]any{"t": 24.5, "h": 40.0, "p": 1012.0, "iaq": 55.0}

	m.Process(registry.TopicSensorBME680, payload, time.Now())
	first, _ := m.Get(registry.TopicSensorBME680)
	m.Process(registry.TopicSensorBME680, payload, time.Now())
	second, _ := m.Get(registry.TopicSensorBME680)

	// Only the counter moves; the reading itself is unchanged.
	if second.Fields[FieldTemperature] != first.Fields[FieldTemperature] {
		t.Error("re-delivery changed the reading")
	}
	if second.MessageCount != first.MessageCount+1 {
		t.Errorf("message_count = %d after %d", second.MessageCount, first.MessageCount)
	}
}

func TestStatistics(t *testing.T) {
	m := NewManager()
	m.Process(registry.TopicSensorBME680, map[string]any{
		"t": 24.5, "h": 40.0, "p": 1012.0, "iaq": 55.0,
	}, time.Now())
	m.Process(registry.TopicSensorLDR, map[string]any{"ldr": 880.0}, time.Now())

	stats := m.Statistics()
	if stats.TotalSensors != 2 {
		t.Errorf("total_sensors = %d", stats.TotalSensors)
	}
	if stats.Temperature == nil || *stats.Temperature != 24.5 {
		t.Errorf("temperature = %v", stats.Temperature)
	}
	if stats.Light == nil || *stats.Light != 880.0 {
		t.Errorf("light = %v", stats.Light)
	}
	if !stats.Available[registry.TopicSensorBME680] {
		t.Error("bme680 should be available")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	m := NewManager()
	m.Process(registry.TopicSensorLDR, map[string]any{"ldr": 1.0}, time.Now())

	snap := m.GetAll()
	snap[registry.TopicSensorLDR].Fields[FieldLight] = 999.0

	rec, _ := m.Get(registry.TopicSensorLDR)
	if rec.Fields[FieldLight] != 1.0 {
		t.Error("snapshot write leaked into manager state")
	}
}
