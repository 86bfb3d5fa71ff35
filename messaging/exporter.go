package messaging

import (
	"context"
	"encoding/json"
	"log"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"ccugateway/config"
)

// Exporter fans accepted inbound messages out to a Kafka topic for
// analytics. Disabled by default; a nil Exporter is safe to call.
type Exporter struct {
	writer *kafka.Writer
	topic  string
}

// ExportRecord is the analytics record shape.
type ExportRecord struct {
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"ts"`
	Retained  bool            `json:"retained"`
}

// NewExporter creates an exporter, or nil when export is disabled.
func NewExporter(cfg *config.ExportConfig) *Exporter {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		return nil
	}
	return &Exporter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
		topic: cfg.Topic,
	}
}

// Export sends one record. Failures are logged, never propagated: the
// factory does not stall on the analytics path.
func (e *Exporter) Export(topic string, raw []byte, retained bool) {
	if e == nil {
		return
	}
	rec := ExportRecord{
		Topic:     topic,
		Payload:   json.RawMessage(raw),
		Timestamp: time.Now().UTC(),
		Retained:  retained,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("exporter: marshal: %v", err)
		return
	}
	if err := e.writer.WriteMessages(context.Background(), kafka.Message{
		Topic: e.topic,
		Key:   []byte(topic),
		Value: data,
	}); err != nil {
		log.Printf("exporter: write: %v", err)
	}
}

// Close flushes and closes the writer.
func (e *Exporter) Close() {
	if e == nil {
		return
	}
	if err := e.writer.Close(); err != nil {
		log.Printf("exporter: close: %v", err)
	}
}
