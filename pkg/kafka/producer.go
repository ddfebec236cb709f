package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// ContactEvent represents an event about a contact
type ContactEvent struct {
	EventType      string          `json:"event_type"` // merged, removed
	TenantID       string          `json:"tenant_id"`
	ContactID      string          `json:"contact_id"`
	Contact        *models.Contact `json:"contact,omitempty"`
	SourceContacts []string        `json:"source_contacts,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// ScanEvent represents a completed duplicate scan
type ScanEvent struct {
	EventType    string    `json:"event_type"` // scan.completed, scan.failed
	TenantID     string    `json:"tenant_id"`
	RunID        string    `json:"run_id"`
	ContactCount int       `json:"contact_count"`
	GroupCount   int       `json:"group_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// PublishContactEvent publishes a contact event to Kafka
func (p *Producer) PublishContactEvent(ctx context.Context, event *ContactEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishContactEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.ContactID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish contact event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"contact_id": event.ContactID,
	}).Debug("Published contact event")

	return nil
}

// PublishScanEvent publishes a scan lifecycle event to Kafka
func (p *Producer) PublishScanEvent(ctx context.Context, event *ScanEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishScanEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.TenantID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish scan event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"run_id":     event.RunID,
	}).Debug("Published scan event")

	return nil
}
