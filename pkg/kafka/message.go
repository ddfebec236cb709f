package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Change-feed event types.
const (
	ChangeTypeUpserted = "contact.upserted"
	ChangeTypeDeleted  = "contact.deleted"
)

// ContactChangeMessage is one address-book change-feed entry. Upserts
// carry the full contact snapshot; deletes carry only the contact ID.
type ContactChangeMessage struct {
	ChangeType string          `json:"change_type"`
	TenantID   string          `json:"tenant_id"`
	ContactID  string          `json:"contact_id"`
	Contact    *models.Contact `json:"contact,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	Change *ContactChangeMessage
}

// ParseChange parses the message value as a contact change
func (m *IncomingMessage) ParseChange() error {
	var change ContactChangeMessage
	if err := json.Unmarshal(m.Value, &change); err != nil {
		return err
	}
	m.Change = &change
	return nil
}

// GetTenantID returns the tenant ID from the change body, falling back to
// the message header.
func (m *IncomingMessage) GetTenantID() string {
	if m.Change != nil && m.Change.TenantID != "" {
		return m.Change.TenantID
	}
	return m.Headers["tenant_id"]
}
