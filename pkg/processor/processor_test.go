package processor

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
)

type fakeContactStore struct {
	upserted []models.Contact
	deleted  []string
}

func (f *fakeContactStore) UpsertSnapshot(ctx context.Context, tenantID string, contact *models.Contact) (*models.Contact, error) {
	f.upserted = append(f.upserted, *contact)
	return contact, nil
}

func (f *fakeContactStore) SoftDelete(ctx context.Context, tenantID, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func changeMessage(change *kafka.ContactChangeMessage) *kafka.IncomingMessage {
	return &kafka.IncomingMessage{Change: change}
}

func TestProcessMessage_UpsertBackfillsContactID(t *testing.T) {
	store := &fakeContactStore{}
	p := NewProcessor(getTestLogger(), store, nil)

	// Snapshot without its own ID; the envelope's contact_id is the
	// record identity.
	msg := changeMessage(&kafka.ContactChangeMessage{
		ChangeType: kafka.ChangeTypeUpserted,
		TenantID:   "tenant-1",
		ContactID:  "c-1",
		Contact:    &models.Contact{FullName: "Jane Doe"},
	})

	require.NoError(t, p.ProcessMessage(context.Background(), msg))
	require.Len(t, store.upserted, 1)
	assert.Equal(t, "c-1", store.upserted[0].ID)
}

func TestProcessMessage_UpsertKeepsSnapshotID(t *testing.T) {
	store := &fakeContactStore{}
	p := NewProcessor(getTestLogger(), store, nil)

	msg := changeMessage(&kafka.ContactChangeMessage{
		ChangeType: kafka.ChangeTypeUpserted,
		TenantID:   "tenant-1",
		ContactID:  "c-1",
		Contact:    &models.Contact{ID: "c-1", FullName: "Jane Doe"},
	})

	require.NoError(t, p.ProcessMessage(context.Background(), msg))
	require.Len(t, store.upserted, 1)
	assert.Equal(t, "c-1", store.upserted[0].ID)
}

func TestProcessMessage_Delete(t *testing.T) {
	store := &fakeContactStore{}
	p := NewProcessor(getTestLogger(), store, nil)

	msg := changeMessage(&kafka.ContactChangeMessage{
		ChangeType: kafka.ChangeTypeDeleted,
		TenantID:   "tenant-1",
		ContactID:  "c-2",
	})

	require.NoError(t, p.ProcessMessage(context.Background(), msg))
	assert.Empty(t, store.upserted)
	assert.Equal(t, []string{"c-2"}, store.deleted)
}

func TestProcessMessage_SkipsPoisonMessages(t *testing.T) {
	store := &fakeContactStore{}
	p := NewProcessor(getTestLogger(), store, nil)

	tests := []struct {
		name string
		msg  *kafka.IncomingMessage
	}{
		{"no parsed change", &kafka.IncomingMessage{}},
		{"missing tenant", changeMessage(&kafka.ContactChangeMessage{ChangeType: kafka.ChangeTypeDeleted, ContactID: "c-3"})},
		{"upsert without snapshot", changeMessage(&kafka.ContactChangeMessage{ChangeType: kafka.ChangeTypeUpserted, TenantID: "tenant-1", ContactID: "c-4"})},
		{"unknown change type", changeMessage(&kafka.ContactChangeMessage{ChangeType: "contact.archived", TenantID: "tenant-1", ContactID: "c-5"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, p.ProcessMessage(context.Background(), tt.msg))
		})
	}

	assert.Empty(t, store.upserted)
	assert.Empty(t, store.deleted)
}
