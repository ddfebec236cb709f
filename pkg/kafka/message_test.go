package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChange_Upsert(t *testing.T) {
	msg := &IncomingMessage{
		Value: []byte(`{
			"change_type": "contact.upserted",
			"tenant_id": "tenant-1",
			"contact_id": "c-1",
			"contact": {"id": "c-1", "tenant_id": "tenant-1", "full_name": "Jane Doe"}
		}`),
	}

	require.NoError(t, msg.ParseChange())
	require.NotNil(t, msg.Change)
	assert.Equal(t, ChangeTypeUpserted, msg.Change.ChangeType)
	assert.Equal(t, "c-1", msg.Change.ContactID)
	require.NotNil(t, msg.Change.Contact)
	assert.Equal(t, "Jane Doe", msg.Change.Contact.FullName)
}

func TestParseChange_DeleteHasNoSnapshot(t *testing.T) {
	msg := &IncomingMessage{
		Value: []byte(`{"change_type": "contact.deleted", "tenant_id": "tenant-1", "contact_id": "c-2"}`),
	}

	require.NoError(t, msg.ParseChange())
	assert.Equal(t, ChangeTypeDeleted, msg.Change.ChangeType)
	assert.Nil(t, msg.Change.Contact)
}

func TestParseChange_InvalidJSON(t *testing.T) {
	msg := &IncomingMessage{Value: []byte(`not json`)}
	assert.Error(t, msg.ParseChange())
	assert.Nil(t, msg.Change)
}

func TestGetTenantID(t *testing.T) {
	t.Run("prefers body", func(t *testing.T) {
		msg := &IncomingMessage{
			Headers: map[string]string{"tenant_id": "header-tenant"},
			Change:  &ContactChangeMessage{TenantID: "body-tenant"},
		}
		assert.Equal(t, "body-tenant", msg.GetTenantID())
	})

	t.Run("falls back to header", func(t *testing.T) {
		msg := &IncomingMessage{
			Headers: map[string]string{"tenant_id": "header-tenant"},
			Change:  &ContactChangeMessage{},
		}
		assert.Equal(t, "header-tenant", msg.GetTenantID())
	})

	t.Run("empty when neither set", func(t *testing.T) {
		msg := &IncomingMessage{Headers: map[string]string{}}
		assert.Equal(t, "", msg.GetTenantID())
	})
}
