package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		contact  Contact
		expected string
	}{
		{"full name", Contact{FullName: "Jane Doe"}, "Jane Doe"},
		{"falls back to organization", Contact{Organization: "Acme Corp"}, "Acme Corp"},
		{"sentinel when empty", Contact{}, NoNameSentinel},
		{"whitespace name is empty", Contact{FullName: "   ", Organization: "Acme Corp"}, "Acme Corp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.contact.DisplayName())
		})
	}
}

func TestCompletenessScore(t *testing.T) {
	c := Contact{
		Phones: []LabeledValue{{Label: "mobile", Value: "555-1111"}, {Label: "work", Value: "555-2222"}},
		Emails: []LabeledValue{{Label: "home", Value: "jane@example.com"}},
	}
	assert.Equal(t, 3, c.CompletenessScore())

	c.Organization = "Acme Corp"
	assert.Equal(t, 4, c.CompletenessScore())

	// Whitespace-only organization does not count
	c.Organization = "  "
	assert.Equal(t, 3, c.CompletenessScore())

	assert.Equal(t, 0, (&Contact{}).CompletenessScore())
}

func TestPrimaryContact_MostComplete(t *testing.T) {
	group := DuplicateGroup{
		Members: []Contact{
			{ID: "a", Phones: []LabeledValue{{Value: "555-1111"}}},
			{ID: "b", Phones: []LabeledValue{{Value: "555-1111"}}, Emails: []LabeledValue{{Value: "b@example.com"}}, Organization: "Acme"},
			{ID: "c"},
		},
	}
	assert.Equal(t, "b", group.PrimaryContact().ID)
}

func TestPrimaryContact_TieKeepsEarliest(t *testing.T) {
	group := DuplicateGroup{
		Members: []Contact{
			{ID: "first", Phones: []LabeledValue{{Value: "555-1111"}}},
			{ID: "second", Emails: []LabeledValue{{Value: "s@example.com"}}},
		},
	}
	assert.Equal(t, "first", group.PrimaryContact().ID)
}

func TestToContact(t *testing.T) {
	req := CreateContactRequest{
		ID:           "c-1",
		FullName:     "Jane Doe",
		Organization: "Acme Corp",
		Phones:       []LabeledValue{{Label: "mobile", Value: "555-1111"}},
		URLs:         []string{"https://example.com"},
	}

	c := req.ToContact()
	assert.Equal(t, "c-1", c.ID)
	assert.Equal(t, "Jane Doe", c.FullName)
	assert.Equal(t, "Acme Corp", c.Organization)
	assert.Equal(t, req.Phones, c.Phones)
	assert.Equal(t, req.URLs, c.URLs)
	assert.Empty(t, c.TenantID)
}
