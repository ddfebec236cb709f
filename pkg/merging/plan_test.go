package merging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestNewPlan_Defaults(t *testing.T) {
	group := &models.DuplicateGroup{
		MatchType:  models.MatchTypeExactName,
		Confidence: 1.0,
		Members: []models.Contact{
			{
				ID:       "1",
				FullName: "Jane Doe",
				Phones:   []models.LabeledValue{{Label: "mobile", Value: "555-1111"}},
			},
			{
				ID:           "2",
				FullName:     "Jane Doe",
				Organization: "Acme",
				Phones: []models.LabeledValue{
					{Label: "work", Value: "555-1111"},
					{Label: "home", Value: "555-2222"},
				},
				Emails:    []models.LabeledValue{{Label: "home", Value: "jane@x.com"}},
				HasPhoto:  true,
				ImageData: []byte{0x01},
			},
		},
	}

	plan := NewPlan(group)

	// Member 2 has the higher completeness score and becomes primary.
	assert.Equal(t, "2", plan.PrimaryContactID)
	assert.Equal(t, []string{"1"}, plan.SourceContactIDs)

	require.Len(t, plan.NameCandidates, 2)
	require.Len(t, plan.OrgCandidates, 1)
	assert.Equal(t, "Acme", plan.OrgCandidates[0].Organization)

	// Unlike the merge engine, the plan defaults the photo to the first
	// member that has one.
	require.NotNil(t, plan.Configuration.PhotoSourceID)
	assert.Equal(t, "2", *plan.Configuration.PhotoSourceID)
	assert.Equal(t, []string{"2"}, plan.PhotoCandidates)

	// Phone/email selections start as the full de-duplicated union.
	require.Len(t, plan.Phones, 2)
	assert.Equal(t, "555-1111", plan.Phones[0].Value)
	assert.Equal(t, "555-2222", plan.Phones[1].Value)
	require.Len(t, plan.Emails, 1)

	require.NotNil(t, plan.Configuration.PreferredNameSourceID)
	assert.Equal(t, "2", *plan.Configuration.PreferredNameSourceID)
	assert.Nil(t, plan.Configuration.PhoneAllowList)
	assert.Nil(t, plan.Configuration.EmailAllowList)
}

func TestNewPlan_NoPhotoCandidates(t *testing.T) {
	group := &models.DuplicateGroup{
		MatchType:  models.MatchTypeSimilarName,
		Confidence: 0.92,
		Members: []models.Contact{
			{ID: "1", FullName: "Robert Smith"},
			{ID: "2", FullName: "Robet Smith"},
		},
	}

	plan := NewPlan(group)
	assert.Nil(t, plan.Configuration.PhotoSourceID)
	assert.Empty(t, plan.PhotoCandidates)
}

func TestNewPlan_TieKeepsListOrder(t *testing.T) {
	group := &models.DuplicateGroup{
		MatchType:  models.MatchTypeExactName,
		Confidence: 1.0,
		Members: []models.Contact{
			{ID: "1", FullName: "Jane Doe"},
			{ID: "2", FullName: "Jane Doe"},
		},
	}

	plan := NewPlan(group)
	assert.Equal(t, "1", plan.PrimaryContactID)
	assert.Equal(t, []string{"2"}, plan.SourceContactIDs)
}

func TestNewConfiguration_RepickedPrimary(t *testing.T) {
	group := &models.DuplicateGroup{
		Members: []models.Contact{
			{ID: "1", FullName: "Jane Doe", ImageData: []byte{0x01}},
			{ID: "2", FullName: "Jane A. Doe", Organization: "Acme"},
			{ID: "3", FullName: "J. Doe"},
		},
	}

	// The user overrides the default primary; the configuration is
	// re-derived around their pick.
	cfg := NewConfiguration("2", group)

	assert.Equal(t, "2", cfg.PrimaryContactID)
	assert.Equal(t, []string{"1", "3"}, cfg.SourceContactIDs)
	require.NotNil(t, cfg.PreferredNameSourceID)
	assert.Equal(t, "2", *cfg.PreferredNameSourceID)
	require.NotNil(t, cfg.PreferredOrgSourceID)
	assert.Equal(t, "2", *cfg.PreferredOrgSourceID)

	// Photo default stays with the first member that has image data,
	// independent of which member is primary.
	require.NotNil(t, cfg.PhotoSourceID)
	assert.Equal(t, "1", *cfg.PhotoSourceID)
}

func TestNewConfiguration_MatchesPlanDefault(t *testing.T) {
	group := &models.DuplicateGroup{
		Members: []models.Contact{
			{ID: "1", FullName: "Jane Doe"},
			{ID: "2", FullName: "Jane Doe", Organization: "Acme", Emails: []models.LabeledValue{{Label: "home", Value: "jane@x.com"}}},
		},
	}

	plan := NewPlan(group)
	assert.Equal(t, NewConfiguration(plan.PrimaryContactID, group), plan.Configuration)
}
