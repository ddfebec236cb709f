package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func group(matchType models.MatchType, size int) models.DuplicateGroup {
	members := make([]models.Contact, size)
	return models.DuplicateGroup{Members: members, MatchType: matchType, Confidence: 1.0}
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		matchType models.MatchType
		expected  models.Severity
	}{
		{models.MatchTypeMultipleCriteria, models.SeverityHigh},
		{models.MatchTypeExactName, models.SeverityHigh},
		{models.MatchTypeSamePhone, models.SeverityMedium},
		{models.MatchTypeSameEmail, models.SeverityMedium},
		{models.MatchTypeSimilarName, models.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(string(tt.matchType), func(t *testing.T) {
			assert.Equal(t, tt.expected, SeverityFor(tt.matchType))
		})
	}
}

func TestRecompute(t *testing.T) {
	groups := []models.DuplicateGroup{
		group(models.MatchTypeExactName, 2),
		group(models.MatchTypeSamePhone, 3),
		group(models.MatchTypeExactName, 4),
		group(models.MatchTypeSimilarName, 2),
	}

	result := Recompute(100, groups)

	assert.Equal(t, 100, result.TotalContacts)
	assert.Equal(t, 4, result.DuplicateGroups)
	assert.Equal(t, 11, result.DuplicateContacts)

	require.Len(t, result.ByMatchType, 3)
	// Reporting order is fixed: identity evidence first, fuzzy last.
	assert.Equal(t, models.MatchTypeExactName, result.ByMatchType[0].MatchType)
	assert.Equal(t, 2, result.ByMatchType[0].GroupCount)
	assert.Equal(t, 6, result.ByMatchType[0].ContactCount)
	assert.Equal(t, models.SeverityHigh, result.ByMatchType[0].Severity)

	assert.Equal(t, models.MatchTypeSamePhone, result.ByMatchType[1].MatchType)
	assert.Equal(t, models.MatchTypeSimilarName, result.ByMatchType[2].MatchType)
	assert.Equal(t, models.SeverityLow, result.ByMatchType[2].Severity)
}

func TestRecompute_Empty(t *testing.T) {
	result := Recompute(0, nil)
	assert.Equal(t, 0, result.DuplicateGroups)
	assert.Equal(t, 0, result.DuplicateContacts)
	assert.Empty(t, result.ByMatchType)
}
