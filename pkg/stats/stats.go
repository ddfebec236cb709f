// Package stats summarizes the duplicate landscape of a detection run
package stats

import (
	"github.com/Ramsey-B/fern/pkg/models"
)

// matchTypeOrder fixes the reporting order so summaries are stable.
var matchTypeOrder = []models.MatchType{
	models.MatchTypeMultipleCriteria,
	models.MatchTypeExactName,
	models.MatchTypeSamePhone,
	models.MatchTypeSameEmail,
	models.MatchTypeSimilarName,
}

// SeverityFor maps a match type to how urgently its duplicates should be
// resolved. Identity-level evidence is high, single shared channels are
// medium, fuzzy name matches are low.
func SeverityFor(matchType models.MatchType) models.Severity {
	switch matchType {
	case models.MatchTypeMultipleCriteria, models.MatchTypeExactName:
		return models.SeverityHigh
	case models.MatchTypeSamePhone, models.MatchTypeSameEmail:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// Recompute builds quality stats for one detection run's output.
func Recompute(totalContacts int, groups []models.DuplicateGroup) models.QualityStats {
	byType := make(map[models.MatchType]*models.MatchTypeStats)

	duplicateContacts := 0
	for _, g := range groups {
		entry, ok := byType[g.MatchType]
		if !ok {
			entry = &models.MatchTypeStats{
				MatchType: g.MatchType,
				Severity:  SeverityFor(g.MatchType),
			}
			byType[g.MatchType] = entry
		}
		entry.GroupCount++
		entry.ContactCount += len(g.Members)
		duplicateContacts += len(g.Members)
	}

	result := models.QualityStats{
		TotalContacts:     totalContacts,
		DuplicateGroups:   len(groups),
		DuplicateContacts: duplicateContacts,
		ByMatchType:       make([]models.MatchTypeStats, 0, len(byType)),
	}
	for _, matchType := range matchTypeOrder {
		if entry, ok := byType[matchType]; ok {
			result.ByMatchType = append(result.ByMatchType, *entry)
		}
	}

	return result
}
