package models

// Severity describes how urgent a class of duplicates is to resolve.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// MatchTypeStats summarizes one match type's share of a scan.
type MatchTypeStats struct {
	MatchType    MatchType `json:"match_type"`
	GroupCount   int       `json:"group_count"`
	ContactCount int       `json:"contact_count"`
	Severity     Severity  `json:"severity"`
}

// QualityStats summarizes the duplicate landscape of one scan.
type QualityStats struct {
	TotalContacts     int              `json:"total_contacts"`
	DuplicateGroups   int              `json:"duplicate_groups"`
	DuplicateContacts int              `json:"duplicate_contacts"`
	ByMatchType       []MatchTypeStats `json:"by_match_type"`
}
