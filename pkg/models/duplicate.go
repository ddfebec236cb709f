package models

import "time"

// MatchType identifies which detection pass produced a duplicate group.
type MatchType string

const (
	MatchTypeMultipleCriteria MatchType = "multiple_criteria"
	MatchTypeExactName        MatchType = "exact_name"
	MatchTypeSamePhone        MatchType = "same_phone"
	MatchTypeSameEmail        MatchType = "same_email"
	MatchTypeSimilarName      MatchType = "similar_name"
)

// DuplicateGroup is a cluster of contacts believed to represent the same
// person, with the match type that claimed them and a confidence score.
type DuplicateGroup struct {
	Members    []Contact `json:"members"`
	MatchType  MatchType `json:"match_type"`
	Confidence float64   `json:"confidence"`
}

// PrimaryContact returns the group member with the highest completeness
// score. Ties keep the earliest member, so output is stable for equal
// scores.
func (g *DuplicateGroup) PrimaryContact() *Contact {
	if len(g.Members) == 0 {
		return nil
	}
	primary := &g.Members[0]
	best := primary.CompletenessScore()
	for i := 1; i < len(g.Members); i++ {
		if score := g.Members[i].CompletenessScore(); score > best {
			primary = &g.Members[i]
			best = score
		}
	}
	return primary
}

// MemberIDs returns the contact IDs of the group members in order.
func (g *DuplicateGroup) MemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// DetectionRun is a persisted record of one duplicate scan.
type DetectionRun struct {
	ID           string     `json:"id" db:"id"`
	TenantID     string     `json:"tenant_id" db:"tenant_id"`
	Status       string     `json:"status" db:"status"`
	ContactCount int        `json:"contact_count" db:"contact_count"`
	GroupCount   int        `json:"group_count" db:"group_count"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Detection run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// DuplicateScanResult is the full output of one scan: groups plus quality
// stats, as returned by the API and cached per tenant.
type DuplicateScanResult struct {
	RunID        string           `json:"run_id"`
	TenantID     string           `json:"tenant_id"`
	ContactCount int              `json:"contact_count"`
	Groups       []DuplicateGroup `json:"groups"`
	Stats        QualityStats     `json:"stats"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  time.Time        `json:"completed_at"`
}

// ScanRequest asks for a new duplicate scan.
type ScanRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ScanAcceptedResponse acknowledges a queued scan.
type ScanAcceptedResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}
