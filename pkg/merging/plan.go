package merging

import (
	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/models"
)

// NewPlan builds the default merge plan for a duplicate group: name and
// organization come from the group's primary contact, the photo defaults
// to the first member that has one (unlike the engine, which never picks a
// photo on its own), and the phone/email selections start as the full
// de-duplicated union.
func NewPlan(group *models.DuplicateGroup) models.MergePlan {
	primary := group.PrimaryContact()

	members := make([]*models.Contact, 0, len(group.Members))
	sourceIDs := make([]string, 0, len(group.Members))
	for i := range group.Members {
		members = append(members, &group.Members[i])
		if group.Members[i].ID != primary.ID {
			sourceIDs = append(sourceIDs, group.Members[i].ID)
		}
	}

	plan := models.MergePlan{
		PrimaryContactID: primary.ID,
		SourceContactIDs: sourceIDs,
		NameCandidates: ectolinq.Map(members, func(c *models.Contact) models.NameCandidate {
			return models.NameCandidate{ContactID: c.ID, FullName: c.FullName}
		}),
		Phones: mergeLabeledValues(members, func(c *models.Contact) []models.LabeledValue { return c.Phones }, nil),
		Emails: mergeLabeledValues(members, func(c *models.Contact) []models.LabeledValue { return c.Emails }, nil),
	}

	for _, c := range members {
		if c.Organization != "" {
			plan.OrgCandidates = append(plan.OrgCandidates, models.OrgCandidate{
				ContactID:    c.ID,
				Organization: c.Organization,
				JobTitle:     c.JobTitle,
			})
		}
		if len(c.ImageData) > 0 {
			plan.PhotoCandidates = append(plan.PhotoCandidates, c.ID)
		}
	}

	plan.Configuration = NewConfiguration(primary.ID, group)

	return plan
}

// NewConfiguration derives the default merge configuration for a chosen
// primary within a group. NewPlan uses it for the group's primary contact;
// callers re-derive with a different primary when the user overrides the
// default selection.
func NewConfiguration(primaryContactID string, group *models.DuplicateGroup) models.MergeConfiguration {
	primaryID := primaryContactID
	cfg := models.MergeConfiguration{
		PrimaryContactID:      primaryID,
		SourceContactIDs:      make([]string, 0, len(group.Members)),
		PreferredNameSourceID: &primaryID,
		PreferredOrgSourceID:  &primaryID,
	}

	for i := range group.Members {
		member := &group.Members[i]
		if member.ID != primaryID {
			cfg.SourceContactIDs = append(cfg.SourceContactIDs, member.ID)
		}
		if cfg.PhotoSourceID == nil && len(member.ImageData) > 0 {
			photoID := member.ID
			cfg.PhotoSourceID = &photoID
		}
	}

	return cfg
}
