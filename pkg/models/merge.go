package models

// MergeConfiguration captures the user's field-selection choices for a
// merge. Nil source pointers mean "use the default": the destination for
// names, any non-empty source for org fields, and no photo at all.
type MergeConfiguration struct {
	PrimaryContactID string   `json:"primary_contact_id" validate:"required"`
	SourceContactIDs []string `json:"source_contact_ids" validate:"required,min=1"`

	PreferredNameSourceID *string `json:"preferred_name_source_id,omitempty"`
	PreferredOrgSourceID  *string `json:"preferred_org_source_id,omitempty"`
	PhotoSourceID         *string `json:"photo_source_id,omitempty"`

	// Allow-lists filter the multi-value unions. Nil keeps everything;
	// an empty non-nil list drops everything.
	PhoneAllowList []string `json:"phone_allow_list,omitempty"`
	EmailAllowList []string `json:"email_allow_list,omitempty"`
}

// MergePlan is the editable proposal presented to the user before a merge
// is executed: default selections plus the values available to choose from.
type MergePlan struct {
	PrimaryContactID string             `json:"primary_contact_id"`
	SourceContactIDs []string           `json:"source_contact_ids"`
	NameCandidates   []NameCandidate    `json:"name_candidates"`
	OrgCandidates    []OrgCandidate     `json:"org_candidates"`
	PhotoCandidates  []string           `json:"photo_candidates"`
	Phones           []LabeledValue     `json:"phones"`
	Emails           []LabeledValue     `json:"emails"`
	Configuration    MergeConfiguration `json:"configuration"`
}

// NameCandidate is one contact's name offering within a merge plan.
type NameCandidate struct {
	ContactID string `json:"contact_id"`
	FullName  string `json:"full_name"`
}

// OrgCandidate is one contact's organization offering within a merge plan.
type OrgCandidate struct {
	ContactID    string `json:"contact_id"`
	Organization string `json:"organization"`
	JobTitle     string `json:"job_title,omitempty"`
}

// PlanMergeRequest asks for a merge plan over an explicit set of contacts.
type PlanMergeRequest struct {
	ContactIDs []string `json:"contact_ids" validate:"required,min=2"`
}

// ExecuteMergeRequest executes a merge under the given configuration.
type ExecuteMergeRequest struct {
	Configuration MergeConfiguration `json:"configuration" validate:"required"`
}

// MergeResult reports the outcome of an executed merge.
type MergeResult struct {
	Merged            Contact  `json:"merged"`
	RemovedContactIDs []string `json:"removed_contact_ids"`
}
