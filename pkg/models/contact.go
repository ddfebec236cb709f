package models

import (
	"strings"
	"time"
)

// NoNameSentinel is the display name assigned to contacts with no usable
// name parts. It is excluded from exact-name matching so unnamed contacts
// don't collapse into one giant group.
const NoNameSentinel = "No Name"

// LabeledValue is a phone number or email address with its source label
// (e.g. "mobile", "work").
type LabeledValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PostalAddress is a structured mailing address.
type PostalAddress struct {
	Label      string `json:"label,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// SocialProfile is a social network handle.
type SocialProfile struct {
	Service  string `json:"service"`
	Username string `json:"username"`
	URL      string `json:"url,omitempty"`
}

// IMHandle is an instant-messaging address.
type IMHandle struct {
	Service  string `json:"service"`
	Username string `json:"username"`
}

// Contact represents a single person or organization record.
// Field order matches schema: id, tenant_id, full_name, name parts, org fields, ...
type Contact struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`

	FullName   string `json:"full_name" db:"full_name"`
	GivenName  string `json:"given_name,omitempty" db:"given_name"`
	FamilyName string `json:"family_name,omitempty" db:"family_name"`
	MiddleName string `json:"middle_name,omitempty" db:"middle_name"`
	Nickname   string `json:"nickname,omitempty" db:"nickname"`
	NamePrefix string `json:"name_prefix,omitempty" db:"name_prefix"`
	NameSuffix string `json:"name_suffix,omitempty" db:"name_suffix"`

	Organization string `json:"organization,omitempty" db:"organization"`
	Department   string `json:"department,omitempty" db:"department"`
	JobTitle     string `json:"job_title,omitempty" db:"job_title"`

	Phones          []LabeledValue  `json:"phones,omitempty" db:"-"`
	Emails          []LabeledValue  `json:"emails,omitempty" db:"-"`
	PostalAddresses []PostalAddress `json:"postal_addresses,omitempty" db:"-"`
	URLs            []string        `json:"urls,omitempty" db:"-"`
	SocialProfiles  []SocialProfile `json:"social_profiles,omitempty" db:"-"`
	IMHandles       []IMHandle      `json:"im_handles,omitempty" db:"-"`

	HasPhoto  bool   `json:"has_photo" db:"has_photo"`
	ImageData []byte `json:"image_data,omitempty" db:"image_data"`

	Birthday  *time.Time `json:"birthday,omitempty" db:"birthday"`
	Note      string     `json:"note,omitempty" db:"note"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// DisplayName returns the full name, falling back to organization and then
// to the NoNameSentinel.
func (c *Contact) DisplayName() string {
	if name := strings.TrimSpace(c.FullName); name != "" {
		return name
	}
	if org := strings.TrimSpace(c.Organization); org != "" {
		return org
	}
	return NoNameSentinel
}

// PhoneValues returns the bare phone number strings in declaration order.
func (c *Contact) PhoneValues() []string {
	values := make([]string, 0, len(c.Phones))
	for _, p := range c.Phones {
		values = append(values, p.Value)
	}
	return values
}

// EmailValues returns the bare email address strings in declaration order.
func (c *Contact) EmailValues() []string {
	values := make([]string, 0, len(c.Emails))
	for _, e := range c.Emails {
		values = append(values, e.Value)
	}
	return values
}

// CompletenessScore counts how much contactable data a record carries:
// one point per phone, one per email, one if it names an organization.
// Used to pick the richest record as a group's primary contact.
func (c *Contact) CompletenessScore() int {
	score := len(c.Phones) + len(c.Emails)
	if strings.TrimSpace(c.Organization) != "" {
		score++
	}
	return score
}

// CreateContactRequest is the request for creating/upserting a contact.
type CreateContactRequest struct {
	ID         string `json:"id,omitempty"`
	FullName   string `json:"full_name"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	MiddleName string `json:"middle_name,omitempty"`
	Nickname   string `json:"nickname,omitempty"`
	NamePrefix string `json:"name_prefix,omitempty"`
	NameSuffix string `json:"name_suffix,omitempty"`

	Organization string `json:"organization,omitempty"`
	Department   string `json:"department,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`

	Phones          []LabeledValue  `json:"phones,omitempty"`
	Emails          []LabeledValue  `json:"emails,omitempty"`
	PostalAddresses []PostalAddress `json:"postal_addresses,omitempty"`
	URLs            []string        `json:"urls,omitempty"`
	SocialProfiles  []SocialProfile `json:"social_profiles,omitempty"`
	IMHandles       []IMHandle      `json:"im_handles,omitempty"`

	ImageData []byte     `json:"image_data,omitempty"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Note      string     `json:"note,omitempty"`
}

// ToContact converts the request into a contact snapshot. The repository
// fills in the ID (when absent) and timestamps.
func (r *CreateContactRequest) ToContact() Contact {
	return Contact{
		ID:              r.ID,
		FullName:        r.FullName,
		GivenName:       r.GivenName,
		FamilyName:      r.FamilyName,
		MiddleName:      r.MiddleName,
		Nickname:        r.Nickname,
		NamePrefix:      r.NamePrefix,
		NameSuffix:      r.NameSuffix,
		Organization:    r.Organization,
		Department:      r.Department,
		JobTitle:        r.JobTitle,
		Phones:          r.Phones,
		Emails:          r.Emails,
		PostalAddresses: r.PostalAddresses,
		URLs:            r.URLs,
		SocialProfiles:  r.SocialProfiles,
		IMHandles:       r.IMHandles,
		ImageData:       r.ImageData,
		Birthday:        r.Birthday,
		Note:            r.Note,
	}
}

// BatchUpsertContactsRequest is the request for upserting contacts in bulk.
type BatchUpsertContactsRequest struct {
	Contacts []CreateContactRequest `json:"contacts" validate:"required,min=1,dive"`
}

// ContactListResponse is the response for listing contacts.
type ContactListResponse struct {
	Items      []Contact `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}
