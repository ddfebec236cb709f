// Package merging implements deterministic contact consolidation
package merging

import (
	"github.com/Ramsey-B/fern/pkg/models"
)

// MergedContact consolidates the destination contact with the given source
// contacts under the supplied configuration. It is pure and never fails;
// the caller guarantees destination.ID matches cfg.PrimaryContactID. Field
// groups reconcile independently: names and organization copy wholesale
// from their configured sources, the photo only moves when explicitly
// configured, and every multi-value list is an order-stable de-duplicated
// union.
func MergedContact(cfg models.MergeConfiguration, destination models.Contact, sources []models.Contact) models.Contact {
	byID := make(map[string]*models.Contact, len(sources)+1)
	byID[destination.ID] = &destination
	for i := range sources {
		byID[sources[i].ID] = &sources[i]
	}

	// pick resolves a configured source ID, falling back to the
	// destination when unset or unknown.
	pick := func(id *string) *models.Contact {
		if id != nil {
			if c, ok := byID[*id]; ok {
				return c
			}
		}
		return &destination
	}

	merged := destination

	nameSource := pick(cfg.PreferredNameSourceID)
	merged.FullName = nameSource.FullName
	merged.GivenName = nameSource.GivenName
	merged.FamilyName = nameSource.FamilyName
	merged.MiddleName = nameSource.MiddleName
	merged.Nickname = nameSource.Nickname
	merged.NamePrefix = nameSource.NamePrefix
	merged.NameSuffix = nameSource.NameSuffix

	if orgSource := pick(cfg.PreferredOrgSourceID); orgSource.Organization != "" {
		merged.Organization = orgSource.Organization
		merged.Department = orgSource.Department
		merged.JobTitle = orgSource.JobTitle
	}

	// The photo never falls back: an unset source ID, an unknown ID, or a
	// source without image data all leave the destination's photo as-is.
	if cfg.PhotoSourceID != nil {
		if photoSource, ok := byID[*cfg.PhotoSourceID]; ok && len(photoSource.ImageData) > 0 {
			merged.ImageData = photoSource.ImageData
			merged.HasPhoto = true
		}
	}

	all := make([]*models.Contact, 0, len(sources)+1)
	all = append(all, &destination)
	for i := range sources {
		all = append(all, &sources[i])
	}

	merged.Phones = mergeLabeledValues(all, func(c *models.Contact) []models.LabeledValue { return c.Phones }, cfg.PhoneAllowList)
	merged.Emails = mergeLabeledValues(all, func(c *models.Contact) []models.LabeledValue { return c.Emails }, cfg.EmailAllowList)
	merged.PostalAddresses = mergePostalAddresses(all)
	merged.URLs = mergeURLs(all)
	merged.SocialProfiles = mergeSocialProfiles(all)
	merged.IMHandles = mergeIMHandles(all)

	if merged.Birthday == nil {
		for i := range sources {
			if sources[i].Birthday != nil {
				merged.Birthday = sources[i].Birthday
				break
			}
		}
	}

	return merged
}

// mergeLabeledValues unions labeled values across all records in order,
// de-duplicated by exact string value. The first occurrence keeps its
// label. A nil allow-list keeps everything; a non-nil list filters.
func mergeLabeledValues(all []*models.Contact, get func(*models.Contact) []models.LabeledValue, allowList []string) []models.LabeledValue {
	var allowed map[string]struct{}
	if allowList != nil {
		allowed = make(map[string]struct{}, len(allowList))
		for _, v := range allowList {
			allowed[v] = struct{}{}
		}
	}

	seen := make(map[string]struct{})
	var result []models.LabeledValue
	for _, c := range all {
		for _, lv := range get(c) {
			if _, dup := seen[lv.Value]; dup {
				continue
			}
			seen[lv.Value] = struct{}{}
			if allowed != nil {
				if _, ok := allowed[lv.Value]; !ok {
					continue
				}
			}
			result = append(result, lv)
		}
	}
	return result
}

// mergePostalAddresses unions addresses de-duplicated by the
// (street, city, postal code) triple. Addresses are not individually
// selectable, so there is no allow-list.
func mergePostalAddresses(all []*models.Contact) []models.PostalAddress {
	type key struct{ street, city, postalCode string }
	seen := make(map[key]struct{})
	var result []models.PostalAddress
	for _, c := range all {
		for _, addr := range c.PostalAddresses {
			k := key{addr.Street, addr.City, addr.PostalCode}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			result = append(result, addr)
		}
	}
	return result
}

func mergeURLs(all []*models.Contact) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, c := range all {
		for _, u := range c.URLs {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			result = append(result, u)
		}
	}
	return result
}

func mergeSocialProfiles(all []*models.Contact) []models.SocialProfile {
	type key struct{ service, username string }
	seen := make(map[key]struct{})
	var result []models.SocialProfile
	for _, c := range all {
		for _, p := range c.SocialProfiles {
			k := key{p.Service, p.Username}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			result = append(result, p)
		}
	}
	return result
}

func mergeIMHandles(all []*models.Contact) []models.IMHandle {
	type key struct{ service, username string }
	seen := make(map[key]struct{})
	var result []models.IMHandle
	for _, c := range all {
		for _, h := range c.IMHandles {
			k := key{h.Service, h.Username}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			result = append(result, h)
		}
	}
	return result
}
