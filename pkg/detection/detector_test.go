package detection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func makeContact(id, name string, phones, emails []string) models.Contact {
	c := models.Contact{
		ID:       id,
		FullName: name,
	}
	for _, p := range phones {
		c.Phones = append(c.Phones, models.LabeledValue{Label: "mobile", Value: p})
	}
	for _, e := range emails {
		c.Emails = append(c.Emails, models.LabeledValue{Label: "home", Value: e})
	}
	return c
}

func groupIDs(g models.DuplicateGroup) []string {
	return g.MemberIDs()
}

func TestFindDuplicates_EmptyInput(t *testing.T) {
	d := New(DefaultConfig())

	groups := d.FindDuplicates(nil)
	assert.Empty(t, groups)

	groups = d.FindDuplicates([]models.Contact{})
	assert.Empty(t, groups)
}

func TestFindDuplicates_ExactName(t *testing.T) {
	// Two records named "Jane Doe" with no shared phone or email are
	// exact-name evidence only.
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "Jane Doe", []string{"555-0100"}, nil),
		makeContact("2", "Jane Doe", nil, []string{"jane@x.com"}),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 1)
	assert.Equal(t, models.MatchTypeExactName, groups[0].MatchType)
	assert.Equal(t, 1.0, groups[0].Confidence)
	assert.Equal(t, []string{"1", "2"}, groupIDs(groups[0]))
}

func TestFindDuplicates_MultiCriteriaBeatsExactName(t *testing.T) {
	// Shared name plus shared phone must classify as multiple-criteria,
	// never split into separate exact-name and same-phone groups.
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "John Smith", []string{"555-0100"}, nil),
		makeContact("2", "John Smith", []string{"555-0100"}, nil),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 1)
	assert.Equal(t, models.MatchTypeMultipleCriteria, groups[0].MatchType)
	assert.Equal(t, 1.0, groups[0].Confidence)
	assert.Len(t, groups[0].Members, 2)
}

func TestFindDuplicates_MultiCriteriaViaEmail(t *testing.T) {
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "John Smith", nil, []string{"js@x.com"}),
		makeContact("2", "John Smith", nil, []string{"js@x.com"}),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 1)
	assert.Equal(t, models.MatchTypeMultipleCriteria, groups[0].MatchType)
}

func TestFindDuplicates_MultiCriteriaFirstMemberOnly(t *testing.T) {
	// Phone/email overlap is checked against the bucket's first member
	// only, not full pairwise. A bucket of three where members 2 and 3
	// share a phone that member 1 lacks therefore falls through to the
	// exact-name pass. This anchoring is intentional; do not "fix" it to
	// a pairwise intersection without revisiting downstream expectations.
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "John Smith", []string{"555-0001"}, nil),
		makeContact("2", "John Smith", []string{"555-9999"}, nil),
		makeContact("3", "John Smith", []string{"555-9999"}, nil),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 1)
	assert.Equal(t, models.MatchTypeExactName, groups[0].MatchType)
	assert.Equal(t, []string{"1", "2", "3"}, groupIDs(groups[0]))
}

func TestFindDuplicates_SamePhone(t *testing.T) {
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "John Smith", []string{"555-0100"}, nil),
		makeContact("2", "J. Smith Work Cell", []string{"555-0100"}, nil),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 1)
	assert.Equal(t, models.MatchTypeSamePhone, groups[0].MatchType)
	assert.Equal(t, 0.95, groups[0].Confidence)
}

func TestFindDuplicates_SameEmail(t *testing.T) {
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "John Smith", nil, []string{"john@example.com"}),
		makeContact("2", "Johnny", nil, []string{"john@example.com"}),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 1)
	assert.Equal(t, models.MatchTypeSameEmail, groups[0].MatchType)
	assert.Equal(t, 0.95, groups[0].Confidence)
}

func TestFindDuplicates_SimilarName_Strong(t *testing.T) {
	// "Robert Smith" vs "Robet Smith": one deletion over twelve runes is
	// ~0.917, above the strong threshold, so no org evidence is needed.
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "Robert Smith", nil, nil),
		makeContact("2", "Robet Smith", nil, nil),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 1)
	assert.Equal(t, models.MatchTypeSimilarName, groups[0].MatchType)
	assert.InDelta(t, 1.0-1.0/12.0, groups[0].Confidence, 1e-9)
}

func TestFindDuplicates_SimilarName_OrgAssisted(t *testing.T) {
	// "Samantha" vs "Samanthe" scores 0.875: above the accept threshold
	// but below the strong threshold, so it only matches when both share
	// a non-empty organization.
	d := New(DefaultConfig())

	withOrg := func(c models.Contact, org string) models.Contact {
		c.Organization = org
		return c
	}

	noOrg := []models.Contact{
		makeContact("1", "Samantha", nil, nil),
		makeContact("2", "Samanthe", nil, nil),
	}
	assert.Empty(t, d.FindDuplicates(noOrg))

	sameOrg := []models.Contact{
		withOrg(makeContact("1", "Samantha", nil, nil), "Acme"),
		withOrg(makeContact("2", "Samanthe", nil, nil), "Acme"),
	}
	groups := d.FindDuplicates(sameOrg)
	require.Len(t, groups, 1)
	assert.Equal(t, models.MatchTypeSimilarName, groups[0].MatchType)
	assert.InDelta(t, 0.875, groups[0].Confidence, 1e-9)

	differentOrg := []models.Contact{
		withOrg(makeContact("1", "Samantha", nil, nil), "Acme"),
		withOrg(makeContact("2", "Samanthe", nil, nil), "Globex"),
	}
	assert.Empty(t, d.FindDuplicates(differentOrg))
}

func TestFindDuplicates_SimilarName_NameLengthGuard(t *testing.T) {
	// Length difference above three runes disqualifies the pair before
	// any similarity is computed.
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "Ann", nil, nil),
		makeContact("2", "Annabelle", nil, nil),
	}

	assert.Empty(t, d.FindDuplicates(contacts))
}

func TestFindDuplicates_FuzzySkipThreshold(t *testing.T) {
	d := New(DefaultConfig())

	// A near-identical pair buried in unique filler names. With exactly
	// 500 unclaimed records remaining the fuzzy pass must not run at all;
	// one record fewer and the pair is found via prefix bucketing.
	build := func(filler int) []models.Contact {
		contacts := []models.Contact{
			makeContact("a", "Robert Smith", nil, nil),
			makeContact("b", "Robet Smith", nil, nil),
		}
		for i := 0; i < filler; i++ {
			contacts = append(contacts, makeContact(
				fmt.Sprintf("f%03d", i),
				fmt.Sprintf("Unique Person %03d", i),
				nil, nil,
			))
		}
		return contacts
	}

	atThreshold := d.FindDuplicates(build(498))
	assert.Empty(t, atThreshold, "fuzzy pass must be skipped with 500 remaining")

	belowThreshold := d.FindDuplicates(build(497))
	require.Len(t, belowThreshold, 1)
	assert.Equal(t, models.MatchTypeSimilarName, belowThreshold[0].MatchType)
	assert.Equal(t, []string{"a", "b"}, groupIDs(belowThreshold[0]))
}

func TestFindDuplicates_NoDoubleCounting(t *testing.T) {
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "John Smith", []string{"555-0100"}, []string{"john@x.com"}),
		makeContact("2", "John Smith", []string{"555-0100"}, nil),
		makeContact("3", "Jane Doe", []string{"555-0100"}, nil),
		makeContact("4", "Jane Doe", nil, []string{"john@x.com"}),
		makeContact("5", "Robert Smith", nil, nil),
		makeContact("6", "Robet Smith", nil, nil),
	}

	groups := d.FindDuplicates(contacts)

	seen := make(map[string]bool)
	for _, g := range groups {
		for _, id := range groupIDs(g) {
			assert.False(t, seen[id], "contact %s appears in more than one group", id)
			seen[id] = true
		}
	}
}

func TestFindDuplicates_UnmatchableRecordNeverGrouped(t *testing.T) {
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "", nil, nil),
		makeContact("2", "John Smith", []string{"555-0100"}, nil),
		makeContact("3", "John Smith", []string{"555-0100"}, nil),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 1)
	assert.NotContains(t, groupIDs(groups[0]), "1")
}

func TestFindDuplicates_NoNameSentinelExcluded(t *testing.T) {
	// Records carrying the display-name sentinel must not bucket together
	// as exact-name matches.
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", models.NoNameSentinel, nil, nil),
		makeContact("2", models.NoNameSentinel, nil, nil),
	}

	assert.Empty(t, d.FindDuplicates(contacts))
}

func TestFindDuplicates_SortedByConfidence(t *testing.T) {
	// A long-name fuzzy pair scores above 0.95, so it must sort ahead of
	// a same-phone group despite the fuzzy pass running last.
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "Shared Line One", []string{"555-7777"}, nil),
		makeContact("2", "Shared Line Two", []string{"555-7777"}, nil),
		makeContact("3", "Bartholomew Montgomery Featherstone", nil, nil),
		makeContact("4", "Bartholomew Montgomery Featherston", nil, nil),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 2)
	assert.Equal(t, models.MatchTypeSimilarName, groups[0].MatchType)
	assert.InDelta(t, 1.0-1.0/35.0, groups[0].Confidence, 1e-9)
	assert.Equal(t, models.MatchTypeSamePhone, groups[1].MatchType)

	for i := 1; i < len(groups); i++ {
		assert.GreaterOrEqual(t, groups[i-1].Confidence, groups[i].Confidence)
	}
}

func TestFindDuplicates_GreedyClusterConfidence(t *testing.T) {
	// A three-member fuzzy cluster carries the maximum accepted pair
	// score as its confidence.
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "Katherine Johnson", nil, nil),
		makeContact("2", "Katherine Johnsen", nil, nil),
		makeContact("3", "Katharine Johnson", nil, nil),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 1)
	assert.Equal(t, models.MatchTypeSimilarName, groups[0].MatchType)
	assert.Len(t, groups[0].Members, 3)
	assert.InDelta(t, 1.0-1.0/17.0, groups[0].Confidence, 1e-9)
}

func TestFindDuplicates_RepeatedValueSingleContact(t *testing.T) {
	// One contact listing the same number or address under two labels
	// must not form a group with itself.
	d := New(DefaultConfig())

	only := models.Contact{
		ID:       "only",
		FullName: "Solo Person",
		Phones: []models.LabeledValue{
			{Label: "mobile", Value: "555-0100"},
			{Label: "work", Value: "555-0100"},
		},
		Emails: []models.LabeledValue{
			{Label: "home", Value: "solo@example.com"},
			{Label: "work", Value: "solo@example.com"},
		},
	}

	assert.Empty(t, d.FindDuplicates([]models.Contact{only}))
}

func TestFindDuplicates_RepeatedValueStillMatchesPartner(t *testing.T) {
	d := New(DefaultConfig())

	contacts := []models.Contact{
		{
			ID:       "1",
			FullName: "Dana West",
			Phones: []models.LabeledValue{
				{Label: "mobile", Value: "555-0100"},
				{Label: "work", Value: "555-0100"},
			},
		},
		makeContact("2", "D. West", []string{"555-0100"}, nil),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 1)
	assert.Equal(t, models.MatchTypeSamePhone, groups[0].MatchType)
	assert.ElementsMatch(t, []string{"1", "2"}, groupIDs(groups[0]))
}

func TestFindDuplicates_ValueNormalization(t *testing.T) {
	// Email case and surrounding whitespace are not identity signals;
	// the values still land in one bucket.
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", "Pat Green", []string{" 555-0100 "}, nil),
		makeContact("2", "Casey Hill", []string{"555-0100"}, nil),
		makeContact("3", "Riley Stone", nil, []string{"Riley@Example.com"}),
		makeContact("4", "Morgan Reed", nil, []string{"riley@example.com "}),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 2)
	assert.Equal(t, models.MatchTypeSamePhone, groups[0].MatchType)
	assert.ElementsMatch(t, []string{"1", "2"}, groupIDs(groups[0]))
	assert.Equal(t, models.MatchTypeSameEmail, groups[1].MatchType)
	assert.ElementsMatch(t, []string{"3", "4"}, groupIDs(groups[1]))
}

func TestFindDuplicates_SentinelsStayOutOfFuzzyGroups(t *testing.T) {
	// Sentinel-named records score 1.0 against each other on raw text but
	// must never reach the fuzzy comparison at all.
	d := New(DefaultConfig())

	contacts := []models.Contact{
		makeContact("1", models.NoNameSentinel, nil, nil),
		makeContact("2", models.NoNameSentinel, nil, nil),
		makeContact("3", "Robert Smith", nil, nil),
		makeContact("4", "Robet Smith", nil, nil),
	}

	groups := d.FindDuplicates(contacts)
	require.Len(t, groups, 1)
	assert.Equal(t, models.MatchTypeSimilarName, groups[0].MatchType)
	assert.ElementsMatch(t, []string{"3", "4"}, groupIDs(groups[0]))
}
