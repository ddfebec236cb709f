// Package detection implements multi-pass duplicate contact detection
package detection

import (
	"sort"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/similarity"
)

// Config contains the tuning constants for the detector. The fuzzy pass
// guards are cost controls: name similarity is O(n²) within a comparable
// set, so large remainders are skipped or bucketed.
type Config struct {
	FuzzySkipThreshold int     // Remaining-record count at which the fuzzy pass is skipped entirely (default: 500)
	DirectCompareLimit int     // Below this many remaining records, compare every pair directly (default: 20)
	BucketCap          int     // Fuzzy prefix buckets with this many members or more are skipped (default: 100)
	AcceptThreshold    float64 // Similarity must exceed this to be considered at all (default: 0.85)
	StrongThreshold    float64 // Similarity at or above this matches without further evidence (default: 0.90)
	MaxNameLengthDiff  int     // Maximum name-length difference for a fuzzy candidate pair (default: 3)
}

// DefaultConfig returns the default detector configuration
func DefaultConfig() Config {
	return Config{
		FuzzySkipThreshold: 500,
		DirectCompareLimit: 20,
		BucketCap:          100,
		AcceptThreshold:    0.85,
		StrongThreshold:    0.90,
		MaxNameLengthDiff:  3,
	}
}

// Detector groups contacts into duplicate clusters. It is stateless and
// safe for concurrent use.
type Detector struct {
	config Config
}

// New creates a new Detector
func New(config Config) *Detector {
	return &Detector{config: config}
}

// index is an insertion-ordered multimap from a normalized key to contact
// positions. Keys iterate in first-seen order so detection output is
// deterministic for a given input order.
type index struct {
	keys    []string
	buckets map[string][]int
}

func newIndex() *index {
	return &index{buckets: make(map[string][]int)}
}

func (ix *index) add(key string, pos int) {
	bucket, ok := ix.buckets[key]
	if !ok {
		ix.keys = append(ix.keys, key)
	}
	// A contact listing the same value twice (say, one number under both
	// mobile and work labels) must still occupy its bucket once, or the
	// value passes would emit a "group" of one contact. Adds for a single
	// contact arrive together, so checking the tail is enough.
	if n := len(bucket); n > 0 && bucket[n-1] == pos {
		return
	}
	ix.buckets[key] = append(bucket, pos)
}

// FindDuplicates clusters the given contacts into duplicate groups, sorted
// by descending confidence (stable for equal confidence). Each contact
// appears in at most one group: the passes run in evidence-strength order
// and every pass only considers contacts no earlier pass has claimed.
func (d *Detector) FindDuplicates(contacts []models.Contact) []models.DuplicateGroup {
	if len(contacts) == 0 {
		return []models.DuplicateGroup{}
	}

	nameIndex := newIndex()
	phoneIndex := newIndex()
	emailIndex := newIndex()

	for i := range contacts {
		if key := nameKey(&contacts[i]); key != "" {
			nameIndex.add(key, i)
		}
		for _, phone := range contacts[i].PhoneValues() {
			if phone = normalizers.Apply(phone, "nphone"); phone != "" {
				phoneIndex.add(phone, i)
			}
		}
		for _, email := range contacts[i].EmailValues() {
			if email = normalizers.Apply(email, "nemail"); email != "" {
				emailIndex.add(email, i)
			}
		}
	}

	claimed := make([]bool, len(contacts))
	groups := make([]models.DuplicateGroup, 0)

	groups = append(groups, d.multiCriteriaPass(contacts, nameIndex, claimed)...)
	groups = append(groups, bucketPass(contacts, nameIndex, claimed, models.MatchTypeExactName, 1.0)...)
	groups = append(groups, bucketPass(contacts, phoneIndex, claimed, models.MatchTypeSamePhone, 0.95)...)
	groups = append(groups, bucketPass(contacts, emailIndex, claimed, models.MatchTypeSameEmail, 0.95)...)
	groups = append(groups, d.similarNamePass(contacts, claimed)...)

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Confidence > groups[j].Confidence
	})

	return groups
}

// nameKey returns the name-index key for a contact, or "" when the contact
// has no usable name. The no-name sentinel is excluded so unnamed records
// don't collapse into one giant exact-name bucket.
func nameKey(c *models.Contact) string {
	name := normalizers.ApplyChain(c.FullName, "trim", "lowercase")
	if name == "" || c.FullName == models.NoNameSentinel {
		return ""
	}
	return name
}

// multiCriteriaPass claims name buckets whose members all share a phone or
// an email with the bucket's first member. The first-member anchoring (not
// full pairwise intersection) is deliberate and pinned by tests.
func (d *Detector) multiCriteriaPass(contacts []models.Contact, nameIndex *index, claimed []bool) []models.DuplicateGroup {
	groups := make([]models.DuplicateGroup, 0)

	for _, key := range nameIndex.keys {
		members := unclaimed(nameIndex.buckets[key], claimed)
		if len(members) < 2 {
			continue
		}

		anchor := &contacts[members[0]]
		anchorPhones := valueSet(anchor.PhoneValues(), "nphone")
		anchorEmails := valueSet(anchor.EmailValues(), "nemail")

		allShare := true
		for _, pos := range members[1:] {
			if !sharesValue(anchorPhones, contacts[pos].PhoneValues(), "nphone") &&
				!sharesValue(anchorEmails, contacts[pos].EmailValues(), "nemail") {
				allShare = false
				break
			}
		}
		if !allShare {
			continue
		}

		groups = append(groups, claimGroup(contacts, members, claimed, models.MatchTypeMultipleCriteria, 1.0))
	}

	return groups
}

// bucketPass claims any bucket whose unclaimed membership is still ≥2 and
// emits one group per bucket with a fixed match type and confidence. Used
// for the exact-name, phone, and email passes.
func bucketPass(contacts []models.Contact, ix *index, claimed []bool, matchType models.MatchType, confidence float64) []models.DuplicateGroup {
	groups := make([]models.DuplicateGroup, 0)

	for _, key := range ix.keys {
		members := unclaimed(ix.buckets[key], claimed)
		if len(members) < 2 {
			continue
		}
		groups = append(groups, claimGroup(contacts, members, claimed, matchType, confidence))
	}

	return groups
}

// similarNamePass fuzzy-matches the leftover records by name similarity.
// The skip/direct thresholds count every unclaimed record, but records
// with no usable name (empty or the no-name sentinel) are dropped before
// pairing: they cannot match anything and must never be grouped.
func (d *Detector) similarNamePass(contacts []models.Contact, claimed []bool) []models.DuplicateGroup {
	remaining := make([]int, 0)
	comparable := make([]int, 0)
	for i := range contacts {
		if claimed[i] {
			continue
		}
		remaining = append(remaining, i)
		if nameKey(&contacts[i]) != "" {
			comparable = append(comparable, i)
		}
	}

	if len(remaining) >= d.config.FuzzySkipThreshold {
		return []models.DuplicateGroup{}
	}

	if len(remaining) < d.config.DirectCompareLimit {
		return d.clusterComparable(contacts, comparable, claimed)
	}

	// Bucket by the lowercase first two name characters and skip buckets
	// at or above the cap.
	prefixes := newIndex()
	for _, pos := range comparable {
		prefixes.add(namePrefix(nameKey(&contacts[pos])), pos)
	}

	groups := make([]models.DuplicateGroup, 0)
	for _, prefix := range prefixes.keys {
		bucket := prefixes.buckets[prefix]
		if len(bucket) >= d.config.BucketCap {
			continue
		}
		groups = append(groups, d.clusterComparable(contacts, bucket, claimed)...)
	}

	return groups
}

// clusterComparable greedily clusters a comparable set: each unclaimed
// record seeds a cluster and accumulates every other unclaimed record that
// passes the similarity acceptance rule. Group confidence is the maximum
// accepted score. Singleton clusters are not emitted and their seed stays
// unclaimed for later seeds.
func (d *Detector) clusterComparable(contacts []models.Contact, positions []int, claimed []bool) []models.DuplicateGroup {
	groups := make([]models.DuplicateGroup, 0)

	for i, seedPos := range positions {
		if claimed[seedPos] {
			continue
		}

		seed := &contacts[seedPos]
		cluster := []int{seedPos}
		maxScore := 0.0

		for j, otherPos := range positions {
			if i == j || claimed[otherPos] {
				continue
			}
			score, ok := d.acceptPair(seed, &contacts[otherPos])
			if !ok {
				continue
			}
			cluster = append(cluster, otherPos)
			claimed[otherPos] = true
			if score > maxScore {
				maxScore = score
			}
		}

		if len(cluster) < 2 {
			continue
		}

		groups = append(groups, claimGroup(contacts, cluster, claimed, models.MatchTypeSimilarName, maxScore))
	}

	return groups
}

// acceptPair applies the fuzzy acceptance rule to a candidate pair and
// returns the similarity score when the pair matches.
func (d *Detector) acceptPair(a, b *models.Contact) (float64, bool) {
	lenDiff := len([]rune(a.FullName)) - len([]rune(b.FullName))
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > d.config.MaxNameLengthDiff {
		return 0, false
	}

	score := similarity.Score(a.FullName, b.FullName)
	if score <= d.config.AcceptThreshold {
		return 0, false
	}
	if score >= d.config.StrongThreshold || sharedOrganization(a, b) {
		return score, true
	}
	return 0, false
}

func sharedOrganization(a, b *models.Contact) bool {
	return a.Organization != "" && a.Organization == b.Organization
}

func namePrefix(name string) string {
	runes := []rune(name)
	if len(runes) < 2 {
		return name
	}
	return string(runes[:2])
}

func unclaimed(positions []int, claimed []bool) []int {
	members := make([]int, 0, len(positions))
	for _, pos := range positions {
		if !claimed[pos] {
			members = append(members, pos)
		}
	}
	return members
}

func claimGroup(contacts []models.Contact, positions []int, claimed []bool, matchType models.MatchType, confidence float64) models.DuplicateGroup {
	members := make([]models.Contact, 0, len(positions))
	for _, pos := range positions {
		claimed[pos] = true
		members = append(members, contacts[pos])
	}
	return models.DuplicateGroup{
		Members:    members,
		MatchType:  matchType,
		Confidence: confidence,
	}
}

func valueSet(values []string, normalizer string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = normalizers.Apply(v, normalizer); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func sharesValue(set map[string]struct{}, values []string, normalizer string) bool {
	for _, v := range values {
		if _, ok := set[normalizers.Apply(v, normalizer)]; ok {
			return true
		}
	}
	return false
}
