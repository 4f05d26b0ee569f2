package matching

import (
	"sort"
	"strings"

	"github.com/carefinder/backend/internal/domain/entities"
)

// Token overlap below this count is not considered a match; short connector
// words are not discriminative either.
const (
	minOverlapTokens = 2
	minTokenLength   = 4
)

// Matcher resolves a place-search candidate to at most one live-feed record.
// Two tiers, first tier wins: the curated institution alias table, then a
// token-overlap heuristic over normalized names.
type Matcher struct {
	normalizer *Normalizer
	aliasKeys  []string
	aliases    map[string][]string
}

// NewMatcher creates a matcher; alias substrings are normalized once up front.
func NewMatcher(tables *Tables, normalizer *Normalizer) *Matcher {
	aliases := make(map[string][]string, len(tables.HospitalAliases))
	aliasKeys := make([]string, 0, len(tables.HospitalAliases))

	for key, list := range tables.HospitalAliases {
		normalized := make([]string, 0, len(list))
		for _, alias := range list {
			if n := normalizer.NormalizePlace(alias); n != "" {
				normalized = append(normalized, n)
			}
		}
		aliases[key] = normalized
		aliasKeys = append(aliasKeys, key)
	}
	// Map iteration order is random; keep tier-1 deterministic.
	sort.Strings(aliasKeys)

	return &Matcher{
		normalizer: normalizer,
		aliasKeys:  aliasKeys,
		aliases:    aliases,
	}
}

// Match returns the live-feed record for the facility, or nil when neither
// tier finds one. A nil result is a normal outcome, not an error; the caller
// treats it as estimated provenance.
func (m *Matcher) Match(facility entities.Facility, records []entities.LiveFeedRecord) *entities.LiveFeedRecord {
	if len(records) == 0 {
		return nil
	}

	normalized := m.normalizer.NormalizePlace(facility.Name)
	if normalized == "" {
		return nil
	}

	if rec := m.matchByAlias(normalized, records); rec != nil {
		return rec
	}

	return m.matchByTokenOverlap(normalized, records)
}

// matchByAlias checks the curated alias table: if the facility name contains
// any alias for an institution, the first record containing any alias for
// that same institution wins.
func (m *Matcher) matchByAlias(normalizedName string, records []entities.LiveFeedRecord) *entities.LiveFeedRecord {
	for _, key := range m.aliasKeys {
		aliasList := m.aliases[key]
		if !containsAnySubstring(normalizedName, aliasList) {
			continue
		}
		for i := range records {
			if containsAnySubstring(records[i].NormalizedName, aliasList) {
				return &records[i]
			}
		}
	}
	return nil
}

// matchByTokenOverlap tokenizes the facility name and counts how many
// significant tokens appear in each record's normalized name. The first
// record in feed order reaching the floor wins; there is deliberately no
// best-overlap tie-break (see DESIGN.md).
func (m *Matcher) matchByTokenOverlap(normalizedName string, records []entities.LiveFeedRecord) *entities.LiveFeedRecord {
	var tokens []string
	for _, token := range strings.Fields(normalizedName) {
		if len(token) >= minTokenLength {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) < minOverlapTokens {
		return nil
	}

	for i := range records {
		overlap := 0
		for _, token := range tokens {
			if strings.Contains(records[i].NormalizedName, token) {
				overlap++
			}
		}
		if overlap >= minOverlapTokens {
			return &records[i]
		}
	}

	return nil
}

func containsAnySubstring(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
