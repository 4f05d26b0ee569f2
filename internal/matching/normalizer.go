package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer canonicalizes facility names so two spellings of the same
// institution compare equal or near-equal. Both variants share a single core
// (casing, diacritics, apostrophes, filler words, articles); they differ only
// in the rewrite table layered on top, so the two call sites stay consistent.
type Normalizer struct {
	tables *Tables
}

// NewNormalizer creates a normalizer over the given matching tables.
func NewNormalizer(tables *Tables) *Normalizer {
	return &Normalizer{tables: tables}
}

// NormalizePlace canonicalizes a name coming from the place-search provider.
func (n *Normalizer) NormalizePlace(raw string) string {
	return n.normalize(raw, n.tables.PlaceNameRewrites)
}

// NormalizeFeed canonicalizes a name coming from the live occupancy feed,
// which favors institutional long forms that collapse to common acronyms.
func (n *Normalizer) NormalizeFeed(raw string) string {
	return n.normalize(raw, n.tables.FeedNameRewrites)
}

// normalize is the shared core. It is idempotent: every pass maps normalized
// output back to itself.
func (n *Normalizer) normalize(raw string, rewrites []Rewrite) string {
	s := strings.ToUpper(raw)
	s = stripDiacritics(s)
	s = unifyApostrophes(s)
	s = collapseWhitespace(s)

	// Ordered find/replace passes; long-form institution names must rewrite
	// before their shorter prefixes.
	for _, rw := range rewrites {
		s = strings.ReplaceAll(s, rw.From, rw.To)
	}

	s = n.stripFillerWords(s)

	return collapseWhitespace(s)
}

// stripFillerWords drops generic tokens (hospital, center) and leading
// articles that carry no discriminative value.
func (n *Normalizer) stripFillerWords(s string) string {
	tokens := strings.Fields(s)
	kept := make([]string, 0, len(tokens))

	for _, token := range tokens {
		for _, prefix := range n.tables.ArticlePrefixes {
			for strings.HasPrefix(token, prefix) {
				token = strings.TrimPrefix(token, prefix)
			}
		}
		if token == "" || containsString(n.tables.FillerWords, token) || containsString(n.tables.Articles, token) {
			continue
		}
		kept = append(kept, token)
	}

	return strings.Join(kept, " ")
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func unifyApostrophes(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '’', '‘', '`', '´':
			return '\''
		}
		return r
	}, s)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
