package query

import (
	"sort"
	"strings"

	"github.com/savorly/dish-search/internal/config"
)

// Extractor runs the four entity sub-extractions over corrected query text.
// All keyword tables are configuration data so the priority and tie-break
// rules stay auditable.
type Extractor struct {
	synonyms    []config.SynonymEntry
	dietaryTags []string
	priceGroups []config.PriceKeywordGroup
}

func NewExtractor(cfg config.QueryConfig) *Extractor {
	return &Extractor{
		synonyms:    cfg.Synonyms,
		dietaryTags: cfg.DietaryTags,
		priceGroups: cfg.PriceGroups,
	}
}

// ExtractCuisines returns the cuisine terms from the lexicon whose name
// appears as a token of text. Output is sorted; cuisine matching is a set
// operation, so order carries no meaning.
func (e *Extractor) ExtractCuisines(text string, lexicon map[string]bool) []string {
	tokens := TokenSet(text)
	var matched []string
	for cuisine := range lexicon {
		if tokens[cuisine] {
			matched = append(matched, cuisine)
		}
	}
	sort.Strings(matched)
	return matched
}

// ExtractDietaryTags returns every configured dietary tag present in text.
// Matching is hyphen-insensitive: the tag is compared with hyphens replaced
// by spaces against the normalized text, but the configured spelling is what
// gets reported.
func (e *Extractor) ExtractDietaryTags(text string) []string {
	normalized := Normalize(text)
	var tags []string
	for _, tag := range e.dietaryTags {
		needle := strings.ReplaceAll(tag, "-", " ")
		if strings.Contains(normalized, needle) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ExtractPriceHint tests the configured keyword groups in order and returns
// the hint of the first group with a token match. With the default
// configuration a query matching both cheap- and expensive-keywords resolves
// to "cheap". Returns empty when no group matches.
func (e *Extractor) ExtractPriceHint(text string) string {
	tokens := TokenSet(text)
	for _, group := range e.priceGroups {
		for _, kw := range group.Keywords {
			if tokens[kw] {
				return group.Hint
			}
		}
	}
	return ""
}

// ExpandSynonyms walks the synonym entries in declaration order and, for each
// canonical term contained in text, appends all of its variants. Variants are
// not deduplicated across different canonical terms.
func (e *Extractor) ExpandSynonyms(text string) []string {
	lowered := strings.ToLower(text)
	var expansions []string
	for _, entry := range e.synonyms {
		if strings.Contains(lowered, entry.Term) {
			expansions = append(expansions, entry.Synonyms...)
		}
	}
	return expansions
}
