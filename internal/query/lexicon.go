package query

import (
	"strings"

	"github.com/savorly/dish-search/internal/models"
)

// BuildCuisineLexicon derives the set of known cuisine terms from the catalog.
// Terms are lowercased; "vegan" and "vegetarian" are always present even when
// no catalog item carries them. Recomputed in full whenever the catalog
// changes.
func BuildCuisineLexicon(items []models.CatalogItem) map[string]bool {
	lexicon := make(map[string]bool, len(items)+2)
	for _, item := range items {
		if c := strings.ToLower(strings.TrimSpace(item.Cuisine)); c != "" {
			lexicon[c] = true
		}
	}
	lexicon["vegan"] = true
	lexicon["vegetarian"] = true
	return lexicon
}
