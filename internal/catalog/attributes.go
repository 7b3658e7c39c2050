package catalog

import (
	"strings"

	"github.com/savorly/dish-search/internal/models"
)

// Attributes are dish signals derived from the free-text description.
type Attributes struct {
	VeganFriendly bool
	GlutenFree    bool
	Category      string
}

// ExtractAttributes derives attributes from a description with keyword
// heuristics. Category checks run in a fixed order and the last match wins.
func ExtractAttributes(description string) Attributes {
	text := strings.ToLower(description)
	var attrs Attributes

	if containsAny(text, "vegan", "plant") {
		attrs.VeganFriendly = true
	}
	if strings.Contains(text, "gluten") {
		attrs.GlutenFree = true
	}
	if containsAny(text, "seafood", "fish", "lobster") {
		attrs.Category = "seafood"
	}
	if containsAny(text, "sushi", "japanese") {
		attrs.Category = "japanese"
	}
	if containsAny(text, "pizza", "pasta", "italian") {
		attrs.Category = "italian"
	}
	return attrs
}

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// normalizeItem canonicalizes an item at the store boundary: the cuisine is
// lowercased so it compares equal to extracted query cuisines, and gaps in
// the stored flags are filled from the description-derived attributes.
func normalizeItem(item models.CatalogItem) models.CatalogItem {
	item.Cuisine = strings.ToLower(strings.TrimSpace(item.Cuisine))

	attrs := ExtractAttributes(item.Description)
	if attrs.VeganFriendly {
		item.VeganFriendly = true
	}
	if attrs.GlutenFree {
		item.GlutenFree = true
	}
	if item.Cuisine == "" {
		item.Cuisine = attrs.Category
	}
	return item
}
