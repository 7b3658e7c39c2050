package query

import (
	"testing"

	"github.com/savorly/dish-search/internal/models"
)

func TestBuildCuisineLexicon(t *testing.T) {
	items := []models.CatalogItem{
		{ItemID: "1", Name: "Margherita", Cuisine: "Italian"},
		{ItemID: "2", Name: "Nigiri", Cuisine: "  Japanese "},
		{ItemID: "3", Name: "Carbonara", Cuisine: "italian"},
		{ItemID: "4", Name: "Mystery Bowl", Cuisine: ""},
	}
	lex := BuildCuisineLexicon(items)

	for _, want := range []string{"italian", "japanese", "vegan", "vegetarian"} {
		if !lex[want] {
			t.Errorf("lexicon missing %q", want)
		}
	}
	if len(lex) != 4 {
		t.Errorf("lexicon has %d entries, want 4: %v", len(lex), lex)
	}
}

func TestBuildCuisineLexiconEmpty(t *testing.T) {
	lex := BuildCuisineLexicon(nil)
	if !lex["vegan"] || !lex["vegetarian"] {
		t.Errorf("dietary terms must always be present: %v", lex)
	}
	if len(lex) != 2 {
		t.Errorf("empty catalog lexicon has %d entries, want 2", len(lex))
	}
}
