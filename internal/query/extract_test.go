package query

import (
	"reflect"
	"testing"

	"github.com/savorly/dish-search/internal/config"
)

func defaultExtractor() *Extractor {
	return NewExtractor(config.DefaultConfig().Query)
}

func TestExtractCuisines(t *testing.T) {
	e := defaultExtractor()
	lexicon := map[string]bool{"italian": true, "japanese": true, "thai": true, "vegan": true}

	cases := []struct {
		name string
		text string
		want []string
	}{
		{"single match", "best italian pizza", []string{"italian"}},
		{"multiple sorted", "thai or italian tonight", []string{"italian", "thai"}},
		{"token match only", "italianate decor", nil},
		{"no match", "cheap burgers", nil},
		{"vegan counts as cuisine term", "vegan bowls", []string{"vegan"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.ExtractCuisines(tc.text, lexicon)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExtractCuisines(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestExtractDietaryTags(t *testing.T) {
	e := defaultExtractor()

	cases := []struct {
		name string
		text string
		want []string
	}{
		{"vegan substring", "vegan pizza", []string{"vegan"}},
		{"vegetarian only", "vegetarian lasagna", []string{"vegetarian"}},
		{"hyphen insensitive", "gluten-free bread", []string{"gluten free", "gluten-free"}},
		{"space spelled", "gluten free bread", []string{"gluten free", "gluten-free"}},
		{"none", "double cheeseburger", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.ExtractDietaryTags(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExtractDietaryTags(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestExtractPriceHint(t *testing.T) {
	e := defaultExtractor()

	cases := []struct {
		name string
		text string
		want string
	}{
		{"cheap keyword", "cheap eats", "cheap"},
		{"budget keyword", "budget sushi", "cheap"},
		{"expensive keyword", "premium omakase", "expensive"},
		{"medium keyword", "mid range dinner", "medium"},
		{"cheap wins over expensive", "cheap but fancy", "cheap"},
		{"token membership not substring", "cheapest pizza", ""},
		{"no hint", "pad thai", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.ExtractPriceHint(tc.text); got != tc.want {
				t.Errorf("ExtractPriceHint(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestExpandSynonyms(t *testing.T) {
	e := defaultExtractor()

	cases := []struct {
		name string
		text string
		want []string
	}{
		{"vegan", "vegan pizza", []string{"plant based", "plant-based"}},
		{
			// "vegetarian" contains "vegan"? It does not, but it does
			// trigger the vegetarian entry on its own.
			"vegetarian", "vegetarian pasta", []string{"veggie"},
		},
		{"cheap", "cheap eats", []string{"budget", "affordable"}},
		{
			"declaration order across terms", "cheap vegan lunch",
			[]string{"plant based", "plant-based", "budget", "affordable"},
		},
		{"substring trigger", "cheaper by the dozen", []string{"budget", "affordable"}},
		{"none", "plain noodles", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.ExpandSynonyms(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExpandSynonyms(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
