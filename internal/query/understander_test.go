package query

import (
	"reflect"
	"strings"
	"testing"

	"github.com/savorly/dish-search/internal/config"
	"github.com/savorly/dish-search/internal/spell"
)

func TestNewUnderstanderValidation(t *testing.T) {
	cfg := config.DefaultConfig().Query
	ext := NewExtractor(cfg)
	cls := NewIntentClassifier()

	cases := []struct {
		name       string
		corrector  spell.Corrector
		classifier *IntentClassifier
		extractor  *Extractor
		wantErr    string
	}{
		{"nil corrector", nil, cls, ext, "spell corrector"},
		{"nil classifier", spell.Noop{}, nil, ext, "intent classifier"},
		{"nil extractor", spell.Noop{}, cls, nil, "extractor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewUnderstander(tc.corrector, tc.classifier, tc.extractor, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}

	if _, err := NewUnderstander(spell.Noop{}, cls, ext, nil); err != nil {
		t.Fatalf("all collaborators present, got error: %v", err)
	}
}

func TestUnderstand(t *testing.T) {
	cfg := config.DefaultConfig().Query
	lexicon := map[string]bool{"italian": true, "mexican": true, "vegan": true, "vegetarian": true}
	u, err := NewUnderstander(spell.Noop{}, NewIntentClassifier(), NewExtractor(cfg), lexicon)
	if err != nil {
		t.Fatalf("NewUnderstander: %v", err)
	}

	got := u.Understand("Vegan, CHEAP tacos!")

	if got.Raw != "Vegan, CHEAP tacos!" {
		t.Errorf("Raw = %q", got.Raw)
	}
	if got.Normalized != "vegan cheap tacos" {
		t.Errorf("Normalized = %q", got.Normalized)
	}
	if got.Corrected != got.Normalized {
		t.Errorf("no-op correction changed text: %q", got.Corrected)
	}
	if got.Intent != DefaultIntent {
		t.Errorf("Intent = %q, want %q", got.Intent, DefaultIntent)
	}
	if want := []string{"vegan"}; !reflect.DeepEqual(got.Cuisines, want) {
		t.Errorf("Cuisines = %v, want %v", got.Cuisines, want)
	}
	if want := []string{"plant based", "plant-based", "budget", "affordable"}; !reflect.DeepEqual(got.Expansions, want) {
		t.Errorf("Expansions = %v, want %v", got.Expansions, want)
	}
	if want := []string{"vegan"}; !reflect.DeepEqual(got.DietaryTags, want) {
		t.Errorf("DietaryTags = %v, want %v", got.DietaryTags, want)
	}
	if got.PriceHint != "cheap" {
		t.Errorf("PriceHint = %q, want %q", got.PriceHint, "cheap")
	}
	if !got.WantsVegan() {
		t.Error("WantsVegan() = false")
	}
}

func TestNewDefaultUnderstanderConfiguredIntent(t *testing.T) {
	cfg := config.DefaultConfig().Query
	cfg.DefaultIntent = "menu_browse"
	u, err := NewDefaultUnderstander(cfg, map[string]bool{"vegan": true, "vegetarian": true}, nil)
	if err != nil {
		t.Fatalf("NewDefaultUnderstander: %v", err)
	}
	if got := u.Understand("tacos").Intent; got != "menu_browse" {
		t.Errorf("Intent = %q, want configured %q", got, "menu_browse")
	}
}

func TestUnderstandRunsExtractionOnCorrectedText(t *testing.T) {
	cfg := config.DefaultConfig().Query
	lexicon := map[string]bool{"italian": true, "vegan": true, "vegetarian": true}
	corrector := spell.NewDictionaryCorrector([]string{"vegan", "pizza", "italian"}, 2)
	u, err := NewUnderstander(corrector, NewIntentClassifier(), NewExtractor(cfg), lexicon)
	if err != nil {
		t.Fatalf("NewUnderstander: %v", err)
	}

	got := u.Understand("vegn piza")
	if got.Corrected != "vegan pizza" {
		t.Fatalf("Corrected = %q, want %q", got.Corrected, "vegan pizza")
	}
	if want := []string{"vegan"}; !reflect.DeepEqual(got.DietaryTags, want) {
		t.Errorf("DietaryTags from corrected text = %v, want %v", got.DietaryTags, want)
	}
	if want := []string{"plant based", "plant-based"}; !reflect.DeepEqual(got.Expansions, want) {
		t.Errorf("Expansions from corrected text = %v, want %v", got.Expansions, want)
	}
}

func TestUnderstandPlantBasedIsNotVegan(t *testing.T) {
	cfg := config.DefaultConfig().Query
	lexicon := map[string]bool{"mexican": true, "vegan": true, "vegetarian": true}
	u, err := NewUnderstander(spell.Noop{}, NewIntentClassifier(), NewExtractor(cfg), lexicon)
	if err != nil {
		t.Fatalf("NewUnderstander: %v", err)
	}

	// Expansion is one-directional: "plant based" does not map back to the
	// vegan tag, so no dietary tag and no expansions fire here.
	got := u.Understand("plant based tacos")
	if len(got.DietaryTags) != 0 {
		t.Errorf("DietaryTags = %v, want none", got.DietaryTags)
	}
	if len(got.Expansions) != 0 {
		t.Errorf("Expansions = %v, want none", got.Expansions)
	}
	if got.WantsVegan() {
		t.Error("WantsVegan() = true for plant based phrasing")
	}
}
