package query

import (
	"fmt"

	"github.com/savorly/dish-search/internal/config"
	"github.com/savorly/dish-search/internal/models"
	"github.com/savorly/dish-search/internal/spell"
)

// Understander orchestrates normalization, spell correction, intent
// classification and entity extraction into one immutable UnderstoodQuery.
type Understander struct {
	corrector  spell.Corrector
	classifier *IntentClassifier
	extractor  *Extractor
	lexicon    map[string]bool
}

// NewUnderstander wires the understanding pipeline. All collaborators are
// required; a missing one is a configuration error, not something to paper
// over at query time.
func NewUnderstander(
	corrector spell.Corrector,
	classifier *IntentClassifier,
	extractor *Extractor,
	lexicon map[string]bool,
) (*Understander, error) {
	if corrector == nil {
		return nil, fmt.Errorf("understander: spell corrector required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("understander: intent classifier required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("understander: extractor required")
	}
	return &Understander{
		corrector:  corrector,
		classifier: classifier,
		extractor:  extractor,
		lexicon:    lexicon,
	}, nil
}

// NewDefaultUnderstander builds an Understander from configuration with the
// given lexicon and a vocabulary-backed spell corrector.
func NewDefaultUnderstander(cfg config.QueryConfig, lexicon map[string]bool, vocab []string) (*Understander, error) {
	return NewUnderstander(
		spell.NewDictionaryCorrector(vocab, cfg.SpellMaxEdits),
		NewIntentClassifierWithDefault(cfg.DefaultIntent),
		NewExtractor(cfg),
		lexicon,
	)
}

// Classifier exposes the intent classifier for training.
func (u *Understander) Classifier() *IntentClassifier {
	return u.classifier
}

// SetLexicon swaps the cuisine lexicon, e.g. after a catalog refresh.
func (u *Understander) SetLexicon(lexicon map[string]bool) {
	u.lexicon = lexicon
}

// Understand runs normalize, correct, classify and the four extractions, in
// that order. Every extraction reads the corrected text, so a no-op spell
// correction propagates unchanged.
func (u *Understander) Understand(raw string) *models.UnderstoodQuery {
	normalized := Normalize(raw)
	corrected := u.corrector.Correct(normalized)
	intent := u.classifier.Predict([]string{corrected})[0]

	return &models.UnderstoodQuery{
		Raw:         raw,
		Normalized:  normalized,
		Corrected:   corrected,
		Intent:      intent,
		Cuisines:    u.extractor.ExtractCuisines(corrected, u.lexicon),
		Expansions:  u.extractor.ExpandSynonyms(corrected),
		DietaryTags: u.extractor.ExtractDietaryTags(corrected),
		PriceHint:   u.extractor.ExtractPriceHint(corrected),
	}
}
