package query

import (
	"fmt"
	"math"
	"sort"
)

// DefaultIntent is returned by an untrained classifier for every input. The
// pipeline never blocks on missing training data; it stays permissive and
// routes everything as a product search until Fit succeeds.
const DefaultIntent = "product_search"

// IntentClassifier is a bag-of-n-grams multinomial naive Bayes text
// classifier. It is a two-state machine: before Fit it answers its default
// label for every input; after a successful Fit it answers the learned label.
// Prediction is deterministic: equal posteriors break ties toward the
// lexicographically smaller label.
type IntentClassifier struct {
	fitted       bool
	defaultLabel string

	labels      []string           // sorted
	labelDocs   map[string]int     // documents per label
	totalDocs   int
	labelTokens map[string]int             // total feature count per label
	counts      map[string]map[string]int  // label -> feature -> count
	vocab       map[string]bool
}

func NewIntentClassifier() *IntentClassifier {
	return NewIntentClassifierWithDefault(DefaultIntent)
}

// NewIntentClassifierWithDefault sets the label an untrained classifier
// answers with, e.g. from deployment configuration. Empty falls back to
// DefaultIntent.
func NewIntentClassifierWithDefault(defaultLabel string) *IntentClassifier {
	if defaultLabel == "" {
		defaultLabel = DefaultIntent
	}
	return &IntentClassifier{
		defaultLabel: defaultLabel,
		labelDocs:    make(map[string]int),
		labelTokens:  make(map[string]int),
		counts:       make(map[string]map[string]int),
		vocab:        make(map[string]bool),
	}
}

// Fitted reports whether the classifier has been trained.
func (c *IntentClassifier) Fitted() bool {
	return c.fitted
}

// Fit trains the classifier on parallel slices of texts and labels.
// Empty or mismatched-length inputs are rejected before any state changes.
func (c *IntentClassifier) Fit(texts, labels []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("intent training: no training examples")
	}
	if len(texts) != len(labels) {
		return fmt.Errorf("intent training: %d texts but %d labels", len(texts), len(labels))
	}

	labelDocs := make(map[string]int)
	labelTokens := make(map[string]int)
	counts := make(map[string]map[string]int)
	vocab := make(map[string]bool)

	for i, text := range texts {
		label := labels[i]
		labelDocs[label]++
		if counts[label] == nil {
			counts[label] = make(map[string]int)
		}
		for _, f := range ngramFeatures(text) {
			counts[label][f]++
			labelTokens[label]++
			vocab[f] = true
		}
	}

	labelList := make([]string, 0, len(labelDocs))
	for label := range labelDocs {
		labelList = append(labelList, label)
	}
	sort.Strings(labelList)

	c.labels = labelList
	c.labelDocs = labelDocs
	c.totalDocs = len(texts)
	c.labelTokens = labelTokens
	c.counts = counts
	c.vocab = vocab
	c.fitted = true
	return nil
}

// Predict returns one label per query, in input order. Untrained classifiers
// return their default label for every input.
func (c *IntentClassifier) Predict(queries []string) []string {
	out := make([]string, len(queries))
	if !c.fitted {
		for i := range out {
			out[i] = c.defaultLabel
		}
		return out
	}
	for i, q := range queries {
		out[i] = c.predictOne(q)
	}
	return out
}

func (c *IntentClassifier) predictOne(text string) string {
	features := ngramFeatures(text)
	vocabSize := float64(len(c.vocab))

	best := c.labels[0]
	bestScore := math.Inf(-1)

	// Iterating the sorted label list keeps argmax ties deterministic.
	for _, label := range c.labels {
		score := math.Log(float64(c.labelDocs[label]) / float64(c.totalDocs))
		denom := float64(c.labelTokens[label]) + vocabSize
		for _, f := range features {
			if !c.vocab[f] {
				continue
			}
			score += math.Log((float64(c.counts[label][f]) + 1) / denom)
		}
		if score > bestScore {
			best = label
			bestScore = score
		}
	}
	return best
}

// ngramFeatures extracts unigram and bigram features from the normalized text.
func ngramFeatures(text string) []string {
	tokens := Tokens(text)
	features := make([]string, 0, 2*len(tokens))
	features = append(features, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		features = append(features, tokens[i]+" "+tokens[i+1])
	}
	return features
}
