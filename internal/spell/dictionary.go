package spell

import "strings"

// DictionaryCorrector corrects tokens against a known vocabulary. A token
// already in the vocabulary is kept as-is; otherwise the closest vocabulary
// word within maxEdits replaces it. Ties break on higher frequency, then
// lexicographic order, so corrections are deterministic.
type DictionaryCorrector struct {
	freq     map[string]int
	words    []string
	maxEdits int
}

// NewDictionaryCorrector builds a corrector from a word list. Duplicate
// entries raise a word's frequency, which biases tie-breaking toward it.
func NewDictionaryCorrector(vocab []string, maxEdits int) *DictionaryCorrector {
	if maxEdits <= 0 {
		maxEdits = 2
	}
	freq := make(map[string]int, len(vocab))
	words := make([]string, 0, len(vocab))
	for _, w := range vocab {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := freq[w]; !ok {
			words = append(words, w)
		}
		freq[w]++
	}
	return &DictionaryCorrector{freq: freq, words: words, maxEdits: maxEdits}
}

// Correct fixes each whitespace-separated token independently.
func (c *DictionaryCorrector) Correct(text string) string {
	if len(c.words) == 0 {
		return text
	}
	tokens := strings.Fields(text)
	changed := false
	for i, tok := range tokens {
		fixed := c.correctToken(tok)
		if fixed != tok {
			tokens[i] = fixed
			changed = true
		}
	}
	if !changed {
		return text
	}
	return strings.Join(tokens, " ")
}

func (c *DictionaryCorrector) correctToken(tok string) string {
	if _, ok := c.freq[tok]; ok {
		return tok
	}
	best := tok
	bestDist := c.maxEdits + 1
	bestFreq := 0
	for _, w := range c.words {
		// Length difference is a cheap lower bound on edit distance.
		if diff := len(w) - len(tok); diff > c.maxEdits || -diff > c.maxEdits {
			continue
		}
		d := Distance(tok, w)
		if d > c.maxEdits {
			continue
		}
		f := c.freq[w]
		if d < bestDist || (d == bestDist && (f > bestFreq || (f == bestFreq && w < best))) {
			best = w
			bestDist = d
			bestFreq = f
		}
	}
	if bestDist > c.maxEdits {
		return tok
	}
	return best
}

// VocabularyFromNames splits catalog names and cuisines into a flat word list
// suitable for NewDictionaryCorrector.
func VocabularyFromNames(names ...[]string) []string {
	var out []string
	for _, group := range names {
		for _, name := range group {
			out = append(out, strings.Fields(strings.ToLower(name))...)
		}
	}
	return out
}
