package spell

// Corrector fixes likely typos in an already-normalized query string.
type Corrector interface {
	Correct(text string) string
}

// Noop returns queries unchanged. Useful when no vocabulary is available.
type Noop struct{}

func (Noop) Correct(text string) string { return text }
