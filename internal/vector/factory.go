package vector

import (
	"fmt"

	"github.com/savorly/dish-search/internal/config"
)

// New selects the similarity backend. "elasticsearch" requires a kNN-capable
// searcher and fails without one; "memory" always builds a fresh in-process
// index; an empty backend prefers the kNN searcher when available and falls
// back to memory otherwise. Any other value is a configuration error.
func New(cfg config.VectorConfig, knn Searcher) (Searcher, error) {
	switch cfg.Backend {
	case "elasticsearch":
		if knn == nil {
			return nil, fmt.Errorf("vector backend %q configured but no elasticsearch searcher available", cfg.Backend)
		}
		return knn, nil
	case "memory":
		return NewMemoryIndex(cfg.Dimensions), nil
	case "":
		if knn != nil {
			return knn, nil
		}
		return NewMemoryIndex(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q (want elasticsearch, memory or empty)", cfg.Backend)
	}
}
