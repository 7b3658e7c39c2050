package rerank

import (
	"fmt"
	"sort"

	"github.com/savorly/dish-search/internal/catalog"
	"github.com/savorly/dish-search/internal/config"
	"github.com/savorly/dish-search/internal/models"
	"github.com/savorly/dish-search/internal/observability"
)

// Reranker applies the business scoring rules as the final pipeline stage:
// a vegan boost when the query asks for vegan results, and a diversity
// penalty for repeated cuisines.
type Reranker struct {
	veganBoost       float64
	diversityPenalty float64
}

func New(cfg config.RerankConfig) *Reranker {
	return &Reranker{
		veganBoost:       cfg.VeganBoost,
		diversityPenalty: cfg.DiversityPenalty,
	}
}

// Apply adjusts candidate scores and returns a new slice sorted by score
// descending. Equal scores keep the adjusted input order. The diversity
// penalty walks candidates in input order: the first candidate of each
// cuisine passes free, later ones pay the penalty, so the penalty depends on
// the order candidates arrive in, not on the final order.
//
// Every candidate must resolve in the item set; a miss means the retrieval
// and catalog stores disagree, and the whole call fails with a wrapped
// catalog.ErrItemNotFound rather than guessing.
func (r *Reranker) Apply(
	candidates []models.Candidate,
	query *models.UnderstoodQuery,
	items map[string]models.CatalogItem,
) ([]models.Candidate, error) {
	wantsVegan := query != nil && query.WantsVegan()

	adjusted := make([]models.Candidate, 0, len(candidates))
	seenCuisines := make(map[string]bool)

	for _, cand := range candidates {
		item, ok := items[cand.ItemID]
		if !ok {
			return nil, fmt.Errorf("reranking %q: %w", cand.ItemID, catalog.ErrItemNotFound)
		}

		score := cand.Score
		if wantsVegan && item.VeganFriendly {
			score += r.veganBoost
			observability.RerankAdjustmentsTotal.WithLabelValues("vegan_boost").Inc()
		}
		if item.Cuisine != "" {
			if seenCuisines[item.Cuisine] {
				score -= r.diversityPenalty
				observability.RerankAdjustmentsTotal.WithLabelValues("diversity_penalty").Inc()
			}
			seenCuisines[item.Cuisine] = true
		}

		adjusted = append(adjusted, models.Candidate{ItemID: cand.ItemID, Score: score})
	}

	sort.SliceStable(adjusted, func(i, j int) bool {
		return adjusted[i].Score > adjusted[j].Score
	})
	return adjusted, nil
}
