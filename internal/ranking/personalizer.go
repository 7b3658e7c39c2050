package ranking

import (
	"sort"

	"github.com/savorly/dish-search/internal/config"
	"github.com/savorly/dish-search/internal/models"
	"github.com/savorly/dish-search/internal/profile"
)

// Personalizer blends per-user profile signals into retrieval scores. It sits
// between retrieval and the business-rule reranker, so the reranker's rules
// always win over personal taste.
type Personalizer struct {
	cuisineWeight float64
	priceWeight   float64
	biasWeight    float64
}

func NewPersonalizer(cfg config.PersonalizeConfig) *Personalizer {
	return &Personalizer{
		cuisineWeight: cfg.CuisineWeight,
		priceWeight:   cfg.PriceWeight,
		biasWeight:    cfg.BiasWeight,
	}
}

// Apply returns a new candidate slice with personalized scores, sorted
// descending with ties keeping input order. An empty user id, a nil snapshot
// or a user absent from the snapshot all degrade to a plain copy: anonymous
// and unseen users see unpersonalized results, never an error.
func (p *Personalizer) Apply(
	candidates []models.Candidate,
	userID string,
	snap *profile.Snapshot,
	items map[string]models.CatalogItem,
) []models.Candidate {
	out := make([]models.Candidate, len(candidates))
	copy(out, candidates)

	if userID != "" && snap.Profile(userID) != nil {
		for i := range out {
			item, ok := items[out[i].ItemID]
			if !ok {
				continue
			}
			bucket := models.ParsePriceBucket(item.PriceRange)
			out[i].Score += p.cuisineWeight * snap.CuisineScore(userID, item.Cuisine)
			out[i].Score += p.priceWeight * snap.PriceAffinity(userID, bucket)
			out[i].Score += p.biasWeight * snap.ItemBias(userID, out[i].ItemID)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
