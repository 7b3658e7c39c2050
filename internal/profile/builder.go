package profile

import (
	"time"

	"github.com/savorly/dish-search/internal/models"
)

// Build aggregates interaction history into a fresh Snapshot. It is a pure
// function of its inputs: no I/O, no clock reads beyond the version stamp.
//
// Per interaction: relevance accrues to the item's cuisine weight and to the
// item bias, and the item's price bucket feeds the user's price preference
// average. An interaction against an item missing from the catalog still
// counts for bias and contributes a medium price bucket, but carries no
// cuisine signal.
func Build(interactions []models.Interaction, items map[string]models.CatalogItem) *Snapshot {
	type acc struct {
		cuisine      map[string]float64
		cuisineTotal float64
		bucketSum    float64
		bucketCount  int
		bias         map[string]float64
		count        int
	}
	users := make(map[string]*acc)

	for _, in := range interactions {
		a := users[in.UserID]
		if a == nil {
			a = &acc{cuisine: map[string]float64{}, bias: map[string]float64{}}
			users[in.UserID] = a
		}
		a.count++
		a.bias[in.ItemID] += in.Relevance

		item, known := items[in.ItemID]
		bucket := models.PriceMedium
		if known {
			bucket = models.ParsePriceBucket(item.PriceRange)
			if item.Cuisine != "" {
				a.cuisine[item.Cuisine] += in.Relevance
				a.cuisineTotal += in.Relevance
			}
		}
		a.bucketSum += float64(bucket)
		a.bucketCount++
	}

	snap := &Snapshot{
		Users:   make(map[string]*UserProfile, len(users)),
		Version: time.Now().UnixNano(),
	}
	for userID, a := range users {
		p := &UserProfile{
			CuisineWeights: make(map[string]float64, len(a.cuisine)),
			ItemBias:       a.bias,
			Interactions:   a.count,
			PricePref:      float64(models.PriceMedium),
		}
		if a.cuisineTotal > 0 {
			for cuisine, sum := range a.cuisine {
				p.CuisineWeights[cuisine] = sum / a.cuisineTotal
			}
		}
		if a.bucketCount > 0 {
			p.PricePref = a.bucketSum / float64(a.bucketCount)
		}
		snap.Users[userID] = p
	}
	return snap
}
