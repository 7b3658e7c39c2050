package profile

import (
	"math"

	"github.com/savorly/dish-search/internal/models"
)

// UserProfile aggregates one user's interaction history into the three
// signals personalization reads: cuisine affinity weights, an average price
// preference and per-item bias.
type UserProfile struct {
	// CuisineWeights maps cuisine name to a weight. Weights over a user's
	// interacted cuisines sum to 1 unless the user has no cuisine signal.
	CuisineWeights map[string]float64 `json:"cuisine_weights"`
	// PricePref is the mean interacted price bucket on the 0..2 scale.
	PricePref float64 `json:"price_pref"`
	// ItemBias maps item id to accumulated relevance for that item.
	ItemBias map[string]float64 `json:"item_bias"`
	// Interactions counts the records the profile was built from.
	Interactions int `json:"interactions"`
}

// Snapshot is an immutable view of every user profile at one build instant.
// Readers share snapshots freely; a rebuild produces a fresh one.
type Snapshot struct {
	Users   map[string]*UserProfile
	Version int64
}

// EmptySnapshot is what readers see before the first build completes.
func EmptySnapshot() *Snapshot {
	return &Snapshot{Users: map[string]*UserProfile{}}
}

// Profile returns the user's profile, or nil for unknown users.
func (s *Snapshot) Profile(userID string) *UserProfile {
	if s == nil {
		return nil
	}
	return s.Users[userID]
}

// CuisineScore returns the user's affinity for a cuisine, zero for unknown
// users or unseen cuisines.
func (s *Snapshot) CuisineScore(userID, cuisine string) float64 {
	p := s.Profile(userID)
	if p == nil {
		return 0
	}
	return p.CuisineWeights[cuisine]
}

// PriceAffinity scores how closely an item's price bucket matches the user's
// preference, on a 0..1 scale. The distance between adjacent buckets costs
// half the affinity; opposite ends of the scale score zero. Unknown users
// score zero so personalization stays a strict no-op for them.
func (s *Snapshot) PriceAffinity(userID string, bucket models.PriceBucket) float64 {
	p := s.Profile(userID)
	if p == nil {
		return 0
	}
	affinity := 1 - math.Abs(p.PricePref-float64(bucket))/2
	if affinity < 0 {
		return 0
	}
	return affinity
}

// ItemBias returns the accumulated relevance the user has shown the item.
func (s *Snapshot) ItemBias(userID, itemID string) float64 {
	p := s.Profile(userID)
	if p == nil {
		return 0
	}
	return p.ItemBias[itemID]
}
