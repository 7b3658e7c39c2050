package models

import "time"

// PriceBucket is the ordinal price scale used for price affinity.
type PriceBucket int

const (
	PriceCheap     PriceBucket = 0
	PriceMedium    PriceBucket = 1
	PriceExpensive PriceBucket = 2
)

func (p PriceBucket) String() string {
	switch p {
	case PriceCheap:
		return "cheap"
	case PriceMedium:
		return "medium"
	case PriceExpensive:
		return "expensive"
	default:
		return "medium"
	}
}

// ParsePriceBucket maps a catalog price_range string to its ordinal bucket.
// Unrecognized values map to medium.
func ParsePriceBucket(s string) PriceBucket {
	switch s {
	case "cheap":
		return PriceCheap
	case "medium":
		return PriceMedium
	case "expensive":
		return PriceExpensive
	default:
		return PriceMedium
	}
}

// UnderstoodQuery is the immutable output of the query understanding stage.
// Normalized is lowercase, alphanumeric-and-space only, single-spaced;
// Corrected derives solely from Normalized. Cuisines and DietaryTags are
// subsets of the configured lexicon and tag set.
type UnderstoodQuery struct {
	Raw         string   `json:"raw"`
	Normalized  string   `json:"normalized"`
	Corrected   string   `json:"corrected"`
	Intent      string   `json:"intent"`
	Cuisines    []string `json:"cuisines"`
	Expansions  []string `json:"expansions"`
	DietaryTags []string `json:"dietary_tags"`
	PriceHint   string   `json:"price_hint,omitempty"` // "cheap", "medium", "expensive" or empty
}

// WantsVegan reports whether the query asks for vegan results, either as a
// cuisine entity or a dietary tag.
func (q *UnderstoodQuery) WantsVegan() bool {
	for _, c := range q.Cuisines {
		if c == "vegan" {
			return true
		}
	}
	for _, t := range q.DietaryTags {
		if t == "vegan" {
			return true
		}
	}
	return false
}

// CatalogItem is read-only reference data describing one dish.
type CatalogItem struct {
	ItemID        string `json:"item_id"`
	Name          string `json:"name"`
	Cuisine       string `json:"cuisine"`
	PriceRange    string `json:"price_range"`
	VeganFriendly bool   `json:"is_vegan_friendly"`
	GlutenFree    bool   `json:"is_gluten_free"`
	Description   string `json:"description"`
	// Popularity is an order-volume signal maintained by the catalog; zero
	// means no popularity boost at retrieval time.
	Popularity float64 `json:"popularity"`
}

// Interaction is one (user, item, relevance) record from interaction history.
type Interaction struct {
	UserID    string  `json:"user_id"`
	ItemID    string  `json:"item_id"`
	Relevance float64 `json:"relevance"`
}

// Candidate is an item reference plus the score assigned by the stage that
// produced it. Stages never mutate candidates in place; each stage returns a
// new ordered slice.
type Candidate struct {
	ItemID string  `json:"item_id"`
	Score  float64 `json:"score"`
}

type SearchRequest struct {
	Query      string `json:"query"`
	UserID     string `json:"user_id,omitempty"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	ForceFresh bool   `json:"force_fresh,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

type SearchResponse struct {
	Results    []RankedItem     `json:"results"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TookMs     int64            `json:"took_ms"`
	Source     string           `json:"source"`
	Understood *UnderstoodQuery `json:"understood,omitempty"`
	Metadata   ResponseMetadata `json:"metadata"`
}

// RankedItem is one fully adjusted result returned to the caller.
type RankedItem struct {
	ItemID        string  `json:"item_id"`
	Score         float64 `json:"score"`
	Name          string  `json:"name,omitempty"`
	Cuisine       string  `json:"cuisine,omitempty"`
	PriceRange    string  `json:"price_range,omitempty"`
	VeganFriendly bool    `json:"is_vegan_friendly,omitempty"`
	Description   string  `json:"description,omitempty"`
}

type ResponseMetadata struct {
	RequestID string `json:"request_id"`
	Source    string `json:"source"`
	CacheHit  bool   `json:"cache_hit"`
	Stale     bool   `json:"stale"`
	Intent    string `json:"intent"`
	Corrected string `json:"corrected,omitempty"`
}

// InteractionEvent is the wire format of one interaction on the Kafka stream.
type InteractionEvent struct {
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Relevance float64   `json:"relevance"`
	EventType string    `json:"event_type"` // VIEW, CLICK, ORDER, RATING
	Timestamp time.Time `json:"timestamp"`
}

type AnalyticsEvent struct {
	EventType  string    `json:"event_type"`
	QueryHash  string    `json:"query_hash"`
	Intent     string    `json:"intent"`
	DurationMs float64   `json:"duration_ms"`
	TotalHits  int64     `json:"total_hits"`
	Timestamp  time.Time `json:"timestamp"`
	TraceID    string    `json:"trace_id"`
	Source     string    `json:"source"`
}
