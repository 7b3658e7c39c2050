package retrieval

import "github.com/savorly/dish-search/internal/models"

// BuildQuery renders an understood query as an Elasticsearch bool query.
// The corrected text drives the mandatory match; extracted entities and
// synonym expansions only add optional should clauses, so understanding
// can never filter out results the raw text would have matched.
func BuildQuery(q *models.UnderstoodQuery, size int) map[string]any {
	must := []map[string]any{
		{
			"multi_match": map[string]any{
				"query":       q.Corrected,
				"type":        "best_fields",
				"fields":      []string{"name^3", "cuisine^2", "description"},
				"fuzziness":   "AUTO",
				"tie_breaker": 0.3,
			},
		},
	}

	var should []map[string]any
	for _, expansion := range q.Expansions {
		should = append(should, map[string]any{
			"multi_match": map[string]any{
				"query":  expansion,
				"fields": []string{"name^2", "description"},
				"boost":  0.5,
			},
		})
	}
	for _, cuisine := range q.Cuisines {
		should = append(should, map[string]any{
			"term": map[string]any{"cuisine": cuisine},
		})
	}
	if q.PriceHint != "" {
		should = append(should, map[string]any{
			"term": map[string]any{"price_range": q.PriceHint},
		})
	}

	boolQuery := map[string]any{"must": must}
	if len(should) > 0 {
		boolQuery["should"] = should
	}

	// Script score for popularity boosting
	return map[string]any{
		"query": map[string]any{
			"script_score": map[string]any{
				"query": map[string]any{"bool": boolQuery},
				"script": map[string]any{
					"source": "_score * (1 + Math.log1p(doc['popularity'].value))",
				},
			},
		},
		"size": size,
	}
}

// BuildKNNQuery renders a kNN body against the dish embedding field.
func BuildKNNQuery(vec []float32, k int) map[string]any {
	return map[string]any{
		"knn": map[string]any{
			"field":          "embedding",
			"query_vector":   vec,
			"k":              k,
			"num_candidates": k * 4,
		},
		"size": k,
	}
}
