package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/savorly/dish-search/internal/config"
	"github.com/savorly/dish-search/internal/models"
	"github.com/savorly/dish-search/internal/observability"
	"github.com/savorly/dish-search/internal/resilience"
	"github.com/savorly/dish-search/internal/vector"
)

// Client retrieves dish candidates from Elasticsearch. Every search runs
// inside a circuit breaker with bounded retries so a struggling cluster
// fails fast instead of queueing callers.
type Client struct {
	es       *elasticsearch.Client
	cb       *gobreaker.CircuitBreaker
	cfg      config.ElasticsearchConfig
	retryCfg resilience.RetryConfig
	logger   *zap.Logger
}

func NewClient(cfg config.ElasticsearchConfig, searchCfg config.SearchConfig, logger *zap.Logger) (*Client, error) {
	esCfg := elasticsearch.Config{
		Addresses:  cfg.Addresses,
		Username:   cfg.Username,
		Password:   cfg.Password,
		MaxRetries: cfg.MaxRetries,
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}

	res, err := es.Ping()
	if err != nil {
		return nil, fmt.Errorf("pinging elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch ping returned status: %s", res.Status())
	}

	cb := resilience.NewCircuitBreaker("elasticsearch-retrieval", searchCfg.CircuitBreaker, logger)

	logger.Info("elasticsearch client connected", zap.Strings("addresses", cfg.Addresses))

	return &Client{
		es:  es,
		cb:  cb,
		cfg: cfg,
		retryCfg: resilience.RetryConfig{
			MaxAttempts: searchCfg.Retry.MaxAttempts,
			InitialWait: searchCfg.Retry.InitialWait,
			MaxWait:     searchCfg.Retry.MaxWait,
			Multiplier:  searchCfg.Retry.Multiplier,
		},
		logger: logger,
	}, nil
}

// Result carries the candidate list together with response metadata the
// orchestrator reports.
type Result struct {
	Candidates []models.Candidate
	Total      int64
	TookMs     int64
	TimedOut   bool
}

// Search executes a lexical candidate query.
func (c *Client) Search(ctx context.Context, query map[string]any) (*Result, error) {
	return c.run(ctx, "lexical", query)
}

// KNNSearcher adapts the client to the vector.Searcher interface.
type KNNSearcher struct {
	Client *Client
}

func (s KNNSearcher) Search(ctx context.Context, vec []float32, k int) ([]vector.Result, error) {
	return s.Client.KNNSearch(ctx, vec, k)
}

// KNNSearch runs a kNN query against the dish embedding field.
func (c *Client) KNNSearch(ctx context.Context, vec []float32, k int) ([]vector.Result, error) {
	res, err := c.run(ctx, "knn", BuildKNNQuery(vec, k))
	if err != nil {
		return nil, err
	}
	out := make([]vector.Result, len(res.Candidates))
	for i, cand := range res.Candidates {
		out[i] = vector.Result{ID: cand.ItemID, Score: cand.Score}
	}
	return out, nil
}

func (c *Client) run(ctx context.Context, kind string, query map[string]any) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, "es.search",
		attribute.String("es.index", c.cfg.Index),
		attribute.String("es.kind", kind),
	)
	defer span.End()

	start := time.Now()

	cbResult, err := c.cb.Execute(func() (any, error) {
		var retryResult *Result
		retryErr := resilience.Retry(ctx, c.retryCfg, func() error {
			var execErr error
			retryResult, execErr = c.executeSearch(ctx, query)
			return execErr
		})
		return retryResult, retryErr
	})

	duration := time.Since(start)
	if err != nil {
		observability.ESQueryDuration.WithLabelValues(kind, "error").Observe(duration.Seconds())
		return nil, fmt.Errorf("es search (index=%s): %w", c.cfg.Index, err)
	}

	result, ok := cbResult.(*Result)
	if !ok || result == nil {
		observability.ESQueryDuration.WithLabelValues(kind, "error").Observe(duration.Seconds())
		return nil, fmt.Errorf("es search (index=%s): unexpected nil result from circuit breaker", c.cfg.Index)
	}
	observability.ESQueryDuration.WithLabelValues(kind, "success").Observe(duration.Seconds())

	return result, nil
}

func (c *Client) executeSearch(ctx context.Context, query map[string]any) (*Result, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshaling es query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.cfg.Index),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithTimeout(c.cfg.RequestTimeout),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("executing es search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("es search error status=%s body=%s", res.Status(), string(bodyBytes))
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("decoding es response: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		candidates = append(candidates, models.Candidate{ItemID: h.ID, Score: h.Score})
	}

	return &Result{
		Candidates: candidates,
		Total:      esResp.Hits.Total.Value,
		TookMs:     esResp.Took,
		TimedOut:   esResp.TimedOut,
	}, nil
}

// IndexDish writes one dish document, embedding included, for kNN search.
func (c *Client) IndexDish(ctx context.Context, item models.CatalogItem, embedding []float32) error {
	doc := map[string]any{
		"name":              item.Name,
		"cuisine":           item.Cuisine,
		"price_range":       item.PriceRange,
		"is_vegan_friendly": item.VeganFriendly,
		"is_gluten_free":    item.GlutenFree,
		"description":       item.Description,
		"popularity":        item.Popularity,
		"embedding":         embedding,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling dish document: %w", err)
	}

	res, err := c.es.Index(
		c.cfg.Index,
		bytes.NewReader(body),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(item.ItemID),
	)
	if err != nil {
		return fmt.Errorf("indexing dish %s: %w", item.ItemID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		return fmt.Errorf("indexing dish %s: status=%s body=%s", item.ItemID, res.Status(), string(bodyBytes))
	}
	return nil
}

func (c *Client) HealthCheck(ctx context.Context) (string, error) {
	res, err := c.es.Cluster.Health(
		c.es.Cluster.Health.WithContext(ctx),
	)
	if err != nil {
		return "red", fmt.Errorf("es health check: %w", err)
	}
	defer res.Body.Close()

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&health); err != nil {
		return "red", fmt.Errorf("decoding health response: %w", err)
	}
	return health.Status, nil
}

func (c *Client) Close() error {
	return nil
}

type esSearchResponse struct {
	Took     int64 `json:"took"`
	TimedOut bool  `json:"timed_out"`
	Hits     struct {
		Total struct {
			Value    int64  `json:"value"`
			Relation string `json:"relation"`
		} `json:"total"`
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

type esHit struct {
	ID    string  `json:"_id"`
	Score float64 `json:"_score"`
}
