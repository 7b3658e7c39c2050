package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/savorly/dish-search/internal/catalog"
	"github.com/savorly/dish-search/internal/config"
	"github.com/savorly/dish-search/internal/embedding"
	"github.com/savorly/dish-search/internal/models"
	"github.com/savorly/dish-search/internal/observability"
	"github.com/savorly/dish-search/internal/profile"
	"github.com/savorly/dish-search/internal/query"
	"github.com/savorly/dish-search/internal/ranking"
	"github.com/savorly/dish-search/internal/rerank"
	"github.com/savorly/dish-search/internal/retrieval"
	"github.com/savorly/dish-search/internal/vector"
)

// Retriever fetches scored candidates for a rendered query.
type Retriever interface {
	Search(ctx context.Context, esQuery map[string]any) (*retrieval.Result, error)
}

// ResponseCache caches fully assembled responses, with a stale tier served
// when retrieval is unavailable.
type ResponseCache interface {
	GetSearchResults(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
	SetSearchResults(ctx context.Context, req *models.SearchRequest, resp *models.SearchResponse) error
	GetStaleResults(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
}

// ProfileSource yields the current profile snapshot.
type ProfileSource interface {
	Snapshot() *profile.Snapshot
}

// Orchestrator runs the full pipeline: understand the query, retrieve
// candidates, personalize, apply business rules, hydrate and cache.
type Orchestrator struct {
	understander *query.Understander
	retriever    Retriever
	catalog      catalog.Store
	cache        ResponseCache
	profiles     ProfileSource
	personalizer *ranking.Personalizer
	reranker     *rerank.Reranker
	slowQuery    *observability.SlowQueryDetector
	cfg          config.SearchConfig
	logger       *zap.Logger

	embedder       embedding.Embedder
	vectorSearcher vector.Searcher
}

func New(
	understander *query.Understander,
	retriever Retriever,
	catalogStore catalog.Store,
	responseCache ResponseCache,
	profiles ProfileSource,
	personalizer *ranking.Personalizer,
	reranker *rerank.Reranker,
	slowQuery *observability.SlowQueryDetector,
	cfg config.SearchConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		understander: understander,
		retriever:    retriever,
		catalog:      catalogStore,
		cache:        responseCache,
		profiles:     profiles,
		personalizer: personalizer,
		reranker:     reranker,
		slowQuery:    slowQuery,
		cfg:          cfg,
		logger:       logger,
	}
}

// EnableSemanticFallback turns on vector retrieval for queries where the
// lexical query matches nothing, e.g. paraphrases the catalog vocabulary
// never uses.
func (o *Orchestrator) EnableSemanticFallback(embedder embedding.Embedder, searcher vector.Searcher) {
	o.embedder = embedder
	o.vectorSearcher = searcher
}

func (o *Orchestrator) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "orchestrator.search",
		attribute.String("query", req.Query),
	)
	defer span.End()

	normalizePaging(req, o.cfg)

	understood := o.understander.Understand(req.Query)
	o.logger.Debug("query understood",
		zap.String("query", req.Query),
		zap.String("intent", understood.Intent),
		zap.String("corrected", understood.Corrected),
	)

	if !req.ForceFresh && o.cache != nil {
		cached, err := o.cache.GetSearchResults(ctx, req)
		if err != nil {
			o.logger.Warn("cache lookup error", zap.Error(err))
		}
		if cached != nil {
			cached.Metadata.CacheHit = true
			cached.TookMs = time.Since(start).Milliseconds()
			observability.SearchRequestsTotal.WithLabelValues(understood.Intent, "cache_hit").Inc()
			return cached, nil
		}
	}

	resp, err := o.searchWithFallback(ctx, req, understood)
	if err != nil {
		observability.SearchRequestsTotal.WithLabelValues(understood.Intent, "error").Inc()
		observability.SearchRequestDuration.WithLabelValues(understood.Intent, "error", "error").Observe(time.Since(start).Seconds())
		return nil, err
	}

	resp.TookMs = time.Since(start).Milliseconds()
	resp.Page = req.Page
	resp.PageSize = req.PageSize
	resp.Understood = understood
	resp.Metadata.RequestID = req.RequestID
	resp.Metadata.Intent = understood.Intent
	if understood.Corrected != understood.Normalized {
		resp.Metadata.Corrected = understood.Corrected
	}

	if o.cache != nil && !resp.Metadata.Stale {
		if err := o.cache.SetSearchResults(ctx, req, resp); err != nil {
			o.logger.Warn("cache set error", zap.Error(err))
		}
	}

	observability.SearchRequestsTotal.WithLabelValues(understood.Intent, "success").Inc()
	observability.SearchRequestDuration.WithLabelValues(understood.Intent, resp.Source, "success").Observe(time.Since(start).Seconds())

	if o.slowQuery != nil {
		o.slowQuery.Intercept(ctx, req.Query, understood.Intent, time.Since(start), resp.Total)
	}

	return resp, nil
}

func (o *Orchestrator) searchWithFallback(ctx context.Context, req *models.SearchRequest, understood *models.UnderstoodQuery) (*models.SearchResponse, error) {
	resp, err := o.primarySearch(ctx, req, understood)
	if err == nil {
		return resp, nil
	}
	o.logger.Warn("primary search failed, trying stale cache", zap.Error(err))
	observability.FallbackCounter.WithLabelValues("primary_failed").Inc()

	if o.cache != nil {
		stale, cacheErr := o.cache.GetStaleResults(ctx, req)
		if cacheErr == nil && stale != nil {
			stale.Metadata.Stale = true
			stale.Source = "stale_cache"
			stale.Metadata.Source = "stale_cache"
			observability.FallbackCounter.WithLabelValues("stale_cache").Inc()
			return stale, nil
		}
		if cacheErr != nil {
			o.logger.Warn("stale cache lookup failed", zap.Error(cacheErr))
		}
	}

	return nil, fmt.Errorf("all search paths exhausted: primary error: %w", err)
}

func (o *Orchestrator) primarySearch(ctx context.Context, req *models.SearchRequest, understood *models.UnderstoodQuery) (*models.SearchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.QueryTimeout)
	defer cancel()

	depth := o.cfg.CandidateDepth
	if depth <= 0 {
		depth = req.PageSize
	}

	result, err := o.retriever.Search(ctx, retrieval.BuildQuery(understood, depth))
	if err != nil {
		return nil, fmt.Errorf("candidate retrieval: %w", err)
	}
	source := "elasticsearch"

	if len(result.Candidates) == 0 && o.vectorSearcher != nil && o.embedder != nil {
		hits, vecErr := o.vectorSearcher.Search(ctx, o.embedder.Embed(understood.Corrected), depth)
		if vecErr != nil {
			o.logger.Warn("semantic fallback failed", zap.Error(vecErr))
		} else if len(hits) > 0 {
			observability.FallbackCounter.WithLabelValues("semantic").Inc()
			source = "semantic"
			result = &retrieval.Result{Total: int64(len(hits))}
			for _, hit := range hits {
				result.Candidates = append(result.Candidates, models.Candidate{ItemID: hit.ID, Score: hit.Score})
			}
		}
	}

	ids := make([]string, len(result.Candidates))
	for i, cand := range result.Candidates {
		ids[i] = cand.ItemID
	}
	items, err := o.catalog.Items(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrating candidates: %w", err)
	}

	personalized := o.personalizer.Apply(result.Candidates, req.UserID, o.profiles.Snapshot(), items)

	ranked, err := o.reranker.Apply(personalized, understood, items)
	if err != nil {
		return nil, fmt.Errorf("applying ranking rules: %w", err)
	}

	pageItems := paginate(ranked, req.Page, req.PageSize)

	return &models.SearchResponse{
		Results: hydrate(pageItems, items),
		Total:   result.Total,
		Source:  "primary",
		Metadata: models.ResponseMetadata{
			Source: source,
		},
	}, nil
}

func normalizePaging(req *models.SearchRequest, cfg config.SearchConfig) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = cfg.DefaultPageSize
	}
	if cfg.MaxPageSize > 0 && req.PageSize > cfg.MaxPageSize {
		req.PageSize = cfg.MaxPageSize
	}
}

func paginate(candidates []models.Candidate, page, pageSize int) []models.Candidate {
	start := (page - 1) * pageSize
	if start >= len(candidates) {
		return nil
	}
	end := start + pageSize
	if end > len(candidates) {
		end = len(candidates)
	}
	return candidates[start:end]
}

func hydrate(candidates []models.Candidate, items map[string]models.CatalogItem) []models.RankedItem {
	out := make([]models.RankedItem, 0, len(candidates))
	for _, cand := range candidates {
		ranked := models.RankedItem{ItemID: cand.ItemID, Score: cand.Score}
		if item, ok := items[cand.ItemID]; ok {
			ranked.Name = item.Name
			ranked.Cuisine = item.Cuisine
			ranked.PriceRange = item.PriceRange
			ranked.VeganFriendly = item.VeganFriendly
			ranked.Description = item.Description
		}
		out = append(out, ranked)
	}
	return out
}
