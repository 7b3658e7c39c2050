package catalog

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/savorly/dish-search/internal/config"
	"github.com/savorly/dish-search/internal/models"
	"github.com/savorly/dish-search/internal/observability"
)

// FirestoreStore backs the catalog with a Firestore collection, one document
// per dish keyed by item id.
type FirestoreStore struct {
	client *firestore.Client
	cfg    config.FirestoreConfig
	logger *zap.Logger
}

func NewFirestoreStore(ctx context.Context, cfg config.FirestoreConfig, logger *zap.Logger) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	logger.Info("firestore catalog connected",
		zap.String("project", cfg.ProjectID),
		zap.String("collection", cfg.Collection),
	)

	return &FirestoreStore{client: client, cfg: cfg, logger: logger}, nil
}

func (s *FirestoreStore) Item(ctx context.Context, itemID string) (models.CatalogItem, error) {
	ctx, span := observability.StartSpan(ctx, "firestore.get_item",
		attribute.String("item_id", itemID),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	doc, err := s.client.Collection(s.cfg.Collection).Doc(itemID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.CatalogItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err != nil {
		return models.CatalogItem{}, fmt.Errorf("firestore get item %s: %w", itemID, err)
	}

	var item models.CatalogItem
	if err := doc.DataTo(&item); err != nil {
		return models.CatalogItem{}, fmt.Errorf("firestore decode item %s: %w", itemID, err)
	}
	item.ItemID = doc.Ref.ID
	return normalizeItem(item), nil
}

func (s *FirestoreStore) Items(ctx context.Context, itemIDs []string) (map[string]models.CatalogItem, error) {
	ctx, span := observability.StartSpan(ctx, "firestore.get_items",
		attribute.Int("count", len(itemIDs)),
	)
	defer span.End()

	result := make(map[string]models.CatalogItem, len(itemIDs))

	batchSize := s.cfg.MaxBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	for i := 0; i < len(itemIDs); i += batchSize {
		end := i + batchSize
		if end > len(itemIDs) {
			end = len(itemIDs)
		}
		batch := itemIDs[i:end]

		// Each batch gets its own timeout so sequential batches don't starve.
		batchCtx, batchCancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)

		refs := make([]*firestore.DocumentRef, len(batch))
		for j, id := range batch {
			refs[j] = s.client.Collection(s.cfg.Collection).Doc(id)
		}

		docs, err := s.client.GetAll(batchCtx, refs)
		batchCancel()
		if err != nil {
			return nil, fmt.Errorf("firestore get_all batch %d: %w", i/batchSize, err)
		}

		for _, doc := range docs {
			if !doc.Exists() {
				continue
			}
			var item models.CatalogItem
			if err := doc.DataTo(&item); err != nil {
				s.logger.Warn("skipping undecodable catalog document",
					zap.String("doc_id", doc.Ref.ID), zap.Error(err))
				continue
			}
			item.ItemID = doc.Ref.ID
			result[doc.Ref.ID] = normalizeItem(item)
		}
	}

	return result, nil
}

func (s *FirestoreStore) All(ctx context.Context) ([]models.CatalogItem, error) {
	ctx, span := observability.StartSpan(ctx, "firestore.scan_catalog")
	defer span.End()

	iter := s.client.Collection(s.cfg.Collection).Documents(ctx)
	defer iter.Stop()

	var items []models.CatalogItem
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore scan catalog: %w", err)
		}
		var item models.CatalogItem
		if err := doc.DataTo(&item); err != nil {
			s.logger.Warn("skipping undecodable catalog document",
				zap.String("doc_id", doc.Ref.ID), zap.Error(err))
			continue
		}
		item.ItemID = doc.Ref.ID
		items = append(items, normalizeItem(item))
	}
	return items, nil
}

// HealthCheck reads one document to confirm the collection is reachable.
func (s *FirestoreStore) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	iter := s.client.Collection(s.cfg.Collection).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("firestore health check: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
