package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/savorly/dish-search/internal/models"
)

// ErrItemNotFound marks a catalog lookup miss. Ranking stages surface it
// instead of silently dropping candidates, since a candidate id the catalog
// cannot resolve means the stores have drifted apart.
var ErrItemNotFound = errors.New("catalog: item not found")

// Store resolves item ids to catalog records.
type Store interface {
	// Item returns the record for one id, ErrItemNotFound on a miss.
	Item(ctx context.Context, itemID string) (models.CatalogItem, error)
	// Items resolves a batch of ids. Missing ids are absent from the
	// returned map, not an error.
	Items(ctx context.Context, itemIDs []string) (map[string]models.CatalogItem, error)
	// All returns every catalog record.
	All(ctx context.Context) ([]models.CatalogItem, error)
}

// MemoryStore is an in-process Store, used in tests and single-node setups.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]models.CatalogItem
}

// NewMemoryStore builds a store from the given items. A duplicate item id is
// a data error and rejected outright.
func NewMemoryStore(items []models.CatalogItem) (*MemoryStore, error) {
	m := make(map[string]models.CatalogItem, len(items))
	for _, item := range items {
		if item.ItemID == "" {
			return nil, fmt.Errorf("catalog: item %q has empty item_id", item.Name)
		}
		if _, dup := m[item.ItemID]; dup {
			return nil, fmt.Errorf("catalog: duplicate item_id %q", item.ItemID)
		}
		m[item.ItemID] = normalizeItem(item)
	}
	return &MemoryStore{items: m}, nil
}

func (s *MemoryStore) Item(ctx context.Context, itemID string) (models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return models.CatalogItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	return item, nil
}

func (s *MemoryStore) Items(ctx context.Context, itemIDs []string) (map[string]models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.CatalogItem, len(itemIDs))
	for _, id := range itemIDs {
		if item, ok := s.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (s *MemoryStore) All(ctx context.Context) ([]models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CatalogItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// Upsert inserts or replaces one item.
func (s *MemoryStore) Upsert(item models.CatalogItem) error {
	if item.ItemID == "" {
		return fmt.Errorf("catalog: item %q has empty item_id", item.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ItemID] = normalizeItem(item)
	return nil
}
