package profile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/savorly/dish-search/internal/config"
	"github.com/savorly/dish-search/internal/models"
)

type fakeHistory struct {
	mu           sync.Mutex
	interactions []models.Interaction
	err          error
}

func (f *fakeHistory) Interactions(ctx context.Context) ([]models.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interactions, f.err
}

func (f *fakeHistory) set(interactions []models.Interaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interactions = interactions
}

type fakeCatalog struct {
	items []models.CatalogItem
	err   error
}

func (f *fakeCatalog) All(ctx context.Context) ([]models.CatalogItem, error) {
	return f.items, f.err
}

func newTestRefresher(h *fakeHistory, c *fakeCatalog) (*Refresher, *Store) {
	store := NewStore()
	cfg := config.ProfileConfig{
		RebuildInterval: time.Hour,
		RebuildDebounce: time.Millisecond,
	}
	return NewRefresher(h, c, store, cfg, zap.NewNop()), store
}

func TestRefresherRebuild(t *testing.T) {
	h := &fakeHistory{interactions: []models.Interaction{
		{UserID: "u1", ItemID: "pizza", Relevance: 2},
	}}
	c := &fakeCatalog{items: []models.CatalogItem{
		{ItemID: "pizza", Cuisine: "italian", PriceRange: "cheap"},
	}}
	r, store := newTestRefresher(h, c)

	if err := r.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	p := store.Snapshot().Profile("u1")
	if p == nil {
		t.Fatal("rebuild did not publish u1")
	}
	if !almostEqual(p.CuisineWeights["italian"], 1) {
		t.Errorf("italian weight = %v, want 1", p.CuisineWeights["italian"])
	}
}

func TestRefresherRebuildError(t *testing.T) {
	wantErr := errors.New("clickhouse down")
	r, store := newTestRefresher(&fakeHistory{err: wantErr}, &fakeCatalog{})

	if err := r.Rebuild(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Rebuild error = %v, want %v", err, wantErr)
	}
	if len(store.Snapshot().Users) != 0 {
		t.Error("failed rebuild must not publish a snapshot")
	}
}

func TestRefresherTriggerNonBlocking(t *testing.T) {
	r, _ := newTestRefresher(&fakeHistory{}, &fakeCatalog{})
	// A burst of triggers must never block even with no Run loop draining.
	for i := 0; i < 100; i++ {
		r.Trigger()
	}
}

func TestRefresherRunDebouncedTrigger(t *testing.T) {
	h := &fakeHistory{}
	c := &fakeCatalog{}
	r, store := newTestRefresher(h, c)

	ctx, cancel := context.WithCancel(context.Background())

	// Warm the store synchronously, as the server does at startup, then
	// feed new data and trigger.
	if err := r.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	first := store.Snapshot().Version

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	deadline := time.Now().Add(2 * time.Second)

	h.set([]models.Interaction{{UserID: "u9", ItemID: "x", Relevance: 1}})
	r.Trigger()
	r.Trigger()

	for time.Now().Before(deadline) {
		if store.Snapshot().Profile("u9") != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if store.Snapshot().Profile("u9") == nil {
		t.Fatal("triggered rebuild never landed")
	}
	if store.Snapshot().Version == first {
		t.Error("snapshot version did not advance")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}
