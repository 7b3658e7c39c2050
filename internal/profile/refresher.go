package profile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/savorly/dish-search/internal/config"
	"github.com/savorly/dish-search/internal/models"
	"github.com/savorly/dish-search/internal/observability"
)

// InteractionSource provides the interaction history a rebuild reads.
type InteractionSource interface {
	Interactions(ctx context.Context) ([]models.Interaction, error)
}

// CatalogSource provides the item catalog a rebuild reads.
type CatalogSource interface {
	All(ctx context.Context) ([]models.CatalogItem, error)
}

// Refresher rebuilds profiles on a fixed interval and on demand. Demand
// triggers are debounced so a burst of interaction events causes one rebuild,
// not one per event.
type Refresher struct {
	history  InteractionSource
	catalog  CatalogSource
	store    *Store
	logger   *zap.Logger
	interval time.Duration
	debounce time.Duration
	trigger  chan struct{}
}

func NewRefresher(
	history InteractionSource,
	catalog CatalogSource,
	store *Store,
	cfg config.ProfileConfig,
	logger *zap.Logger,
) *Refresher {
	return &Refresher{
		history:  history,
		catalog:  catalog,
		store:    store,
		logger:   logger,
		interval: cfg.RebuildInterval,
		debounce: cfg.RebuildDebounce,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests a rebuild soon. Never blocks; a pending trigger absorbs
// further calls until the debounce window fires.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run serves periodic and triggered rebuilds until the context is
// cancelled. Callers wanting warm profiles before serving traffic do a
// synchronous Rebuild first.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var debounceC <-chan time.Time
	var debounceT *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceT != nil {
				debounceT.Stop()
			}
			return
		case <-ticker.C:
			r.rebuild(ctx)
		case <-r.trigger:
			if debounceT == nil {
				debounceT = time.NewTimer(r.debounce)
				debounceC = debounceT.C
			}
		case <-debounceC:
			debounceT = nil
			debounceC = nil
			r.rebuild(ctx)
		}
	}
}

// Rebuild fetches history and catalog, builds a snapshot and publishes it.
// Exposed so callers can force a synchronous rebuild, e.g. at startup.
func (r *Refresher) Rebuild(ctx context.Context) error {
	return r.rebuild(ctx)
}

func (r *Refresher) rebuild(ctx context.Context) error {
	start := time.Now()

	interactions, err := r.history.Interactions(ctx)
	if err != nil {
		r.logger.Error("profile rebuild: loading interactions failed", zap.Error(err))
		return err
	}
	catalogItems, err := r.catalog.All(ctx)
	if err != nil {
		r.logger.Error("profile rebuild: loading catalog failed", zap.Error(err))
		return err
	}

	items := make(map[string]models.CatalogItem, len(catalogItems))
	for _, item := range catalogItems {
		items[item.ItemID] = item
	}

	snap := Build(interactions, items)
	r.store.Swap(snap)

	elapsed := time.Since(start)
	observability.ProfileBuildDuration.Observe(elapsed.Seconds())
	observability.ProfileUsersTotal.Set(float64(len(snap.Users)))
	r.logger.Info("profile snapshot rebuilt",
		zap.Int("users", len(snap.Users)),
		zap.Int("interactions", len(interactions)),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}
