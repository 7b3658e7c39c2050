package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/savorly/dish-search/internal/models"
)

// HistoryAppender persists interaction events.
type HistoryAppender interface {
	AppendInteraction(ctx context.Context, event *models.InteractionEvent) error
}

// CacheInvalidator drops cached responses for a user.
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// RebuildTrigger requests a profile rebuild.
type RebuildTrigger interface {
	Trigger()
}

var validEventTypes = map[string]bool{
	"VIEW":   true,
	"CLICK":  true,
	"ORDER":  true,
	"RATING": true,
}

// Processor handles one interaction event end to end: validate, append to
// history, invalidate the user's cached responses and request a profile
// rebuild. The history write is the durability step and its error propagates
// for retry; cache invalidation is best effort and runs off the hot path.
type Processor struct {
	history     HistoryAppender
	invalidator CacheInvalidator
	rebuilds    RebuildTrigger
	logger      *zap.Logger
}

func NewProcessor(
	history HistoryAppender,
	invalidator CacheInvalidator,
	rebuilds RebuildTrigger,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		history:     history,
		invalidator: invalidator,
		rebuilds:    rebuilds,
		logger:      logger,
	}
}

// Handle implements the kafka consumer's EventHandler contract.
func (p *Processor) Handle(ctx context.Context, event *models.InteractionEvent) error {
	if err := validate(event); err != nil {
		// Invalid events are permanent failures; wrapping keeps the reason
		// visible in the DLQ header.
		return err
	}

	if err := p.history.AppendInteraction(ctx, event); err != nil {
		return fmt.Errorf("appending interaction: %w", err)
	}

	userID := event.UserID
	go func() {
		invCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.invalidator.InvalidateUser(invCtx, userID); err != nil {
			p.logger.Warn("cache invalidation failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}()

	p.rebuilds.Trigger()
	return nil
}

func validate(event *models.InteractionEvent) error {
	if event.UserID == "" {
		return fmt.Errorf("interaction event missing user_id")
	}
	if event.ItemID == "" {
		return fmt.Errorf("interaction event missing item_id")
	}
	if !validEventTypes[event.EventType] {
		return fmt.Errorf("unknown interaction event type %q", event.EventType)
	}
	if event.Relevance < 0 {
		return fmt.Errorf("interaction event has negative relevance %v", event.Relevance)
	}
	return nil
}
