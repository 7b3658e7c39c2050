package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/savorly/dish-search/internal/models"
)

type fakeHistory struct {
	mu     sync.Mutex
	events []*models.InteractionEvent
	err    error
}

func (f *fakeHistory) AppendInteraction(ctx context.Context, event *models.InteractionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (f *fakeInvalidator) InvalidateUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
	return nil
}

func (f *fakeInvalidator) invalidated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.users...)
}

type fakeTrigger struct {
	mu    sync.Mutex
	count int
}

func (f *fakeTrigger) Trigger() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
}

func (f *fakeTrigger) triggers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func validEvent() *models.InteractionEvent {
	return &models.InteractionEvent{
		UserID:    "u1",
		ItemID:    "pizza",
		Relevance: 1,
		EventType: "CLICK",
		Timestamp: time.Now(),
	}
}

func TestHandleHappyPath(t *testing.T) {
	history := &fakeHistory{}
	inv := &fakeInvalidator{}
	trig := &fakeTrigger{}
	p := NewProcessor(history, inv, trig, zap.NewNop())

	if err := p.Handle(context.Background(), validEvent()); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(history.events) != 1 {
		t.Fatalf("history got %d events, want 1", len(history.events))
	}
	if trig.triggers() != 1 {
		t.Errorf("rebuild triggered %d times, want 1", trig.triggers())
	}

	// Invalidation runs async.
	deadline := time.Now().Add(time.Second)
	for len(inv.invalidated()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	got := inv.invalidated()
	if len(got) != 1 || got[0] != "u1" {
		t.Errorf("invalidated users = %v, want [u1]", got)
	}
}

func TestHandleValidation(t *testing.T) {
	history := &fakeHistory{}
	trig := &fakeTrigger{}
	p := NewProcessor(history, &fakeInvalidator{}, trig, zap.NewNop())

	cases := []struct {
		name   string
		mutate func(*models.InteractionEvent)
	}{
		{"missing user", func(e *models.InteractionEvent) { e.UserID = "" }},
		{"missing item", func(e *models.InteractionEvent) { e.ItemID = "" }},
		{"bad event type", func(e *models.InteractionEvent) { e.EventType = "HOVER" }},
		{"negative relevance", func(e *models.InteractionEvent) { e.Relevance = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := validEvent()
			tc.mutate(e)
			if err := p.Handle(context.Background(), e); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if len(history.events) != 0 {
		t.Errorf("invalid events reached history: %d", len(history.events))
	}
	if trig.triggers() != 0 {
		t.Errorf("invalid events triggered rebuilds: %d", trig.triggers())
	}
}

func TestHandleHistoryErrorPropagates(t *testing.T) {
	wantErr := errors.New("clickhouse down")
	history := &fakeHistory{err: wantErr}
	trig := &fakeTrigger{}
	p := NewProcessor(history, &fakeInvalidator{}, trig, zap.NewNop())

	if err := p.Handle(context.Background(), validEvent()); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if trig.triggers() != 0 {
		t.Error("failed append must not trigger a rebuild")
	}
}
