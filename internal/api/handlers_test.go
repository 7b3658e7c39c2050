package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/savorly/dish-search/internal/config"
	"github.com/savorly/dish-search/internal/models"
	"github.com/savorly/dish-search/internal/profile"
	"github.com/savorly/dish-search/internal/query"
	"github.com/savorly/dish-search/internal/spell"
)

type fakeSearch struct {
	resp    *models.SearchResponse
	err     error
	lastReq *models.SearchRequest
}

func (f *fakeSearch) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

type fakePublisher struct {
	events []*models.InteractionEvent
	err    error
}

func (f *fakePublisher) PublishInteraction(ctx context.Context, event *models.InteractionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeProfileReader struct {
	snap *profile.Snapshot
}

func (f *fakeProfileReader) Snapshot() *profile.Snapshot {
	if f.snap == nil {
		return profile.EmptySnapshot()
	}
	return f.snap
}

type fakeInteractionReader struct {
	interactions []models.Interaction
	err          error
}

func (f *fakeInteractionReader) UserInteractions(ctx context.Context, userID string) ([]models.Interaction, error) {
	return f.interactions, f.err
}

func newTestHandler(t *testing.T, search SearchService, profiles ProfileReader, feedback FeedbackPublisher) *Handler {
	t.Helper()
	return newTestHandlerWithHistory(t, search, profiles, nil, feedback)
}

func newTestHandlerWithHistory(t *testing.T, search SearchService, profiles ProfileReader, history InteractionReader, feedback FeedbackPublisher) *Handler {
	t.Helper()
	cfg := config.DefaultConfig().Query
	u, err := query.NewUnderstander(spell.Noop{}, query.NewIntentClassifier(), query.NewExtractor(cfg),
		map[string]bool{"italian": true, "vegan": true, "vegetarian": true})
	if err != nil {
		t.Fatalf("NewUnderstander: %v", err)
	}
	return NewHandler(search, u, profiles, history, feedback, zap.NewNop())
}

func serveRouter(t *testing.T, h *Handler) http.Handler {
	t.Helper()
	return NewRouter(h, NewHealthHandler(zap.NewNop()), zap.NewNop())
}

func TestSearchHandlerGET(t *testing.T) {
	search := &fakeSearch{resp: &models.SearchResponse{
		Results: []models.RankedItem{{ItemID: "a", Score: 1.2, Name: "Vegan Margherita"}},
		Total:   1,
	}}
	router := serveRouter(t, newTestHandler(t, search, &fakeProfileReader{}, &fakePublisher{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=vegan+pizza&user_id=u1&page=2&page_size=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if search.lastReq.Query != "vegan pizza" || search.lastReq.UserID != "u1" {
		t.Errorf("parsed request = %+v", search.lastReq)
	}
	if search.lastReq.Page != 2 || search.lastReq.PageSize != 5 {
		t.Errorf("pagination = page %d size %d", search.lastReq.Page, search.lastReq.PageSize)
	}

	var resp models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Name != "Vegan Margherita" {
		t.Errorf("response = %+v", resp)
	}
}

func TestSearchHandlerPOST(t *testing.T) {
	search := &fakeSearch{resp: &models.SearchResponse{}}
	router := serveRouter(t, newTestHandler(t, search, &fakeProfileReader{}, &fakePublisher{}))

	body := `{"query":"ramen","user_id":"u2","page":1,"page_size":10}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if search.lastReq.Query != "ramen" || search.lastReq.UserID != "u2" {
		t.Errorf("parsed request = %+v", search.lastReq)
	}
}

func TestSearchHandlerMissingQuery(t *testing.T) {
	router := serveRouter(t, newTestHandler(t, &fakeSearch{}, &fakeProfileReader{}, &fakePublisher{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchHandlerServiceError(t *testing.T) {
	search := &fakeSearch{err: errors.New("downstream exploded")}
	router := serveRouter(t, newTestHandler(t, search, &fakeProfileReader{}, &fakePublisher{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=pizza", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "exploded") {
		t.Error("internal error detail leaked to client")
	}
}

func TestUnderstandHandler(t *testing.T) {
	router := serveRouter(t, newTestHandler(t, &fakeSearch{}, &fakeProfileReader{}, &fakePublisher{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/understand?q=Cheap+VEGAN+pasta!", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got models.UnderstoodQuery
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got.Normalized != "cheap vegan pasta" {
		t.Errorf("Normalized = %q", got.Normalized)
	}
	if got.PriceHint != "cheap" {
		t.Errorf("PriceHint = %q", got.PriceHint)
	}
}

func TestProfileHandler(t *testing.T) {
	snap := &profile.Snapshot{Users: map[string]*profile.UserProfile{
		"u1": {CuisineWeights: map[string]float64{"italian": 1}, PricePref: 1},
	}}
	router := serveRouter(t, newTestHandler(t, &fakeSearch{}, &fakeProfileReader{snap: snap}, &fakePublisher{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profiles/u1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profiles/stranger", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user status = %d, want 404", rec.Code)
	}
}

func TestProfileHandlerIncludesInteractions(t *testing.T) {
	snap := &profile.Snapshot{Users: map[string]*profile.UserProfile{
		"u1": {CuisineWeights: map[string]float64{"italian": 1}, PricePref: 1},
	}}
	history := &fakeInteractionReader{interactions: []models.Interaction{
		{UserID: "u1", ItemID: "pizza", Relevance: 3},
	}}
	h := newTestHandlerWithHistory(t, &fakeSearch{}, &fakeProfileReader{snap: snap}, history, &fakePublisher{})
	router := serveRouter(t, h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profiles/u1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload struct {
		Interactions []models.Interaction `json:"interactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(payload.Interactions) != 1 || payload.Interactions[0].ItemID != "pizza" {
		t.Errorf("interactions = %+v", payload.Interactions)
	}
}

func TestProfileHandlerHistoryFailureStillServesProfile(t *testing.T) {
	snap := &profile.Snapshot{Users: map[string]*profile.UserProfile{
		"u1": {PricePref: 1},
	}}
	history := &fakeInteractionReader{err: errors.New("clickhouse down")}
	h := newTestHandlerWithHistory(t, &fakeSearch{}, &fakeProfileReader{snap: snap}, history, &fakePublisher{})
	router := serveRouter(t, h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profiles/u1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite history failure", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "interactions") {
		t.Error("failed history lookup still rendered interactions")
	}
}

func TestFeedbackHandler(t *testing.T) {
	pub := &fakePublisher{}
	router := serveRouter(t, newTestHandler(t, &fakeSearch{}, &fakeProfileReader{}, pub))

	body := `{"user_id":"u1","item_id":"pizza","relevance":1,"event_type":"ORDER"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	if pub.events[0].EventType != "ORDER" || pub.events[0].Timestamp.IsZero() {
		t.Errorf("event = %+v", pub.events[0])
	}
}

func TestFeedbackHandlerValidation(t *testing.T) {
	pub := &fakePublisher{}
	router := serveRouter(t, newTestHandler(t, &fakeSearch{}, &fakeProfileReader{}, pub))

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"missing user", `{"item_id":"pizza"}`},
		{"missing item", `{"user_id":"u1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(tc.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
	if len(pub.events) != 0 {
		t.Errorf("invalid feedback published: %d events", len(pub.events))
	}
}

func TestFeedbackHandlerPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	router := serveRouter(t, newTestHandler(t, &fakeSearch{}, &fakeProfileReader{}, pub))

	body := `{"user_id":"u1","item_id":"pizza"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
