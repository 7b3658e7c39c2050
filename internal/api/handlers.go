package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/savorly/dish-search/internal/models"
	"github.com/savorly/dish-search/internal/profile"
	"github.com/savorly/dish-search/internal/query"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// SearchService runs the full search pipeline.
type SearchService interface {
	Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
}

// FeedbackPublisher puts interaction events on the stream.
type FeedbackPublisher interface {
	PublishInteraction(ctx context.Context, event *models.InteractionEvent) error
}

// ProfileReader exposes the current profile snapshot for inspection.
type ProfileReader interface {
	Snapshot() *profile.Snapshot
}

// InteractionReader serves one user's aggregated interaction history.
type InteractionReader interface {
	UserInteractions(ctx context.Context, userID string) ([]models.Interaction, error)
}

type Handler struct {
	search       SearchService
	understander *query.Understander
	profiles     ProfileReader
	history      InteractionReader
	feedback     FeedbackPublisher
	logger       *zap.Logger
}

func NewHandler(
	search SearchService,
	understander *query.Understander,
	profiles ProfileReader,
	history InteractionReader,
	feedback FeedbackPublisher,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		search:       search,
		understander: understander,
		profiles:     profiles,
		history:      history,
		feedback:     feedback,
		logger:       logger,
	}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := RequestIDFromContext(ctx)

	req, err := h.parseSearchRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Query == "" {
		h.writeError(w, http.StatusBadRequest, "missing_query", "Query parameter 'q' is required")
		return
	}
	req.RequestID = requestID

	resp, err := h.search.Search(ctx, req)
	if err != nil {
		h.logger.Error("search failed",
			zap.String("request_id", requestID),
			zap.String("query", req.Query),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "search_error", "Search service temporarily unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// Understand exposes the query understanding stage on its own, which the
// storefront uses for query previews and debugging.
func (h *Handler) Understand(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "missing_query", "Query parameter 'q' is required")
		return
	}
	h.writeJSON(w, http.StatusOK, h.understander.Understand(q))
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "missing_user", "Path parameter 'user_id' is required")
		return
	}

	p := h.profiles.Snapshot().Profile(userID)
	if p == nil {
		h.writeError(w, http.StatusNotFound, "profile_not_found", "No profile for user")
		return
	}

	payload := map[string]any{
		"user_id": userID,
		"profile": p,
	}
	if h.history != nil {
		interactions, err := h.history.UserInteractions(r.Context(), userID)
		if err != nil {
			// The profile itself is still served; history is supplementary.
			h.logger.Warn("loading user interactions failed",
				zap.String("user_id", userID), zap.Error(err))
		} else {
			payload["interactions"] = interactions
		}
	}
	h.writeJSON(w, http.StatusOK, payload)
}

// Feedback accepts one interaction event and publishes it to the stream.
// The profile rebuild happens asynchronously on the consumer side.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	var event models.InteractionEvent
	limited := io.LimitReader(r.Body, maxRequestBodySize)
	if err := json.NewDecoder(limited).Decode(&event); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if event.UserID == "" || event.ItemID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "user_id and item_id are required")
		return
	}
	if event.EventType == "" {
		event.EventType = "CLICK"
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if err := h.feedback.PublishInteraction(r.Context(), &event); err != nil {
		h.logger.Error("publishing feedback failed",
			zap.String("user_id", event.UserID),
			zap.Error(err),
		)
		h.writeError(w, http.StatusServiceUnavailable, "publish_error", "Feedback could not be accepted")
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) parseSearchRequest(r *http.Request) (*models.SearchRequest, error) {
	if r.Method == http.MethodPost {
		var req models.SearchRequest
		limited := io.LimitReader(r.Body, maxRequestBodySize)
		if err := json.NewDecoder(limited).Decode(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	// GET request
	req := &models.SearchRequest{
		Query:  r.URL.Query().Get("q"),
		UserID: r.URL.Query().Get("user_id"),
	}

	if p := r.URL.Query().Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err == nil && page >= 0 {
			req.Page = page
		}
	}

	if ps := r.URL.Query().Get("page_size"); ps != "" {
		pageSize, err := strconv.Atoi(ps)
		if err == nil && pageSize > 0 {
			req.PageSize = pageSize
		}
	}

	if r.URL.Query().Get("force_fresh") == "true" {
		req.ForceFresh = true
	}

	return req, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("writing json response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}
