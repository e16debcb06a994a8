// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/metrics"
	"github.com/tomtom215/shelfrank/internal/recommend"
	"github.com/tomtom215/shelfrank/internal/recommend/storage"
)

// Handler serves the recommendation endpoints.
type Handler struct {
	svc       *recommend.Service
	limits    config.LimitsConfig
	artifacts []storage.ArtifactMetadata
	started   time.Time
	logger    zerolog.Logger
}

// NewHandler creates a Handler over a ready recommendation service.
// artifacts is the metadata of the loaded artifact set, surfaced on the
// status endpoint.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(svc *recommend.Service, limits config.LimitsConfig,
	artifacts []storage.ArtifactMetadata, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:       svc,
		limits:    limits,
		artifacts: artifacts,
		started:   time.Now(),
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// resultCount resolves the n query parameter, applying the default and cap.
// The second return is false for a malformed value.
func (h *Handler) resultCount(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return h.limits.DefaultN, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	if n > h.limits.MaxN {
		n = h.limits.MaxN
	}
	return n, true
}

// SimilarItems handles GET /api/v1/recommendations/similar?title={title}.
// Unknown titles and items without similarity data return the popularity
// fallback; the response's source field says which path was taken.
func (h *Handler) SimilarItems(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	title := r.URL.Query().Get("title")
	if title == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "title query parameter is required")
		return
	}
	n, ok := h.resultCount(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "n must be a positive integer")
		return
	}

	result := h.svc.RecommendSimilar(title, n)

	outcome := "ok"
	if result.Source == recommend.SourcePopularity {
		outcome = "fallback"
	}
	metrics.RecordQuery("similar", outcome, time.Since(start))

	respondJSON(w, r, http.StatusOK, result)
}

// userRecommendationsPayload is the personalized endpoint response body.
type userRecommendationsPayload struct {
	UserID string                         `json:"user_id"`
	Items  []recommend.UserRecommendation `json:"items"`
}

// UserRecommendations handles GET /api/v1/recommendations/user/{userID}.
// A user the model was not trained on is a 404, not an empty list.
func (h *Handler) UserRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID := chi.URLParam(r, "userID")
	n, ok := h.resultCount(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "n must be a positive integer")
		return
	}

	items, err := h.svc.RecommendForUser(userID, n)
	if err != nil {
		if errors.Is(err, recommend.ErrUnknownUser) {
			metrics.RecordQuery("personalized", "not_found", time.Since(start))
			respondError(w, r, http.StatusNotFound, ErrCodeUserNotFound, "user has no rating history")
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("personalized query failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to generate recommendations")
		return
	}

	metrics.RecordQuery("personalized", "ok", time.Since(start))
	respondJSON(w, r, http.StatusOK, userRecommendationsPayload{UserID: userID, Items: items})
}

// itemsPayload is the item listing response body.
type itemsPayload struct {
	Items []string `json:"items"`
	Count int      `json:"count"`
}

// Items handles GET /api/v1/items: the titles valid as similar-items input.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	items := h.svc.AvailableItems()

	metrics.RecordQuery("items", "ok", time.Since(start))
	respondJSON(w, r, http.StatusOK, itemsPayload{Items: items, Count: len(items)})
}

// Popular handles GET /api/v1/popular: the popularity ranking top-n.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	n, ok := h.resultCount(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "n must be a positive integer")
		return
	}

	items := h.svc.TopPopular(n)

	metrics.RecordQuery("popular", "ok", time.Since(start))
	respondJSON(w, r, http.StatusOK, popularPayload{Items: items, Count: len(items)})
}

// popularPayload is the popularity endpoint response body.
type popularPayload struct {
	Items []recommend.Recommendation `json:"items"`
	Count int                        `json:"count"`
}

// statusPayload is the status endpoint response body.
type statusPayload struct {
	Status        string                     `json:"status"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Artifacts     []storage.ArtifactMetadata `json:"artifacts"`
}

// Status handles GET /api/v1/status: uptime and loaded artifact versions.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, statusPayload{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Artifacts:     h.artifacts,
	})
}

// Healthz handles GET /healthz for liveness probes.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n")) //nolint:errcheck // liveness probe write failure is not actionable
}
