package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"reelforge/server/internal/coordinator"
	"reelforge/server/internal/domain"
	"reelforge/server/internal/middleware"
)

type generationResponse struct {
	ID     string                   `json:"id"`
	Status domain.GenerationStatus  `json:"status"`
	Kind   domain.RequestKind       `json:"kind"`
	Result *domain.GenerationResult `json:"result,omitempty"`
}

// GenerationsCreate accepts a generation request, validates it, and queues it
// for the worker. The response is 202: completion is observed by polling.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.RequesterID = a.currentUserID(r)
	if req.Locale == "" {
		req.Locale = middleware.LocaleFromContext(r.Context())
	}
	if err := req.Normalize(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.ExplicitProvider != "" {
		if _, err := coordinator.SelectOrder(req.Kind, a.Capabilities, req.ExplicitProvider); err != nil {
			a.error(w, http.StatusBadRequest, "provider_unavailable", err.Error())
			return
		}
	}

	rec := &domain.GenerationRecord{
		ID:      uuid.NewString(),
		UserID:  req.RequesterID,
		Kind:    req.Kind,
		Status:  domain.StatusQueued,
		Request: req,
	}
	if err := a.Generations.Create(r.Context(), rec); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: queue generation")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue generation")
		return
	}
	a.json(w, http.StatusAccepted, generationResponse{
		ID:     rec.ID,
		Status: domain.StatusQueued,
		Kind:   rec.Kind,
	})
}

func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid generation id")
		return
	}
	rec, err := a.Generations.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "generation not found")
			return
		}
		a.Logger.Error().Err(err).Str("generation_id", id).Msg("handlers: load generation")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load generation")
		return
	}
	a.json(w, http.StatusOK, generationResponse{
		ID:     rec.ID,
		Status: rec.Status,
		Kind:   rec.Kind,
		Result: rec.Result,
	})
}

func (a *App) GenerationAssets(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid generation id")
		return
	}
	if _, err := a.Generations.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "generation not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load generation")
		return
	}
	assets, err := a.Assets.ListByGenerationID(r.Context(), id)
	if err != nil {
		a.Logger.Error().Err(err).Str("generation_id", id).Msg("handlers: load assets")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load assets")
		return
	}
	items := make([]map[string]any, 0, len(assets))
	for _, asset := range assets {
		items = append(items, map[string]any{
			"id":          asset.ID,
			"kind":        asset.Kind,
			"url":         asset.URL,
			"mime":        asset.MIME,
			"bytes":       asset.Bytes,
			"scene_index": asset.SceneIndex,
			"created_at":  asset.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) GenerationsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	records, err := a.Generations.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("handlers: list generations")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list generations")
		return
	}
	items := make([]generationResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, generationResponse{
			ID:     rec.ID,
			Status: rec.Status,
			Kind:   rec.Kind,
			Result: rec.Result,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
