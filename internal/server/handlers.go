// Package server provides HTTP handlers and server setup for the model
// registry service.
package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"modelhub/internal/core"
	"modelhub/internal/registry"
	"modelhub/internal/selection"
)

// Handler holds the HTTP handlers
type Handler struct {
	registry *registry.Registry
	selector *selection.Selector
}

// NewHandler creates a new handler backed by the given registry and selector
func NewHandler(reg *registry.Registry, sel *selection.Selector) *Handler {
	return &Handler{
		registry: reg,
		selector: sel,
	}
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// modelList is the response shape for GET /v1/models.
type modelList struct {
	Object  string       `json:"object"`
	Version uint64       `json:"version"`
	Updated time.Time    `json:"updated_at"`
	Data    []core.Entry `json:"data"`
}

// ListModels handles GET /v1/models
func (h *Handler) ListModels(c echo.Context) error {
	snap := h.registry.Snapshot()
	return c.JSON(http.StatusOK, modelList{
		Object:  "list",
		Version: snap.Version(),
		Updated: snap.CreatedAt(),
		Data:    snap.List(),
	})
}

// GetModel handles GET /v1/models/<id>, where <id> may contain slashes.
func (h *Handler) GetModel(c echo.Context) error {
	id := strings.TrimPrefix(c.Param("*"), "/")
	if id == "" {
		return handleError(c, &core.UnknownModelError{Model: id})
	}
	entry, ok := h.registry.Get(id)
	if !ok {
		return handleError(c, &core.UnknownModelError{Model: id})
	}
	return c.JSON(http.StatusOK, entry)
}

// selectResponse is the response shape for POST /v1/select.
type selectResponse struct {
	RequestID  string                 `json:"request_id"`
	Model      core.Entry             `json:"model"`
	Score      float64                `json:"score"`
	Candidates []core.ScoredCandidate `json:"candidates,omitempty"`
}

// Select handles POST /v1/select
func (h *Handler) Select(c echo.Context) error {
	var crit core.Criteria
	if err := c.Bind(&crit); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"type":    "invalid_request_error",
				"message": "invalid request body: " + err.Error(),
			},
		})
	}

	res, err := h.selector.Select(c.Request().Context(), crit)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, selectResponse{
		RequestID:  uuid.NewString(),
		Model:      res.Entry,
		Score:      res.Score,
		Candidates: res.Candidates,
	})
}

// Refresh handles POST /v1/refresh, forcing a catalog rebuild.
func (h *Handler) Refresh(c echo.Context) error {
	if err := h.registry.Refresh(c.Request().Context()); err != nil {
		return handleError(c, err)
	}
	snap := h.registry.Snapshot()
	return c.JSON(http.StatusOK, map[string]any{
		"version": snap.Version(),
		"models":  snap.Len(),
	})
}

// handleError maps domain errors to HTTP status codes with a structured
// body.
func handleError(c echo.Context, err error) error {
	var (
		unknownModel *core.UnknownModelError
		noCandidate  *core.NoCandidateModelError
		hookErr      *core.HookError
		configErr    *core.AggregationConfigError
	)
	switch {
	case errors.As(err, &unknownModel):
		return errorJSON(c, http.StatusNotFound, "unknown_model", unknownModel.Error())
	case errors.As(err, &noCandidate):
		return errorJSON(c, http.StatusUnprocessableEntity, "no_candidate_model", noCandidate.Error())
	case errors.As(err, &hookErr):
		return errorJSON(c, http.StatusInternalServerError, "hook_error", hookErr.Error())
	case errors.As(err, &configErr):
		return errorJSON(c, http.StatusInternalServerError, "configuration_error", configErr.Error())
	}

	// Fallback for unexpected errors
	return errorJSON(c, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
}

func errorJSON(c echo.Context, status int, typ, msg string) error {
	return c.JSON(status, map[string]any{
		"error": map[string]any{
			"type":    typ,
			"message": msg,
		},
	})
}
