package meals

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fdg312/fridge-journal/internal/httpx"
	"github.com/fdg312/fridge-journal/internal/userctx"
)

// Handler handles HTTP requests for user meals.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleList handles GET /v1/user-meals
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	meals, err := h.service.List(r.Context(), userctx.OwnerID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Meals are few per user; the whole list is one page.
	httpx.WriteJSON(w, http.StatusOK, httpx.NewPage(r, meals, len(meals), 1, 0))
}

// HandleCreate handles POST /v1/user-meals
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateMealRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	meal, err := h.service.Create(r.Context(), userctx.OwnerID(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, meal)
}

// HandleGet handles GET /v1/user-meals/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	meal, err := h.service.Get(r.Context(), userctx.OwnerID(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meal)
}

// HandleUpdate handles PATCH /v1/user-meals/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateMealRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	meal, err := h.service.Update(r.Context(), userctx.OwnerID(r.Context()), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meal)
}

// HandleDelete handles DELETE /v1/user-meals/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userctx.OwnerID(r.Context()), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Meal not found")
	case errors.Is(err, ErrMealInUse):
		httpx.WriteError(w, http.StatusConflict, "meal_in_use", "Meal is referenced by journal entries")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("meals request failed")
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
