package fridge

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fdg312/fridge-journal/internal/httpx"
	"github.com/fdg312/fridge-journal/internal/nutrition"
	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/fdg312/fridge-journal/internal/userctx"
)

// Handler handles HTTP requests for the user's fridge.
type Handler struct {
	service  *Service
	pageSize int
}

func NewHandler(service *Service, pageSize int) *Handler {
	return &Handler{service: service, pageSize: pageSize}
}

// HandleList handles GET /v1/fridge?is-on-shopping-list=&show-below-threshold=&product-name=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.ParsePage(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	items, total, err := h.service.List(r.Context(), userctx.OwnerID(r.Context()), filter, h.pageSize, httpx.Offset(page, h.pageSize))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, httpx.NewPage(r, items, total, page, h.pageSize))
}

// HandleCreate handles POST /v1/fridge
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	item, err := h.service.Create(r.Context(), userctx.OwnerID(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, item)
}

// HandleGet handles GET /v1/fridge/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	item, err := h.service.Get(r.Context(), userctx.OwnerID(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, item)
}

// HandleUpdate handles PATCH /v1/fridge/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	item, err := h.service.Update(r.Context(), userctx.OwnerID(r.Context()), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, item)
}

// HandleDelete handles DELETE /v1/fridge/{id}
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

func parseFilter(r *http.Request) (storage.FridgeFilter, error) {
	q := r.URL.Query()
	filter := storage.FridgeFilter{ProductName: q.Get("product-name")}

	if raw := q.Get("is-on-shopping-list"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("is-on-shopping-list must be a boolean")
		}
		filter.OnShoppingList = &v
	}
	if raw := q.Get("show-below-threshold"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("show-below-threshold must be a boolean")
		}
		filter.BelowThreshold = v
	}
	return filter, nil
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
	case errors.Is(err, ErrValidation), errors.Is(err, nutrition.ErrUnknownUnit):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, nutrition.ErrIncompatibleUnits):
		httpx.WriteError(w, http.StatusBadRequest, "incompatible_units", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Fridge item not found")
	case errors.Is(err, ErrProductNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Product not found")
	case errors.Is(err, ErrAlreadyInFridge):
		httpx.WriteError(w, http.StatusConflict, "already_in_fridge", "Product is already in the fridge")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("fridge request failed")
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
