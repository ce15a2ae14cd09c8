package journal

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fdg312/fridge-journal/internal/httpx"
	"github.com/fdg312/fridge-journal/internal/nutrition"
	"github.com/fdg312/fridge-journal/internal/userctx"
)

// Handler handles HTTP requests for the food journal.
type Handler struct {
	service  *Service
	pageSize int
}

func NewHandler(service *Service, pageSize int) *Handler {
	return &Handler{service: service, pageSize: pageSize}
}

// HandleList handles GET /v1/journal?year=&month=&day=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.ParsePage(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	q := r.URL.Query()
	year, month, day := q.Get("year"), q.Get("month"), q.Get("day")

	var date string
	switch {
	case year == "" && month == "" && day == "":
	case year != "" && month != "" && day != "":
		if date, err = dateFromParts(year, month, day); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	default:
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "year, month and day must be given together")
		return
	}

	entries, total, err := h.service.List(r.Context(), userctx.OwnerID(r.Context()), date, h.pageSize, httpx.Offset(page, h.pageSize))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, httpx.NewPage(r, entries, total, page, h.pageSize))
}

// HandleCreate handles POST /v1/journal
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	entry, err := h.service.Create(r.Context(), userctx.OwnerID(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, entry)
}

// HandleGet handles GET /v1/journal/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	entry, err := h.service.Get(r.Context(), userctx.OwnerID(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, entry)
}

// HandleUpdate handles PATCH /v1/journal/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateEntryRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	entry, err := h.service.Update(r.Context(), userctx.OwnerID(r.Context()), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, entry)
}

// HandleDelete handles DELETE /v1/journal/{id}
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

// HandleDay handles GET /v1/journal/day?date=YYYY-MM-DD
func (h *Handler) HandleDay(w http.ResponseWriter, r *http.Request) {
	day, err := h.service.Day(r.Context(), userctx.OwnerID(r.Context()), r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, day)
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
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Journal entry not found")
	case errors.Is(err, ErrMealNotFound):
		httpx.WriteError(w, http.StatusNotFound, "meal_not_found", "Meal not found")
	case errors.Is(err, ErrProductNotFound):
		httpx.WriteError(w, http.StatusNotFound, "product_not_found", "Product not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("journal request failed")
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
