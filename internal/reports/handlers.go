package reports

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/fdg312/fridge-journal/internal/httpx"
	"github.com/fdg312/fridge-journal/internal/userctx"
)

// Handler serves journal exports.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleExport handles GET /v1/journal/report?from=&to=&format=csv|pdf
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ExportRequest{From: q.Get("from"), To: q.Get("to"), Format: q.Get("format")}

	export, err := h.service.Export(r.Context(), userctx.OwnerID(r.Context()), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidFormat):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_format", "Format must be 'pdf' or 'csv'")
		case errors.Is(err, ErrInvalidDate):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_date", "Invalid date format, use YYYY-MM-DD")
		case errors.Is(err, ErrInvalidDateRange):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_range", "From date must not be after to date")
		case errors.Is(err, ErrRangeTooLarge):
			httpx.WriteError(w, http.StatusBadRequest, "range_too_large", fmt.Sprintf("Date range exceeds maximum of %d days", h.service.MaxRangeDays()))
		default:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("journal export failed")
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}
