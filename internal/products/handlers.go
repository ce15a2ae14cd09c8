package products

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/fdg312/fridge-journal/internal/httpx"
	"github.com/fdg312/fridge-journal/internal/nutrition"
	"github.com/fdg312/fridge-journal/internal/userctx"
)

// Handler handles HTTP requests for the product catalogue.
type Handler struct {
	service  *Service
	pageSize int
}

func NewHandler(service *Service, pageSize int) *Handler {
	return &Handler{service: service, pageSize: pageSize}
}

// HandleList handles GET /v1/products
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.ParsePage(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	products, total, err := h.service.List(r.Context(), h.pageSize, httpx.Offset(page, h.pageSize))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, httpx.NewPage(r, products, total, page, h.pageSize))
}

// HandleCreate handles POST /v1/products
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	product, err := h.service.Create(r.Context(), userctx.OwnerID(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, product)
}

// HandleGet handles GET /v1/products/{barcode}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), r.PathValue("barcode"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, product)
}

// HandleReplace handles PUT /v1/products/{barcode}
func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	product, err := h.service.Replace(r.Context(), r.PathValue("barcode"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, product)
}

// HandlePatch handles PATCH /v1/products/{barcode}
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var req PatchProductRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	product, err := h.service.Patch(r.Context(), r.PathValue("barcode"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, product)
}

// HandleDelete handles DELETE /v1/products/{barcode}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("barcode")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleNutrients handles GET /v1/products/{barcode}/nutrients?amount=&unit=
// The unit defaults to the product's own unit.
func (h *Handler) HandleNutrients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil || amount < 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "amount must be a non-negative number")
		return
	}

	barcode := r.PathValue("barcode")

	var unit nutrition.Unit
	if raw := q.Get("unit"); raw != "" {
		if unit, err = nutrition.ParseUnit(raw); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	} else {
		p, err := h.service.Lookup(r.Context(), barcode)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		unit = p.Unit
	}

	resp, err := h.service.Nutrients(r.Context(), barcode, amount, unit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleUploadPicture handles POST /v1/products/{barcode}/picture (multipart, field "file")
func (h *Handler) HandleUploadPicture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxUploadBytes()+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "file is required")
		return
	}
	defer file.Close()

	if header.Size > h.service.MaxUploadBytes() {
		writeServiceError(w, r, ErrFileTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "failed to read file")
		return
	}

	product, err := h.service.UploadPicture(r.Context(), r.PathValue("barcode"), data, header.Header.Get("Content-Type"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, product)
}

// HandleGetPicture handles GET /v1/products/{barcode}/picture
func (h *Handler) HandleGetPicture(w http.ResponseWriter, r *http.Request) {
	link, obj, err := h.service.Picture(r.Context(), r.PathValue("barcode"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if link != "" {
		http.Redirect(w, r, link, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Data)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, nutrition.ErrIncompatibleUnits):
		httpx.WriteError(w, http.StatusBadRequest, "incompatible_units", err.Error())
	case errors.Is(err, nutrition.ErrUnknownUnit), errors.Is(err, nutrition.ErrDegenerateProduct):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Product not found")
	case errors.Is(err, ErrNoPicture):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Product has no picture")
	case errors.Is(err, ErrBarcodeTaken):
		httpx.WriteError(w, http.StatusConflict, "barcode_taken", "A product with this barcode already exists")
	case errors.Is(err, ErrFileTooLarge):
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds the upload limit")
	case errors.Is(err, ErrUnsupportedMime):
		httpx.WriteError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "File type is not allowed")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("products request failed")
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
