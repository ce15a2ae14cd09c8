package fridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/fridge-journal/internal/httpx"
	"github.com/fdg312/fridge-journal/internal/nutrition"
	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/fdg312/fridge-journal/internal/storage/memory"
	"github.com/fdg312/fridge-journal/internal/userctx"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	for _, p := range []storage.Product{
		{Barcode: "milk", Name: "Milk", Amount: 1, Unit: nutrition.Liter, Protein: 32, Fat: 25, Carbons: 47},
		{Barcode: "rice", Name: "Rice", Amount: 100, Unit: nutrition.Gram, Protein: 7, Fat: 1, Carbons: 78},
		{Barcode: "flour", Name: "Wheat flour", Amount: 1, Unit: nutrition.Kilogram, Protein: 100, Fat: 12, Carbons: 700},
	} {
		p := p
		require.NoError(t, store.CreateProduct(ctx, &p))
	}

	return NewHandler(NewService(store), 20)
}

func request(method, target, owner, id string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if id != "" {
		req.SetPathValue("id", id)
	}
	return req.WithContext(userctx.WithUserID(req.Context(), owner))
}

func create(t *testing.T, h *Handler, owner string, req CreateItemRequest) ItemDTO {
	t.Helper()
	w := httptest.NewRecorder()
	h.HandleCreate(w, request(http.MethodPost, "/v1/fridge", owner, "", req))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var item ItemDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&item))
	return item
}

func list(t *testing.T, h *Handler, owner, target string) httpx.Page[ItemDTO] {
	t.Helper()
	w := httptest.NewRecorder()
	h.HandleList(w, request(http.MethodGet, target, owner, "", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page httpx.Page[ItemDTO]
	require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
	return page
}

func TestCreateConvertsToProductUnit(t *testing.T) {
	h := newTestHandler(t)

	item := create(t, h, "u1", CreateItemRequest{ProductBarcode: "milk", CurrentAmount: 500, Unit: "ml", Threshold: 250})
	assert.InDelta(t, 0.5, item.CurrentAmount, 1e-9)
	assert.InDelta(t, 0.25, item.Threshold, 1e-9)
	assert.Equal(t, nutrition.Amount{Value: 500, Unit: nutrition.Milliliter}, item.Display)
	assert.Equal(t, []nutrition.Unit{nutrition.Milliliter, nutrition.Liter}, item.AvailableUnits)
	assert.Equal(t, "Milk", item.Product.Name)
	assert.False(t, item.BelowThreshold)

	item = create(t, h, "u1", CreateItemRequest{ProductBarcode: "rice", CurrentAmount: 2000})
	assert.Equal(t, nutrition.Amount{Value: 2, Unit: nutrition.Kilogram}, item.Display)
}

func TestCreateErrors(t *testing.T) {
	h := newTestHandler(t)
	create(t, h, "u1", CreateItemRequest{ProductBarcode: "rice", CurrentAmount: 100})

	tests := []struct {
		name   string
		req    CreateItemRequest
		status int
		code   string
	}{
		{"duplicate", CreateItemRequest{ProductBarcode: "rice", CurrentAmount: 1}, http.StatusConflict, "already_in_fridge"},
		{"unknown product", CreateItemRequest{ProductBarcode: "nope", CurrentAmount: 1}, http.StatusNotFound, "not_found"},
		{"cross family", CreateItemRequest{ProductBarcode: "milk", CurrentAmount: 1, Unit: "kg"}, http.StatusBadRequest, "incompatible_units"},
		{"negative", CreateItemRequest{ProductBarcode: "milk", CurrentAmount: -1}, http.StatusBadRequest, "invalid_request"},
		{"no barcode", CreateItemRequest{CurrentAmount: 1}, http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleCreate(w, request(http.MethodPost, "/v1/fridge", "u1", "", tt.req))
			assert.Equal(t, tt.status, w.Code)

			var resp httpx.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}

	// Another owner may keep the same product.
	create(t, h, "u2", CreateItemRequest{ProductBarcode: "rice", CurrentAmount: 1})
}

func TestListFilters(t *testing.T) {
	h := newTestHandler(t)
	create(t, h, "u1", CreateItemRequest{ProductBarcode: "milk", CurrentAmount: 0.1, Threshold: 0.5, IsOnShoppingList: true})
	create(t, h, "u1", CreateItemRequest{ProductBarcode: "rice", CurrentAmount: 500, Threshold: 100})
	create(t, h, "u1", CreateItemRequest{ProductBarcode: "flour", CurrentAmount: 0.2, Threshold: 0.3})
	create(t, h, "u2", CreateItemRequest{ProductBarcode: "rice", CurrentAmount: 1})

	assert.Equal(t, 3, list(t, h, "u1", "/v1/fridge").Count)

	page := list(t, h, "u1", "/v1/fridge?is-on-shopping-list=true")
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Milk", page.Results[0].Product.Name)

	page = list(t, h, "u1", "/v1/fridge?show-below-threshold=true")
	require.Len(t, page.Results, 2)
	for _, item := range page.Results {
		assert.True(t, item.BelowThreshold)
	}

	page = list(t, h, "u1", "/v1/fridge?product-name=FLOUR")
	require.Len(t, page.Results, 1)
	assert.Equal(t, nutrition.Amount{Value: 200, Unit: nutrition.Gram}, page.Results[0].Display)

	w := httptest.NewRecorder()
	h.HandleList(w, request(http.MethodGet, "/v1/fridge?show-below-threshold=maybe", "u1", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndDelete(t *testing.T) {
	h := newTestHandler(t)
	item := create(t, h, "u1", CreateItemRequest{ProductBarcode: "rice", CurrentAmount: 500})

	amount, unit, onList := 1.5, "kg", true
	w := httptest.NewRecorder()
	h.HandleUpdate(w, request(http.MethodPatch, "/v1/fridge/x", "u1", item.ID, UpdateItemRequest{
		CurrentAmount: &amount, Unit: &unit, IsOnShoppingList: &onList,
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated ItemDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.InDelta(t, 1500, updated.CurrentAmount, 1e-9)
	assert.True(t, updated.IsOnShoppingList)
	assert.Equal(t, nutrition.Amount{Value: 1500, Unit: nutrition.Gram}, updated.Display)

	bad := "l"
	w = httptest.NewRecorder()
	h.HandleUpdate(w, request(http.MethodPatch, "/v1/fridge/x", "u1", item.ID, UpdateItemRequest{CurrentAmount: &amount, Unit: &bad}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A unit alone has nothing to convert.
	w = httptest.NewRecorder()
	h.HandleUpdate(w, request(http.MethodPatch, "/v1/fridge/x", "u1", item.ID, UpdateItemRequest{Unit: &unit, IsOnShoppingList: &onList}))
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// Foreign owners see 404.
	w = httptest.NewRecorder()
	h.HandleGet(w, request(http.MethodGet, "/v1/fridge/x", "u2", item.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.HandleDelete(w, request(http.MethodDelete, "/v1/fridge/x", "u2", item.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.HandleDelete(w, request(http.MethodDelete, "/v1/fridge/x", "u1", item.ID, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.HandleGet(w, request(http.MethodGet, "/v1/fridge/x", "u1", item.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.HandleGet(w, request(http.MethodGet, "/v1/fridge/x", "u1", "not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
