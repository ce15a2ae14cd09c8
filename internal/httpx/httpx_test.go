package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusConflict, "barcode_taken", "Barcode already exists")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "barcode_taken", resp.Error.Code)
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"milk"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), r, &dst))
	assert.Equal(t, "milk", dst.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.Error(t, DecodeJSON(httptest.NewRecorder(), r, &dst))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}{"name":"b"}`))
	assert.Error(t, DecodeJSON(httptest.NewRecorder(), r, &dst))
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage(httptest.NewRequest(http.MethodGet, "/v1/products", nil))
	require.NoError(t, err)
	assert.Equal(t, 1, page)

	page, err = ParsePage(httptest.NewRequest(http.MethodGet, "/v1/products?page=3", nil))
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 40, Offset(page, 20))

	for _, bad := range []string{"0", "-1", "abc"} {
		_, err = ParsePage(httptest.NewRequest(http.MethodGet, "/v1/products?page="+bad, nil))
		assert.Error(t, err, bad)
	}
}

func TestNewPageLinks(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/fridge?page=2&product-name=milk", nil)
	p := NewPage(r, []int{1, 2}, 5, 2, 2)

	require.NotNil(t, p.Next)
	require.NotNil(t, p.Previous)
	assert.Equal(t, "/v1/fridge?page=3&product-name=milk", *p.Next)
	assert.Equal(t, "/v1/fridge?product-name=milk", *p.Previous)

	last := NewPage(r, []int{5}, 5, 3, 2)
	assert.Nil(t, last.Next)

	empty := NewPage[int](httptest.NewRequest(http.MethodGet, "/v1/fridge", nil), nil, 0, 1, 20)
	assert.NotNil(t, empty.Results)
	assert.Nil(t, empty.Next)
	assert.Nil(t, empty.Previous)
}
