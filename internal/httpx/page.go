package httpx

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Page is the list envelope: total count, links to the neighbour pages and the current slice.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// ParsePage reads the 1-based ?page= parameter.
func ParsePage(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("page must be a positive integer")
	}
	return page, nil
}

// Offset converts a page number into a storage offset.
func Offset(page, size int) int {
	return (page - 1) * size
}

// NewPage builds the envelope. Links keep the request path and query, only page= changes.
func NewPage[T any](r *http.Request, results []T, count, page, size int) Page[T] {
	if results == nil {
		results = []T{}
	}
	p := Page[T]{Count: count, Results: results}
	if size > 0 && page*size < count {
		p.Next = pageLink(r.URL, page+1)
	}
	if page > 1 {
		p.Previous = pageLink(r.URL, page-1)
	}
	return p
}

func pageLink(u *url.URL, page int) *string {
	q := u.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}

	link := u.Path
	if encoded := q.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return &link
}
