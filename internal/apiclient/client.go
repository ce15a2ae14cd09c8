// Package apiclient talks to the fridge journal API on behalf of the CLI:
// token handling with one-shot refresh, an optimistic day cache and
// debounced amount updates.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/fdg312/fridge-journal/internal/auth"
	"github.com/fdg312/fridge-journal/internal/fridge"
	"github.com/fdg312/fridge-journal/internal/httpx"
	"github.com/fdg312/fridge-journal/internal/journal"
	"github.com/fdg312/fridge-journal/internal/products"
)

// ErrSessionExpired is returned when the refresh token was rejected. The
// token store has been cleared by then.
var ErrSessionExpired = errors.New("session expired")

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d", e.Status)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	logger  zerolog.Logger

	refreshGroup singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for baseURL. A nil store keeps tokens in memory.
func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token pair and stores it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var pair auth.TokenPair
	err := c.send(ctx, http.MethodPost, "/v1/auth/login", auth.LoginRequest{Username: username, Password: password}, &pair, "")
	if err != nil {
		return err
	}
	return c.tokens.Save(Tokens{Access: pair.Access, Refresh: pair.Refresh})
}

// DevLogin signs in as the development user. Dev tokens cannot be refreshed.
func (c *Client) DevLogin(ctx context.Context) error {
	var resp auth.DevAuthResponse
	if err := c.send(ctx, http.MethodPost, "/v1/auth/dev", nil, &resp, ""); err != nil {
		return err
	}
	return c.tokens.Save(Tokens{Access: resp.AccessToken})
}

func (c *Client) Logout() error {
	return c.tokens.Clear()
}

func (c *Client) Me(ctx context.Context) (*auth.UserResponse, error) {
	var user auth.UserResponse
	if err := c.do(ctx, http.MethodGet, "/v1/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FridgeFilter mirrors the query parameters of GET /v1/fridge.
type FridgeFilter struct {
	ShoppingList   bool
	BelowThreshold bool
	ProductName    string
	Page           int
}

func (f FridgeFilter) query() string {
	q := url.Values{}
	if f.ShoppingList {
		q.Set("is-on-shopping-list", "true")
	}
	if f.BelowThreshold {
		q.Set("show-below-threshold", "true")
	}
	if f.ProductName != "" {
		q.Set("product-name", f.ProductName)
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) Fridge(ctx context.Context, filter FridgeFilter) (*httpx.Page[fridge.ItemDTO], error) {
	var page httpx.Page[fridge.ItemDTO]
	if err := c.do(ctx, http.MethodGet, "/v1/fridge"+filter.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Product(ctx context.Context, barcode string) (*products.ProductDTO, error) {
	var p products.ProductDTO
	if err := c.do(ctx, http.MethodGet, "/v1/products/"+url.PathEscape(barcode), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Day fetches the journal day view for date (YYYY-MM-DD).
func (c *Client) Day(ctx context.Context, date string) (*journal.DayView, error) {
	var day journal.DayView
	if err := c.do(ctx, http.MethodGet, "/v1/journal/day?date="+url.QueryEscape(date), nil, &day); err != nil {
		return nil, err
	}
	return &day, nil
}

// UpdateEntryAmount sets a journal entry amount. An empty unit means the
// product's unit.
func (c *Client) UpdateEntryAmount(ctx context.Context, entryID string, amount float64, unit string) (*journal.EntryDTO, error) {
	req := journal.UpdateEntryRequest{Amount: &amount}
	if unit != "" {
		req.Unit = &unit
	}
	var entry journal.EntryDTO
	if err := c.do(ctx, http.MethodPatch, "/v1/journal/"+url.PathEscape(entryID), req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// do sends an authenticated request. A 401 triggers one token refresh and a
// single retry.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	tokens, err := c.tokens.Load()
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}

	err = c.send(ctx, method, path, body, out, tokens.Access)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || tokens.Access == "" {
		return err
	}

	renewed, err := c.refresh(ctx, tokens.Access)
	if err != nil {
		return err
	}
	return c.send(ctx, method, path, body, out, renewed.Access)
}

// refresh renews the pair once for every caller that failed with the same
// access token.
func (c *Client) refresh(ctx context.Context, failedAccess string) (Tokens, error) {
	v, err, shared := c.refreshGroup.Do("refresh", func() (any, error) {
		current, err := c.tokens.Load()
		if err != nil {
			return Tokens{}, fmt.Errorf("load tokens: %w", err)
		}
		if current.Access != "" && current.Access != failedAccess {
			return current, nil
		}
		if current.Refresh == "" {
			_ = c.tokens.Clear()
			return Tokens{}, ErrSessionExpired
		}

		var pair auth.TokenPair
		err = c.send(ctx, http.MethodPost, "/v1/auth/refresh", auth.RefreshRequest{Refresh: current.Refresh}, &pair, "")
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.logger.Debug().Int("status", apiErr.Status).Msg("token refresh rejected")
			if clearErr := c.tokens.Clear(); clearErr != nil {
				c.logger.Warn().Err(clearErr).Msg("clear tokens")
			}
			return Tokens{}, ErrSessionExpired
		}
		if err != nil {
			return Tokens{}, fmt.Errorf("refresh tokens: %w", err)
		}

		renewed := Tokens{Access: pair.Access, Refresh: pair.Refresh}
		if renewed.Refresh == "" {
			renewed.Refresh = current.Refresh
		}
		if err := c.tokens.Save(renewed); err != nil {
			return Tokens{}, fmt.Errorf("save tokens: %w", err)
		}
		return renewed, nil
	})
	if err != nil {
		return Tokens{}, err
	}
	c.logger.Debug().Bool("shared", shared).Msg("tokens refreshed")
	return v.(Tokens), nil
}

func (c *Client) send(ctx context.Context, method, path string, body, out any, access string) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp httpx.ErrorResponse
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil {
			apiErr.Code = errResp.Error.Code
			apiErr.Message = errResp.Error.Message
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
