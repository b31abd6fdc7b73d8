// Package remote is the HTTP client side of the record API. Client satisfies
// types.Updater so an edit session can commit through it.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/rowedit/internal/httpserver"
	"github.com/mesh-intelligence/rowedit/pkg/types"
)

const (
	// DefaultTimeout bounds a single request when no timeout is configured.
	DefaultTimeout = 10 * time.Second

	dataPath     = "/api/data"
	maxBodyBytes = 4 << 20
)

// ErrNoBaseURL is returned by New when no base url is configured.
var ErrNoBaseURL = errors.New("remote base url is empty")

// Client talks to one record API server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	fetches singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its timeout is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a client for the API rooted at baseURL. A non-positive timeout
// selects DefaultTimeout.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrNoBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: u.String(),
		http:    &http.Client{Timeout: timeout},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch returns every record in display order. Concurrent calls share one
// request, which is bounded by the client timeout rather than by any one
// caller's context; a caller whose ctx ends stops waiting on its own.
func (c *Client) Fetch(ctx context.Context) ([]types.Record, error) {
	ch := c.fetches.DoChan(dataPath, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetching records: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("fetch shared")
		}
		return types.CloneRecords(res.Val.([]types.Record)), nil
	}
}

func (c *Client) fetch(ctx context.Context) ([]types.Record, error) {
	var records []types.Record
	if _, err := c.do(ctx, http.MethodGet, dataPath, nil, &records); err != nil {
		return nil, fmt.Errorf("fetching records: %w", err)
	}
	if records == nil {
		records = []types.Record{}
	}
	return records, nil
}

// Get returns record id. A 404 wraps types.ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (types.Record, error) {
	var rec types.Record
	status, err := c.do(ctx, http.MethodGet, dataPath+"/"+url.PathEscape(id), nil, &rec)
	if status == http.StatusNotFound {
		return types.Record{}, fmt.Errorf("record %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.Record{}, fmt.Errorf("getting record %s: %w", id, err)
	}
	return rec, nil
}

// Create adds a record with the given fields and returns it with the id the
// server assigned.
func (c *Client) Create(ctx context.Context, fields map[string]string) (types.Record, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return types.Record{}, fmt.Errorf("encoding record: %w", err)
	}
	var rec types.Record
	if _, err := c.do(ctx, http.MethodPost, dataPath, payload, &rec); err != nil {
		return types.Record{}, fmt.Errorf("creating record: %w", err)
	}
	return rec, nil
}

// do sends one request and decodes a 2xx body into out. It returns the
// response status, or 0 when no response was received.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) (int, error) {
	req, err := c.newRequest(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, errorCode(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}
	return resp.StatusCode, nil
}

// Update sends the staged fields of record id as one PATCH and returns the
// authoritative record. Every failure is an *types.UpdateError.
func (c *Client) Update(ctx context.Context, id string, fields map[string]string) (types.Record, error) {
	payload, err := json.Marshal(types.Record{ID: id, Fields: fields})
	if err != nil {
		return types.Record{}, &types.UpdateError{ID: id, Reason: "encoding request", Err: err}
	}
	req, err := c.newRequest(ctx, http.MethodPatch, c.baseURL+dataPath+"/"+url.PathEscape(id), payload)
	if err != nil {
		return types.Record{}, &types.UpdateError{ID: id, Reason: "building request", Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return types.Record{}, &types.UpdateError{ID: id, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return types.Record{}, &types.UpdateError{ID: id, Status: resp.StatusCode, Reason: "reading response", Err: err}
	}
	c.logger.Debug("remote update",
		"id", id,
		"status", resp.StatusCode,
		"request_id", resp.Header.Get(httpserver.HeaderRequestID),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.Record{}, &types.UpdateError{ID: id, Status: resp.StatusCode, Reason: errorCode(body)}
	}
	var rec types.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return types.Record{}, &types.UpdateError{ID: id, Status: resp.StatusCode, Reason: "malformed response", Err: err}
	}
	return rec, nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid, err := uuid.NewV7(); err == nil {
		req.Header.Set(httpserver.HeaderRequestID, rid.String())
	}
	return req, nil
}

// errorCode extracts the error member of an API error body, falling back to
// a trimmed copy of the body.
func errorCode(body []byte) string {
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

var _ types.Updater = (*Client)(nil)
