// Package gateway is the HTTP client for the achievement API. It implements
// the submission pipeline's Gateway contract plus list/detail reads.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/achievement-space/core/internal/modules/achievement/content"
	"github.com/achievement-space/core/internal/modules/achievement/form"
	"github.com/achievement-space/core/internal/pkg/response"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("entity not found")

// APIError is a non-2xx answer from the server, carrying the envelope's
// message verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Message)
}

// ListQuery are the supported list parameters.
type ListQuery struct {
	Page    int
	PerPage int
}

// ListResult is a page of summaries with its pagination metadata.
type ListResult struct {
	Contents   []form.Detail       `json:"contents"`
	Pagination response.Pagination `json:"pagination"`
}

// Client talks to the achievement API over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the given API base URL, e.g.
// "https://host/achievement/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func kindPath(kind form.Kind) string {
	if kind == form.KindCertificate {
		return "/cms/certificates"
	}
	return "/cms/badges"
}

// GetList fetches a page of badge or certificate summaries.
func (c *Client) GetList(ctx context.Context, kind form.Kind, q ListQuery) (ListResult, error) {
	path := kindPath(kind)
	params := make([]string, 0, 2)
	if q.Page > 0 {
		params = append(params, "page="+strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		params = append(params, "per_page="+strconv.Itoa(q.PerPage))
	}
	if len(params) > 0 {
		path += "?" + strings.Join(params, "&")
	}

	var out ListResult
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return ListResult{}, err
	}
	return out, nil
}

// GetDetail fetches a single entity, or ErrNotFound.
func (c *Client) GetDetail(ctx context.Context, kind form.Kind, id string) (form.Detail, error) {
	var out form.Detail
	err := c.do(ctx, http.MethodGet, kindPath(kind)+"/"+id, nil, "", &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return form.Detail{}, ErrNotFound
		}
		return form.Detail{}, err
	}
	return out, nil
}

// Create submits a new entity.
func (c *Client) Create(ctx context.Context, kind form.Kind, payload form.Payload) (form.SubmitResult, error) {
	return c.submit(ctx, http.MethodPost, kindPath(kind), payload)
}

// Update patches an existing entity.
func (c *Client) Update(ctx context.Context, kind form.Kind, id string, payload form.Payload) (form.SubmitResult, error) {
	return c.submit(ctx, http.MethodPatch, kindPath(kind)+"/"+id, payload)
}

// Delete soft-deletes an entity.
func (c *Client) Delete(ctx context.Context, kind form.Kind, id string) error {
	return c.do(ctx, http.MethodDelete, kindPath(kind)+"/"+id, nil, "", nil)
}

func (c *Client) submit(ctx context.Context, method, path string, payload form.Payload) (form.SubmitResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return form.SubmitResult{}, fmt.Errorf("encode payload: %w", err)
	}

	var out form.SubmitResult
	if err := c.do(ctx, method, path, bytes.NewReader(body), "application/json", &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return form.SubmitResult{}, &form.SubmitError{
				StatusCode: apiErr.StatusCode,
				Message:    apiErr.Message,
			}
		}
		return form.SubmitResult{}, err
	}
	return out, nil
}

// Upload sends a pending binary as multipart form data under the given
// logical key and returns the stored asset's metadata.
func (c *Client) Upload(ctx context.Context, file *content.PendingFile, key string) (form.UploadedAsset, error) {
	if file == nil {
		return form.UploadedAsset{}, errors.New("nil file")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return form.UploadedAsset{}, err
	}
	if _, err := part.Write(file.Data); err != nil {
		return form.UploadedAsset{}, err
	}
	if err := writer.WriteField("key", key); err != nil {
		return form.UploadedAsset{}, err
	}
	if err := writer.Close(); err != nil {
		return form.UploadedAsset{}, err
	}

	var out form.UploadedAsset
	if err := c.do(ctx, http.MethodPost, "/upload", &buf, writer.FormDataContentType(), &out); err != nil {
		return form.UploadedAsset{}, err
	}
	return out, nil
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		c.log.Debug("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
