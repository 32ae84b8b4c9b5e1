// Package client talks to the upload server on behalf of the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meur/tiermaker/internal/models"
)

// ErrServiceDown indicates the upload server cannot be reached.
var ErrServiceDown = errors.New("upload service unavailable")

// APIError is a non-2xx answer from the upload server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upload service returned %d", e.Status)
	}
	return fmt.Sprintf("upload service returned %d: %s", e.Status, e.Message)
}

// Client calls the upload, delete and health endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a client for the server at baseURL (scheme://host[:port]).
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

// BaseURL returns the server origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadRequest is one image to send.
type UploadRequest struct {
	Filename    string
	ContentType string
	Data        []byte
	Name        string
	Description string
}

// Health returns nil when the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	var out models.HealthResponse
	if err := c.do(req, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("%w: health status %q", ErrServiceDown, out.Status)
	}
	return nil
}

// Upload sends an image and returns the server-assigned ID and URL.
func (c *Client) Upload(ctx context.Context, in UploadRequest) (models.UploadResponse, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("name", in.Name); err != nil {
		return models.UploadResponse{}, err
	}
	if err := mw.WriteField("description", in.Description); err != nil {
		return models.UploadResponse{}, err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, in.Filename))
	h.Set("Content-Type", in.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return models.UploadResponse{}, err
	}
	if _, err := part.Write(in.Data); err != nil {
		return models.UploadResponse{}, err
	}
	if err := mw.Close(); err != nil {
		return models.UploadResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", body)
	if err != nil {
		return models.UploadResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out models.UploadResponse
	if err := c.do(req, &out); err != nil {
		return models.UploadResponse{}, err
	}
	if out.ImageURL == "" {
		return models.UploadResponse{}, errors.New("invalid server response: missing imageUrl")
	}
	c.log.Debug("image uploaded", zap.String("id", out.ID), zap.String("url", out.ImageURL))
	return out, nil
}

// Delete removes a stored file by its server-assigned name.
func (c *Client) Delete(ctx context.Context, filename string) error {
	target := c.baseURL + "/api/upload/" + url.PathEscape(filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return err
	}
	var out models.DeleteResponse
	if err := c.do(req, &out); err != nil {
		return err
	}
	if !out.Deleted {
		return errors.New("invalid server response: file not deleted")
	}
	return nil
}

// do sends req and decodes a JSON success body into out.
func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrServiceDown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload models.ErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err == nil {
			apiErr.Message = payload.Message
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid server response: %w", err)
	}
	return nil
}
