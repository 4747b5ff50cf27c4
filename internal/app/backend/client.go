// Package backend wraps every call the console makes to the REST service: base URL,
// bearer token, JSON and multipart bodies, and error mapping.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/observability/metrics"
	"github.com/FACorreiaa/mixdesk-admin/internal/pkg/config"
)

// FilePart is one file of a multipart request.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Multipart is a form body with optional files.
type Multipart struct {
	Fields map[string]string
	Files  []FilePart
}

// Client is the HTTP wrapper shared by every feature. It keeps no session state: the
// caller passes the session of the current request explicitly.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// URL joins a relative endpoint onto the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Get issues a GET and returns the raw body.
func (c *Client) Get(ctx context.Context, sess models.Session, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, sess, http.MethodGet, c.URL(path, query), nil, "")
}

// SendJSON issues a request with a JSON body.
func (c *Client) SendJSON(ctx context.Context, sess models.Session, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}
	return c.do(ctx, sess, method, c.URL(path, nil), body, "application/json")
}

// SendMultipart issues a multipart/form-data request. PUT and PATCH are sent as POST with
// a _method field, the only way the backend accepts files on updates.
func (c *Client) SendMultipart(ctx context.Context, sess models.Session, method, path string, form Multipart) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if method == http.MethodPut || method == http.MethodPatch {
		if err := w.WriteField("_method", method); err != nil {
			return nil, fmt.Errorf("failed to write multipart field: %w", err)
		}
		method = http.MethodPost
	}

	for name, value := range form.Fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write multipart field %s: %w", name, err)
		}
	}
	for _, f := range form.Files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create multipart file %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("failed to copy multipart file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return c.do(ctx, sess, method, c.URL(path, nil), &buf, w.FormDataContentType())
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, sess models.Session, path string) error {
	_, err := c.do(ctx, sess, http.MethodDelete, c.URL(path, nil), nil, "")
	return err
}

func (c *Client) do(ctx context.Context, sess models.Session, method, target string, body io.Reader, contentType string) ([]byte, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveBackendCall(ctx, method, routeOf(target), "transport_error", time.Since(start))
		if ctx.Err() != nil {
			// Superseded or client went away; callers test with errors.Is(err, context.Canceled).
			return nil, fmt.Errorf("%s %s: %w", method, routeOf(target), ctx.Err())
		}
		return nil, fmt.Errorf("%s %s: %w", method, routeOf(target), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	metrics.ObserveBackendCall(ctx, method, routeOf(target), strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: messageFromBody(data),
			Method:  method,
			Path:    routeOf(target),
		}
		c.logger.Debug("Backend returned error",
			zap.String("method", method),
			zap.String("path", apiErr.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}

	return data, nil
}

// routeOf strips scheme, host and query so metrics and logs keep a small label set.
func routeOf(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	return u.Path
}
