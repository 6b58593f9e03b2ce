// Package api talks to the gallery backend that owns the images resource.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/config"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/models"
)

const imagesPath = "images"

// StatusError is returned when the backend answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API responded with status: %d", e.StatusCode)
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

func NewClient(cfg config.API) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", cfg.BaseURL, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: base, http: &http.Client{Timeout: timeout}}, nil
}

// CreateImage posts the image metadata and returns the created record.
func (c *Client) CreateImage(ctx context.Context, image models.NewImage) (*models.Image, error) {
	reqBody, err := json.Marshal(image)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(imagesPath, nil), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	created := &models.Image{}
	if err := c.do(req, created); err != nil {
		return nil, err
	}
	return created, nil
}

// ListImages fetches one page of the gallery, after is the cursor returned by
// the previous page (empty for the first one).
func (c *Client) ListImages(ctx context.Context, after string) (*models.ImagePage, error) {
	var query url.Values
	if after != "" {
		query = url.Values{"after": {after}}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(imagesPath, query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	page := &models.ImagePage{}
	if err := c.do(req, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse API response: %w", err)
	}
	return nil
}
