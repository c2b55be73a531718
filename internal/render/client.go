package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

var ErrEmptyContent = errors.New("empty render content")

// Renderer turns a list of layer identifiers into rendered map content.
type Renderer interface {
	Render(ctx context.Context, layers []string) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, layers []string) (string, error)

func (f RendererFunc) Render(ctx context.Context, layers []string) (string, error) {
	return f(ctx, layers)
}

type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d - status: %s", e.Code, e.Status)
}

type renderRequest struct {
	Layers []string `json:"layers"`
}

// HTTPClient posts layer lists to the map rendering service and returns the
// HTML it responds with.
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient builds a client for url. Deadlines come from the request
// context.
func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{
		url:    url,
		client: &http.Client{},
	}
}

func (c *HTTPClient) Render(ctx context.Context, layers []string) (string, error) {
	body, err := json.Marshal(renderRequest{Layers: layers})
	if err != nil {
		return "", fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading resp.Body: %w", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return "", ErrEmptyContent
	}
	return string(content), nil
}
