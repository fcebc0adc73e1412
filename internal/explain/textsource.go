package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrTextSourceUnavailable means the generative service failed; callers fall
// back to templates.
var ErrTextSourceUnavailable = errors.New("text source unavailable")

// TextSource produces free-text explanations from the full analysis context.
// Output is advisory only.
type TextSource interface {
	Generate(ctx context.Context, c Context) (string, error)
}

// HTTPTextSource calls a generative-text HTTP service.
type HTTPTextSource struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPTextSource creates a text source for the given endpoint. apiKey may
// be empty for unauthenticated services.
func NewHTTPTextSource(url, apiKey string, timeout time.Duration) *HTTPTextSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTextSource{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Address     string `json:"address"`
	Score       int    `json:"score"`
	Level       string `json:"level"`
	Threats     any    `json:"threats,omitempty"`
	Connections any    `json:"connections,omitempty"`
	Facts       any    `json:"facts,omitempty"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Generate posts the full structured context and returns the service's text.
func (s *HTTPTextSource) Generate(ctx context.Context, c Context) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Address:     c.Address,
		Score:       c.Score,
		Level:       string(c.Level),
		Threats:     c.Threats,
		Connections: c.Connections,
		Facts:       c.Facts,
	})
	if err != nil {
		return "", fmt.Errorf("marshal context: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTextSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrTextSourceUnavailable, resp.StatusCode, string(body))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrTextSourceUnavailable, err)
	}
	if out.Text == "" {
		return "", fmt.Errorf("%w: empty text in response", ErrTextSourceUnavailable)
	}
	return out.Text, nil
}
