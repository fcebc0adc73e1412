package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to the Lumenguard API.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
}

// LumenguardClient is a pure HTTP client for the Lumenguard API.
type LumenguardClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewLumenguardClient creates a new client for the Lumenguard API.
func NewLumenguardClient(cfg Config) *LumenguardClient {
	return &LumenguardClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // analyses fan out into several upstream calls
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the API and returns the response body.
func (c *LumenguardClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// Analyze runs a full risk analysis for an address, optionally with the
// context of a transaction about to be signed.
func (c *LumenguardClient) Analyze(ctx context.Context, address, sender string, amount float64, assetCode string) (json.RawMessage, error) {
	body := map[string]any{"address": address}
	if sender != "" || amount > 0 || assetCode != "" {
		txCtx := map[string]any{}
		if sender != "" {
			txCtx["senderAddress"] = sender
		}
		if amount > 0 {
			txCtx["amount"] = amount
		}
		if assetCode != "" {
			txCtx["assetCode"] = assetCode
		}
		body["txContext"] = txCtx
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/analyze", nil, body)
}

// CheckBlacklist checks whether an address is on the curated blacklist.
func (c *LumenguardClient) CheckBlacklist(ctx context.Context, address string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/blacklist/"+address, nil, nil)
}

// GetHistory returns past analyses for an address, newest first.
func (c *LumenguardClient) GetHistory(ctx context.Context, address string, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.doRequest(ctx, http.MethodGet, "/v1/analyses/"+address, q, nil)
}

// ReportScam submits a community scam report for an address.
func (c *LumenguardClient) ReportScam(ctx context.Context, address, category, description, reporter string) (json.RawMessage, error) {
	body := map[string]string{
		"address":     address,
		"category":    category,
		"description": description,
	}
	if reporter != "" {
		body["reporter"] = reporter
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/reports", nil, body)
}

// ListReports returns community reports filed against an address.
func (c *LumenguardClient) ListReports(ctx context.Context, address string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/reports/"+address, nil, nil)
}
