// Package horizon is a typed read-only client for a Horizon-style ledger API.
//
// Only the endpoints the risk pipeline needs are implemented: the account
// record plus bounded history windows (transactions, payments, operations,
// offers, trades). History queries are capped and ordered most-recent-first;
// callers must treat derived aggregates as recent-activity approximations,
// not lifetime totals.
package horizon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lumenguard/lumenguard/internal/metrics"
	"github.com/lumenguard/lumenguard/internal/retry"
)

var (
	// ErrAccountNotFound means the address has no ledger presence (never funded).
	ErrAccountNotFound = errors.New("account not found on ledger")
	// ErrUpstreamUnavailable means the ledger API failed or timed out.
	ErrUpstreamUnavailable = errors.New("ledger API unavailable")
)

// Order for history queries.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Client fetches account data from a Horizon-compatible endpoint.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	retryDelay  time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient substitutes the underlying HTTP client (for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry overrides the transient-failure retry policy.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.retryDelay = baseDelay
	}
}

// NewClient creates a client for the given Horizon base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		maxAttempts: 3,
		retryDelay:  200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Account fetches the account record for an address.
// Returns ErrAccountNotFound if the address was never funded.
func (c *Client) Account(ctx context.Context, address string) (*Account, error) {
	var acct Account
	if err := c.get(ctx, "accounts", "/accounts/"+address, nil, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// Transactions fetches a bounded window of the account's transactions.
func (c *Client) Transactions(ctx context.Context, address string, order Order, limit int) ([]Transaction, error) {
	var p page[Transaction]
	q := historyQuery(order, limit)
	if err := c.get(ctx, "transactions", "/accounts/"+address+"/transactions", q, &p); err != nil {
		return nil, err
	}
	return p.Embedded.Records, nil
}

// Payments fetches a bounded window of payment-type operations for the account.
func (c *Client) Payments(ctx context.Context, address string, order Order, limit int) ([]Payment, error) {
	var p page[Payment]
	q := historyQuery(order, limit)
	if err := c.get(ctx, "payments", "/accounts/"+address+"/payments", q, &p); err != nil {
		return nil, err
	}
	return p.Embedded.Records, nil
}

// Operations fetches a bounded window of all operations for the account.
func (c *Client) Operations(ctx context.Context, address string, order Order, limit int) ([]Operation, error) {
	var p page[Operation]
	q := historyQuery(order, limit)
	if err := c.get(ctx, "operations", "/accounts/"+address+"/operations", q, &p); err != nil {
		return nil, err
	}
	return p.Embedded.Records, nil
}

// Offers fetches the account's open DEX offers.
func (c *Client) Offers(ctx context.Context, address string, limit int) ([]Offer, error) {
	var p page[Offer]
	q := historyQuery(OrderDesc, limit)
	if err := c.get(ctx, "offers", "/accounts/"+address+"/offers", q, &p); err != nil {
		return nil, err
	}
	return p.Embedded.Records, nil
}

// Trades fetches a bounded window of the account's executed trades.
func (c *Client) Trades(ctx context.Context, address string, limit int) ([]Trade, error) {
	var p page[Trade]
	q := historyQuery(OrderDesc, limit)
	if err := c.get(ctx, "trades", "/accounts/"+address+"/trades", q, &p); err != nil {
		return nil, err
	}
	return p.Embedded.Records, nil
}

// OldestTransaction fetches the account's earliest transaction, or nil if the
// account has none. Used for age derivation only; best-effort.
func (c *Client) OldestTransaction(ctx context.Context, address string) (*Transaction, error) {
	txs, err := c.Transactions(ctx, address, OrderAsc, 1)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return &txs[0], nil
}

func historyQuery(order Order, limit int) url.Values {
	q := url.Values{}
	q.Set("order", string(order))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

// get performs a GET request with transient-failure retries and decodes the
// JSON response into out. 404 maps to ErrAccountNotFound and is never
// retried; network errors and 5xx responses are retried with backoff before
// surfacing as ErrUpstreamUnavailable.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	return retry.Do(ctx, c.maxAttempts, c.retryDelay, func() error {
		return c.getOnce(ctx, endpoint, path, query, out)
	})
}

func (c *Client) getOnce(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if query != nil {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.HorizonRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.HorizonRequestsTotal.WithLabelValues(endpoint, "not_found").Inc()
		return retry.Permanent(ErrAccountNotFound)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		metrics.HorizonRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return retry.Permanent(fmt.Errorf("%w: status %d: %s", ErrUpstreamUnavailable, resp.StatusCode, string(body)))
	case resp.StatusCode != http.StatusOK:
		metrics.HorizonRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrUpstreamUnavailable, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.HorizonRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return retry.Permanent(fmt.Errorf("%w: decode response: %v", ErrUpstreamUnavailable, err))
	}

	metrics.HorizonRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return nil
}
