package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrDirectoryUnavailable means the directory API failed or timed out.
var ErrDirectoryUnavailable = errors.New("directory unavailable")

// Directory looks up accounts in a public address directory
// (stellar.expert-style).
type Directory struct {
	baseURL    string
	httpClient *http.Client
}

// DirectoryOption configures the directory client.
type DirectoryOption func(*Directory)

// WithDirectoryTimeout overrides the default lookup timeout.
func WithDirectoryTimeout(d time.Duration) DirectoryOption {
	return func(dir *Directory) { dir.httpClient.Timeout = d }
}

// NewDirectory creates a directory client for the given base URL.
func NewDirectory(baseURL string, opts ...DirectoryOption) *Directory {
	dir := &Directory{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(dir)
	}
	return dir
}

// Rating holds the directory's sub-ratings, each on a 0-10 scale.
type Rating struct {
	Age    int `json:"age"`
	Volume int `json:"volume"`
	Trust  int `json:"trust"`
}

// Entry is one directory listing.
type Entry struct {
	Address string   `json:"address"`
	Name    string   `json:"name"`
	Domain  string   `json:"domain"`
	Tags    []string `json:"tags"`
	Rating  *Rating  `json:"rating"`
}

// Category returns the listing's primary category tag, or "".
func (e *Entry) Category() string {
	for _, tag := range e.Tags {
		switch tag {
		case "exchange", "anchor", "validator", "wallet", "custodian":
			return tag
		}
	}
	return ""
}

// HasTag reports whether the listing carries the tag.
func (e *Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TrustScore maps the listing to a 0-100 trust score.
//
// Listings flagged malicious or unsafe score 0 regardless of ratings. A
// listing without ratings scores a neutral 50 plus category bonuses; with
// ratings, the sub-ratings are weighted (trust counts most) and scaled to
// 0-100 before bonuses apply.
func (e *Entry) TrustScore() int {
	if e.HasTag("malicious") || e.HasTag("unsafe") {
		return 0
	}

	// Missing or all-zero ratings are uninformative, not damning; score
	// from the neutral baseline in that case.
	score := 50.0
	if r := e.Rating; r != nil && (r.Age > 0 || r.Volume > 0 || r.Trust > 0) {
		score = (float64(r.Age)*0.3 + float64(r.Volume)*0.3 + float64(r.Trust)*0.4) * 10
	}

	switch e.Category() {
	case "exchange":
		score += 15
	case "anchor", "validator":
		score += 10
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return int(score)
}

// Lookup fetches the directory entry for an address. A missing listing
// returns (nil, nil); only transport or decode failures return an error.
func (d *Directory) Lookup(ctx context.Context, address string) (*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/"+address, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrDirectoryUnavailable, resp.StatusCode, string(body))
	}

	var entry Entry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrDirectoryUnavailable, err)
	}
	return &entry, nil
}
