package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// maxTOMLSize caps the stellar.toml response body. SEP-1 recommends files
// stay well under this.
const maxTOMLSize = 100 * 1024

// ErrTOMLUnavailable means the domain's stellar.toml could not be fetched
// or parsed.
var ErrTOMLUnavailable = errors.New("stellar.toml unavailable")

// stellarTOML covers the SEP-1 fields verification needs.
type stellarTOML struct {
	Accounts      []string `toml:"ACCOUNTS"`
	Documentation struct {
		OrgName  string `toml:"ORG_NAME"`
		OrgURL   string `toml:"ORG_URL"`
		OrgEmail string `toml:"ORG_OFFICIAL_EMAIL"`
	} `toml:"DOCUMENTATION"`
	Principals []struct {
		Name       string `toml:"name"`
		Email      string `toml:"email"`
		SigningKey string `toml:"signing_key"`
	} `toml:"PRINCIPALS"`
	Currencies []struct {
		Code   string `toml:"code"`
		Issuer string `toml:"issuer"`
	} `toml:"CURRENCIES"`
}

// DomainInfo is the outcome of a home-domain verification.
type DomainInfo struct {
	Verified   bool
	OrgName    string
	OrgContact string
}

// DomainVerifier fetches a domain's stellar.toml and checks whether it
// claims a given account.
type DomainVerifier struct {
	httpClient *http.Client
	resolve    func(domain string) string
}

// VerifierOption configures the verifier.
type VerifierOption func(*DomainVerifier)

// WithVerifierTimeout overrides the default fetch timeout.
func WithVerifierTimeout(d time.Duration) VerifierOption {
	return func(v *DomainVerifier) { v.httpClient.Timeout = d }
}

// WithResolver overrides how a domain maps to a stellar.toml URL (for tests).
func WithResolver(resolve func(domain string) string) VerifierOption {
	return func(v *DomainVerifier) { v.resolve = resolve }
}

// NewDomainVerifier creates a verifier with the standard well-known URL
// resolution.
func NewDomainVerifier(opts ...VerifierOption) *DomainVerifier {
	v := &DomainVerifier{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		resolve: func(domain string) string {
			return "https://" + domain + "/.well-known/stellar.toml"
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify fetches the domain's stellar.toml and reports whether it claims the
// account in any of three sections: the ACCOUNTS list, a principal's signing
// key, or a currency's issuer. An account declaring a home domain is cheap;
// only the toml file proves the association both ways.
func (v *DomainVerifier) Verify(ctx context.Context, domain, address string) (*DomainInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.resolve(domain), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTOMLUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Most domains publish no stellar.toml; that is an absent signal,
		// not a failure.
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrTOMLUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTOMLSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTOMLUnavailable, err)
	}

	var doc stellarTOML
	if err := toml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrTOMLUnavailable, err)
	}

	info := &DomainInfo{
		OrgName:    doc.Documentation.OrgName,
		OrgContact: doc.Documentation.OrgEmail,
	}
	if info.OrgContact == "" && len(doc.Principals) > 0 {
		info.OrgContact = doc.Principals[0].Email
	}

	for _, a := range doc.Accounts {
		if a == address {
			info.Verified = true
			return info, nil
		}
	}
	for _, p := range doc.Principals {
		if p.SigningKey == address {
			info.Verified = true
			return info, nil
		}
	}
	for _, cur := range doc.Currencies {
		if cur.Issuer == address {
			info.Verified = true
			return info, nil
		}
	}
	return info, nil
}
