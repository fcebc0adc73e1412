// Package enrich augments on-chain facts with off-chain reputation signals:
// directory listings and home-domain verification. Enrichment is strictly
// best-effort; a failed or missing source produces an absent signal, never
// an analysis failure.
package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lumenguard/lumenguard/internal/circuitbreaker"
	"github.com/lumenguard/lumenguard/internal/facts"
	"github.com/lumenguard/lumenguard/internal/metrics"
)

// Signal is the combined off-chain reputation signal for one account.
type Signal struct {
	// TrustScore is the directory-derived trust score (0-100). Nil means the
	// account has no directory listing; that is distinct from a listed
	// account scoring 0.
	TrustScore *int `json:"trustScore,omitempty"`

	VerifiedOrganization bool   `json:"verifiedOrganization"`
	OrganizationName     string `json:"organizationName,omitempty"`
	OrganizationCategory string `json:"organizationCategory,omitempty"`
	OrganizationContact  string `json:"organizationContact,omitempty"`

	// DomainVerified means the declared home domain's stellar.toml lists
	// this account.
	DomainVerified bool `json:"domainVerified"`
}

// Enricher queries all reputation sources for an account. A per-source
// circuit breaker keeps a flapping upstream from adding its timeout to
// every analysis.
type Enricher struct {
	directory *Directory
	verifier  *DomainVerifier
	breaker   *circuitbreaker.Breaker
	logger    *slog.Logger
}

// NewEnricher wires the directory client and domain verifier together.
// Either may be nil to disable that source.
func NewEnricher(directory *Directory, verifier *DomainVerifier, logger *slog.Logger) *Enricher {
	return &Enricher{
		directory: directory,
		verifier:  verifier,
		breaker:   circuitbreaker.New(5, 30*time.Second),
		logger:    logger.With("component", "enricher"),
	}
}

// Enrich gathers reputation signals for the account. The two sources are
// independent and queried concurrently, so their timeouts overlap instead of
// adding up. Source failures degrade to an absent signal and are logged;
// Enrich itself never fails.
func (e *Enricher) Enrich(ctx context.Context, f *facts.AccountFacts) *Signal {
	defer metrics.ObserveStage("enrich")()

	var (
		wg    sync.WaitGroup
		entry *Entry
		info  *DomainInfo
	)

	if e.directory != nil && e.breaker.Allow("directory") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			entry, err = e.directory.Lookup(ctx, f.Address)
			if err != nil {
				e.breaker.RecordFailure("directory")
				metrics.EnrichmentFailuresTotal.WithLabelValues("directory").Inc()
				e.logger.Warn("directory lookup failed", "address", f.Address, "error", err)
				return
			}
			e.breaker.RecordSuccess("directory")
		}()
	}

	if e.verifier != nil && f.HasHomeDomain() && e.breaker.Allow("toml") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			info, err = e.verifier.Verify(ctx, f.HomeDomain, f.Address)
			if err != nil {
				e.breaker.RecordFailure("toml")
				metrics.EnrichmentFailuresTotal.WithLabelValues("toml").Inc()
				e.logger.Warn("home domain verification failed",
					"address", f.Address, "domain", f.HomeDomain, "error", err)
				return
			}
			e.breaker.RecordSuccess("toml")
		}()
	}
	wg.Wait()

	sig := &Signal{}
	if entry != nil {
		score := entry.TrustScore()
		sig.TrustScore = &score
		sig.OrganizationName = entry.Name
		sig.OrganizationCategory = entry.Category()
	}
	if info != nil && info.Verified {
		sig.DomainVerified = true
		sig.VerifiedOrganization = true
		if sig.OrganizationName == "" {
			sig.OrganizationName = info.OrgName
		}
		sig.OrganizationContact = info.OrgContact
	}
	return sig
}
