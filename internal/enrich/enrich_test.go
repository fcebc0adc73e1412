package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenguard/lumenguard/internal/facts"
	"github.com/lumenguard/lumenguard/internal/logging"
)

func TestEnrichCombinesSources(t *testing.T) {
	dirSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address": "` + testAddress + `", "name": "Example Exchange", "tags": ["exchange"], "rating": {"age": 8, "volume": 9, "trust": 7}}`))
	}))
	defer dirSrv.Close()

	tomlSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleTOML))
	}))
	defer tomlSrv.Close()

	e := NewEnricher(
		NewDirectory(dirSrv.URL),
		tomlVerifier(tomlSrv),
		logging.Discard(),
	)

	sig := e.Enrich(context.Background(), &facts.AccountFacts{
		Address:    testAddress,
		HomeDomain: "example.com",
	})

	require.NotNil(t, sig.TrustScore)
	assert.Equal(t, 94, *sig.TrustScore) // 79 from ratings + 15 exchange bonus
	assert.True(t, sig.DomainVerified)
	assert.True(t, sig.VerifiedOrganization)
	assert.Equal(t, "Example Exchange", sig.OrganizationName, "directory name wins over toml org name")
	assert.Equal(t, "exchange", sig.OrganizationCategory)
	assert.Equal(t, "security@example.com", sig.OrganizationContact)
}

func TestEnrichUnlistedAccountHasNilTrustScore(t *testing.T) {
	dirSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer dirSrv.Close()

	e := NewEnricher(NewDirectory(dirSrv.URL), nil, logging.Discard())
	sig := e.Enrich(context.Background(), &facts.AccountFacts{Address: testAddress})

	assert.Nil(t, sig.TrustScore, "no listing is distinct from a zero score")
	assert.False(t, sig.VerifiedOrganization)
}

func TestEnrichSourceFailureDegradesToAbsent(t *testing.T) {
	dirSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer dirSrv.Close()

	tomlSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer tomlSrv.Close()

	e := NewEnricher(NewDirectory(dirSrv.URL), tomlVerifier(tomlSrv), logging.Discard())
	sig := e.Enrich(context.Background(), &facts.AccountFacts{
		Address:    testAddress,
		HomeDomain: "example.com",
	})

	require.NotNil(t, sig)
	assert.Nil(t, sig.TrustScore)
	assert.False(t, sig.DomainVerified)
}

func TestEnrichSkipsVerifierWithoutHomeDomain(t *testing.T) {
	called := false
	tomlSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer tomlSrv.Close()

	e := NewEnricher(nil, tomlVerifier(tomlSrv), logging.Discard())
	sig := e.Enrich(context.Background(), &facts.AccountFacts{Address: testAddress})

	assert.False(t, called)
	assert.False(t, sig.DomainVerified)
}

func TestEnrichSourcesRunConcurrently(t *testing.T) {
	dirArrived := make(chan struct{})
	tomlArrived := make(chan struct{})

	dirSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(dirArrived)
		select {
		case <-tomlArrived:
		case <-time.After(2 * time.Second):
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		_, _ = w.Write([]byte(`{"address": "` + testAddress + `", "name": "Example Exchange", "tags": ["exchange"]}`))
	}))
	defer dirSrv.Close()

	tomlSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(tomlArrived)
		select {
		case <-dirArrived:
		case <-time.After(2 * time.Second):
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		_, _ = w.Write([]byte(sampleTOML))
	}))
	defer tomlSrv.Close()

	e := NewEnricher(NewDirectory(dirSrv.URL), tomlVerifier(tomlSrv), logging.Discard())
	sig := e.Enrich(context.Background(), &facts.AccountFacts{
		Address:    testAddress,
		HomeDomain: "example.com",
	})

	// Each source responds only once the other's request has arrived, so
	// both signals come back only if the lookups overlapped.
	require.NotNil(t, sig.TrustScore)
	assert.True(t, sig.DomainVerified)
}

func TestEnrichMissingTOMLDoesNotTripBreaker(t *testing.T) {
	goodSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleTOML))
	}))
	defer goodSrv.Close()

	srv404 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv404.Close()

	v := NewDomainVerifier(WithResolver(func(domain string) string {
		if domain == "example.com" {
			return goodSrv.URL + "/.well-known/stellar.toml"
		}
		return srv404.URL + "/.well-known/stellar.toml"
	}))
	e := NewEnricher(nil, v, logging.Discard())

	// Domains without a stellar.toml are the common case; they must count
	// as absent signal, not as failures that open the circuit.
	for i := 0; i < 8; i++ {
		sig := e.Enrich(context.Background(), &facts.AccountFacts{
			Address:    testAddress,
			HomeDomain: "bare-domain.example",
		})
		require.NotNil(t, sig)
		assert.False(t, sig.DomainVerified)
	}

	sig := e.Enrich(context.Background(), &facts.AccountFacts{
		Address:    testAddress,
		HomeDomain: "example.com",
	})
	assert.True(t, sig.DomainVerified, "domains that do publish a manifest must still verify")
	assert.True(t, sig.VerifiedOrganization)
}

func TestEnrichBreakerSkipsFlappingSource(t *testing.T) {
	var requests int
	dirSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer dirSrv.Close()

	e := NewEnricher(NewDirectory(dirSrv.URL), nil, logging.Discard())
	f := &facts.AccountFacts{Address: testAddress}

	// Five consecutive failures trip the circuit; later calls skip the
	// upstream entirely instead of eating its timeout.
	for i := 0; i < 8; i++ {
		sig := e.Enrich(context.Background(), f)
		require.NotNil(t, sig)
		assert.Nil(t, sig.TrustScore)
	}
	assert.Equal(t, 5, requests, "open circuit must stop upstream calls")
}
