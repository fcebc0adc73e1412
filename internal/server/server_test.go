package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenguard/lumenguard/internal/analyzer"
	"github.com/lumenguard/lumenguard/internal/config"
	"github.com/lumenguard/lumenguard/internal/horizon"
	"github.com/lumenguard/lumenguard/internal/logging"
	"github.com/lumenguard/lumenguard/internal/scoring"
)

const (
	testAccount  = "GDQP2KPQGKIHYJGXNUIYOMHARUARCA7DJT5FO2FFOOKY3B2WSQHG4W37"
	otherAccount = "GA5ZSEJYB37JRC5AVCIA5MOP4RHTM335X2KGX3IHOJAPP5RE34K4KZVV"
	adminSecret  = "swordfish"
)

// stubAnalysis returns canned results without touching any upstream.
type stubAnalysis struct {
	err     error
	records []*analyzer.Record
}

func (s *stubAnalysis) Analyze(_ context.Context, address string, txCtx *analyzer.TxContext) (*analyzer.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &analyzer.Result{
		Address:   address,
		Network:   "testnet",
		RiskScore: 42,
		RiskLevel: scoring.LevelFor(42),
		TxContext: txCtx,
	}, nil
}

func (s *stubAnalysis) History(_ context.Context, _ string, _ int) ([]*analyzer.Record, error) {
	return s.records, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Port:             "8080",
		Env:              "test",
		LogLevel:         "error",
		Network:          "testnet",
		FetchWindow:      50,
		HorizonTimeout:   time.Second,
		DirectoryTimeout: time.Second,
		ExplainTimeout:   time.Second,
		AdminSecret:      adminSecret,
		RateLimitRPM:     60000,
	}
}

func newTestServer(t *testing.T, stub AnalysisService) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := New(testConfig(),
		WithLogger(logging.Discard()),
		WithAnalysisService(stub),
	)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func adminHeaders() map[string]string {
	return map[string]string{"X-Admin-Secret": adminSecret}
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{})

	w := doJSON(t, s, http.MethodPost, "/v1/analyze", gin.H{"address": testAccount}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result analyzer.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, testAccount, result.Address)
	assert.Equal(t, 42, result.RiskScore)
	assert.Equal(t, scoring.LevelMedium, result.RiskLevel)
}

func TestAnalyzeRejectsBadAddress(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{})

	w := doJSON(t, s, http.MethodPost, "/v1/analyze", gin.H{"address": "not-an-account"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_failed")
}

func TestAnalyzeRejectsBadTxContext(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{})

	w := doJSON(t, s, http.MethodPost, "/v1/analyze", gin.H{
		"address":   testAccount,
		"txContext": gin.H{"senderAddress": "bogus"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeUpstreamFailure(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{err: fmt.Errorf("collect: %w", horizon.ErrUpstreamUnavailable)})

	w := doJSON(t, s, http.MethodPost, "/v1/analyze", gin.H{"address": testAccount}, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_unavailable")
}

func TestAnalyzeAddressParamValidated(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{})

	w := doJSON(t, s, http.MethodGet, "/v1/analyze/garbage", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_address")

	w = doJSON(t, s, http.MethodGet, "/v1/analyze/"+testAccount, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{records: []*analyzer.Record{
		{ID: "an_1", Address: testAccount, Score: 42, Level: "MEDIUM"},
	}})

	w := doJSON(t, s, http.MethodGet, "/v1/analyses/"+testAccount, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count   int                `json:"count"`
		Records []*analyzer.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "an_1", resp.Records[0].ID)
}

func TestAdminRequiresSecret(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{})

	body := gin.H{"address": testAccount, "category": "phishing"}

	w := doJSON(t, s, http.MethodPost, "/v1/admin/blacklist", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/v1/admin/blacklist", body,
		map[string]string{"X-Admin-Secret": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/v1/admin/blacklist", body, adminHeaders())
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAdminDisabledWithoutSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.AdminSecret = ""

	s, err := New(cfg, WithLogger(logging.Discard()), WithAnalysisService(&stubAnalysis{}))
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)

	w := doJSON(t, s, http.MethodPost, "/v1/admin/blacklist",
		gin.H{"address": testAccount, "category": "phishing"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBlacklistLifecycle(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{})

	// Not blacklisted yet.
	w := doJSON(t, s, http.MethodGet, "/v1/blacklist/"+testAccount, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"blacklisted":false`)

	// Add via admin.
	w = doJSON(t, s, http.MethodPost, "/v1/admin/blacklist",
		gin.H{"address": testAccount, "category": "ponzi", "reason": "reported cluster"},
		adminHeaders())
	require.Equal(t, http.StatusCreated, w.Code)

	// Now flagged.
	w = doJSON(t, s, http.MethodGet, "/v1/blacklist/"+testAccount, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"blacklisted":true`)
	assert.Contains(t, w.Body.String(), "ponzi")

	// Listed.
	w = doJSON(t, s, http.MethodGet, "/v1/blacklist", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), testAccount)

	// Deactivate.
	w = doJSON(t, s, http.MethodDelete, "/v1/admin/blacklist/"+testAccount, nil, adminHeaders())
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/v1/blacklist/"+testAccount, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"blacklisted":false`)

	// Deactivating again is a 404.
	w = doJSON(t, s, http.MethodDelete, "/v1/admin/blacklist/"+testAccount, nil, adminHeaders())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportLifecycle(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{})

	w := doJSON(t, s, http.MethodPost, "/v1/reports", gin.H{
		"address":     otherAccount,
		"category":    "phishing",
		"description": "fake airdrop site",
		"reporter":    testAccount,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var report struct {
		ID       string `json:"id"`
		Verified bool   `json:"verified"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.NotEmpty(t, report.ID)
	assert.False(t, report.Verified)

	// Verify via admin.
	w = doJSON(t, s, http.MethodPost, "/v1/admin/reports/"+report.ID+"/verify", nil, adminHeaders())
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/v1/reports/"+otherAccount, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"verified":true`)

	// Unknown report ID.
	w = doJSON(t, s, http.MethodPost, "/v1/admin/reports/rep_nope/verify", nil, adminHeaders())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportValidation(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{})

	w := doJSON(t, s, http.MethodPost, "/v1/reports", gin.H{"category": "phishing"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/v1/reports", gin.H{
		"address": otherAccount, "category": "",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLivenessEndpoint(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{})

	w := doJSON(t, s, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessBeforeRun(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{})

	// Run has not marked the server ready.
	w := doJSON(t, s, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, &stubAnalysis{})

	w := doJSON(t, s, http.MethodGet, "/health/live", nil,
		map[string]string{"X-Request-ID": "req_fixed"})
	assert.Equal(t, "req_fixed", w.Header().Get("X-Request-ID"))

	w = doJSON(t, s, http.MethodGet, "/health/live", nil, nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
