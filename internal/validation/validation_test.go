package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIsValidAccount(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"GDQP2KPQGKIHYJGXNUIYOMHARUARCA7DJT5FO2FFOOKY3B2WSQHG4W37", true},
		{"GBSTRUSSHVFU2NHG43PXKN4YRRRCBFJGBG35YZW2JCZ7GQBMWTJ7U6WC", true},
		{"", false},
		{"GDQP2KPQ", false}, // too short
		{"SDQP2KPQGKIHYJGXNUIYOMHARUARCA7DJT5FO2FFOOKY3B2WSQHG4W37", false}, // secret seed prefix
		{"GDQP2KPQGKIHYJGXNUIYOMHARUARCA7DJT5FO2FFOOKY3B2WSQHG4W371", false}, // too long
		{"gdqp2kpqgkihyjgxnuiyomharuarca7djt5fo2ffooky3b2wsqhg4w37", false},  // lowercase
		{"GDQP2KPQGKIHYJGXNUIYOMHARUARCA7DJT5FO2FFOOKY3B2WSQHG4W01", false},  // 0 and 1 not in base32
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidAccount(tt.addr), tt.addr)
	}
}

func TestIsValidAssetCode(t *testing.T) {
	assert.True(t, IsValidAssetCode("XLM"))
	assert.True(t, IsValidAssetCode("USDC"))
	assert.True(t, IsValidAssetCode("yXLM12345678"))
	assert.False(t, IsValidAssetCode(""))
	assert.False(t, IsValidAssetCode("TOOLONGASSETCODE"))
	assert.False(t, IsValidAssetCode("US DC"))
}

func TestIsValidDomain(t *testing.T) {
	assert.True(t, IsValidDomain("example.com"))
	assert.True(t, IsValidDomain("Sub.Example.COM"))
	assert.False(t, IsValidDomain("localhost"))
	assert.False(t, IsValidDomain("-bad.com"))
	assert.False(t, IsValidDomain("http://example.com"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello \x00", 100))
	assert.Equal(t, "abc", SanitizeString("abcdef", 3))
}

func TestValidateCollectsErrors(t *testing.T) {
	errs := Validate(
		Required("address", ""),
		ValidAccount("counterparty", "not-an-address"),
		MaxLength("description", strings.Repeat("x", 10), 5),
		ValidAsset("asset", "XLM"),
	)
	assert.Len(t, errs, 3)
	assert.Equal(t, "address: is required", errs.Error())
}

func TestValidateEmptyOptionalFieldsPass(t *testing.T) {
	errs := Validate(
		ValidAccount("counterparty", ""),
		ValidAsset("asset", ""),
		PositiveAmount("amount", 0),
	)
	assert.Empty(t, errs)
}

func TestAddressParamMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/analyze/:address", AddressParamMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/analyze/GDQP2KPQGKIHYJGXNUIYOMHARUARCA7DJT5FO2FFOOKY3B2WSQHG4W37", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/analyze/bogus", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_address")
}
