// Package validation provides input validation for the Lumenguard API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB).
const MaxRequestSize = 1 << 20

// MaxDescriptionLength caps free-text fields like report descriptions.
const MaxDescriptionLength = 2000

var (
	// accountRegex validates Stellar public keys: G + 55 base32 chars.
	accountRegex = regexp.MustCompile(`^G[A-Z2-7]{55}$`)
	// assetCodeRegex validates asset codes (1-12 alphanumeric).
	assetCodeRegex = regexp.MustCompile(`^[A-Za-z0-9]{1,12}$`)
	// domainRegex is a permissive hostname check for home domains.
	domainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)
)

// IsValidAccount checks whether a string is a well-formed Stellar account ID.
func IsValidAccount(addr string) bool {
	return accountRegex.MatchString(addr)
}

// IsValidAssetCode checks whether a string is a well-formed asset code.
func IsValidAssetCode(code string) bool {
	return assetCodeRegex.MatchString(code)
}

// IsValidDomain checks whether a string looks like a hostname.
func IsValidDomain(domain string) bool {
	return domainRegex.MatchString(strings.ToLower(domain))
}

// SanitizeString trims whitespace, strips null bytes, and caps length.
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return strings.ReplaceAll(s, "\x00", "")
}

// RequestSizeMiddleware limits request body size.
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// AddressParamMiddleware validates the :address URL parameter on routes that
// use it, rejecting malformed account IDs before any handler runs.
func AddressParamMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := c.Param("address")
		if addr != "" && !IsValidAccount(addr) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_address",
				"message": "address must be a valid account ID (G + 55 base32 chars)",
			})
			return
		}
		c.Next()
	}
}

// FieldError is one validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors collects validation failures.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Field + ": " + e[0].Message
}

// Validate runs the given checks and collects their failures.
func Validate(checks ...func() *FieldError) FieldErrors {
	var errs FieldErrors
	for _, check := range checks {
		if err := check(); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

// Required checks that a field is non-empty.
func Required(field, value string) func() *FieldError {
	return func() *FieldError {
		if strings.TrimSpace(value) == "" {
			return &FieldError{Field: field, Message: "is required"}
		}
		return nil
	}
}

// ValidAccount checks that a field, when present, is a valid account ID.
func ValidAccount(field, value string) func() *FieldError {
	return func() *FieldError {
		if value == "" {
			return nil // pair with Required for required fields
		}
		if !IsValidAccount(value) {
			return &FieldError{Field: field, Message: "must be a valid account ID"}
		}
		return nil
	}
}

// ValidAsset checks that a field, when present, is a valid asset code.
func ValidAsset(field, value string) func() *FieldError {
	return func() *FieldError {
		if value == "" {
			return nil
		}
		if !IsValidAssetCode(value) {
			return &FieldError{Field: field, Message: "must be a valid asset code"}
		}
		return nil
	}
}

// MaxLength checks that a field does not exceed max bytes.
func MaxLength(field, value string, max int) func() *FieldError {
	return func() *FieldError {
		if len(value) > max {
			return &FieldError{Field: field, Message: "exceeds maximum length"}
		}
		return nil
	}
}

// PositiveAmount checks that a field, when present, is a positive decimal.
func PositiveAmount(field string, value float64) func() *FieldError {
	return func() *FieldError {
		if value < 0 {
			return &FieldError{Field: field, Message: "must not be negative"}
		}
		return nil
	}
}
