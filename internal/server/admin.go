package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenguard/lumenguard/internal/connections"
	"github.com/lumenguard/lumenguard/internal/logging"
	"github.com/lumenguard/lumenguard/internal/realtime"
	"github.com/lumenguard/lumenguard/internal/validation"
)

// adminMiddleware gates curation endpoints behind the X-Admin-Secret header.
// When no secret is configured the endpoints are disabled outright rather
// than left open.
func (s *Server) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AdminSecret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "admin_disabled",
				"message": "no admin secret is configured",
			})
			return
		}
		provided := c.GetHeader("X-Admin-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.cfg.AdminSecret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "invalid admin secret",
			})
			return
		}
		c.Next()
	}
}

type addBlacklistRequest struct {
	Address  string `json:"address"`
	Category string `json:"category"`
	Reason   string `json:"reason,omitempty"`
}

func (s *Server) addBlacklistHandler(c *gin.Context) {
	var req addBlacklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "request body must be valid JSON",
		})
		return
	}

	errs := validation.Validate(
		validation.Required("address", req.Address),
		validation.ValidAccount("address", req.Address),
		validation.Required("category", req.Category),
		validation.MaxLength("reason", req.Reason, validation.MaxDescriptionLength),
	)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "details": errs})
		return
	}

	entry := &connections.BlacklistEntry{
		Address:  req.Address,
		Category: req.Category,
		Reason:   validation.SanitizeString(req.Reason, validation.MaxDescriptionLength),
		Active:   true,
		AddedAt:  time.Now().UTC(),
	}
	if err := s.blacklist.Add(c.Request.Context(), entry); err != nil {
		logging.L(c.Request.Context()).Error("blacklist add failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "blacklist_failed"})
		return
	}

	s.hub.Broadcast(&realtime.Event{
		Type:      realtime.EventBlacklistUpdated,
		Timestamp: time.Now(),
		Data:      gin.H{"address": entry.Address, "category": entry.Category, "active": true},
	})

	c.JSON(http.StatusCreated, entry)
}

func (s *Server) removeBlacklistHandler(c *gin.Context) {
	address := c.Param("address")
	err := s.blacklist.Deactivate(c.Request.Context(), address)
	if errors.Is(err, connections.ErrNotBlacklisted) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_blacklisted"})
		return
	}
	if err != nil {
		logging.L(c.Request.Context()).Error("blacklist deactivate failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "blacklist_failed"})
		return
	}

	s.hub.Broadcast(&realtime.Event{
		Type:      realtime.EventBlacklistUpdated,
		Timestamp: time.Now(),
		Data:      gin.H{"address": address, "active": false},
	})

	c.JSON(http.StatusOK, gin.H{"address": address, "active": false})
}

func (s *Server) verifyReportHandler(c *gin.Context) {
	id := c.Param("id")
	err := s.reports.Verify(c.Request.Context(), id)
	if errors.Is(err, connections.ErrReportNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report_not_found"})
		return
	}
	if err != nil {
		logging.L(c.Request.Context()).Error("report verify failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verify_failed"})
		return
	}

	s.hub.Broadcast(&realtime.Event{
		Type:      realtime.EventReportVerified,
		Timestamp: time.Now(),
		Data:      gin.H{"id": id},
	})

	c.JSON(http.StatusOK, gin.H{"id": id, "verified": true})
}
