package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenguard/lumenguard/internal/analyzer"
	"github.com/lumenguard/lumenguard/internal/connections"
	"github.com/lumenguard/lumenguard/internal/horizon"
	"github.com/lumenguard/lumenguard/internal/idgen"
	"github.com/lumenguard/lumenguard/internal/logging"
	"github.com/lumenguard/lumenguard/internal/metrics"
	"github.com/lumenguard/lumenguard/internal/validation"
)

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	s.router.GET("/ws", func(c *gin.Context) {
		s.hub.HandleWebSocket(c.Writer, c.Request)
	})

	v1 := s.router.Group("/v1")
	// Validate :address URL params on all v1 routes (no-op when param absent).
	v1.Use(validation.AddressParamMiddleware())

	v1.POST("/analyze", s.analyzeHandler)
	v1.GET("/analyze/:address", s.analyzeAddressHandler)
	v1.GET("/analyses/:address", s.historyHandler)

	v1.GET("/blacklist", s.listBlacklistHandler)
	v1.GET("/blacklist/:address", s.checkBlacklistHandler)

	v1.POST("/reports", s.createReportHandler)
	v1.GET("/reports/:address", s.listReportsHandler)

	admin := v1.Group("/admin")
	admin.Use(s.adminMiddleware())
	{
		admin.POST("/blacklist", s.addBlacklistHandler)
		admin.DELETE("/blacklist/:address", s.removeBlacklistHandler)
		admin.POST("/reports/:id/verify", s.verifyReportHandler)
	}
}

// -----------------------------------------------------------------------------
// Analysis
// -----------------------------------------------------------------------------

type analyzeRequest struct {
	Address   string             `json:"address"`
	TxContext *analyzer.TxContext `json:"txContext,omitempty"`
}

func (s *Server) analyzeHandler(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "request body must be valid JSON",
		})
		return
	}

	checks := []func() *validation.FieldError{
		validation.Required("address", req.Address),
		validation.ValidAccount("address", req.Address),
	}
	if req.TxContext != nil {
		if req.TxContext.SenderAddress != "" {
			checks = append(checks, validation.ValidAccount("txContext.senderAddress", req.TxContext.SenderAddress))
		}
		if req.TxContext.AssetCode != "" {
			checks = append(checks, validation.ValidAsset("txContext.assetCode", req.TxContext.AssetCode))
		}
		if req.TxContext.Amount != 0 {
			checks = append(checks, validation.PositiveAmount("txContext.amount", req.TxContext.Amount))
		}
	}
	if errs := validation.Validate(checks...); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"details": errs,
		})
		return
	}

	s.runAnalysis(c, req.Address, req.TxContext)
}

func (s *Server) analyzeAddressHandler(c *gin.Context) {
	s.runAnalysis(c, c.Param("address"), nil)
}

func (s *Server) runAnalysis(c *gin.Context, address string, txCtx *analyzer.TxContext) {
	result, err := s.analysis.Analyze(c.Request.Context(), address, txCtx)
	if err != nil {
		if errors.Is(err, horizon.ErrUpstreamUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "upstream_unavailable",
				"message": "ledger data source is unreachable, try again later",
			})
			return
		}
		logging.L(c.Request.Context()).Error("analysis failed", "address", address, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "analysis_failed",
			"message": "could not complete the analysis",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) historyHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	records, err := s.analysis.History(c.Request.Context(), c.Param("address"), limit)
	if err != nil {
		logging.L(c.Request.Context()).Error("history lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history_failed"})
		return
	}
	if records == nil {
		records = []*analyzer.Record{}
	}
	c.JSON(http.StatusOK, gin.H{
		"address": c.Param("address"),
		"count":   len(records),
		"records": records,
	})
}

// -----------------------------------------------------------------------------
// Blacklist (public reads)
// -----------------------------------------------------------------------------

func (s *Server) listBlacklistHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := s.blacklist.List(c.Request.Context(), limit)
	if err != nil {
		logging.L(c.Request.Context()).Error("blacklist list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "blacklist_unavailable"})
		return
	}
	if entries == nil {
		entries = []*connections.BlacklistEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "entries": entries})
}

func (s *Server) checkBlacklistHandler(c *gin.Context) {
	address := c.Param("address")
	entry, err := s.blacklist.Get(c.Request.Context(), address)
	if errors.Is(err, connections.ErrNotBlacklisted) {
		c.JSON(http.StatusOK, gin.H{"address": address, "blacklisted": false})
		return
	}
	if err != nil {
		logging.L(c.Request.Context()).Error("blacklist check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "blacklist_unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "blacklisted": true, "entry": entry})
}

// -----------------------------------------------------------------------------
// Reports
// -----------------------------------------------------------------------------

type createReportRequest struct {
	Address     string `json:"address"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Reporter    string `json:"reporter,omitempty"`
}

func (s *Server) createReportHandler(c *gin.Context) {
	var req createReportRequest
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
		validation.MaxLength("description", req.Description, validation.MaxDescriptionLength),
	)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "details": errs})
		return
	}

	report := &connections.ScamReport{
		ID:          idgen.WithPrefix("rep_"),
		Address:     req.Address,
		Category:    req.Category,
		Description: validation.SanitizeString(req.Description, validation.MaxDescriptionLength),
		Reporter:    req.Reporter,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.reports.Create(c.Request.Context(), report); err != nil {
		logging.L(c.Request.Context()).Error("report create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report_failed"})
		return
	}

	c.JSON(http.StatusCreated, report)
}

func (s *Server) listReportsHandler(c *gin.Context) {
	reports, err := s.reports.ListByAddress(c.Request.Context(), c.Param("address"))
	if err != nil {
		logging.L(c.Request.Context()).Error("report list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reports_unavailable"})
		return
	}
	if reports == nil {
		reports = []*connections.ScamReport{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(reports), "reports": reports})
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func (s *Server) healthHandler(c *gin.Context) {
	healthy, statuses := s.checks.CheckAll(c.Request.Context())

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"checks":    statuses,
		"realtime":  s.hub.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
