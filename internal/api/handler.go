package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"stockcount-service/internal/models"
	"stockcount-service/internal/service"
	"stockcount-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	scanService  *service.ScanService
	reconService *service.ReconService
	itemService  *service.ItemService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	scanService *service.ScanService,
	reconService *service.ReconService,
	itemService *service.ItemService,
) *Handler {
	return &Handler{
		scanService:  scanService,
		reconService: reconService,
		itemService:  itemService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/scans", h.recordScan)
		v1.GET("/sessions", h.listSessions)
		v1.GET("/invoices/:number/report", h.getReport)
		v1.GET("/invoices/:number/scans", h.listScans)
		v1.GET("/invoices/:number/activity", h.getActivity)
		v1.POST("/invoices/:number/close", h.closeSession)
		v1.GET("/invoices/:number/items", h.listItems)
		v1.POST("/invoices/:number/items", h.importItems)
		v1.PUT("/invoices/:number/items/:id", h.editItem)
		v1.POST("/catalog", h.loadCatalog)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// recordScan appends one scan event to the ledger
func (h *Handler) recordScan(c *gin.Context) {
	var req service.RecordScanRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	event, err := h.scanService.RecordScan(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyBarcode),
			errors.Is(err, service.ErrNonPositiveQuantity),
			errors.Is(err, service.ErrEmptyInvoiceNumber):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrDuplicateScan):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to record scan",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusCreated, event)
}

// getReport computes the reconciliation report for an invoice
func (h *Handler) getReport(c *gin.Context) {
	invoiceNumber := c.Param("number")

	report, err := h.reconService.BuildReport(c.Request.Context(), invoiceNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute report",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// listSessions summarizes scan activity per invoice
func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.reconService.Sessions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list sessions",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// listScans returns an invoice's raw scan events
func (h *Handler) listScans(c *gin.Context) {
	events, err := h.scanService.EventsFor(c.Request.Context(), c.Param("number"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read scans",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// getActivity returns the invoice's live-activity counters. Cheaper to poll
// than the full report; the counters come from the Redis cache the activity
// worker maintains, not from the ledger.
func (h *Handler) getActivity(c *gin.Context) {
	invoiceNumber := c.Param("number")

	scanCount, lastActivity, err := h.scanService.Activity(c.Request.Context(), invoiceNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read activity",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice_number": invoiceNumber,
		"scan_count":     scanCount,
		"last_activity":  lastActivity,
	})
}

// closeSession clears an invoice's ledger
func (h *Handler) closeSession(c *gin.Context) {
	invoiceNumber := c.Param("number")
	closedBy := c.GetHeader("X-User-Id")

	cleared, err := h.scanService.CloseSession(c.Request.Context(), invoiceNumber, closedBy)
	if err != nil {
		if errors.Is(err, service.ErrCloseInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to close session",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice_number": invoiceNumber,
		"events_cleared": cleared,
	})
}

// listItems returns an invoice's expected lines
func (h *Handler) listItems(c *gin.Context) {
	items, err := h.itemService.ItemsFor(c.Request.Context(), c.Param("number"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read invoice items",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// importItems bulk-loads an invoice's expected lines from the importer
func (h *Handler) importItems(c *gin.Context) {
	var reqs []service.ImportItemRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	count, err := h.itemService.ImportItems(c.Request.Context(), c.Param("number"), reqs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInvoiceQuantity),
			errors.Is(err, service.ErrInvalidConversionFactor):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to import items",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"imported": count})
}

// editItem applies a role-gated quantity/factor correction
func (h *Handler) editItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var req service.EditItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	req.Role = c.GetHeader("X-User-Role")

	item, err := h.itemService.EditItem(c.Request.Context(), itemID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidInvoiceQuantity),
			errors.Is(err, service.ErrInvalidConversionFactor):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to edit item",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, item)
}

// loadCatalog bulk-loads the product catalog
func (h *Handler) loadCatalog(c *gin.Context) {
	var entries []models.CatalogEntry
	if err := c.ShouldBindJSON(&entries); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.itemService.LoadCatalog(c.Request.Context(), entries); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load catalog",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"loaded": len(entries)})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
