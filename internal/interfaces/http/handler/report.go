package handler

import (
	buyerapp "github.com/crm/backend/internal/application/buyer"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles reporting endpoints
type ReportHandler struct {
	BaseHandler
	reportService *buyerapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *buyerapp.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Summary returns the lead funnel metrics dashboard payload
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.reportService.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// RegisterRoutes registers the reporting routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/summary", h.Summary)
	}
}
