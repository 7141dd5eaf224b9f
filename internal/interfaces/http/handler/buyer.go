package handler

import (
	"fmt"
	"io"
	"net/http"

	buyerapp "github.com/crm/backend/internal/application/buyer"
	importapp "github.com/crm/backend/internal/application/import"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BuyerHandler handles buyer lead API endpoints
type BuyerHandler struct {
	BaseHandler
	buyerService  *buyerapp.BuyerService
	exportService *buyerapp.ExportService
	importService *importapp.BuyerImportService
}

// NewBuyerHandler creates a new BuyerHandler
func NewBuyerHandler(
	buyerService *buyerapp.BuyerService,
	exportService *buyerapp.ExportService,
	importService *importapp.BuyerImportService,
) *BuyerHandler {
	return &BuyerHandler{
		buyerService:  buyerService,
		exportService: exportService,
		importService: importService,
	}
}

// Create creates a new buyer lead owned by the authenticated user
func (h *BuyerHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req buyerapp.CreateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	created, err := h.buyerService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, created)
}

// List returns a paginated page of leads filtered by query parameters
func (h *BuyerHandler) List(c *gin.Context) {
	var query buyerapp.ListBuyersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.buyerService.Search(c.Request.Context(), query.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, page.Flatten())
}

// Search returns a paginated page of leads matching a structured filter body
func (h *BuyerHandler) Search(c *gin.Context) {
	var req buyerapp.SearchBuyersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.buyerService.Search(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, page)
}

// GetByID returns a single lead with its owner and recent history
func (h *BuyerHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c, "Lead not found")
		return
	}

	detail, err := h.buyerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, detail)
}

// Update applies a partial update guarded by the updatedAt token
func (h *BuyerHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c, "Lead not found")
		return
	}

	var req buyerapp.UpdateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	updated, err := h.buyerService.Update(c.Request.Context(), id, userID, middleware.IsAdmin(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, updated)
}

// Delete soft-deletes a lead, or hard-deletes it when hard=true
func (h *BuyerHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c, "Lead not found")
		return
	}

	hard := c.Query("hard") == "true"
	if err := h.buyerService.Delete(c.Request.Context(), id, userID, middleware.IsAdmin(c), hard); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Export streams the filtered lead list as a CSV or XLSX download
func (h *BuyerHandler) Export(c *gin.Context) {
	var query buyerapp.ListBuyersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.exportService.Export(c.Request.Context(), query.ToFilter(), c.Query("format"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// Import ingests a CSV file of leads, inserting valid rows and reporting
// per-row errors for the rest
func (h *BuyerHandler) Import(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A CSV file is required in the 'file' field")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Could not read the uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.BadRequest(c, "Could not read the uploaded file")
		return
	}

	summary, err := h.importService.Import(c.Request.Context(), userID, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// FilterOptions returns the distinct values available for list filters
func (h *BuyerHandler) FilterOptions(c *gin.Context) {
	options, err := h.buyerService.FilterOptions(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, options)
}

// RegisterRoutes registers the buyer lead routes
func (h *BuyerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	buyers := rg.Group("/buyers")
	{
		buyers.POST("", h.Create)
		buyers.GET("", h.List)
		buyers.POST("/search", h.Search)
		buyers.GET("/export", h.Export)
		buyers.POST("/import", h.Import)
		buyers.GET("/filters", h.FilterOptions)
		buyers.GET(":id", h.GetByID)
		buyers.PATCH(":id", h.Update)
		buyers.DELETE(":id", h.Delete)
	}
}
