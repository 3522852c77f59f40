package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shareloop/service-booking/internal/application"
	"github.com/shareloop/service-booking/pkg/auth"
	"github.com/shareloop/service-booking/pkg/middleware"
	"github.com/shareloop/service-booking/pkg/response"
)

// ItemHandler handles HTTP requests for item listings.
type ItemHandler struct {
	service *application.ItemService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(service *application.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// RegisterRoutes registers item routes. Browsing is public; changes require a token.
func (h *ItemHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	items := r.Group("/api/v1/items")
	{
		items.GET("", h.ListItems)
		items.GET("/mine", authMW, h.ListMyItems)
		items.GET("/:id", h.GetItem)
		items.POST("", authMW, h.CreateItem)
		items.PUT("/:id", authMW, h.UpdateItem)
		items.DELETE("/:id", authMW, h.DeleteItem)
	}
}

// CreateItem lists a new item for the caller.
func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req application.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateItem(c.Request.Context(), middleware.GetCaller(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListItems returns a page of items. ?available=true hides items currently lent out.
func (h *ItemHandler) ListItems(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListItems(c.Request.Context(), c.Query("available") == "true", page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ListMyItems returns the caller's listings.
func (h *ItemHandler) ListMyItems(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListMyItems(c.Request.Context(), middleware.GetCaller(c), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetItem returns a single item.
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, ok := parseID(c, "invalid item ID")
	if !ok {
		return
	}

	result, err := h.service.GetItem(c.Request.Context(), itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateItem edits a listing.
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	itemID, ok := parseID(c, "invalid item ID")
	if !ok {
		return
	}

	var req application.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateItem(c.Request.Context(), middleware.GetCaller(c), itemID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteItem removes a listing that no booking references.
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	itemID, ok := parseID(c, "invalid item ID")
	if !ok {
		return
	}

	if err := h.service.DeleteItem(c.Request.Context(), middleware.GetCaller(c), itemID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
