// internal/handlers/inventory.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ShriviCTO/shrivi/internal/apperrors"
	"github.com/ShriviCTO/shrivi/internal/models"
	"github.com/ShriviCTO/shrivi/internal/services"
	"github.com/ShriviCTO/shrivi/internal/utils"
)

// InventoryHandler exposes the catalog management surface. Public reads and
// role-gated writes are separated at the router.
type InventoryHandler struct {
	inventoryService *services.InventoryService
}

func NewInventoryHandler(inventoryService *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	product, err := h.inventoryService.CreateProduct(&req)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Product created successfully", product)
}

func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID")
		return
	}

	product, svcErr := h.inventoryService.GetProduct(id)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Product retrieved", product)
}

func (h *InventoryHandler) ListProducts(c *gin.Context) {
	params := services.ListProductsParams{
		PaginationParams: utils.GetPaginationParams(c),
		Tag:              c.Query("tag"),
		Category:         c.Query("category"),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ProductStatus(statusStr)
		if !models.ValidProductStatus(status) {
			utils.BadRequestResponse(c, "Invalid status filter")
			return
		}
		params.Status = &status
	}

	products, total, err := h.inventoryService.ListProducts(params)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(products, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID")
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	product, svcErr := h.inventoryService.UpdateProduct(id, &req)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Product updated successfully", product)
}

func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID")
		return
	}

	if svcErr := h.inventoryService.DeleteProduct(id); svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Product deleted", nil)
}

// AddImages accepts a multipart batch under the "images" field.
func (h *InventoryHandler) AddImages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form")
		return
	}
	files := form.File["images"]

	images, svcErr := h.inventoryService.AddImages(id, files)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Images added successfully", images)
}

func (h *InventoryHandler) SetProductDiscount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID")
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	var req services.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	product, svcErr := h.inventoryService.SetProductDiscount(id, userID, &req)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Discount applied", product)
}

func (h *InventoryHandler) CreateVariant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID")
		return
	}

	var req services.CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	variant, svcErr := h.inventoryService.CreateVariant(id, &req)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.CreatedResponse(c, "Variant created successfully", variant)
}

func (h *InventoryHandler) UpdateVariant(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID")
		return
	}
	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid variant ID")
		return
	}

	var req services.UpdateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	variant, svcErr := h.inventoryService.UpdateVariant(productID, variantID, &req)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Variant updated successfully", variant)
}

func (h *InventoryHandler) SetVariantDiscount(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID")
		return
	}
	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid variant ID")
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	var req services.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	variant, svcErr := h.inventoryService.SetVariantDiscount(productID, variantID, userID, &req)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Discount applied", variant)
}

func (h *InventoryHandler) BulkUpdate(c *gin.Context) {
	var req struct {
		Entries []services.BulkUpdateEntry `json:"entries"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	variants, err := h.inventoryService.BulkUpdateInventory(req.Entries)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Inventory updated", variants)
}

func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	variants, err := h.inventoryService.ListLowStock()
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Low stock variants retrieved", variants)
}

// authenticatedUserID pulls the JWT subject, writing the error response
// itself when the context has no valid user.
func authenticatedUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.ErrorResponse(c, apperrors.New(apperrors.KindUnauthorized, "invalid token subject"))
		return uuid.Nil, false
	}
	return userID, true
}
