// internal/handlers/combo.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ShriviCTO/shrivi/internal/models"
	"github.com/ShriviCTO/shrivi/internal/services"
	"github.com/ShriviCTO/shrivi/internal/utils"
)

type ComboHandler struct {
	comboService *services.ComboService
}

func NewComboHandler(comboService *services.ComboService) *ComboHandler {
	return &ComboHandler{comboService: comboService}
}

func (h *ComboHandler) ListCombos(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var status *models.ComboStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.ComboStatus(statusStr)
		if !models.ValidComboStatus(s) {
			utils.BadRequestResponse(c, "Invalid status filter")
			return
		}
		status = &s
	}

	combos, total, err := h.comboService.ListCombos(params, status)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(combos, total, params)
	utils.PaginatedResponse(c, result)
}

func (h *ComboHandler) GetCombo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid combo ID")
		return
	}

	combo, svcErr := h.comboService.GetCombo(id)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Combo retrieved", combo)
}

func (h *ComboHandler) CreateCombo(c *gin.Context) {
	var req services.CreateComboRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	combo, err := h.comboService.CreateCombo(&req)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Combo created successfully", combo)
}

func (h *ComboHandler) UpdateCombo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid combo ID")
		return
	}

	var req services.UpdateComboRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	combo, svcErr := h.comboService.UpdateCombo(id, &req)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Combo updated successfully", combo)
}

func (h *ComboHandler) DeleteCombo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid combo ID")
		return
	}

	if svcErr := h.comboService.DeleteCombo(id); svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Combo deleted", nil)
}

func (h *ComboHandler) SetComboDiscount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid combo ID")
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

	combo, svcErr := h.comboService.SetComboDiscount(id, userID, &req)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Discount applied", combo)
}
