// internal/handlers/review.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ShriviCTO/shrivi/internal/models"
	"github.com/ShriviCTO/shrivi/internal/services"
	"github.com/ShriviCTO/shrivi/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) ListProductReviews(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID")
		return
	}

	params := utils.GetPaginationParams(c)
	reviews, total, svcErr := h.reviewService.ListProductReviews(productID, params)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	result := utils.CreatePaginationResult(reviews, total, params)
	utils.PaginatedResponse(c, result)
}

func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID")
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	var req services.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	review, svcErr := h.reviewService.SubmitReview(productID, userID, &req)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.CreatedResponse(c, "Review submitted", review)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid review ID")
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	var req services.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	review, svcErr := h.reviewService.UpdateReview(reviewID, userID, &req)
	if svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Review updated", review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid review ID")
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	role := models.RoleCustomer
	if roleStr, ok := utils.GetRoleFromContext(c); ok {
		role = models.UserRole(roleStr)
	}

	if svcErr := h.reviewService.DeleteReview(reviewID, userID, role); svcErr != nil {
		utils.ErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, "Review deleted", nil)
}
