// internal/services/review_service.go
package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShriviCTO/shrivi/internal/apperrors"
	"github.com/ShriviCTO/shrivi/internal/database"
	"github.com/ShriviCTO/shrivi/internal/models"
	"github.com/ShriviCTO/shrivi/internal/utils"
)

// ReviewService manages customer reviews and keeps each product's
// average_rating consistent with its rated reviews. Every write that can move
// the aggregate recomputes it in the same transaction while holding the
// product row, so concurrent submissions converge on the true mean.
type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

type ReviewImageInput struct {
	URL     string `json:"url" validate:"required,url"`
	AltText string `json:"alt_text,omitempty" validate:"omitempty,max=140"`
}

type SubmitReviewRequest struct {
	Rating  *int               `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Comment string             `json:"comment,omitempty" validate:"omitempty,max=2000"`
	Images  []ReviewImageInput `json:"images,omitempty" validate:"omitempty,max=5,dive"`
}

type UpdateReviewRequest struct {
	Rating  *int               `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Comment *string            `json:"comment,omitempty" validate:"omitempty,max=2000"`
	Images  []ReviewImageInput `json:"images,omitempty" validate:"omitempty,max=5,dive"`
}

// SubmitReview attaches a review to a live product. A review must carry a
// rating, a comment, or both; an empty submission is rejected.
func (s *ReviewService) SubmitReview(productID, userID uuid.UUID, req *SubmitReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationErrors(err)
	}
	if req.Rating == nil && req.Comment == "" {
		return nil, apperrors.Validation([]apperrors.FieldError{
			{Field: "rating", Message: "a review needs a rating or a comment"},
		})
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Images:    reviewImagesFromInput(req.Images),
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var product models.Product
		if err := lockForUpdate(tx).First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("product")
			}
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}

		if err := tx.Create(review).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "failed to create review")
		}

		return s.recomputeAverageRating(tx, productID)
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

// UpdateReview lets the author amend their review; the aggregate moves with it.
func (s *ReviewService) UpdateReview(reviewID, userID uuid.UUID, req *UpdateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationErrors(err)
	}

	var review models.Review
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&review, "id = ?", reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("review")
			}
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}
		if review.UserID != userID {
			return apperrors.New(apperrors.KindForbidden, "you can only edit your own reviews")
		}

		if err := lockForUpdate(tx).
			First(&models.Product{}, "id = ?", review.ProductID).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}

		updates := make(map[string]interface{})
		if req.Rating != nil {
			updates["rating"] = *req.Rating
		}
		if req.Comment != nil {
			updates["comment"] = *req.Comment
		}
		if req.Images != nil {
			updates["images"] = reviewImagesFromInput(req.Images)
		}
		if len(updates) > 0 {
			if err := tx.Model(&review).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.KindInternal, err, "failed to update review")
			}
		}

		return s.recomputeAverageRating(tx, review.ProductID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(&review, "id = ?", reviewID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}
	return &review, nil
}

// DeleteReview removes a review. Admins (founder) may remove any review; a
// customer may only remove their own.
func (s *ReviewService) DeleteReview(reviewID, userID uuid.UUID, role models.UserRole) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.First(&review, "id = ?", reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("review")
			}
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}
		if review.UserID != userID && role != models.RoleFounder {
			return apperrors.New(apperrors.KindForbidden, "you can only delete your own reviews")
		}

		if err := lockForUpdate(tx).
			First(&models.Product{}, "id = ?", review.ProductID).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}

		if err := tx.Delete(&review).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "failed to delete review")
		}

		return s.recomputeAverageRating(tx, review.ProductID)
	})
}

// ListProductReviews returns reviews for a product, newest first.
func (s *ReviewService) ListProductReviews(productID uuid.UUID, params utils.PaginationParams) ([]models.Review, int64, error) {
	var exists int64
	if err := s.db.Model(&models.Product{}).Where("id = ?", productID).Count(&exists).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}
	if exists == 0 {
		return nil, 0, apperrors.NotFound("product")
	}

	query := s.db.Model(&models.Review{}).
		Where("product_id = ?", productID).
		Preload("User")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, err, "failed to count reviews")
	}

	var reviews []models.Review
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).
		Find(&reviews).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, err, "failed to fetch reviews")
	}

	return reviews, total, nil
}

// recomputeAverageRating re-scans rated reviews and writes the mean back to
// the product. Comment-only reviews do not count; no rated reviews means 0.
// Callers must hold the product row within tx.
func (s *ReviewService) recomputeAverageRating(tx *gorm.DB, productID uuid.UUID) error {
	var avg *float64
	if err := tx.Model(&models.Review{}).
		Where("product_id = ? AND rating IS NOT NULL", productID).
		Select("AVG(rating)").
		Scan(&avg).Error; err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "failed to recompute rating")
	}

	value := 0.0
	if avg != nil {
		value = *avg
	}

	if err := tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("average_rating", value).Error; err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "failed to store rating")
	}
	return nil
}

func reviewImagesFromInput(inputs []ReviewImageInput) models.ReviewImageList {
	if inputs == nil {
		return nil
	}
	images := make(models.ReviewImageList, 0, len(inputs))
	for _, img := range inputs {
		images = append(images, models.ReviewImage{URL: img.URL, AltText: img.AltText})
	}
	return images
}
