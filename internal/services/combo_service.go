// internal/services/combo_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShriviCTO/shrivi/internal/apperrors"
	"github.com/ShriviCTO/shrivi/internal/database"
	"github.com/ShriviCTO/shrivi/internal/models"
	"github.com/ShriviCTO/shrivi/internal/utils"
)

// ComboService manages bundles of existing variants sold at a package price.
type ComboService struct {
	db *gorm.DB
}

func NewComboService(db *gorm.DB) *ComboService {
	return &ComboService{db: db}
}

type ComboItemInput struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

type CreateComboRequest struct {
	Name        string                 `json:"name" validate:"required,min=3,max=100"`
	Description string                 `json:"description" validate:"required,max=2000"`
	Image       string                 `json:"image,omitempty" validate:"omitempty,max=512"`
	Price       float64                `json:"price" validate:"gte=0,lte=10000"`
	Items       []ComboItemInput       `json:"items" validate:"required,min=1,dive"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type UpdateComboRequest struct {
	Name        *string                `json:"name,omitempty" validate:"omitempty,min=3,max=100"`
	Description *string                `json:"description,omitempty" validate:"omitempty,max=2000"`
	Image       *string                `json:"image,omitempty" validate:"omitempty,max=512"`
	Price       *float64               `json:"price,omitempty" validate:"omitempty,gte=0,lte=10000"`
	Status      models.ComboStatus     `json:"status,omitempty"`
	Items       []ComboItemInput       `json:"items,omitempty" validate:"omitempty,min=1,dive"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// CreateCombo builds a bundle after confirming every referenced variant
// belongs to a live product.
func (s *ComboService) CreateCombo(req *CreateComboRequest) (*models.Combo, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationErrors(err)
	}

	combo := &models.Combo{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		Price:       req.Price,
		Status:      models.ComboStatusActive,
		Metadata:    models.JSONB(req.Metadata),
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := s.validateItems(tx, req.Items); err != nil {
			return err
		}
		for _, item := range req.Items {
			combo.Items = append(combo.Items, models.ComboItem{
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
			})
		}
		if err := tx.Create(combo).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "failed to create combo")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return combo, nil
}

func (s *ComboService) GetCombo(id uuid.UUID) (*models.Combo, error) {
	var combo models.Combo
	err := s.db.
		Preload("Items").
		Preload("Items.Variant").
		Preload("DiscountHistory").
		First(&combo, "id = ? AND status <> ?", id, models.ComboStatusDeleted).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("combo")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}
	return &combo, nil
}

func (s *ComboService) ListCombos(params utils.PaginationParams, status *models.ComboStatus) ([]models.Combo, int64, error) {
	query := s.db.Model(&models.Combo{}).
		Where("status <> ?", models.ComboStatusDeleted).
		Preload("Items")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, err, "failed to count combos")
	}

	query = utils.ApplySort(query, params, []string{"created_at", "updated_at", "name", "price"})
	query = utils.ApplyPagination(query, params)

	var combos []models.Combo
	if err := query.Find(&combos).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, err, "failed to fetch combos")
	}
	return combos, total, nil
}

// UpdateCombo applies a field-scoped partial update; replacing the item list
// swaps it wholesale after validating the new references.
func (s *ComboService) UpdateCombo(id uuid.UUID, req *UpdateComboRequest) (*models.Combo, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationErrors(err)
	}
	if req.Status != "" && !models.ValidComboStatus(req.Status) {
		return nil, apperrors.Validation([]apperrors.FieldError{
			{Field: "status", Message: "status must be one of active, inactive, archived"},
		})
	}
	// Same rule as products: deletion goes through DeleteCombo so deleted_at
	// is stamped alongside the status.
	if req.Status == models.ComboStatusDeleted {
		return nil, apperrors.Validation([]apperrors.FieldError{
			{Field: "status", Message: "status cannot be set to deleted; use the delete operation"},
		})
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var combo models.Combo
		if err := lockForUpdate(tx).
			First(&combo, "id = ? AND status <> ?", id, models.ComboStatusDeleted).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("combo")
			}
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}

		updates := make(map[string]interface{})
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Image != nil {
			updates["image"] = *req.Image
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}
		if req.Status != "" {
			updates["status"] = req.Status
		}
		if req.Metadata != nil {
			updates["metadata"] = models.JSONB(req.Metadata)
		}
		if len(updates) > 0 {
			if err := tx.Model(&combo).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.KindInternal, err, "failed to update combo")
			}
		}

		if req.Items != nil {
			if err := s.validateItems(tx, req.Items); err != nil {
				return err
			}
			if err := tx.Where("combo_id = ?", combo.ID).Delete(&models.ComboItem{}).Error; err != nil {
				return apperrors.Wrap(apperrors.KindInternal, err, "failed to replace combo items")
			}
			for _, item := range req.Items {
				record := models.ComboItem{
					ComboID:   combo.ID,
					VariantID: item.VariantID,
					Quantity:  item.Quantity,
				}
				if err := tx.Create(&record).Error; err != nil {
					return apperrors.Wrap(apperrors.KindInternal, err, "failed to replace combo items")
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCombo(id)
}

// DeleteCombo soft-deletes the bundle; constituent products are untouched.
func (s *ComboService) DeleteCombo(id uuid.UUID) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var combo models.Combo
		if err := lockForUpdate(tx).
			First(&combo, "id = ? AND status <> ?", id, models.ComboStatusDeleted).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("combo")
			}
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}
		if err := tx.Model(&combo).Update("status", models.ComboStatusDeleted).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "failed to delete combo")
		}
		return tx.Delete(&combo).Error
	})
}

// SetComboDiscount follows the product discount contract: the replaced window
// is appended to history before the new one takes effect.
func (s *ComboService) SetComboDiscount(comboID, addedBy uuid.UUID, req *DiscountRequest) (*models.Combo, error) {
	if err := validateDiscount(req); err != nil {
		return nil, err
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var combo models.Combo
		if err := lockForUpdate(tx).
			First(&combo, "id = ? AND status <> ?", comboID, models.ComboStatusDeleted).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("combo")
			}
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}

		if combo.Discount.IsSet() {
			entry := models.DiscountHistoryEntry{
				ComboID:    &combo.ID,
				Percentage: *combo.Discount.Percentage,
				StartDate:  *combo.Discount.StartDate,
				EndDate:    *combo.Discount.EndDate,
				AddedBy:    addedBy,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return apperrors.Wrap(apperrors.KindInternal, err, "failed to append discount history")
			}
		}

		updates := map[string]interface{}{
			"discount_percentage": *req.Percentage,
			"discount_start_date": req.StartDate,
			"discount_end_date":   req.EndDate,
		}
		if err := tx.Model(&combo).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "failed to set combo discount")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCombo(comboID)
}

// validateItems rejects references to missing variants or variants whose
// product is gone.
func (s *ComboService) validateItems(tx *gorm.DB, items []ComboItemInput) error {
	var fieldErrors []apperrors.FieldError
	for i, item := range items {
		var count int64
		err := tx.Model(&models.Variant{}).
			Joins("JOIN products ON products.id = variants.product_id AND products.deleted_at IS NULL").
			Where("variants.id = ?", item.VariantID).
			Count(&count).Error
		if err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}
		if count == 0 {
			fieldErrors = append(fieldErrors, apperrors.FieldError{
				Field:   fmt.Sprintf("items[%d].variant_id", i),
				Message: "variant does not exist",
			})
		}
	}
	if len(fieldErrors) > 0 {
		return apperrors.Validation(fieldErrors)
	}
	return nil
}
