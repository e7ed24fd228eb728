// internal/services/inventory_service.go
package services

import (
	"errors"
	"fmt"
	"image"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ShriviCTO/shrivi/internal/apperrors"
	"github.com/ShriviCTO/shrivi/internal/config"
	"github.com/ShriviCTO/shrivi/internal/database"
	"github.com/ShriviCTO/shrivi/internal/models"
	"github.com/ShriviCTO/shrivi/internal/utils"
)

// InventoryService owns the product catalog lifecycle: creation, image
// gallery, discounts, variant stock/price and bulk updates. Validation always
// completes before the first write; failed operations leave no partial state.
type InventoryService struct {
	db                  *gorm.DB
	storageService      *StorageService
	notificationService *NotificationService
	cfg                 *config.Config
}

func NewInventoryService(db *gorm.DB, storageService *StorageService, notificationService *NotificationService, cfg *config.Config) *InventoryService {
	return &InventoryService{
		db:                  db,
		storageService:      storageService,
		notificationService: notificationService,
		cfg:                 cfg,
	}
}

type FeatureInput struct {
	Icon  string `json:"icon" validate:"required,max=50"`
	Label string `json:"label" validate:"required,max=25"`
}

type VideoInput struct {
	URL   string `json:"url" validate:"required,url"`
	Title string `json:"title" validate:"required,max=100"`
}

type CreateVariantRequest struct {
	Label             string  `json:"label" validate:"required,max=60"`
	Price             float64 `json:"price" validate:"gte=0,lte=10000"`
	SKU               string  `json:"sku,omitempty" validate:"omitempty,max=100"`
	Stock             int     `json:"stock" validate:"gte=0"`
	Weight            string  `json:"weight,omitempty" validate:"omitempty,max=50"`
	Height            string  `json:"height,omitempty" validate:"omitempty,max=50"`
	Width             string  `json:"width,omitempty" validate:"omitempty,max=50"`
	Depth             string  `json:"depth,omitempty" validate:"omitempty,max=50"`
	Packaging         string  `json:"packaging,omitempty" validate:"omitempty,max=1000"`
	Description       string  `json:"description,omitempty" validate:"omitempty,max=140"`
	LowStockThreshold *int    `json:"low_stock_threshold,omitempty" validate:"omitempty,gte=0"`
}

type CreateProductRequest struct {
	Name                string                 `json:"name" validate:"required,min=3,max=100,product_name"`
	Tagline             string                 `json:"tagline" validate:"required,max=140"`
	Description         string                 `json:"description" validate:"required,max=1500"`
	Category            string                 `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags                []string               `json:"tags" validate:"required,min=1,max=10,dive,required"`
	Features            []FeatureInput         `json:"features" validate:"required,min=1,dive"`
	Videos              []VideoInput           `json:"videos,omitempty" validate:"omitempty,dive"`
	NutritionalContent  string                 `json:"nutritional_content" validate:"required"`
	Certifications      string                 `json:"certifications,omitempty"`
	UsageInstructions   string                 `json:"usage_instructions" validate:"required,max=1500"`
	EnvironmentalImpact string                 `json:"environmental_impact,omitempty"`
	ReturnPolicy        string                 `json:"return_policy,omitempty"`
	Variants            []CreateVariantRequest `json:"variants,omitempty" validate:"omitempty,dive"`
}

type UpdateProductRequest struct {
	Tagline             *string              `json:"tagline,omitempty" validate:"omitempty,max=140"`
	Description         *string              `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category            *string              `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags                []string             `json:"tags,omitempty" validate:"omitempty,min=1,max=10,dive,required"`
	Features            []FeatureInput       `json:"features,omitempty" validate:"omitempty,min=1,dive"`
	Videos              []VideoInput         `json:"videos,omitempty" validate:"omitempty,dive"`
	NutritionalContent  *string              `json:"nutritional_content,omitempty"`
	Certifications      *string              `json:"certifications,omitempty"`
	UsageInstructions   *string              `json:"usage_instructions,omitempty" validate:"omitempty,max=1500"`
	EnvironmentalImpact *string              `json:"environmental_impact,omitempty"`
	ReturnPolicy        *string              `json:"return_policy,omitempty"`
	Status              models.ProductStatus `json:"status,omitempty"`
}

type DiscountRequest struct {
	Percentage *float64  `json:"percentage" validate:"required,gte=0,lte=100"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date" validate:"required"`
}

type UpdateVariantRequest struct {
	Stock *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Price *float64 `json:"price,omitempty" validate:"omitempty,gte=0,lte=10000"`
}

type BulkUpdateEntry struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Stock     *int       `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Price     *float64   `json:"price,omitempty" validate:"omitempty,gte=0,lte=10000"`
}

type ListProductsParams struct {
	utils.PaginationParams
	Status   *models.ProductStatus
	Tag      string
	Category string
}

// lockForUpdate takes a row lock on Postgres. The SQLite test databases
// serialize writers on their own and reject the FOR UPDATE clause.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func validationErrors(err error) error {
	if fields := utils.GetValidationErrors(err); len(fields) > 0 {
		return apperrors.Validation(fields)
	}
	return apperrors.Wrap(apperrors.KindInternal, err, "request validation failed")
}

// CreateProduct persists a new product (status inactive) after evaluating
// every field constraint. Name uniqueness among live products is enforced by
// a partial unique index, so two concurrent creates cannot both succeed.
func (s *InventoryService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationErrors(err)
	}

	product := &models.Product{
		Name:                req.Name,
		Tagline:             req.Tagline,
		Description:         req.Description,
		Category:            req.Category,
		Tags:                req.Tags,
		Features:            featuresFromInput(req.Features),
		Videos:              videosFromInput(req.Videos),
		NutritionalContent:  req.NutritionalContent,
		Certifications:      req.Certifications,
		UsageInstructions:   req.UsageInstructions,
		EnvironmentalImpact: req.EnvironmentalImpact,
		ReturnPolicy:        req.ReturnPolicy,
		Status:              models.ProductStatusInactive,
	}
	for _, v := range req.Variants {
		product.Variants = append(product.Variants, variantFromInput(v))
	}

	if err := s.db.Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateCreateError(req.Name)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to create product")
	}

	return product, nil
}

// duplicateCreateError reports which unique constraint a product insert hit:
// the live product name, or a SKU on one of the supplied variants.
func (s *InventoryService) duplicateCreateError(name string) error {
	var count int64
	err := s.db.Model(&models.Product{}).Where("name = ?", name).Count(&count).Error
	if err == nil && count > 0 {
		return apperrors.New(apperrors.KindDuplicateName, "a product with this name already exists")
	}
	return apperrors.New(apperrors.KindDuplicateName, "a variant with this SKU already exists")
}

// GetProduct returns a live product; soft-deleted rows read as missing.
func (s *InventoryService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Variants").
		Preload("DiscountHistory").
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}

	return &product, nil
}

// ListProducts returns live products matching the filters, ordered by
// creation time unless the caller sorts otherwise.
func (s *InventoryService) ListProducts(params ListProductsParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).
		Where("status <> ?", models.ProductStatusDeleted).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Variants")

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Tag != "" {
		query = query.Where("? = ANY(tags)", params.Tag)
	}
	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR tagline ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, err, "failed to count products")
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "average_rating"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, err, "failed to fetch products")
	}

	return products, total, nil
}

// UpdateProduct applies a field-scoped partial update; only supplied fields
// change, so concurrent updates to different fields do not clobber each other.
func (s *InventoryService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationErrors(err)
	}
	if req.Status != "" && !models.ValidProductStatus(req.Status) {
		return nil, apperrors.Validation([]apperrors.FieldError{
			{Field: "status", Message: "status must be one of inactive, upcoming, active, archived"},
		})
	}
	// Deletion runs through DeleteProduct so the row also gets its deleted_at
	// stamp; a bare status write would leave it visible to lookups.
	if req.Status == models.ProductStatusDeleted {
		return nil, apperrors.Validation([]apperrors.FieldError{
			{Field: "status", Message: "status cannot be set to deleted; use the delete operation"},
		})
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}

	updates := make(map[string]interface{})
	if req.Tagline != nil {
		updates["tagline"] = *req.Tagline
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(req.Tags)
	}
	if req.Features != nil {
		updates["features"] = featuresFromInput(req.Features)
	}
	if req.Videos != nil {
		updates["videos"] = videosFromInput(req.Videos)
	}
	if req.NutritionalContent != nil {
		updates["nutritional_content"] = *req.NutritionalContent
	}
	if req.Certifications != nil {
		updates["certifications"] = *req.Certifications
	}
	if req.UsageInstructions != nil {
		updates["usage_instructions"] = *req.UsageInstructions
	}
	if req.EnvironmentalImpact != nil {
		updates["environmental_impact"] = *req.EnvironmentalImpact
	}
	if req.ReturnPolicy != nil {
		updates["return_policy"] = *req.ReturnPolicy
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}

	if len(updates) > 0 {
		if err := s.db.Model(&product).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to update product")
		}
	}

	return s.GetProduct(id)
}

// DeleteProduct soft-deletes: the row keeps existing but is excluded from
// every normal read path.
func (s *InventoryService) DeleteProduct(id uuid.UUID) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var product models.Product
		if err := lockForUpdate(tx).First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("product")
			}
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}

		if err := tx.Model(&product).Update("status", models.ProductStatusDeleted).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "failed to mark product deleted")
		}
		if err := tx.Delete(&product).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "failed to soft delete product")
		}
		// Variants go with the product, releasing their SKUs for reuse.
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.Variant{}).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "failed to soft delete variants")
		}
		return nil
	})
}

// AddImages validates and stores an image batch, then appends the records.
// The batch is atomic: one bad file fails the whole request, and objects
// already written for the batch are removed. Exactly one image is primary
// whenever the gallery is non-empty.
func (s *InventoryService) AddImages(productID uuid.UUID, files []*multipart.FileHeader) ([]models.ProductImage, error) {
	if len(files) == 0 {
		return nil, apperrors.Validation([]apperrors.FieldError{
			{Field: "images", Message: "no images uploaded"},
		})
	}

	// File-level checks run for the whole batch before anything is stored.
	decoded := make([]image.Image, 0, len(files))
	for _, header := range files {
		if err := s.storageService.ValidateImageFile(header); err != nil {
			return nil, err
		}
		file, err := header.Open()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to read uploaded file")
		}
		img, err := s.storageService.DecodeAndCheck(file, header.Filename)
		file.Close()
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, img)
	}

	var created []models.ProductImage
	var storedKeys []string

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var product models.Product
		if err := lockForUpdate(tx).First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("product")
			}
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}

		if product.ImageLocked() {
			return apperrors.Newf(apperrors.KindInvalidState,
				"images cannot be added to a product with status %q", product.Status)
		}

		var existing []models.ProductImage
		if err := tx.Where("product_id = ?", productID).Order("position ASC").Find(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "failed to load existing images")
		}

		resulting := len(existing) + len(files)
		if resulting < s.cfg.Upload.MinImages || resulting > s.cfg.Upload.MaxImages {
			return apperrors.Validation([]apperrors.FieldError{
				{Field: "images", Message: fmt.Sprintf(
					"a product must have between %d and %d images; this upload would result in %d",
					s.cfg.Upload.MinImages, s.cfg.Upload.MaxImages, resulting)},
			})
		}

		hasPrimary := false
		position := 0
		for _, img := range existing {
			if img.IsPrimary {
				hasPrimary = true
			}
			if img.Position >= position {
				position = img.Position + 1
			}
		}

		for i, header := range files {
			stored, err := s.storageService.StoreImage(decoded[i], header.Filename, "products")
			if err != nil {
				return err
			}
			storedKeys = append(storedKeys, stored.Key, stored.ThumbnailKey)

			record := models.ProductImage{
				ProductID:    productID,
				URL:          stored.URL,
				ThumbnailURL: stored.ThumbnailURL,
				AltText:      header.Filename,
				StorageKey:   stored.Key,
				// The first image of an empty gallery becomes primary; a
				// gallery that somehow lost its primary gets one back.
				IsPrimary: !hasPrimary,
				Position:  position,
			}
			hasPrimary = true
			position++

			if err := tx.Create(&record).Error; err != nil {
				return apperrors.Wrap(apperrors.KindInternal, err, "failed to persist image record")
			}
			created = append(created, record)
		}

		return nil
	})
	if err != nil {
		// No orphaned objects: anything written for this batch is removed.
		s.storageService.RemoveObjects(storedKeys...)
		return nil, err
	}

	return created, nil
}

// SetProductDiscount replaces the product's discount; the prior window is
// appended to the immutable history rather than discarded.
func (s *InventoryService) SetProductDiscount(productID, addedBy uuid.UUID, req *DiscountRequest) (*models.Product, error) {
	if err := validateDiscount(req); err != nil {
		return nil, err
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var product models.Product
		if err := lockForUpdate(tx).First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("product")
			}
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}

		if product.Discount.IsSet() {
			entry := models.DiscountHistoryEntry{
				ProductID:  &product.ID,
				Percentage: *product.Discount.Percentage,
				StartDate:  *product.Discount.StartDate,
				EndDate:    *product.Discount.EndDate,
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
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "failed to set discount")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetProduct(productID)
}

// SetVariantDiscount follows the product discount contract, scoped to one
// variant.
func (s *InventoryService) SetVariantDiscount(productID, variantID, addedBy uuid.UUID, req *DiscountRequest) (*models.Variant, error) {
	if err := validateDiscount(req); err != nil {
		return nil, err
	}

	var variant models.Variant
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&variant, "id = ? AND product_id = ?", variantID, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("variant")
			}
			return apperrors.Wrap(apperrors.KindInternal, err, "database error")
		}

		if variant.Discount.IsSet() {
			entry := models.DiscountHistoryEntry{
				VariantID:  &variant.ID,
				Percentage: *variant.Discount.Percentage,
				StartDate:  *variant.Discount.StartDate,
				EndDate:    *variant.Discount.EndDate,
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
		if err := tx.Model(&variant).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "failed to set variant discount")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(&variant, "id = ?", variantID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}
	return &variant, nil
}

// CreateVariant adds a purchasable size/SKU to an existing product.
func (s *InventoryService) CreateVariant(productID uuid.UUID, req *CreateVariantRequest) (*models.Variant, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationErrors(err)
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}
	if product.Status == models.ProductStatusArchived || product.Status == models.ProductStatusDeleted {
		return nil, apperrors.Newf(apperrors.KindInvalidState,
			"variants cannot be added to a product with status %q", product.Status)
	}

	variant := variantFromInput(*req)
	variant.ProductID = productID

	if err := s.db.Create(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New(apperrors.KindDuplicateName, "a variant with this SKU already exists")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to create variant")
	}

	return &variant, nil
}

// UpdateVariant applies a partial stock/price update.
func (s *InventoryService) UpdateVariant(productID, variantID uuid.UUID, req *UpdateVariantRequest) (*models.Variant, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationErrors(err)
	}

	var variant models.Variant
	if err := s.db.First(&variant, "id = ? AND product_id = ?", variantID, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("variant")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}

	updates := make(map[string]interface{})
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}

	if len(updates) > 0 {
		if err := s.db.Model(&variant).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to update variant")
		}
	}

	if err := s.db.First(&variant, "id = ?", variantID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}

	s.notifyIfLowStock(&variant)

	return &variant, nil
}

// BulkUpdateInventory applies a batch of stock/price updates with
// all-or-nothing semantics: every entry is validated up front, any violation
// rejects the whole batch, and application happens in one transaction so a
// missing variant rolls back everything.
func (s *InventoryService) BulkUpdateInventory(entries []BulkUpdateEntry) ([]models.Variant, error) {
	if len(entries) == 0 {
		return nil, apperrors.Validation([]apperrors.FieldError{
			{Field: "entries", Message: "no entries supplied"},
		})
	}

	var fieldErrors []apperrors.FieldError
	for i, entry := range entries {
		if entry.ProductID == uuid.Nil {
			fieldErrors = append(fieldErrors, apperrors.FieldError{
				Field:   fmt.Sprintf("entries[%d].product_id", i),
				Message: "product_id is required",
			})
		}
		if entry.Stock == nil && entry.Price == nil {
			fieldErrors = append(fieldErrors, apperrors.FieldError{
				Field:   fmt.Sprintf("entries[%d]", i),
				Message: "at least one of stock or price must be supplied",
			})
		}
		if entry.Stock != nil && *entry.Stock < 0 {
			fieldErrors = append(fieldErrors, apperrors.FieldError{
				Field:   fmt.Sprintf("entries[%d].stock", i),
				Message: "stock cannot be negative",
			})
		}
		if entry.Price != nil && (*entry.Price < 0 || *entry.Price > 10000) {
			fieldErrors = append(fieldErrors, apperrors.FieldError{
				Field:   fmt.Sprintf("entries[%d].price", i),
				Message: "price must be between 0 and 10000",
			})
		}
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.Validation(fieldErrors)
	}

	var updated []models.Variant
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		for i, entry := range entries {
			variant, err := s.resolveVariant(tx, entry, i)
			if err != nil {
				return err
			}

			updates := make(map[string]interface{})
			if entry.Stock != nil {
				updates["stock"] = *entry.Stock
			}
			if entry.Price != nil {
				updates["price"] = *entry.Price
			}
			if err := tx.Model(variant).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.KindInternal, err, "failed to apply bulk update")
			}
			updated = append(updated, *variant)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range updated {
		s.notifyIfLowStock(&updated[i])
	}

	return updated, nil
}

// ListLowStock returns variants below their replenishment threshold.
func (s *InventoryService) ListLowStock() ([]models.Variant, error) {
	var variants []models.Variant
	if err := s.db.
		Joins("JOIN products ON products.id = variants.product_id AND products.deleted_at IS NULL").
		Where("variants.stock < variants.low_stock_threshold").
		Find(&variants).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to fetch low stock variants")
	}
	return variants, nil
}

// Helper methods

func (s *InventoryService) resolveVariant(tx *gorm.DB, entry BulkUpdateEntry, idx int) (*models.Variant, error) {
	query := lockForUpdate(tx).Where("product_id = ?", entry.ProductID)
	if entry.VariantID != nil {
		query = query.Where("id = ?", *entry.VariantID)
	}

	var variants []models.Variant
	if err := query.Find(&variants).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}

	switch len(variants) {
	case 0:
		return nil, apperrors.Newf(apperrors.KindNotFound, "entries[%d] does not resolve to a variant", idx)
	case 1:
		return &variants[0], nil
	default:
		// Ambiguous without an explicit variant id.
		return nil, apperrors.Validation([]apperrors.FieldError{
			{Field: fmt.Sprintf("entries[%d].variant_id", idx),
				Message: "variant_id is required for products with multiple variants"},
		})
	}
}

func (s *InventoryService) notifyIfLowStock(variant *models.Variant) {
	if s.notificationService == nil || !variant.LowStock() {
		return
	}
	go func(v models.Variant) {
		if err := s.notificationService.SendLowStockAlert(&v); err != nil {
			logrus.WithError(err).WithField("variant_id", v.ID).Warn("Failed to send low stock alert")
		}
	}(*variant)
}

func validateDiscount(req *DiscountRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return validationErrors(err)
	}
	if !req.EndDate.After(req.StartDate) {
		return apperrors.Validation([]apperrors.FieldError{
			{Field: "end_date", Message: "end date must be after start date"},
		})
	}
	return nil
}

func featuresFromInput(inputs []FeatureInput) models.FeatureList {
	if inputs == nil {
		return nil
	}
	features := make(models.FeatureList, 0, len(inputs))
	for _, f := range inputs {
		features = append(features, models.Feature{Icon: f.Icon, Label: f.Label})
	}
	return features
}

func videosFromInput(inputs []VideoInput) models.VideoList {
	if inputs == nil {
		return nil
	}
	videos := make(models.VideoList, 0, len(inputs))
	for _, v := range inputs {
		videos = append(videos, models.Video{URL: v.URL, Title: v.Title})
	}
	return videos
}

func variantFromInput(req CreateVariantRequest) models.Variant {
	variant := models.Variant{
		Label:             req.Label,
		Price:             req.Price,
		Stock:             req.Stock,
		Weight:            req.Weight,
		Height:            req.Height,
		Width:             req.Width,
		Depth:             req.Depth,
		Packaging:         req.Packaging,
		Description:       req.Description,
		LowStockThreshold: 50,
	}
	if req.SKU != "" {
		sku := req.SKU
		variant.SKU = &sku
	}
	if req.LowStockThreshold != nil {
		variant.LowStockThreshold = *req.LowStockThreshold
	}
	return variant
}
