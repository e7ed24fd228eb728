// internal/services/inventory_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/ShriviCTO/shrivi/internal/apperrors"
	"github.com/ShriviCTO/shrivi/internal/models"
	"github.com/ShriviCTO/shrivi/internal/utils"
)

type InventoryServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *InventoryService
}

func (s *InventoryServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	s.svc = NewInventoryService(s.db, newTestStorage(s.T()), nil, newTestConfig())
}

func TestInventoryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryServiceTestSuite))
}

func (s *InventoryServiceTestSuite) TestCreateProduct() {
	product, err := s.svc.CreateProduct(validProductRequest("Groundnut Oil"))
	s.Require().NoError(err)

	s.Equal("Groundnut Oil", product.Name)
	s.Equal(models.ProductStatusInactive, product.Status)
	s.Len(product.Variants, 1)
	s.Equal(120, product.Variants[0].Stock)
}

func (s *InventoryServiceTestSuite) TestCreateProductEnumeratesAllViolations() {
	req := validProductRequest("ab")
	req.Tagline = ""
	req.Tags = nil

	_, err := s.svc.CreateProduct(req)
	s.Require().Error(err)
	s.True(apperrors.IsKind(err, apperrors.KindValidation))

	appErr := apperrors.AsError(err)
	s.Require().NotNil(appErr)
	// Every violated field is reported, not just the first.
	s.GreaterOrEqual(len(appErr.Fields()), 3)

	var count int64
	s.db.Model(&models.Product{}).Count(&count)
	s.Zero(count)
}

func (s *InventoryServiceTestSuite) TestCreateProductDuplicateName() {
	createTestProduct(s.T(), s.svc, "Groundnut Oil")

	_, err := s.svc.CreateProduct(validProductRequest("Groundnut Oil"))
	s.Require().Error(err)
	s.True(apperrors.IsKind(err, apperrors.KindDuplicateName))
}

func (s *InventoryServiceTestSuite) TestDeletedNameIsReusable() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	s.Require().NoError(s.svc.DeleteProduct(product.ID))

	// The partial unique index only covers live rows.
	_, err := s.svc.CreateProduct(validProductRequest("Groundnut Oil"))
	s.NoError(err)
}

func (s *InventoryServiceTestSuite) TestDeleteReleasesVariantSKUs() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	s.Require().NoError(s.svc.DeleteProduct(product.ID))

	// Variants vanish with the product, so the SKU is free for the next one.
	var liveVariants int64
	s.Require().NoError(s.db.Model(&models.Variant{}).
		Where("product_id = ?", product.ID).Count(&liveVariants).Error)
	s.Zero(liveVariants)

	req := validProductRequest("Coconut Oil")
	req.Variants[0].SKU = "Groundnut Oil-500"
	_, err := s.svc.CreateProduct(req)
	s.NoError(err)
}

func (s *InventoryServiceTestSuite) TestCreateProductReportsSKUConflict() {
	createTestProduct(s.T(), s.svc, "Groundnut Oil")

	req := validProductRequest("Coconut Oil")
	req.Variants[0].SKU = "Groundnut Oil-500"
	_, err := s.svc.CreateProduct(req)
	s.Require().True(apperrors.IsKind(err, apperrors.KindDuplicateName))
	s.Contains(apperrors.AsError(err).Message(), "SKU")
}

func (s *InventoryServiceTestSuite) TestSoftDeleteHidesProduct() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	s.Require().NoError(s.svc.DeleteProduct(product.ID))

	_, err := s.svc.GetProduct(product.ID)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))

	products, total, err := s.svc.ListProducts(ListProductsParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20},
	})
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(products)

	// The row itself survives for audit purposes.
	var count int64
	s.db.Unscoped().Model(&models.Product{}).Count(&count)
	s.Equal(int64(1), count)
}

func (s *InventoryServiceTestSuite) TestUpdateProductIsFieldScoped() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")

	tagline := "New season pressing"
	updated, err := s.svc.UpdateProduct(product.ID, &UpdateProductRequest{Tagline: &tagline})
	s.Require().NoError(err)

	s.Equal("New season pressing", updated.Tagline)
	// Untouched fields keep their values.
	s.Equal(product.Description, updated.Description)
	s.Equal(product.Status, updated.Status)
}

func (s *InventoryServiceTestSuite) TestUpdateProductRejectsUnknownStatus() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")

	_, err := s.svc.UpdateProduct(product.ID, &UpdateProductRequest{Status: "discontinued"})
	s.True(apperrors.IsKind(err, apperrors.KindValidation))
}

func (s *InventoryServiceTestSuite) TestUpdateProductCannotSetDeletedStatus() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")

	_, err := s.svc.UpdateProduct(product.ID, &UpdateProductRequest{Status: models.ProductStatusDeleted})
	s.Require().True(apperrors.IsKind(err, apperrors.KindValidation))

	// The product is untouched and still fully visible.
	got, err := s.svc.GetProduct(product.ID)
	s.Require().NoError(err)
	s.Equal(models.ProductStatusInactive, got.Status)
}

func (s *InventoryServiceTestSuite) TestAddImagesBelowMinimumRejected() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")

	_, err := s.svc.AddImages(product.ID, squareUploads(s.T(), 2))
	s.True(apperrors.IsKind(err, apperrors.KindValidation))

	var count int64
	s.db.Model(&models.ProductImage{}).Count(&count)
	s.Zero(count)
}

func (s *InventoryServiceTestSuite) TestAddImagesPrimarySingleton() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")

	images, err := s.svc.AddImages(product.ID, squareUploads(s.T(), 3))
	s.Require().NoError(err)
	s.Len(images, 3)

	var primaries int64
	s.db.Model(&models.ProductImage{}).
		Where("product_id = ? AND is_primary", product.ID).Count(&primaries)
	s.Equal(int64(1), primaries)

	// A second batch must not mint another primary.
	_, err = s.svc.AddImages(product.ID, squareUploads(s.T(), 3))
	s.Require().NoError(err)

	s.db.Model(&models.ProductImage{}).
		Where("product_id = ? AND is_primary", product.ID).Count(&primaries)
	s.Equal(int64(1), primaries)
}

func (s *InventoryServiceTestSuite) TestAddImagesAboveMaximumRejected() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")

	_, err := s.svc.AddImages(product.ID, squareUploads(s.T(), 8))
	s.Require().NoError(err)

	_, err = s.svc.AddImages(product.ID, squareUploads(s.T(), 3))
	s.True(apperrors.IsKind(err, apperrors.KindValidation))

	var count int64
	s.db.Model(&models.ProductImage{}).Where("product_id = ?", product.ID).Count(&count)
	s.Equal(int64(8), count)
}

func (s *InventoryServiceTestSuite) TestAddImagesBatchAtomicOnBadFile() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")

	// Third file is too narrow; nothing from the batch may land.
	specs := []testImageSpec{
		{name: "a.jpg", width: 640, height: 640},
		{name: "b.jpg", width: 640, height: 640},
		{name: "narrow.jpg", width: 200, height: 900},
	}
	_, err := s.svc.AddImages(product.ID, buildImageUpload(s.T(), specs))
	s.True(apperrors.IsKind(err, apperrors.KindValidation))

	var count int64
	s.db.Model(&models.ProductImage{}).Count(&count)
	s.Zero(count)
}

func (s *InventoryServiceTestSuite) TestAddImagesLockedForArchivedProduct() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	s.Require().NoError(
		s.db.Model(&models.Product{}).Where("id = ?", product.ID).
			Update("status", models.ProductStatusArchived).Error)

	_, err := s.svc.AddImages(product.ID, squareUploads(s.T(), 3))
	s.True(apperrors.IsKind(err, apperrors.KindInvalidState))
}

func (s *InventoryServiceTestSuite) TestAddImagesUnknownProduct() {
	_, err := s.svc.AddImages(uuid.New(), squareUploads(s.T(), 3))
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *InventoryServiceTestSuite) TestSetProductDiscountAppendsHistory() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	admin := createTestUser(s.T(), s.db, "founder@shrivi.in", models.RoleFounder)

	first := 10.0
	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	end := start.Add(7 * 24 * time.Hour)

	updated, err := s.svc.SetProductDiscount(product.ID, admin.ID, &DiscountRequest{
		Percentage: &first, StartDate: start, EndDate: end,
	})
	s.Require().NoError(err)
	s.Require().NotNil(updated.Discount.Percentage)
	s.Equal(10.0, *updated.Discount.Percentage)
	// First discount: nothing to archive yet.
	s.Empty(updated.DiscountHistory)

	second := 25.0
	updated, err = s.svc.SetProductDiscount(product.ID, admin.ID, &DiscountRequest{
		Percentage: &second, StartDate: start, EndDate: end,
	})
	s.Require().NoError(err)
	s.Equal(25.0, *updated.Discount.Percentage)
	s.Require().Len(updated.DiscountHistory, 1)
	s.Equal(10.0, updated.DiscountHistory[0].Percentage)
	s.Equal(admin.ID, updated.DiscountHistory[0].AddedBy)
}

func (s *InventoryServiceTestSuite) TestDiscountWindowValidation() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	admin := createTestUser(s.T(), s.db, "founder@shrivi.in", models.RoleFounder)

	pct := 10.0
	start := time.Now()

	_, err := s.svc.SetProductDiscount(product.ID, admin.ID, &DiscountRequest{
		Percentage: &pct, StartDate: start, EndDate: start,
	})
	s.True(apperrors.IsKind(err, apperrors.KindValidation), "end date must be after start date")

	over := 120.0
	_, err = s.svc.SetProductDiscount(product.ID, admin.ID, &DiscountRequest{
		Percentage: &over, StartDate: start, EndDate: start.Add(time.Hour),
	})
	s.True(apperrors.IsKind(err, apperrors.KindValidation), "percentage above 100 rejected")
}

func (s *InventoryServiceTestSuite) TestSetVariantDiscount() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	admin := createTestUser(s.T(), s.db, "founder@shrivi.in", models.RoleFounder)
	variantID := product.Variants[0].ID

	pct := 15.0
	start := time.Now()
	variant, err := s.svc.SetVariantDiscount(product.ID, variantID, admin.ID, &DiscountRequest{
		Percentage: &pct, StartDate: start, EndDate: start.Add(48 * time.Hour),
	})
	s.Require().NoError(err)
	s.Require().NotNil(variant.Discount.Percentage)
	s.Equal(15.0, *variant.Discount.Percentage)

	// Replacing it archives the old window against the variant.
	next := 20.0
	_, err = s.svc.SetVariantDiscount(product.ID, variantID, admin.ID, &DiscountRequest{
		Percentage: &next, StartDate: start, EndDate: start.Add(48 * time.Hour),
	})
	s.Require().NoError(err)

	var history []models.DiscountHistoryEntry
	s.db.Where("variant_id = ?", variantID).Find(&history)
	s.Require().Len(history, 1)
	s.Equal(15.0, history[0].Percentage)
}

func (s *InventoryServiceTestSuite) TestCreateVariantDuplicateSKU() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")

	_, err := s.svc.CreateVariant(product.ID, &CreateVariantRequest{
		Label: "1L", Price: 800, SKU: "Groundnut Oil-500", Stock: 40,
	})
	s.Require().Error(err)
	s.True(apperrors.IsKind(err, apperrors.KindDuplicateName))
}

func (s *InventoryServiceTestSuite) TestUpdateVariantStockAndPrice() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	variantID := product.Variants[0].ID

	stock := 75
	variant, err := s.svc.UpdateVariant(product.ID, variantID, &UpdateVariantRequest{Stock: &stock})
	s.Require().NoError(err)
	s.Equal(75, variant.Stock)
	// Price untouched by a stock-only update.
	s.Equal(450.0, variant.Price)

	negative := -5
	_, err = s.svc.UpdateVariant(product.ID, variantID, &UpdateVariantRequest{Stock: &negative})
	s.True(apperrors.IsKind(err, apperrors.KindValidation))
}

func (s *InventoryServiceTestSuite) TestBulkUpdateRejectsWholeBatchOnValidation() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	variantID := product.Variants[0].ID

	good := 10
	bad := -1
	_, err := s.svc.BulkUpdateInventory([]BulkUpdateEntry{
		{ProductID: product.ID, VariantID: &variantID, Stock: &good},
		{ProductID: product.ID, VariantID: &variantID, Stock: &bad},
	})
	s.Require().Error(err)
	s.True(apperrors.IsKind(err, apperrors.KindValidation))

	appErr := apperrors.AsError(err)
	s.Require().NotNil(appErr)
	s.Require().Len(appErr.Fields(), 1)
	s.Equal("entries[1].stock", appErr.Fields()[0].Field)

	// The valid entry was not applied either.
	var variant models.Variant
	s.Require().NoError(s.db.First(&variant, "id = ?", variantID).Error)
	s.Equal(120, variant.Stock)
}

func (s *InventoryServiceTestSuite) TestBulkUpdateRollsBackOnMissingVariant() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	variantID := product.Variants[0].ID

	stock := 10
	missing := uuid.New()
	_, err := s.svc.BulkUpdateInventory([]BulkUpdateEntry{
		{ProductID: product.ID, VariantID: &variantID, Stock: &stock},
		{ProductID: missing, Stock: &stock},
	})
	s.Require().Error(err)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))

	var variant models.Variant
	s.Require().NoError(s.db.First(&variant, "id = ?", variantID).Error)
	s.Equal(120, variant.Stock)
}

func (s *InventoryServiceTestSuite) TestBulkUpdateAppliesAll() {
	first := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	second := createTestProduct(s.T(), s.svc, "Coconut Oil")

	stock := 30
	price := 999.0
	updated, err := s.svc.BulkUpdateInventory([]BulkUpdateEntry{
		{ProductID: first.ID, Stock: &stock},
		{ProductID: second.ID, Price: &price},
	})
	s.Require().NoError(err)
	s.Len(updated, 2)

	var firstVariant, secondVariant models.Variant
	s.Require().NoError(s.db.First(&firstVariant, "product_id = ?", first.ID).Error)
	s.Equal(30, firstVariant.Stock)
	s.Require().NoError(s.db.First(&secondVariant, "product_id = ?", second.ID).Error)
	s.Equal(999.0, secondVariant.Price)
}

func (s *InventoryServiceTestSuite) TestListLowStock() {
	product := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	variantID := product.Variants[0].ID

	low := 12
	_, err := s.svc.UpdateVariant(product.ID, variantID, &UpdateVariantRequest{Stock: &low})
	s.Require().NoError(err)

	variants, err := s.svc.ListLowStock()
	s.Require().NoError(err)
	s.Require().Len(variants, 1)
	s.Equal(variantID, variants[0].ID)
}

func (s *InventoryServiceTestSuite) TestListProductsFiltersStatus() {
	active := createTestProduct(s.T(), s.svc, "Groundnut Oil")
	createTestProduct(s.T(), s.svc, "Coconut Oil")
	s.Require().NoError(
		s.db.Model(&models.Product{}).Where("id = ?", active.ID).
			Update("status", models.ProductStatusActive).Error)

	status := models.ProductStatusActive
	products, total, err := s.svc.ListProducts(ListProductsParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20},
		Status:           &status,
	})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(products, 1)
	s.Equal(active.ID, products[0].ID)
}
