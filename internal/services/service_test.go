// internal/services/service_test.go
package services

import (
	"bytes"
	"fmt"
	"image/color"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ShriviCTO/shrivi/internal/config"
	"github.com/ShriviCTO/shrivi/internal/models"
)

// setupTestDB opens a fresh in-memory SQLite database with the full schema.
// SQLite honors the partial unique index on live product names, so the
// uniqueness tests exercise the same constraint production relies on.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// SQLite serializes writers; a single pooled connection keeps concurrent
	// transactions queued instead of failing with a busy error.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductImage{},
		&models.Variant{},
		&models.DiscountHistoryEntry{},
		&models.Review{},
		&models.Combo{},
		&models.ComboItem{},
		&models.AuditLog{},
	))
	require.NoError(t, db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_name_live ON products(name) WHERE deleted_at IS NULL",
	).Error)
	require.NoError(t, db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_variants_sku_live ON variants(sku) WHERE deleted_at IS NULL AND sku IS NOT NULL",
	).Error)

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Upload: config.UploadConfig{
			MaxFileSizeMB:  15,
			MinImages:      3,
			MaxImages:      10,
			ThumbnailWidth: 200,
			MinAspectRatio: 0.5,
		},
		Auth: config.AuthConfig{
			MaxLoginAttempts: 5,
			LockoutMinutes:   15,
		},
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
	}
}

func newTestStorage(t *testing.T) *StorageService {
	t.Helper()
	storage, err := NewStorageService(newTestConfig())
	require.NoError(t, err)
	return storage
}

type testImageSpec struct {
	name   string
	width  int
	height int
}

// buildImageUpload renders real images into a multipart form and parses it
// back, producing the file headers a handler would hand to the service.
func buildImageUpload(t *testing.T, specs []testImageSpec) []*multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, spec := range specs {
		part, err := writer.CreateFormFile("images", spec.name)
		require.NoError(t, err)
		img := imaging.New(spec.width, spec.height, color.NRGBA{R: 210, G: 160, B: 60, A: 255})
		format := imaging.JPEG
		if len(spec.name) > 4 && spec.name[len(spec.name)-4:] == ".png" {
			format = imaging.PNG
		}
		require.NoError(t, imaging.Encode(part, img, format))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(64<<20))
	return req.MultipartForm.File["images"]
}

func squareUploads(t *testing.T, count int) []*multipart.FileHeader {
	t.Helper()
	specs := make([]testImageSpec, count)
	for i := range specs {
		specs[i] = testImageSpec{name: fmt.Sprintf("photo_%d.jpg", i), width: 640, height: 640}
	}
	return buildImageUpload(t, specs)
}

func validProductRequest(name string) *CreateProductRequest {
	return &CreateProductRequest{
		Name:               name,
		Tagline:            "Cold-pressed goodness",
		Description:        "A wholesome pantry staple made in small batches.",
		Category:           "oils",
		Tags:               []string{"organic", "cold-pressed"},
		Features:           []FeatureInput{{Icon: "leaf", Label: "100% natural"}},
		NutritionalContent: "Energy 884kcal per 100g",
		UsageInstructions:  "Use for cooking or dressing.",
		Variants: []CreateVariantRequest{
			{Label: "500ml", Price: 450, SKU: name + "-500", Stock: 120},
		},
	}
}

func createTestProduct(t *testing.T, svc *InventoryService, name string) *models.Product {
	t.Helper()
	product, err := svc.CreateProduct(validProductRequest(name))
	require.NoError(t, err)
	return product
}

func createTestUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Name:   "Test User",
		Email:  email,
		Role:   role,
		Status: models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("sup3r-secret"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// The schema must migrate on plain SQLite; primary keys come from the
// BeforeCreate hooks, not from a database default.
func TestMigrationAssignsGeneratedIDs(t *testing.T) {
	db := setupTestDB(t)

	product := &models.Product{
		Name:               "Sesame Oil",
		Tagline:            "Stone-ground",
		Description:        "Slow pressed sesame oil.",
		NutritionalContent: "Energy 884kcal per 100g",
		UsageInstructions:  "Use for cooking.",
		Status:             models.ProductStatusInactive,
	}
	require.NoError(t, db.Create(product).Error)
	require.NotEqual(t, uuid.Nil, product.ID)

	userID := uuid.New()
	entry := &models.AuditLog{
		UserID:       &userID,
		Action:       "POST /v1/inventory/products",
		ResourceType: "products",
	}
	require.NoError(t, db.Create(entry).Error)
	require.NotEqual(t, uuid.Nil, entry.ID)
}
