// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ShriviCTO/shrivi/internal/config"
	"github.com/ShriviCTO/shrivi/internal/handlers"
	"github.com/ShriviCTO/shrivi/internal/middleware"
	"github.com/ShriviCTO/shrivi/internal/models"
	"github.com/ShriviCTO/shrivi/internal/services"
	"github.com/ShriviCTO/shrivi/internal/utils"
)

// Setup wires services, handlers and middleware into the gin engine.
func Setup(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	authService := services.NewAuthService(db, notificationService, cfg)
	userService := services.NewUserService(db)
	inventoryService := services.NewInventoryService(db, storageService, notificationService, cfg)
	reviewService := services.NewReviewService(db)
	comboService := services.NewComboService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	comboHandler := handlers.NewComboHandler(comboService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS([]string{cfg.Frontend.BaseURL}))
	r.Use(middleware.RequestLogger())
	r.Use(middleware.AuditLogMiddleware(db))
	r.Use(middleware.GeneralRateLimit())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.APIResponse{Status: "success", Message: "ok"})
	})

	manageInventory := middleware.RoleRequired(models.RoleFounder, models.RoleInventoryManager)

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", middleware.AuthRateLimit(), authHandler.Register)
			auth.POST("/login", middleware.AuthRateLimit(), authHandler.Login)
			auth.POST("/refresh", middleware.AuthRateLimit(), authHandler.RefreshToken)
			auth.GET("/verify-email/:token", authHandler.VerifyEmail)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		users := v1.Group("/users", middleware.AuthRequired(), middleware.RoleRequired(models.RoleFounder))
		{
			users.GET("", userHandler.ListUsers)
			users.PUT("/:id/role", userHandler.UpdateRole)
			users.DELETE("/:id", userHandler.DeactivateUser)
		}

		inventory := v1.Group("/inventory")
		{
			inventory.GET("/products", inventoryHandler.ListProducts)
			inventory.GET("/products/:id", inventoryHandler.GetProduct)

			managed := inventory.Group("", middleware.AuthRequired(), manageInventory)
			{
				managed.POST("/products", inventoryHandler.CreateProduct)
				managed.PUT("/products/:id", inventoryHandler.UpdateProduct)
				managed.DELETE("/products/:id", inventoryHandler.DeleteProduct)
				managed.POST("/products/:id/images", middleware.UploadRateLimit(), inventoryHandler.AddImages)
				managed.POST("/products/:id/discount", inventoryHandler.SetProductDiscount)
				managed.POST("/products/:id/variants", inventoryHandler.CreateVariant)
				managed.PUT("/products/:id/variants/:variantId", inventoryHandler.UpdateVariant)
				managed.POST("/products/:id/variants/:variantId/discount", inventoryHandler.SetVariantDiscount)
				managed.PUT("/bulk-update", inventoryHandler.BulkUpdate)
				managed.GET("/low-stock", inventoryHandler.ListLowStock)
			}
		}

		products := v1.Group("/products")
		{
			products.GET("/:id/reviews", reviewHandler.ListProductReviews)
			products.POST("/:id/reviews", middleware.AuthRequired(), reviewHandler.SubmitReview)
		}

		reviews := v1.Group("/reviews", middleware.AuthRequired())
		{
			reviews.PUT("/:id", reviewHandler.UpdateReview)
			reviews.DELETE("/:id", reviewHandler.DeleteReview)
		}

		combos := v1.Group("/combos")
		{
			combos.GET("", comboHandler.ListCombos)
			combos.GET("/:id", comboHandler.GetCombo)

			managed := combos.Group("", middleware.AuthRequired(), manageInventory)
			{
				managed.POST("", comboHandler.CreateCombo)
				managed.PUT("/:id", comboHandler.UpdateCombo)
				managed.DELETE("/:id", comboHandler.DeleteCombo)
				managed.POST("/:id/discount", comboHandler.SetComboDiscount)
			}
		}
	}

	return r, nil
}
