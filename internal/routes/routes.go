package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/lavanda/internal/cache"
	"github.com/example/lavanda/internal/config"
	"github.com/example/lavanda/internal/handlers"
	"github.com/example/lavanda/internal/middleware"
	"github.com/example/lavanda/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	bonusService := services.NewBonusService(db, cfg.BonusExpiryMonths)
	promoService := services.NewPromoService(db)
	callClient := services.NewCallVerifyClient(cfg.CallProviderBaseURL, cfg.CallProviderAPIKey, cfg.CallProviderEnabled)
	attemptLimiter := services.NewAttemptLimiter(rdb, cfg.CallAttemptLimit, cfg.CallAttemptCooldown)
	catalogCache := cache.NewCatalogCache(db)

	authHandler := handlers.NewAuthHandler(db, cfg, callClient, attemptLimiter)
	catalogHandler := handlers.NewCatalogHandler(db, catalogCache)
	productHandler := handlers.NewProductHandler(db, catalogCache)
	orderHandler := handlers.NewOrderHandler(db, bonusService, promoService, telegramService)
	profileHandler := handlers.NewProfileHandler(db)
	bonusHandler := handlers.NewBonusHandler(db, bonusService)
	promoHandler := handlers.NewPromoHandler(db, promoService)
	marketingHandler := handlers.NewMarketingHandler(db)
	adminHandler := handlers.NewAdminHandler(db, cfg, bonusService)

	api := app.Group("/api")

	customer := middleware.AuthMiddleware(cfg)
	admin := middleware.AdminMiddleware(cfg)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/call/request", authHandler.RequestCall)
	auth.Post("/call/status", authHandler.CallStatus)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/me", customer, authHandler.Me)

	// Catalog routes: reads are public, writes are staff-only
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Post("/", admin, catalogHandler.CreateCategory)
	categories.Put("/:id", admin, catalogHandler.UpdateCategory)
	categories.Delete("/:id", admin, catalogHandler.DeleteCategory)

	flowerTypes := api.Group("/flower-types")
	flowerTypes.Get("/", catalogHandler.ListFlowerTypes)
	flowerTypes.Get("/:id", catalogHandler.GetFlowerType)
	flowerTypes.Post("/", admin, catalogHandler.CreateFlowerType)
	flowerTypes.Put("/:id", admin, catalogHandler.UpdateFlowerType)
	flowerTypes.Delete("/:id", admin, catalogHandler.DeleteFlowerType)

	occasions := api.Group("/occasions")
	occasions.Get("/", catalogHandler.ListOccasions)
	occasions.Get("/:id", catalogHandler.GetOccasion)
	occasions.Post("/", admin, catalogHandler.CreateOccasion)
	occasions.Put("/:id", admin, catalogHandler.UpdateOccasion)
	occasions.Delete("/:id", admin, catalogHandler.DeleteOccasion)

	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/:id", productHandler.GetProduct)
	products.Post("/", admin, productHandler.CreateProduct)
	products.Put("/:id", admin, productHandler.UpdateProduct)
	products.Delete("/:id", admin, productHandler.DeleteProduct)

	// Promo codes
	api.Post("/promo/validate", promoHandler.Validate)
	promo := api.Group("/promo-codes", admin)
	promo.Get("/", promoHandler.ListPromoCodes)
	promo.Post("/", promoHandler.CreatePromoCode)
	promo.Put("/:id", promoHandler.UpdatePromoCode)
	promo.Delete("/:id", promoHandler.DeletePromoCode)

	// Marketing resources
	api.Get("/banner", marketingHandler.ListBanners)
	api.Post("/banner", admin, marketingHandler.CreateBanner)
	api.Put("/banner/:id", admin, marketingHandler.UpdateBanner)
	api.Delete("/banner/:id", admin, marketingHandler.DeleteBanner)

	pickup := api.Group("/pickup-branches")
	pickup.Get("/", marketingHandler.ListPickupBranches)
	pickup.Post("/", admin, marketingHandler.CreatePickupBranch)
	pickup.Put("/:id", admin, marketingHandler.UpdatePickupBranch)
	pickup.Delete("/:id", admin, marketingHandler.DeletePickupBranch)

	api.Get("/site-settings", marketingHandler.GetSiteSettings)
	api.Put("/site-settings", admin, marketingHandler.UpdateSiteSettings)

	// Customer routes. Each group carries its own prefix: an empty-prefix
	// group would hang the session middleware on every /api route
	// registered after it.
	orders := api.Group("/orders", customer)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)

	profile := api.Group("/profile", customer)
	profile.Get("/", profileHandler.GetProfile)
	profile.Put("/", profileHandler.UpdateProfile)
	profile.Get("/addresses", profileHandler.ListAddresses)
	profile.Post("/addresses", profileHandler.CreateAddress)
	profile.Put("/addresses/:id", profileHandler.UpdateAddress)
	profile.Delete("/addresses/:id", profileHandler.DeleteAddress)

	bonusAccount := api.Group("/bonus", customer)
	bonusAccount.Get("/", bonusHandler.GetAccount)
	bonusAccount.Get("/history", bonusHandler.ListHistory)

	// Admin console
	api.Post("/admin/login", adminHandler.Login)

	adminGroup := api.Group("/admin", admin)
	adminGroup.Get("/dashboard", adminHandler.DashboardStats)
	adminGroup.Get("/orders", adminHandler.ListAllOrders)
	adminGroup.Get("/orders/export", adminHandler.ExportOrders)
	adminGroup.Put("/orders/:id/status", adminHandler.UpdateOrderStatus)
	adminGroup.Get("/customers", adminHandler.ListAllCustomers)
	adminGroup.Put("/customers/:id/bonus-level", adminHandler.SetCustomerBonusLevel)
	adminGroup.Post("/customers/:id/bonus-adjustment", adminHandler.AdjustCustomerBonus)
	adminGroup.Get("/customers/:id/bonus-history", adminHandler.ListCustomerBonusHistory)
}
