package routes

import (
	"emitrack/internal/adapters/http/handlers"
	"emitrack/internal/adapters/http/middleware"
	"emitrack/internal/adapters/persistence/repositories"
	"emitrack/internal/config"
	"emitrack/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	emiRepo := repositories.NewEMIRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	deviceRepo := repositories.NewDeviceRepository(db)
	keyRepo := repositories.NewBalanceKeyRepository(db)
	fcmRepo := repositories.NewFCMTokenRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	customerService := services.NewCustomerService(customerRepo, fcmRepo)
	ledgerService := services.NewLedgerService(db, customerRepo, emiRepo, paymentRepo)
	keyService := services.NewBalanceKeyService(db, keyRepo)
	pushService := services.NewPushService(cfg)
	deviceService := services.NewDeviceService(db, deviceRepo, fcmRepo, keyService, pushService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	customerHandler := handlers.NewCustomerHandler(customerService)
	emiHandler := handlers.NewEMIHandler(ledgerService)
	deviceHandler := handlers.NewDeviceHandler(deviceService)
	keyHandler := handlers.NewBalanceKeyHandler(keyService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/ping", healthHandler.Ping)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (public + protected)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Customer routes (Admin only)
	customerRoutes := apiV1.Group("/customers")
	customerRoutes.Use(middleware.AuthMiddleware(cfg))
	customerRoutes.Use(middleware.AdminOnly())
	setupCustomerRoutes(customerRoutes, customerHandler, emiHandler)

	// EMI & payment routes (admin bearer OR device X-IMEI)
	setupLedgerRoutes(apiV1, emiHandler, db, cfg)

	// Device routes
	setupDeviceRoutes(apiV1.Group("/devices"), deviceHandler, db, cfg)

	// Balance key routes (Admin only)
	keyRoutes := apiV1.Group("/balance-keys")
	keyRoutes.Use(middleware.AuthMiddleware(cfg))
	keyRoutes.Use(middleware.AdminOnly())
	keyRoutes.Post("/", middleware.StrictRateLimiter(), keyHandler.Issue)
	keyRoutes.Get("/", keyHandler.List)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes, rate limited against brute force
	router.Post("/signup", middleware.AuthRateLimiter(), handler.Signup)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Put("/profile", middleware.AuthMiddleware(cfg), handler.UpdateProfile)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupCustomerRoutes configures customer management routes
func setupCustomerRoutes(router fiber.Router, handler *handlers.CustomerHandler, emiHandler *handlers.EMIHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Post("/fcm-token", handler.RegisterFCMToken)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)
	router.Post("/:id/advance-payment", emiHandler.AdvancePayment)
}

// setupLedgerRoutes configures EMI and payment routes. Listing is
// scoped: admins see everything they own, devices see only their
// bound customer.
func setupLedgerRoutes(router fiber.Router, handler *handlers.EMIHandler, db *gorm.DB, cfg *config.Config) {
	emiRoutes := router.Group("/emis")
	emiRoutes.Get("/", middleware.ScopedAuth(db, cfg), handler.List)
	emiRoutes.Get("/pending", middleware.ScopedAuth(db, cfg), handler.ListPending)
	emiRoutes.Post("/", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Create)
	emiRoutes.Get("/:id", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Get)

	router.Get("/payments", middleware.ScopedAuth(db, cfg), handler.ListPayments)
}

// setupDeviceRoutes configures device binding and control routes
func setupDeviceRoutes(router fiber.Router, handler *handlers.DeviceHandler, db *gorm.DB, cfg *config.Config) {
	// Registration is public: the device authenticates with its
	// single-use balance key (3 req/min/IP against key guessing)
	router.Post("/register", middleware.StrictRateLimiter(), handler.Register)

	// Device self view via X-IMEI credential
	router.Get("/me", middleware.ScopedAuth(db, cfg), handler.Me)

	// Admin device control
	router.Get("/", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.List)
	router.Post("/lock", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Lock)
	router.Post("/unlock", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Unlock)
}
