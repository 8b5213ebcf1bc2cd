package routes

import (
	"librental/internal/adapters/http/handlers"
	"librental/internal/adapters/http/middleware"
	"librental/internal/adapters/persistence/repositories"
	"librental/internal/config"
	"librental/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers, and registers all routes
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.CronService {
	// Repositories
	tx := repositories.NewTransactor(db)
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	authorRepo := repositories.NewAuthorRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	borrowingRepo := repositories.NewBorrowingRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)

	// Services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	bookService := services.NewBookService(bookRepo, authorRepo)
	paymentProvider := services.NewStripeProvider(cfg)
	paymentService := services.NewPaymentService(paymentRepo, paymentProvider, cfg)
	borrowingService := services.NewBorrowingService(borrowingRepo, bookRepo, paymentService, tx)
	cronService := services.NewCronService(refreshTokenRepo)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	bookHandler := handlers.NewBookHandler(bookService)
	borrowingHandler := handlers.NewBorrowingHandler(borrowingService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// Middleware
	authRequired := middleware.AuthMiddleware(cfg)
	staffOnly := middleware.StaffOnly()

	// Root and health check
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":    "LibRental API",
			"version": "v1",
			"health":  "/health",
		})
	})
	app.Get("/health", healthHandler.Check)

	apiV1 := app.Group("/api/v1")

	// Auth routes
	authLimiter := middleware.AuthRateLimiter()
	auth := apiV1.Group("/auth")
	auth.Post("/register", authLimiter, authHandler.Register)
	auth.Post("/login", authLimiter, authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/logout-all", authRequired, authHandler.LogoutAll)
	auth.Get("/me", authRequired, authHandler.Me)

	// Catalog routes: reads are public, writes are staff only
	books := apiV1.Group("/books")
	books.Get("/", bookHandler.ListBooks)
	books.Get("/:id", bookHandler.GetBook)
	books.Post("/", authRequired, staffOnly, bookHandler.CreateBook)
	books.Put("/:id", authRequired, staffOnly, bookHandler.UpdateBook)
	books.Delete("/:id", authRequired, staffOnly, bookHandler.DeleteBook)

	authors := apiV1.Group("/authors")
	authors.Get("/", bookHandler.ListAuthors)
	authors.Get("/:id", bookHandler.GetAuthor)
	authors.Post("/", authRequired, staffOnly, bookHandler.CreateAuthor)
	authors.Put("/:id", authRequired, staffOnly, bookHandler.UpdateAuthor)
	authors.Delete("/:id", authRequired, staffOnly, bookHandler.DeleteAuthor)

	// Borrowing routes
	borrowings := apiV1.Group("/borrowings", authRequired)
	borrowings.Post("/", borrowingHandler.Create)
	borrowings.Get("/", borrowingHandler.List)
	borrowings.Get("/:id", borrowingHandler.GetByID)
	borrowings.Post("/:id/return", borrowingHandler.Return)

	// Payment routes. Success and cancel are redirect targets hit by the
	// customer's browser coming back from Stripe, so they carry no auth;
	// they must also be registered before the :id routes.
	payments := apiV1.Group("/payments")
	payments.Get("/success", paymentHandler.Success)
	payments.Get("/cancel", paymentHandler.Cancel)
	payments.Get("/", authRequired, paymentHandler.List)
	payments.Get("/:id", authRequired, paymentHandler.GetByID)
	payments.Post("/:id/renew", authRequired, middleware.StrictRateLimiter(), paymentHandler.Renew)

	return cronService
}
