package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"librental/internal/adapters/http/middleware"
	"librental/internal/adapters/http/routes"
	"librental/internal/adapters/persistence/models"
	"librental/internal/config"

	"github.com/gofiber/fiber/v2"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// 2. Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer func() {
		if err := config.CloseDatabase(); err != nil {
			log.Printf("⚠️ Failed to close database: %v", err)
		}
	}()

	// 3. Run migrations
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}
	log.Println("✅ Database migrations completed")

	// 4. Seed initial data
	if err := config.NewSeeder(db).Run(); err != nil {
		log.Fatalf("❌ Failed to seed database: %v", err)
	}

	// 5. Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "LibRental API",
		ErrorHandler: middleware.CustomErrorHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// 6. Setup middlewares
	middleware.Setup(app, cfg)

	// 7. Setup routes (wires repositories, services, handlers)
	cronService := routes.Setup(app, db, cfg)

	// 8. Start scheduled jobs
	cronService.Start()

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		cronService.Stop()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Server shutdown error: %v", err)
		}
	}()

	// 10. Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
