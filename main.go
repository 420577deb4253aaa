package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"gudang/internal/handlers"
	"gudang/internal/importer"
	"gudang/internal/models"
	"gudang/internal/repositories"
	"gudang/internal/services"
	"gudang/pkg/events"
)

func main() {
	// --- Configuration ---
	// All settings come from the environment; the store driver is resolved
	// exactly once here, never dynamically later.
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("STORE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "gudang.db")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("OCR_API_URL", "")
	viper.SetDefault("OCR_API_KEY", "")
	viper.SetDefault("AI_API_URL", "")
	viper.SetDefault("AI_API_KEY", "")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	driver := viper.GetString("STORE_DRIVER")

	// --- Select the backend store ---
	store, err := openStore(driver, viper.GetString("DATABASE_DSN"))
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", driver, err)
	}
	log.Printf("Using %s store", driver)

	// --- Optional stock event publisher ---
	var publisher *events.Publisher
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		publisher, err = events.NewPublisher(events.Config{URL: url})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ publisher: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RABBITMQ_URL not set, stock events disabled")
	}

	// --- Initialize Services ---
	cache := services.NewProductCache(store)
	productService := services.NewProductService(store, cache)
	inventoryService := services.NewInventoryService(cache)
	stockService := services.NewStockService(store, cache, publisher)
	importService := services.NewImportService(store, cache)

	invoiceParser := importer.NewInvoiceParser(importer.InvoiceParserConfig{
		OCRURL: viper.GetString("OCR_API_URL"),
		OCRKey: viper.GetString("OCR_API_KEY"),
		AIURL:  viper.GetString("AI_API_URL"),
		AIKey:  viper.GetString("AI_API_KEY"),
	})

	// --- Initialize Handlers ---
	productHandler := handlers.NewProductHandler(productService, inventoryService)
	stockHandler := handlers.NewStockHandler(stockService, productService)
	importHandler := handlers.NewImportHandler(importService, inventoryService, invoiceParser)

	// --- Initialize Fiber App ---
	app := fiber.New()
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")
	productHandler.RegisterRoutes(apiV1)
	stockHandler.RegisterRoutes(apiV1)
	importHandler.RegisterRoutes(apiV1)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"store":  driver,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Seed demo data when running without a database.
	if driver == "memory" {
		seedProducts(store)
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openStore builds the configured Store implementation. sqlite and
// postgres share the GORM store; memory is the in-process map store.
func openStore(driver, dsn string) (repositories.Store, error) {
	switch driver {
	case "memory":
		return repositories.NewMemoryStore(), nil
	case "postgres":
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&models.Product{}, &models.StockMovement{}); err != nil {
			return nil, err
		}
		return repositories.NewGormStore(db), nil
	default: // sqlite
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&models.Product{}, &models.StockMovement{}); err != nil {
			return nil, err
		}
		return repositories.NewGormStore(db), nil
	}
}

// seedProducts populates the memory store with a small demo inventory.
func seedProducts(store repositories.Store) {
	products := []models.Product{
		{Name: "Leche entera 1L", Barcode: "7790000000011", Category: "Lácteos", BasePrice: 1.20, MinStock: 5},
		{Name: "Pan lactal", Barcode: "7790000000028", Category: "Panadería", BasePrice: 2.10, MinStock: 3},
		{Name: "Café molido 500g", Barcode: "7790000000035", Category: "Almacén", BasePrice: 6.50},
	}
	for i := range products {
		if err := store.CreateProduct(&products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
			continue
		}
		if _, err := store.AddStockMovement(products[i].ID, 10, models.MovementIn, "seed"); err != nil {
			log.Printf("Error seeding stock for %s: %v", products[i].Name, err)
		}
		log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
	}
}
