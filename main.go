package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/atendezap/atende-backend/database"
	"github.com/atendezap/atende-backend/internal/cache"
	"github.com/atendezap/atende-backend/internal/handlers"
	"github.com/atendezap/atende-backend/internal/jobs"
	"github.com/atendezap/atende-backend/internal/models"
	"github.com/atendezap/atende-backend/internal/routes"
	"github.com/atendezap/atende-backend/internal/services"
	"github.com/atendezap/atende-backend/internal/storage"
)

const version = "1.0.0"

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		err := godotenv.Load(".env")
		if err != nil {
			err = godotenv.Load("environments/.env.development")
			if err != nil {
				log.Println("⚠️  No .env file found - checking environment variables")
			}
		}
	}

	if os.Getenv("TWILIO_ACCOUNT_SID") == "" || os.Getenv("TWILIO_AUTH_TOKEN") == "" {
		log.Println("⚠️  Twilio credentials not found - WhatsApp features will be limited")
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.ChatSession{},
			&models.SectorCursor{},
			&models.Attendant{},
			&models.Contact{},
			&models.ChatConfig{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}

	// Write-through cache in front of the store: session lookups during
	// webhook bursts are answered from memory.
	cachedStore := cache.NewCachedStore(store)
	storage.SetStore(cachedStore)

	// Initialize Twilio sender
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Fatal("Failed to initialize Twilio service:", err)
	}
	log.Println("✅ Twilio service initialized")

	// Initialize services. Handlers share one ChatService: the per-phone
	// serialization lives inside it.
	chatService := services.NewChatService(cachedStore, twilioService)
	attendantService := services.NewAttendantService(cachedStore)
	contactService := services.NewContactService(cachedStore)
	configService := services.NewConfigService(cachedStore)

	// Optional background sweep for chats whose clients never come back
	var inactivityJob *jobs.InactivityJob
	if os.Getenv("ENABLE_INACTIVITY_SWEEP") == "true" {
		inactivityJob = jobs.NewInactivityJob(chatService)
		inactivityJob.Start()
	}

	log.Println("✅ All services initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "AtendeZap Backend v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Setup routes
	routes.SetupRoutes(app, &routes.Handlers{
		Webhook:   handlers.NewWebhookHandler(chatService),
		Chat:      handlers.NewChatHandler(chatService),
		Message:   handlers.NewMessageHandler(chatService),
		Attendant: handlers.NewAttendantHandler(attendantService),
		Contact:   handlers.NewContactHandler(contactService),
		Config:    handlers.NewConfigHandler(configService),
		Health:    handlers.NewHealthHandler(version),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		if inactivityJob != nil {
			log.Println("⏹️  Stopping inactivity sweep...")
			inactivityJob.Stop()
		}
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 AtendeZap Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("🌍 Environment: %s", getEnvironment())
	log.Printf("📱 WhatsApp: %s", getWhatsAppStatus(os.Getenv("TWILIO_ACCOUNT_SID")))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getEnvironment() string {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return "Production (Cloud Run)"
	}
	return "Development (Local)"
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func getWhatsAppStatus(twilioSID string) string {
	if twilioSID == "" {
		return "Not configured"
	}
	return "Configured"
}
