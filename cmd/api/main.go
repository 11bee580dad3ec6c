package main

import (
	"log"
	"os"

	_ "github.com/sophiaramosdev/Open-Tecopos-sub003/api/swagger" // swagger docs

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/database"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/handler"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/middleware"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/repository"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/service"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Inventory Ledger API
// @version         1.0
// @description     Back-office inventory core: variations, composition costs, stock movements and inventory reconciliation.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockRepository(db)
	variationRepo := repository.NewVariationRepository(db)
	compositionRepo := repository.NewCompositionRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	bookRepo := repository.NewBookRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	referenceService := service.NewReferenceService(referenceRepo)
	userService := service.NewUserService(userRepo)
	auditService := service.NewAuditService(auditRepo)
	productService := service.NewProductService(productRepo, stockRepo, auditRepo, txManager)
	variationService := service.NewVariationService(productRepo, variationRepo, stockRepo, auditRepo, txManager)
	costService := service.NewCostService(productRepo, compositionRepo, stockRepo, variationRepo, auditRepo, referenceService, txManager)
	stockService := service.NewStockService(productRepo, stockRepo, movementRepo, compositionRepo, referenceRepo, referenceService, auditRepo, txManager, wsHub)
	bookService := service.NewInventoryBookService(bookRepo, stockRepo, movementRepo, productRepo, variationRepo, referenceRepo, auditRepo, txManager, wsHub)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	productHandler := handler.NewProductHandler(productService)
	variationHandler := handler.NewVariationHandler(variationService)
	costHandler := handler.NewCostHandler(costService)
	stockHandler := handler.NewStockHandler(stockService, bookService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	variationHandler.RegisterRoutes(router.Group(""))
	costHandler.RegisterRoutes(router.Group(""))
	stockHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
