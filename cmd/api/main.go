package main

import (
	"log"
	"os"

	_ "fleet/api/swagger" // swagger docs
	"fleet/internal/database"
	"fleet/internal/handler"
	"fleet/internal/middleware"
	"fleet/internal/model"
	"fleet/internal/repository"
	"fleet/internal/service"
	"fleet/internal/storage"
	"fleet/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Fleet Management API
// @version         1.0
// @description     Role-based fleet and driver document management backend.
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

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	store, err := storage.NewLocalStore(uploadDir)
	if err != nil {
		log.Fatalf("Upload storage init failed: %v", err)
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txMgr := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	docRepo := repository.NewDriverDocumentRepository(db)
	permRepo := repository.NewPermissionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	middleware.Init(userRepo)

	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo, auditRepo)
	permissionService := service.NewPermissionService(permRepo, userRepo, txMgr)
	vehicleService := service.NewVehicleService(vehicleRepo, userRepo, docRepo, auditRepo, txMgr, store, wsHub)
	documentService := service.NewDocumentService(docRepo, userRepo, auditRepo, txMgr, store, wsHub)
	dashboardService := service.NewDashboardService(userRepo, vehicleRepo, docRepo, permRepo)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	permissionHandler := handler.NewPermissionHandler(permissionService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService, store)
	documentHandler := handler.NewDocumentHandler(documentService, store)
	adminHandler := handler.NewAdminHandler(vehicleService, dashboardService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
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

	// Stored document blobs
	router.Static("/uploads", uploadDir)

	// WebSocket endpoint for vendor dashboards
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret(),
			model.RoleSuperVendor, model.RoleRegionalVendor)
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	permissionHandler.RegisterRoutes(router.Group(""))
	vehicleHandler.RegisterRoutes(router.Group(""))
	documentHandler.RegisterRoutes(router.Group(""))
	adminHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))
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
