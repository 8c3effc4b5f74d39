package main

import (
	"log"
	"net/http"
	"os"
	"quota-api/internal/api"
	"quota-api/internal/api/handlers"
	"quota-api/internal/config"
	"quota-api/internal/database"
	"quota-api/internal/logger"
	"quota-api/internal/repository"
	"quota-api/internal/services"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Get underlying *sql.DB instance for connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get underlying *sql.DB instance:", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	quotaConfig := config.NewQuotaConfig()
	cacheConfig := config.NewCacheConfig()

	// Redis is an optimization, not a dependency; the service runs without it.
	var cacheService services.CacheService
	if redisCache, err := services.NewRedisCacheService(cacheConfig); err != nil {
		logger.Logger.WithField("error", err).Warn("Redis unavailable, running without limit cache")
	} else {
		cacheService = redisCache
	}

	// Initialize repositories
	usageRepo := repository.NewUsageRepository(db)
	limitRepo := repository.NewGlobalLimitRepository(db)
	adminTokenRepo := repository.NewAdminTokenRepository(db)

	// Initialize services
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	authService := services.NewAuthService(jwtSecret)
	limitService := services.NewGlobalLimitService(limitRepo, cacheService, quotaConfig, cacheConfig)
	usageService := services.NewUsageService(usageRepo, limitService)
	adminTokenService := services.NewAdminTokenService(adminTokenRepo)

	// Initialize handlers
	h := api.Handlers{
		Usage:  handlers.NewUsageHandler(usageService, quotaConfig),
		Admin:  handlers.NewAdminHandler(usageService, limitService),
		Health: handlers.NewHealthHandler(db, cacheService),
		Ops:    handlers.NewOpsHandler(adminTokenService, os.Getenv("OPS_BOOTSTRAP_SECRET")),
	}

	router := api.SetupRoutes(h, authService, adminTokenService)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Ops-Secret",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	// Create server with timeouts
	srv := &http.Server{
		Handler:      corsMiddleware.Handler(router),
		Addr:         ":" + getEnv("PORT", "5050"),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	// Start server
	log.Printf("Server starting on port %s...", getEnv("PORT", "5050"))
	log.Fatal(srv.ListenAndServe())
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
