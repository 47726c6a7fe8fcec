package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/db"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/handlers"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/logger"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/middleware"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/observability"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/repos"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/server"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/services"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/utils"
)

const serviceName = "mosprom-backend"

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	uploadDir := utils.GetEnv("UPLOAD_DIR", "uploads", log)
	maxFileSize := utils.GetEnvAsInt64("MAX_FILE_SIZE_BYTES", 5*1024*1024, log)
	allowOrigins := server.SplitOrigins(utils.GetEnv("ALLOW_ORIGINS", "", log))

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	companyRepo := repos.NewCompanyRepo(thePG, log)
	consolidatedRepo := repos.NewConsolidatedRepo(thePG, log)

	// Services
	log.Info("Setting up services...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	companyService := services.NewCompanyService(thePG, log, companyRepo)
	consolidatedService := services.NewConsolidatedService(thePG, log, consolidatedRepo)
	ingestService := services.NewIngestService(thePG, log, companyRepo, uploadDir, maxFileSize)

	// Handlers
	log.Info("Setting up handlers...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	companyHandler := handlers.NewCompanyHandler(log, companyService)
	dataHandler := handlers.NewDataHandler(log, consolidatedService)
	fileHandler := handlers.NewFileHandler(log, ingestService, maxFileSize)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ServiceName:    serviceName,
		AllowOrigins:   allowOrigins,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		UserHandler:    userHandler,
		FileHandler:    fileHandler,
		CompanyHandler: companyHandler,
		DataHandler:    dataHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server stopped", "error", err)
	}
}
