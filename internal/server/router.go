package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/handlers"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName    string
	AllowOrigins   []string
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	UserHandler    *handlers.UserHandler
	FileHandler    *handlers.FileHandler
	CompanyHandler *handlers.CompanyHandler
	DataHandler    *handlers.DataHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")

	// Public
	api.POST("/auth/register", cfg.AuthHandler.Register)
	api.POST("/auth/login", cfg.AuthHandler.Login)

	// Protected
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	protected.GET("/auth/me", cfg.UserHandler.GetMe)

	protected.POST("/files/upload", cfg.FileHandler.Upload)

	protected.GET("/companies", cfg.CompanyHandler.List)
	protected.GET("/companies/:id", cfg.CompanyHandler.Get)
	protected.PATCH("/companies/:id", cfg.CompanyHandler.Update)
	protected.PATCH("/companies/:id/key-metrics", cfg.CompanyHandler.UpdateKeyMetrics)
	protected.GET("/companies/:id/json-data", cfg.CompanyHandler.GetJSONData)
	protected.PUT("/companies/:id/json-data", cfg.CompanyHandler.ReplaceJSONData)
	protected.POST("/companies/:id/confirm", cfg.CompanyHandler.Confirm)
	protected.DELETE("/companies/:id", cfg.CompanyHandler.Delete)

	protected.POST("/data", cfg.DataHandler.Create)
	protected.GET("/data", cfg.DataHandler.List)
	protected.GET("/data/:id", cfg.DataHandler.Get)
	protected.PATCH("/data/:id", cfg.DataHandler.Update)
	protected.POST("/data/:id/confirm", cfg.DataHandler.Confirm)
	protected.DELETE("/data/:id", cfg.DataHandler.Delete)

	return router
}

// SplitOrigins parses the comma-separated ALLOW_ORIGINS env value.
func SplitOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}
