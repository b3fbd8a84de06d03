package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	recordHandler "observatory-backend/internal/domains/record/handler"
	"observatory-backend/internal/shared/middleware"
	"observatory-backend/internal/shared/response"
	"observatory-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Method không hỗ trợ trên route đã biết => 400 "Not supported"
	router.HandleMethodNotAllowed = true

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(c.Metrics),
	)

	router.NoMethod(recordHandler.NotSupported)
	router.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "Not found")
	})

	router.GET("/health", healthCheckHandler(c))
	router.GET("/metrics", gin.WrapH(c.Metrics.Handler()))

	setupUserRoutes(router, c)
	setupRecordRoutes(router, c)

	return router
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(router *gin.Engine, c *container.Container) {
	router.POST("/registration", middleware.RequireJSON(), c.UserHandler.Register)
	router.POST("/token", authenticate(c), c.UserHandler.IssueToken)
}

// ========================================
// RECORD ROUTES
// ========================================
func setupRecordRoutes(router *gin.Engine, c *container.Container) {
	readAuth := authenticate(c)
	if c.Config.Auth.PublicReads {
		readAuth = middleware.OptionalAuthenticate(c.UserService, c.JWTManager, c.Config.Auth.Realm)
	}

	records := router.Group("/datarecord")
	{
		records.GET("", readAuth, c.RecordHandler.GetRecords)
		records.POST("", authenticate(c), c.RecordHandler.CreateRecord)
		records.PUT("", authenticate(c), c.RecordHandler.UpdateRecord)
	}
}

func authenticate(c *container.Container) gin.HandlerFunc {
	return middleware.Authenticate(c.UserService, c.JWTManager, c.Config.Auth.Realm)
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		storeErr, cacheErr := c.HealthCheck(checkCtx)

		if storeErr != nil {
			response.ErrorResponse(ctx, http.StatusServiceUnavailable, "HEALTH_001", "Database unavailable")
			return
		}

		status := gin.H{
			"status":  "ok",
			"version": c.Config.App.Version,
			"driver":  c.Config.Database.Driver,
			"cache":   "ok",
		}
		// Cache chỉ là optimization: lỗi được báo cáo nhưng vẫn 200
		if cacheErr != nil {
			status["cache"] = cacheErr.Error()
		}
		response.Success(ctx, http.StatusOK, status)
	}
}
