package core

import (
	"context"
	"net/http"
	"time"

	"github.com/anoixa/memlane/api/common"
	"github.com/anoixa/memlane/api/handler"
	"github.com/anoixa/memlane/api/handler/files"
	"github.com/anoixa/memlane/api/handler/memories"
	"github.com/anoixa/memlane/api/handler/timelines"
	"github.com/anoixa/memlane/api/handler/uploads"
	"github.com/anoixa/memlane/api/middleware"
	"github.com/anoixa/memlane/config"
	"github.com/anoixa/memlane/database"
	"github.com/anoixa/memlane/internal/blob"
	"github.com/anoixa/memlane/storage"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// RouterDependencies what the routes are built from
type RouterDependencies struct {
	Config         *config.Config
	Repositories   handler.RepositoryFactory
	Database       database.Provider
	Storage        storage.Provider
	Gateway        *blob.Gateway
	APIRateLimiter *middleware.RateLimiter
}

// RegisterRoutes registers every route on router
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	registerBasicRoutes(router, deps)
	registerPublicRoutes(router, deps)
	registerAPIRoutes(router, deps)
}

func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		checks := gin.H{
			"database": checkDatabaseHealth(ctx, deps.Database),
			"storage":  checkStorageHealth(ctx, deps.Storage),
		}
		httpStatus := http.StatusOK
		for _, result := range checks {
			if result != "ok" {
				httpStatus = http.StatusServiceUnavailable
				break
			}
		}
		c.JSON(httpStatus, gin.H{
			"status":  http.StatusText(httpStatus),
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": config.Version,
			"checks":  checks,
		})
	})

	router.GET("/version", func(c *gin.Context) {
		common.RespondSuccess(c, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})
}

// registerPublicRoutes serves stored images under the default public base URL
func registerPublicRoutes(router *gin.Engine, deps *RouterDependencies) {
	if deps.Config.StoragePublicBaseURL != "" {
		return
	}
	fileHandler := files.NewHandler(deps.Gateway)

	filesGroup := router.Group("/files/" + deps.Config.StorageBucket)
	filesGroup.Use(deps.APIRateLimiter.Handler())
	{
		filesGroup.GET("/*key", fileHandler.Serve)
	}
}

func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies) {
	cfg := deps.Config
	timelineHandler := timelines.NewHandler(deps.Repositories)
	memoryHandler := memories.NewHandler(deps.Repositories)
	uploadHandler := uploads.NewHandler(deps.Gateway, cfg.UploadMaxBytes(), cfg.UploadAllowedTypes)

	apiGroup := router.Group("/api")
	apiGroup.Use(func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	})
	{
		v1 := apiGroup.Group("/v1")
		v1.Use(deps.APIRateLimiter.Handler())
		v1.Use(middleware.Credential(cfg.AuthJWTSecret))
		{
			timelinesGroup := v1.Group("/timelines")
			{
				timelinesGroup.GET("", timelineHandler.List)                  // GET /api/v1/timelines
				timelinesGroup.POST("", timelineHandler.Create)               // POST /api/v1/timelines
				timelinesGroup.GET("/count", timelineHandler.Count)           // GET /api/v1/timelines/count
				timelinesGroup.GET("/slug/:slug", timelineHandler.GetBySlug)  // GET /api/v1/timelines/slug/{slug}
				timelinesGroup.GET("/:id", timelineHandler.Get)               // GET /api/v1/timelines/{id}
				timelinesGroup.PATCH("/:id", timelineHandler.Update)          // PATCH /api/v1/timelines/{id}
				timelinesGroup.DELETE("/:id", timelineHandler.Delete)         // DELETE /api/v1/timelines/{id}
				timelinesGroup.GET("/:id/memories", timelineHandler.Memories) // GET /api/v1/timelines/{id}/memories
			}

			memoriesGroup := v1.Group("/memories")
			{
				memoriesGroup.POST("", memoryHandler.Create)
				memoriesGroup.GET("/:id", memoryHandler.Get)
				memoriesGroup.PATCH("/:id", memoryHandler.Update)
				memoriesGroup.DELETE("/:id", memoryHandler.Delete)
			}

			v1.POST("/uploads", uploadHandler.Upload) // POST /api/v1/uploads
		}
	}
}

func checkDatabaseHealth(ctx context.Context, provider database.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Ping(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkStorageHealth(ctx context.Context, provider storage.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
