package core

import (
	"net/http"
	"time"

	"github.com/anoixa/memlane/api/middleware"
	"github.com/anoixa/memlane/config"
	"github.com/anoixa/memlane/internal/app"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// setupRouter builds the engine and returns a cleanup for background tasks
func setupRouter(container *app.Container) (*gin.Engine, func()) {
	cfg := container.Config()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	_ = router.SetTrustedProxies(nil)
	router.MaxMultipartMemory = cfg.UploadMaxBytes()

	apiRateLimiter := middleware.NewRateLimiter(cfg.APIRateLimit())

	RegisterRoutes(router, &RouterDependencies{
		Config:         cfg,
		Repositories:   container,
		Database:       container.DatabaseProvider(),
		Storage:        container.StorageProvider(),
		Gateway:        container.Gateway(),
		APIRateLimiter: apiRateLimiter,
	})

	return router, apiRateLimiter.Stop
}

// StartServer creates the http.Server; the caller starts and stops it
func StartServer(container *app.Container) (*http.Server, func()) {
	cfg := container.Config()
	router, cleanup := setupRouter(container)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}
	return srv, cleanup
}
