package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/api/handlers"
	"github.com/jafarshop/cartsync/internal/api/middleware"
	"github.com/jafarshop/cartsync/internal/config"
	"github.com/jafarshop/cartsync/internal/repository"
	"github.com/jafarshop/cartsync/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, session *service.Session, repos *repository.Repositories, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.API.KeyHash, logger))
	{
		cart := v1.Group("/cart")
		{
			cart.GET("", handlers.HandleGetCart(session.Cart, logger))
			cart.DELETE("", handlers.HandleClearCart(session.Cart, logger))
			cart.POST("/items/:slug/add", handlers.HandleAddItem(session.Cart, logger))
			cart.POST("/items/:slug/decrease", handlers.HandleDecreaseItem(session.Cart, logger))
			cart.DELETE("/items/:slug", handlers.HandleRemoveItem(session.Cart, logger))
			cart.POST("/promo", handlers.HandleApplyPromo(session.Cart, logger))
			cart.DELETE("/promo", handlers.HandleRemovePromo(session.Cart, logger))
		}

		promo := v1.Group("/promo")
		{
			promo.GET("", handlers.HandleGetPromo(session.Promo))
			promo.POST("/refresh", handlers.HandleRefreshPromo(session.Promo, logger))
			promo.POST("/draw", handlers.HandleDraw(session.Promo, logger))
			promo.POST("/reveal", handlers.HandleReveal(session.Promo, logger))
		}

		v1.GET("/orders", handlers.HandleListOrders(session.Orders, logger))
		v1.POST("/orders", handlers.HandleCreateOrder(session.Orders, session.Profile, logger))

		v1.GET("/profile", handlers.HandleGetProfile(session.Profile, logger))
		v1.PATCH("/profile", handlers.HandleUpdateProfile(session.Profile, logger))

		v1.GET("/admin/events", handlers.HandleListEvents(repos.SessionEvent, logger))
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
	}
}
