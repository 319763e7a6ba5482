package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/api/middleware"
	"github.com/jafarshop/cartsync/internal/service"
)

// ApplyPromoRequest represents the apply promo payload
type ApplyPromoRequest struct {
	Code string `json:"code"`
}

// HandleGetCart handles GET /v1/cart
func HandleGetCart(cart *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("refresh") == "true" {
			if _, err := cart.Fetch(c.Request.Context()); err != nil {
				writeError(c, logger, err, "could not load cart")
				return
			}
		}
		writeCart(c, cart)
	}
}

// HandleAddItem handles POST /v1/cart/items/:slug/add
func HandleAddItem(cart *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := cart.AddItem(c.Request.Context(), c.Param("slug")); err != nil {
			writeError(c, logger, err, "could not add item")
			return
		}
		writeCart(c, cart)
	}
}

// HandleDecreaseItem handles POST /v1/cart/items/:slug/decrease
func HandleDecreaseItem(cart *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		current, ok := cart.Cart()
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cart unavailable"})
			return
		}
		item, found := current.Item(slug)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "item is not in the cart"})
			return
		}
		if item.Quantity <= 1 {
			c.JSON(http.StatusConflict, gin.H{"error": "quantity is already at its minimum, remove the item instead"})
			return
		}

		if err := cart.DecreaseItem(c.Request.Context(), slug); err != nil {
			writeError(c, logger, err, "could not decrease item")
			return
		}
		writeCart(c, cart)
	}
}

// HandleRemoveItem handles DELETE /v1/cart/items/:slug
func HandleRemoveItem(cart *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := cart.RemoveItem(c.Request.Context(), c.Param("slug")); err != nil {
			writeError(c, logger, err, "could not remove item")
			return
		}
		writeCart(c, cart)
	}
}

// HandleClearCart handles DELETE /v1/cart
func HandleClearCart(cart *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := cart.ClearCart(c.Request.Context()); err != nil {
			writeError(c, logger, err, "could not clear cart")
			return
		}
		writeCart(c, cart)
	}
}

// HandleApplyPromo handles POST /v1/cart/promo
func HandleApplyPromo(cart *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ApplyPromoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid request body",
				"details": err.Error(),
			})
			return
		}

		result := cart.ApplyPromo(c.Request.Context(), req.Code)
		if !result.Applied {
			logger.Info("Promo code rejected",
				zap.String("code", req.Code),
				zap.String("request_id", middleware.GetRequestID(c)),
				zap.Error(result.Err),
			)
			writeError(c, logger, result.Err, service.ApplyPromoFallback)
			return
		}
		writeCart(c, cart)
	}
}

// HandleRemovePromo handles DELETE /v1/cart/promo
func HandleRemovePromo(cart *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := cart.RemovePromo(c.Request.Context()); err != nil {
			writeError(c, logger, err, "could not remove promo code")
			return
		}
		writeCart(c, cart)
	}
}
