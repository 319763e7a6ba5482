package handlers

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/internal/service"
	"github.com/jafarshop/cartsync/pkg/errors"
)

// CartResponse represents the cached cart
type CartResponse struct {
	ID             int64              `json:"id"`
	Items          []CartItemResponse `json:"items"`
	PromoCode      *PromoCodeResponse `json:"promo_code"`
	Subtotal       string             `json:"subtotal"`
	DiscountAmount string             `json:"discount_amount"`
	Total          string             `json:"total"`
}

type CartItemResponse struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	CanDecrease bool   `json:"can_decrease"`
}

type PromoCodeResponse struct {
	Code            string `json:"code"`
	DiscountPercent int    `json:"discount_percent"`
	ExpiresAt       string `json:"expires_at,omitempty"`
}

func toCartResponse(cart *domain.Cart) CartResponse {
	resp := CartResponse{
		ID:             cart.ID,
		Items:          make([]CartItemResponse, 0, len(cart.Items)),
		Subtotal:       cart.Subtotal.StringFixed(2),
		DiscountAmount: cart.DiscountAmount.StringFixed(2),
		Total:          cart.Total.StringFixed(2),
	}
	for _, item := range cart.Items {
		resp.Items = append(resp.Items, CartItemResponse{
			ID:          item.ID,
			Slug:        item.Product.Slug,
			Name:        item.Product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			CanDecrease: item.Quantity > 1,
		})
	}
	if cart.PromoCode != nil {
		promo := toPromoCodeResponse(*cart.PromoCode)
		resp.PromoCode = &promo
	}
	return resp
}

func toPromoCodeResponse(p domain.PromoCode) PromoCodeResponse {
	resp := PromoCodeResponse{
		Code:            p.Code,
		DiscountPercent: p.DiscountPercent,
	}
	if !p.ExpiresAt.IsZero() {
		resp.ExpiresAt = p.ExpiresAt.Format(time.RFC3339)
	}
	return resp
}

// writeCart answers with the cached cart, or 503 while it is unavailable
func writeCart(c *gin.Context, cart *service.CartService) {
	current, ok := cart.Cart()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cart unavailable"})
		return
	}
	c.JSON(http.StatusOK, toCartResponse(current))
}

// writeError maps a service error onto an HTTP answer. Messages from the
// backend are passed through as-is.
func writeError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	var (
		validation *errors.ErrValidation
		notFound   *errors.ErrNotFound
		transition *errors.ErrInvalidStateTransition
	)

	switch {
	case stderrors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.UserMessage(err, fallback)})
	case errors.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errors.UserMessage(err, "backend session required")})
	case stderrors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errors.UserMessage(err, fallback)})
	case stderrors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests),
		stderrors.Is(err, service.ErrSessionClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backend unavailable"})
	case errors.IsTransport(err):
		logger.Warn("Backend unreachable", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": fallback})
	default:
		logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": errors.UserMessage(err, fallback)})
	}
}
